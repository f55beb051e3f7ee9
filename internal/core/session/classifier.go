package session

import "strings"

type Verdict int

const (
	VerdictAmbiguous Verdict = iota
	VerdictSuccess
	VerdictFailure
)

func (v Verdict) String() string {
	switch v {
	case VerdictSuccess:
		return "success"
	case VerdictFailure:
		return "failure"
	default:
		return "ambiguous"
	}
}

var (
	DefaultSuccessWords = []string{"success", "completed", "done"}
	DefaultFailureWords = []string{"insufficient", "failed", "error", "invalid"}
)

// Classifier maps terminal menu text to a verdict by case-insensitive
// substring match. Success words are checked first.
type Classifier struct {
	success []string
	failure []string
}

func NewClassifier(success, failure []string) *Classifier {
	if len(success) == 0 {
		success = DefaultSuccessWords
	}
	if len(failure) == 0 {
		failure = DefaultFailureWords
	}
	return &Classifier{success: lower(success), failure: lower(failure)}
}

func (c *Classifier) Classify(text string) Verdict {
	t := strings.ToLower(text)
	if t == "" {
		return VerdictAmbiguous
	}
	for _, w := range c.success {
		if strings.Contains(t, w) {
			return VerdictSuccess
		}
	}
	for _, w := range c.failure {
		if strings.Contains(t, w) {
			return VerdictFailure
		}
	}
	return VerdictAmbiguous
}

func lower(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
