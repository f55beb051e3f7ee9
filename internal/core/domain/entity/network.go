package entity

import (
	"fmt"
	"sort"
	"strings"
)

type NetworkID string

const (
	NetworkSmart   NetworkID = "SMART"
	NetworkGlobe   NetworkID = "GLOBE"
	NetworkUnknown NetworkID = "UNKNOWN"
)

// ParseNetwork accepts a network name in any case. Empty input maps to
// NetworkUnknown.
func ParseNetwork(s string) (NetworkID, bool) {
	switch NetworkID(strings.ToUpper(strings.TrimSpace(s))) {
	case NetworkSmart:
		return NetworkSmart, true
	case NetworkGlobe:
		return NetworkGlobe, true
	case NetworkUnknown, "":
		return NetworkUnknown, true
	}
	return NetworkUnknown, false
}

type PrefixRule struct {
	Prefix  string
	Network NetworkID
}

// PrefixPolicy infers the network of a promo code from its prefix. Rules are
// matched longest prefix first, so "GO" wins over "G" for GOSURF50.
type PrefixPolicy struct {
	rules []PrefixRule
}

func NewPrefixPolicy(rules ...PrefixRule) *PrefixPolicy {
	sorted := make([]PrefixRule, 0, len(rules))
	for _, r := range rules {
		if r.Prefix == "" {
			continue
		}
		sorted = append(sorted, PrefixRule{Prefix: strings.ToUpper(r.Prefix), Network: r.Network})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &PrefixPolicy{rules: sorted}
}

func DefaultPrefixPolicy() *PrefixPolicy {
	return NewPrefixPolicy(
		PrefixRule{Prefix: "GO", Network: NetworkGlobe},
		PrefixRule{Prefix: "ALL", Network: NetworkGlobe},
		PrefixRule{Prefix: "G", Network: NetworkSmart},
	)
}

// ParsePrefixRules reads rules written as "GO=GLOBE,ALL=GLOBE,G=SMART".
func ParsePrefixRules(spec string) (*PrefixPolicy, error) {
	var rules []PrefixRule
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prefix, network, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(prefix) == "" {
			return nil, fmt.Errorf("prefix rule %q: expected PREFIX=NETWORK", part)
		}
		id, known := ParseNetwork(network)
		if !known || id == NetworkUnknown {
			return nil, fmt.Errorf("prefix rule %q: unsupported network %q", part, network)
		}
		rules = append(rules, PrefixRule{Prefix: strings.TrimSpace(prefix), Network: id})
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no prefix rules in %q", spec)
	}
	return NewPrefixPolicy(rules...), nil
}

func (p *PrefixPolicy) Infer(promoCode string) NetworkID {
	code := strings.ToUpper(promoCode)
	for _, r := range p.rules {
		if strings.HasPrefix(code, r.Prefix) {
			return r.Network
		}
	}
	return NetworkUnknown
}
