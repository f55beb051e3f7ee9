package entity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "reload-gateway/internal/core/errors"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	StatusQueued     TransactionStatus = "QUEUED"
	StatusProcessing TransactionStatus = "PROCESSING"
	StatusSuccess    TransactionStatus = "SUCCESS"
	StatusFailed     TransactionStatus = "FAILED"
)

const (
	DefaultMaxAmount = 10000
	maxPromoCodeLen  = 20
	referencePrefix  = "TXN-"
)

var (
	ErrInvalidSubscriberNumber = fmt.Errorf("%w: subscriber number must match 09XXXXXXXXX", apperrors.ErrValidation)
	ErrInvalidPromoCode        = fmt.Errorf("%w: promo code must be 1-20 alphanumeric characters", apperrors.ErrValidation)
	ErrAmountMustBePositive    = fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrValidation)
	ErrAmountTooLarge          = fmt.Errorf("%w: amount exceeds the maximum allowed", apperrors.ErrValidation)
	ErrUnsupportedNetwork      = fmt.Errorf("%w: unsupported network", apperrors.ErrValidation)

	ErrInvalidTransition = errors.New("invalid transaction state transition")
)

var (
	subscriberNumberPattern = regexp.MustCompile(`^09\d{9}$`)
	promoCodePattern        = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

type Transaction struct {
	Reference        string
	SubscriberNumber string
	PromoCode        string
	Amount           int
	Network          NetworkID
	OriginSender     string
	Status           TransactionStatus
	RetryCount       int
	LastError        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ReloadInput struct {
	SubscriberNumber string
	PromoCode        string
	Amount           int
	Network          string
	OriginSender     string
}

// Rules carries the validation knobs that vary per deployment.
type Rules struct {
	Policy    *PrefixPolicy
	MaxAmount int
}

func DefaultRules() Rules {
	return Rules{Policy: DefaultPrefixPolicy(), MaxAmount: DefaultMaxAmount}
}

// NewTransaction validates input and returns a QUEUED transaction. An explicit
// network wins over the one inferred from the promo code.
func NewTransaction(in ReloadInput, rules Rules) (*Transaction, error) {
	if rules.Policy == nil {
		rules.Policy = DefaultPrefixPolicy()
	}
	if rules.MaxAmount <= 0 {
		rules.MaxAmount = DefaultMaxAmount
	}

	msisdn := strings.TrimSpace(in.SubscriberNumber)
	if !subscriberNumberPattern.MatchString(msisdn) {
		return nil, ErrInvalidSubscriberNumber
	}

	promo := strings.TrimSpace(in.PromoCode)
	if len(promo) > maxPromoCodeLen || !promoCodePattern.MatchString(promo) {
		return nil, ErrInvalidPromoCode
	}
	promo = strings.ToUpper(promo)

	if in.Amount <= 0 {
		return nil, ErrAmountMustBePositive
	}
	if in.Amount > rules.MaxAmount {
		return nil, ErrAmountTooLarge
	}

	network, ok := ParseNetwork(in.Network)
	if !ok {
		return nil, ErrUnsupportedNetwork
	}
	if network == NetworkUnknown {
		network = rules.Policy.Infer(promo)
	}

	now := time.Now().UTC()
	return &Transaction{
		Reference:        NewReference(),
		SubscriberNumber: msisdn,
		PromoCode:        promo,
		Amount:           in.Amount,
		Network:          network,
		OriginSender:     strings.TrimSpace(in.OriginSender),
		Status:           StatusQueued,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// NewReference carries the full 128 bits of a random UUID so references are
// never reused over the life of a deployment.
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return referencePrefix + strings.ToUpper(id)
}

func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}

func (t *Transaction) MarkProcessing() error {
	if t.Status != StatusQueued {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, StatusProcessing)
	}
	t.Status = StatusProcessing
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *Transaction) MarkSucceeded() error {
	if t.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, StatusSuccess)
	}
	t.Status = StatusSuccess
	t.LastError = ""
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkAttemptFailed counts a failed attempt. It reports true when the
// transaction went back to QUEUED and false when retryLimit attempts have been
// spent and it is now FAILED.
func (t *Transaction) MarkAttemptFailed(reason string, retryLimit int) (bool, error) {
	if t.Status != StatusProcessing {
		return false, fmt.Errorf("%w: %s -> attempt failed", ErrInvalidTransition, t.Status)
	}
	t.RetryCount++
	t.LastError = reason
	t.UpdatedAt = time.Now().UTC()
	if t.RetryCount < retryLimit {
		t.Status = StatusQueued
		return true, nil
	}
	t.Status = StatusFailed
	return false, nil
}

// Fail forces a PROCESSING or QUEUED transaction to FAILED without counting
// another attempt.
func (t *Transaction) Fail(reason string) error {
	if t.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, StatusFailed)
	}
	t.Status = StatusFailed
	t.LastError = reason
	t.UpdatedAt = time.Now().UTC()
	return nil
}
