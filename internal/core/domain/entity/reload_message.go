package entity

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "reload-gateway/internal/core/errors"
)

var (
	ErrMalformedMessage   = fmt.Errorf("%w: expected format MSISDN PROMO AMOUNT", apperrors.ErrValidation)
	ErrAmountNotNumeric   = fmt.Errorf("%w: amount must be a whole number", apperrors.ErrValidation)
	ErrEmptyReloadMessage = fmt.Errorf("%w: message is empty", apperrors.ErrValidation)
)

// ParseReload turns a free-text reload request such as
// "09171234567 GIGA99 99" into a QUEUED transaction.
func ParseReload(text, sender string, rules Rules) (*Transaction, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, ErrEmptyReloadMessage
	}
	if len(fields) != 3 {
		return nil, ErrMalformedMessage
	}

	amount, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, ErrAmountNotNumeric
	}

	return NewTransaction(ReloadInput{
		SubscriberNumber: fields[0],
		PromoCode:        fields[1],
		Amount:           amount,
		OriginSender:     sender,
	}, rules)
}
