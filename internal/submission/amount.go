package submission

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "invoice-intake/internal/common/errors"
)

// ParseAmount parses a non-negative currency amount. A leading "£" and thousands
// separators are accepted; anything else non-numeric is rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "£")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	d, err := decimal.NewFromString(cleaned)
	if err != nil || cleaned == "" {
		return decimal.Zero, apperrors.NewInvalidRewardAmountError(raw)
	}
	if d.IsNegative() {
		return decimal.Zero, apperrors.NewInvalidRewardAmountError(raw)
	}
	return d, nil
}
