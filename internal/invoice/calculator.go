// Package invoice computes invoice amounts and renders the invoice document.
package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "invoice-intake/internal/common/errors"
	"invoice-intake/internal/submission"
)

// VATRate is the fixed UK standard rate applied to VAT-registered businesses.
var VATRate = decimal.RequireFromString("0.20")

// Computation is the derived, per-request invoice arithmetic.
type Computation struct {
	Net           decimal.Decimal
	VATApplicable bool
	VATRate       decimal.Decimal
	VAT           decimal.Decimal
	Total         decimal.Decimal
	// Number is "<BRAND-KEY>-<unix millis>". Two requests for the same brand in
	// the same millisecond receive the same number.
	Number    string
	IssueDate time.Time
}

// Filename is the stored name of a generated invoice.
func (c *Computation) Filename() string {
	return "invoice-" + c.Number + ".pdf"
}

type Calculator struct {
	now func() time.Time
}

func NewCalculator(now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{now: now}
}

// Compute derives net, VAT and total. It returns a NOT_COMPUTABLE error when the
// record carries no amount (retainer without tier, rewards without amount) and
// INVALID_REWARD_AMOUNT when the reward amount is negative or not a number.
func (c *Calculator) Compute(rec *submission.Record) (*Computation, error) {
	net, err := netAmount(rec)
	if err != nil {
		return nil, err
	}

	comp := &Computation{
		Net:           net,
		VATApplicable: rec.IsVATApplicable(),
		VATRate:       decimal.Zero,
		VAT:           decimal.Zero,
		Total:         net,
	}
	if comp.VATApplicable {
		comp.VATRate = VATRate
		comp.VAT = net.Mul(VATRate).Round(2)
		comp.Total = net.Add(comp.VAT)
	}

	issued := c.now()
	comp.IssueDate = issued
	comp.Number = fmt.Sprintf("%s-%d", rec.Brand.Code(), issued.UnixMilli())
	return comp, nil
}

func netAmount(rec *submission.Record) (decimal.Decimal, error) {
	switch rec.InvoiceType {
	case submission.Retainer:
		if rec.Tier == nil {
			return decimal.Zero, apperrors.NewNotComputableError("retainer submission has no tier")
		}
		return rec.Tier.Fee, nil
	case submission.Rewards:
		if rec.RewardAmount == "" {
			return decimal.Zero, apperrors.NewNotComputableError("rewards submission has no reward amount")
		}
		return submission.ParseAmount(rec.RewardAmount)
	}
	return decimal.Zero, apperrors.NewNotComputableError(fmt.Sprintf("unknown invoice type %q", rec.InvoiceType))
}

// IsNotComputable reports whether err means "no amount, skip generation".
func IsNotComputable(err error) bool {
	return apperrors.CodeOf(err) == apperrors.ErrCodeNotComputable
}

// FormatGBP renders an amount as "£1,234.50".
func FormatGBP(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-3:]

	neg := false
	if len(intPart) > 0 && intPart[0] == '-' {
		neg, intPart = true, intPart[1:]
	}

	var out []byte
	for i, ch := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}

	s := "£" + string(out) + frac
	if neg {
		s = "-" + s
	}
	return s
}
