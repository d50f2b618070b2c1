package invoice

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-intake/internal/submission"
)

func render(t *testing.T, rec *submission.Record) []byte {
	t.Helper()
	comp, err := NewCalculator(fixedClock).Compute(rec)
	require.NoError(t, err)

	out, err := NewRenderer(WithCompression(false)).Render(rec, comp)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	return out
}

func TestRender_VATRegisteredBusiness(t *testing.T) {
	rec := rewardsRecord("1000", "yes")
	rec.Bank = submission.BankDetails{AccountName: "Biz Ltd", AccountNumber: "12345678", SortCode: "04-00-04"}

	out := render(t, rec)

	for _, want := range []string{
		"INVOICE",
		"BILLED TO:",
		"Galactic Brands LTD",
		"FROM:",
		"Biz Ltd",
		"October rewards",
		"SUBTOTAL",
		"VAT \\(20%\\)",
		"TOTAL DUE",
		"1,200.00",
		"PAYMENT INFORMATION:",
		"Account Number: 12345678",
		"Sort Code: 04-00-04",
		"VAT Number: GB123",
	} {
		assert.True(t, bytes.Contains(out, []byte(want)), "missing %q", want)
	}
	assert.False(t, bytes.Contains(out, []byte(notVATRegisteredNote)))
}

func TestRender_IndividualRetainer(t *testing.T) {
	out := render(t, retainerRecord(t, submission.Individual, ""))

	assert.True(t, bytes.Contains(out, []byte("Monthly retainer for Dr Dent - November 2024")))
	assert.True(t, bytes.Contains(out, []byte("450.00")))
	assert.True(t, bytes.Contains(out, []byte(notVATRegisteredNote)))
	assert.False(t, bytes.Contains(out, []byte("VAT \\(20%\\)")))
	assert.False(t, bytes.Contains(out, []byte("VAT Number:")))
}

func TestRender_ToleratesMissingOptionalFields(t *testing.T) {
	rec := retainerRecord(t, submission.Business, "yes")
	rec.Address = ""
	rec.VATNumber = ""
	rec.Bank = submission.BankDetails{}
	rec.Brand.Colors.Primary = "not-a-colour"

	out := render(t, rec)
	assert.True(t, bytes.Contains(out, []byte("VAT Number: Not provided")))
}

func TestRender_MultiLineAddressAndUnicode(t *testing.T) {
	rec := retainerRecord(t, submission.Individual, "")
	rec.Name = "Zoë Créateur"
	rec.Address = "1 High Street\r\nLondon\n\nE1 1AA"

	out := render(t, rec)
	assert.True(t, bytes.Contains(out, []byte("1 High Street")))
	assert.True(t, bytes.Contains(out, []byte("E1 1AA")))
}

func TestTaskLine(t *testing.T) {
	assert.Equal(t, "Monthly retainer for Dr Dent - November 2024", TaskLine(retainerRecord(t, submission.Individual, "")))
	assert.Equal(t, "October rewards", TaskLine(rewardsRecord("10", "no")))
}

func TestHexColor(t *testing.T) {
	r, g, b := hexColor("#ef4444")
	assert.Equal(t, []int{239, 68, 68}, []int{r, g, b})

	r, g, b = hexColor("bad")
	assert.Equal(t, []int{30, 41, 59}, []int{r, g, b})
}
