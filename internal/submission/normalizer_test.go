package submission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-intake/internal/catalog"
	apperrors "invoice-intake/internal/common/errors"
)

var fixedNow = time.Date(2024, time.November, 15, 10, 30, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(catalog.Default(), WithClock(func() time.Time { return fixedNow }))
}

func createValidFields() map[string]interface{} {
	return map[string]interface{}{
		"name":           "Jane Creator",
		"email":          "jane@example.com",
		"discord":        "jane#0001",
		"brand":          "dr-dent",
		"submissionType": "individual",
		"invoiceType":    "retainer",
		"selectedTier":   "tier1",
		"period":         "November 2024",
		"invoiceMethod":  "generate",
	}
}

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	require.Error(t, err)
	return apperrors.CodeOf(err)
}

func TestNormalize_ValidRetainer(t *testing.T) {
	rec, err := newTestNormalizer().Normalize(Raw{Fields: createValidFields()})
	require.NoError(t, err)

	assert.Equal(t, "Jane Creator", rec.Name)
	assert.Equal(t, "dr-dent", rec.Brand.Key)
	assert.Equal(t, Individual, rec.SubmissionType)
	assert.Equal(t, Retainer, rec.InvoiceType)
	require.NotNil(t, rec.Tier)
	assert.Equal(t, "1st Tier", rec.Tier.Name)
	assert.Equal(t, ModeGenerate, rec.InvoiceMode)
	assert.Equal(t, "Jane Creator - Monthly Retainer - November 2024", rec.InvoiceTitle())
	assert.Equal(t, fixedNow, rec.ReceivedAt)
}

func TestNormalize_MissingName(t *testing.T) {
	for _, name := range []interface{}{nil, "", "   "} {
		fields := createValidFields()
		if name == nil {
			delete(fields, "name")
		} else {
			fields["name"] = name
		}

		_, err := newTestNormalizer().Normalize(Raw{Fields: fields})
		assert.Equal(t, apperrors.ErrCodeMissingField, codeOf(t, err))
	}
}

func TestNormalize_UnknownTier(t *testing.T) {
	fields := createValidFields()
	fields["selectedTier"] = "tier9"

	_, err := newTestNormalizer().Normalize(Raw{Fields: fields})
	assert.Equal(t, apperrors.ErrCodeUnknownTier, codeOf(t, err))
}

func TestNormalize_TierIsResolvedAgainstSelectedBrand(t *testing.T) {
	fields := createValidFields()
	fields["brand"] = "future-brand"
	fields["selectedTier"] = "tier0-1"

	_, err := newTestNormalizer().Normalize(Raw{Fields: fields})
	assert.Equal(t, apperrors.ErrCodeUnknownTier, codeOf(t, err))
}

func TestNormalize_RetainerWithoutTierIsAccepted(t *testing.T) {
	fields := createValidFields()
	delete(fields, "selectedTier")

	rec, err := newTestNormalizer().Normalize(Raw{Fields: fields})
	require.NoError(t, err)
	assert.Nil(t, rec.Tier)
	assert.Empty(t, rec.TierKey)
}

func TestNormalize_DefaultPeriod(t *testing.T) {
	fields := createValidFields()
	delete(fields, "period")

	rec, err := newTestNormalizer().Normalize(Raw{Fields: fields})
	require.NoError(t, err)
	assert.Equal(t, "November 2024", rec.Period)
}

func TestNormalize_UnknownBrandFallsBack(t *testing.T) {
	fields := createValidFields()
	fields["brand"] = "acme"

	rec, err := newTestNormalizer().Normalize(Raw{Fields: fields})
	require.NoError(t, err)
	assert.Equal(t, "dr-dent", rec.Brand.Key)
}

func TestNormalize_VATOnlyForBusiness(t *testing.T) {
	tests := []struct {
		name           string
		submissionType string
		wantRegistered string
		wantNumber     string
		wantApplicable bool
		wantStatus     string
	}{
		{"individual ignores vat", "individual", "", "", false, ""},
		{"business keeps vat", "business", "yes", "GB123", true, "VAT Registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := createValidFields()
			fields["submissionType"] = tt.submissionType
			fields["vatRegistered"] = "yes"
			fields["vatNumber"] = "GB123"

			rec, err := newTestNormalizer().Normalize(Raw{Fields: fields})
			require.NoError(t, err)
			assert.Equal(t, tt.wantRegistered, rec.VATRegistered)
			assert.Equal(t, tt.wantNumber, rec.VATNumber)
			assert.Equal(t, tt.wantApplicable, rec.IsVATApplicable())
			assert.Equal(t, tt.wantStatus, rec.VATStatus())
		})
	}
}

func TestNormalize_IndividualIgnoresInvalidVATFields(t *testing.T) {
	fields := createValidFields()
	fields["submissionType"] = "individual"
	fields["vatRegistered"] = "maybe"
	fields["vatNumber"] = "not-a-number"

	rec, err := newTestNormalizer().Normalize(Raw{Fields: fields})
	require.NoError(t, err)
	assert.Empty(t, rec.VATRegistered)
	assert.Empty(t, rec.VATNumber)
	assert.False(t, rec.IsVATApplicable())
}

func TestNormalize_BusinessRejectsInvalidVATRegistered(t *testing.T) {
	fields := createValidFields()
	fields["submissionType"] = "business"
	fields["vatRegistered"] = "maybe"

	_, err := newTestNormalizer().Normalize(Raw{Fields: fields})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidField, apperrors.CodeOf(err))
}

func TestNormalize_RewardAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  interface{}
		wantErr bool
	}{
		{"plain", "1000", false},
		{"decimal", "99.95", false},
		{"json number", 1000.0, false},
		{"pound prefix", "£1,250.50", false},
		{"negative", "-5", true},
		{"non numeric", "lots", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := createValidFields()
			fields["invoiceType"] = "rewards"
			fields["rewardAmount"] = tt.amount

			rec, err := newTestNormalizer().Normalize(Raw{Fields: fields})
			if tt.wantErr {
				assert.Equal(t, apperrors.ErrCodeInvalidRewardAmount, codeOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, rec.RewardAmount)
			assert.Nil(t, rec.Tier)
		})
	}
}

func TestNormalize_InvalidEnums(t *testing.T) {
	for field, value := range map[string]string{
		"submissionType": "company",
		"invoiceType":    "bonus",
		"invoiceMethod":  "email",
		"vatRegistered":  "maybe",
		"videoCount":     "ten",
	} {
		t.Run(field, func(t *testing.T) {
			fields := createValidFields()
			fields[field] = value

			_, err := newTestNormalizer().Normalize(Raw{Fields: fields})
			assert.Equal(t, apperrors.ErrCodeInvalidField, codeOf(t, err))
		})
	}
}

func TestNormalize_FirstTimeRetainer(t *testing.T) {
	fields := createValidFields()
	fields["firstTimeRetainer"] = "on"

	rec, err := newTestNormalizer().Normalize(Raw{Fields: fields})
	require.NoError(t, err)
	require.NotNil(t, rec.FirstTimeRetainer)
	assert.True(t, *rec.FirstTimeRetainer)

	delete(fields, "firstTimeRetainer")
	rec, err = newTestNormalizer().Normalize(Raw{Fields: fields})
	require.NoError(t, err)
	assert.Nil(t, rec.FirstTimeRetainer)
}

func TestNormalize_Accounts(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  []string
	}{
		{"decoded json", []interface{}{
			map[string]interface{}{"handle": "@jane", "screenshots": 2.0},
			map[string]interface{}{"handle": "@jane.shop"},
		}, []string{"@jane", "@jane.shop"}},
		{"json string", `[{"handle":"@a"},{"handle":"@b"}]`, []string{"@a", "@b"}},
		{"comma list", "@a, @b ,", []string{"@a", "@b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := createValidFields()
			fields["accounts"] = tt.value

			rec, err := newTestNormalizer().Normalize(Raw{Fields: fields})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Handles())
		})
	}
}

func TestNormalize_ClassifiesAttachments(t *testing.T) {
	attachments := []Attachment{
		{FieldName: "screenshots", Filename: "a.png", ContentType: "image/png", Data: []byte("a")},
		{FieldName: "invoiceFileInput", Filename: "inv.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		{FieldName: "screenshots", Filename: "b.jpg", ContentType: "image/jpeg", Data: []byte("b")},
		{FieldName: "screenshots", Filename: "c.png", ContentType: "image/png", Data: []byte("c")},
	}

	fields := createValidFields()
	fields["invoiceMethod"] = "upload"

	rec, err := newTestNormalizer().Normalize(Raw{Fields: fields, Attachments: attachments})
	require.NoError(t, err)

	require.NotNil(t, rec.InvoiceDocument)
	assert.Equal(t, "inv.pdf", rec.InvoiceDocument.Filename)
	require.Len(t, rec.Screenshots, 3)
	assert.Equal(t, "a.png", rec.Screenshots[0].Filename)
	assert.Equal(t, "b.jpg", rec.Screenshots[1].Filename)
	assert.Equal(t, "c.png", rec.Screenshots[2].Filename)
}

func TestNormalize_FirstPDFIsTheInvoice(t *testing.T) {
	attachments := []Attachment{
		{FieldName: "screenshots", Filename: "first.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1")},
		{FieldName: "screenshots", Filename: "second.pdf", ContentType: "application/pdf", Data: []byte("%PDF-2")},
	}

	rec, err := newTestNormalizer().Normalize(Raw{Fields: createValidFields(), Attachments: attachments})
	require.NoError(t, err)
	require.NotNil(t, rec.InvoiceDocument)
	assert.Equal(t, "first.pdf", rec.InvoiceDocument.Filename)
	require.Len(t, rec.Screenshots, 1)
	assert.Equal(t, "second.pdf", rec.Screenshots[0].Filename)
}

func TestNormalize_InvoiceFieldWithoutPDFContentType(t *testing.T) {
	attachments := []Attachment{
		{FieldName: "invoiceFileInput", Filename: "invoice.bin", ContentType: "application/octet-stream"},
	}

	rec, err := NewNormalizer(catalog.Default()).Normalize(Raw{Fields: createValidFields(), Attachments: attachments})
	require.NoError(t, err)
	require.NotNil(t, rec.InvoiceDocument)
	assert.Empty(t, rec.Screenshots)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	fields := createValidFields()
	fields["name"] = "  Jane  "

	rec, err := newTestNormalizer().Normalize(Raw{Fields: fields})
	require.NoError(t, err)
	assert.Equal(t, "Jane", rec.Name)
	assert.Equal(t, "  Jane  ", fields["name"])
}

func TestBankDetails_Display(t *testing.T) {
	tests := []struct {
		name string
		bank BankDetails
		want string
	}{
		{"all fields", BankDetails{"Monzo", "J Creator", "12345678", "04-00-04"},
			"Bank: Monzo, Account: J Creator, Number: 12345678, Sort: 04-00-04"},
		{"subset keeps order", BankDetails{AccountNumber: "12345678", BankName: "Monzo"},
			"Bank: Monzo, Number: 12345678"},
		{"empty", BankDetails{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bank.Display())
			assert.Equal(t, tt.want == "", tt.bank.IsEmpty())
		})
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" £1,000.50 ")
	require.NoError(t, err)
	assert.Equal(t, "1000.50", d.StringFixed(2))

	for _, bad := range []string{"", "-0.01", "abc", "£"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}
