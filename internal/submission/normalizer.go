package submission

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"invoice-intake/internal/catalog"
	apperrors "invoice-intake/internal/common/errors"
)

// DefaultInvoiceField is the multipart field reserved for a submitter-provided invoice.
const DefaultInvoiceField = "invoiceFileInput"

// Normalizer turns a raw submission into a Record. It performs no I/O.
type Normalizer struct {
	catalog      *catalog.Catalog
	invoiceField string
	now          func() time.Time
}

type Option func(*Normalizer)

// WithClock overrides the clock used for the default period and ReceivedAt.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithInvoiceField overrides the reserved invoice file field name.
func WithInvoiceField(name string) Option {
	return func(n *Normalizer) {
		if name != "" {
			n.invoiceField = name
		}
	}
}

func NewNormalizer(cat *catalog.Catalog, opts ...Option) *Normalizer {
	n := &Normalizer{
		catalog:      cat,
		invoiceField: DefaultInvoiceField,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize validates raw and builds the canonical record.
func (n *Normalizer) Normalize(raw Raw) (*Record, error) {
	fields, accounts, err := flatten(raw.Fields)
	if err != nil {
		return nil, err
	}

	if fields[FieldName] == "" {
		return nil, apperrors.NewMissingFieldError(FieldName)
	}

	// VAT details only apply to business submissions.
	if fields[FieldSubmissionType] != string(Business) {
		delete(fields, FieldVATRegistered)
		delete(fields, FieldVATNumber)
	}

	if err := validateFields(fields); err != nil {
		return nil, err
	}

	now := n.now()
	rec := &Record{
		Brand:          n.catalog.Lookup(fields[FieldBrand]),
		Name:           fields[FieldName],
		Email:          fields[FieldEmail],
		Discord:        fields[FieldDiscord],
		Phone:          fields[FieldPhone],
		SubmissionType: Individual,
		InvoiceType:    Rewards,
		Period:         fields[FieldPeriod],
		Bank: BankDetails{
			BankName:      fields[FieldBankName],
			AccountName:   fields[FieldAccountName],
			AccountNumber: fields[FieldAccountNumber],
			SortCode:      fields[FieldSortCode],
		},
		Address:     fields[FieldAddress],
		DeclaredGMV: fields[FieldDeclaredGMV],
		VideoCount:  fields[FieldVideoCount],
		Accounts:    accounts,
		InvoiceMode: ModeNone,
		ReceivedAt:  now,
	}

	if v := fields[FieldSubmissionType]; v != "" {
		rec.SubmissionType = SubmissionType(v)
	}
	if rec.SubmissionType == Business {
		rec.VATRegistered = fields[FieldVATRegistered]
		rec.VATNumber = fields[FieldVATNumber]
	}

	if v := fields[FieldInvoiceType]; v != "" {
		rec.InvoiceType = InvoiceType(v)
	}
	if rec.Period == "" {
		rec.Period = now.Format("January 2006")
	}

	switch rec.InvoiceType {
	case Retainer:
		if v, ok := fields[FieldFirstTimeRetainer]; ok {
			b := v == "true"
			rec.FirstTimeRetainer = &b
		}
		if key := fields[FieldSelectedTier]; key != "" {
			tier, ok := rec.Brand.Tier(key)
			if !ok {
				return nil, apperrors.NewUnknownTierError(rec.Brand.Key, key)
			}
			rec.TierKey = key
			rec.Tier = &tier
		}
	case Rewards:
		if v := fields[FieldRewardAmount]; v != "" {
			if _, err := ParseAmount(v); err != nil {
				return nil, err
			}
			rec.RewardAmount = v
		}
	}

	if rec.DeclaredGMV != "" {
		if _, err := ParseAmount(rec.DeclaredGMV); err != nil {
			return nil, apperrors.NewInvalidFieldError(FieldDeclaredGMV, "must be a non-negative amount")
		}
	}

	if v := fields[FieldInvoiceMethod]; v != "" {
		rec.InvoiceMode = InvoiceMode(v)
	}

	n.classifyAttachments(rec, raw.Attachments)
	return rec, nil
}

// classifyAttachments picks the first PDF or reserved-field part as the invoice
// document; every other part is a screenshot, in submitted order.
func (n *Normalizer) classifyAttachments(rec *Record, attachments []Attachment) {
	for i := range attachments {
		a := attachments[i]
		if rec.InvoiceDocument == nil && (a.IsPDF() || a.FieldName == n.invoiceField) {
			rec.InvoiceDocument = &a
			continue
		}
		rec.Screenshots = append(rec.Screenshots, a)
	}
}

func validateFields(fields map[string]string) error {
	doc := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		doc[k] = v
	}

	result, err := inputValidator.Validate(doc)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !result.Valid {
		first := result.Errors[0]
		return apperrors.NewInvalidFieldError(first.Field, first.Message)
	}
	return nil
}

// flatten converts decoded JSON or form values to trimmed strings, dropping blanks.
func flatten(in map[string]interface{}) (map[string]string, []SocialAccount, error) {
	out := make(map[string]string, len(in))
	var accounts []SocialAccount

	for key, value := range in {
		if key == FieldAccounts {
			parsed, err := parseAccounts(value)
			if err != nil {
				return nil, nil, apperrors.NewInvalidFieldError(FieldAccounts, err.Error())
			}
			accounts = parsed
			continue
		}

		s, ok := scalarString(value)
		if !ok {
			return nil, nil, apperrors.NewInvalidFieldError(key, "must be a single value")
		}
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if key == FieldFirstTimeRetainer {
			s = normalizeBool(s)
		}
		out[key] = s
	}
	return out, accounts, nil
}

func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case []string:
		if len(t) == 0 {
			return "", true
		}
		return t[0], true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func normalizeBool(s string) string {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return "true"
	case "false", "no", "off", "0":
		return "false"
	}
	return s
}

// parseAccounts accepts a decoded JSON array, a JSON string, or a comma-separated list of handles.
func parseAccounts(v interface{}) ([]SocialAccount, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, nil
		}
		if strings.HasPrefix(t, "[") {
			var decoded []interface{}
			if err := json.Unmarshal([]byte(t), &decoded); err != nil {
				return nil, fmt.Errorf("invalid accounts JSON: %w", err)
			}
			return parseAccounts(decoded)
		}
		var out []SocialAccount
		for _, h := range strings.Split(t, ",") {
			if h = strings.TrimSpace(h); h != "" {
				out = append(out, SocialAccount{Handle: h})
			}
		}
		return out, nil
	case []interface{}:
		out := make([]SocialAccount, 0, len(t))
		for _, item := range t {
			switch acc := item.(type) {
			case string:
				if h := strings.TrimSpace(acc); h != "" {
					out = append(out, SocialAccount{Handle: h})
				}
			case map[string]interface{}:
				handle, _ := scalarString(acc["handle"])
				count, _ := scalarString(acc["screenshots"])
				n, _ := strconv.Atoi(count)
				if h := strings.TrimSpace(handle); h != "" {
					out = append(out, SocialAccount{Handle: h, Screenshots: n})
				}
			default:
				return nil, fmt.Errorf("unsupported account entry %T", item)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported accounts value %T", v)
}
