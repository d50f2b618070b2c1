package submission

import (
	"strings"
	"time"

	"invoice-intake/internal/catalog"
)

type SubmissionType string

const (
	Individual SubmissionType = "individual"
	Business   SubmissionType = "business"
)

// Label is the display form used by the spreadsheet and record store.
func (s SubmissionType) Label() string {
	if s == Business {
		return "Business"
	}
	return "Individual"
}

type InvoiceType string

const (
	Retainer InvoiceType = "retainer"
	Rewards  InvoiceType = "rewards"
)

// Label is "Monthly Retainer" or "Rewards".
func (t InvoiceType) Label() string {
	if t == Retainer {
		return "Monthly Retainer"
	}
	return "Rewards"
}

// FolderName is the plural folder used to group uploads by invoice type.
func (t InvoiceType) FolderName() string {
	if t == Retainer {
		return "Retainers"
	}
	return "Rewards"
}

// ShortLabel is used in spreadsheet and file names.
func (t InvoiceType) ShortLabel() string {
	if t == Retainer {
		return "Retainer"
	}
	return "Rewards"
}

type InvoiceMode string

const (
	ModeGenerate InvoiceMode = "generate"
	ModeUpload   InvoiceMode = "upload"
	ModeNone     InvoiceMode = "none"
)

// Attachment is one uploaded file part.
type Attachment struct {
	FieldName   string
	Filename    string
	ContentType string
	Data        []byte
}

func (a Attachment) IsPDF() bool {
	ct := strings.ToLower(a.ContentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct) == "application/pdf"
}

// SocialAccount is a creator handle and how many screenshots were attached for it.
type SocialAccount struct {
	Handle      string `json:"handle"`
	Screenshots int    `json:"screenshots,omitempty"`
}

type BankDetails struct {
	BankName      string
	AccountName   string
	AccountNumber string
	SortCode      string
}

// Display joins the present fields as "Bank: x, Account: y, Number: z, Sort: w".
func (b BankDetails) Display() string {
	var parts []string
	for _, p := range []struct{ label, value string }{
		{"Bank", b.BankName},
		{"Account", b.AccountName},
		{"Number", b.AccountNumber},
		{"Sort", b.SortCode},
	} {
		if p.value != "" {
			parts = append(parts, p.label+": "+p.value)
		}
	}
	return strings.Join(parts, ", ")
}

func (b BankDetails) IsEmpty() bool {
	return b.BankName == "" && b.AccountName == "" && b.AccountNumber == "" && b.SortCode == ""
}

// Raw is the parsed request before normalization.
type Raw struct {
	Fields      map[string]interface{}
	Attachments []Attachment
}

// Record is the canonical submission every later stage consumes.
type Record struct {
	Brand catalog.BrandConfig

	Name    string
	Email   string
	Discord string
	Phone   string

	SubmissionType SubmissionType
	// VATRegistered and VATNumber are only populated for business submissions.
	VATRegistered string
	VATNumber     string

	InvoiceType InvoiceType
	Period      string

	TierKey           string
	Tier              *catalog.TierDefinition
	FirstTimeRetainer *bool
	VideoCount        string

	DeclaredGMV  string
	RewardAmount string

	Bank     BankDetails
	Address  string
	Accounts []SocialAccount

	InvoiceMode     InvoiceMode
	InvoiceDocument *Attachment
	Screenshots     []Attachment

	ReceivedAt time.Time
}

// IsVATApplicable is true only for VAT-registered businesses.
func (r *Record) IsVATApplicable() bool {
	return r.SubmissionType == Business && r.VATRegistered == "yes"
}

// VATStatus is the record-store label, empty for individuals and for
// businesses that did not answer the registration question.
func (r *Record) VATStatus() string {
	if r.SubmissionType != Business || r.VATRegistered == "" {
		return ""
	}
	if r.VATRegistered == "yes" {
		return "VAT Registered"
	}
	return "Not VAT Registered"
}

// Handles returns the social handles in submitted order.
func (r *Record) Handles() []string {
	out := make([]string, 0, len(r.Accounts))
	for _, a := range r.Accounts {
		if a.Handle != "" {
			out = append(out, a.Handle)
		}
	}
	return out
}

// InvoiceTitle is the record title: "<name> - <Monthly Retainer|Rewards> - <period>".
func (r *Record) InvoiceTitle() string {
	return r.Name + " - " + r.InvoiceType.Label() + " - " + r.Period
}
