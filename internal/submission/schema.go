package submission

import "invoice-intake/internal/common/validation"

// Field names accepted from the form.
const (
	FieldName              = "name"
	FieldEmail             = "email"
	FieldDiscord           = "discord"
	FieldPhone             = "phone"
	FieldBrand             = "brand"
	FieldSubmissionType    = "submissionType"
	FieldVATRegistered     = "vatRegistered"
	FieldVATNumber         = "vatNumber"
	FieldInvoiceType       = "invoiceType"
	FieldPeriod            = "period"
	FieldSelectedTier      = "selectedTier"
	FieldFirstTimeRetainer = "firstTimeRetainer"
	FieldVideoCount        = "videoCount"
	FieldDeclaredGMV       = "declaredGmv"
	FieldRewardAmount      = "rewardAmount"
	FieldBankName          = "bankName"
	FieldAccountName       = "accountName"
	FieldAccountNumber     = "accountNumber"
	FieldSortCode          = "sortCode"
	FieldAddress           = "address"
	FieldAccounts          = "accounts"
	FieldInvoiceMethod     = "invoiceMethod"
)

const numberPattern = `^£?\s*-?[0-9][0-9,]*(\.[0-9]+)?$`

// InputSchema describes the flattened string fields after cleaning.
func InputSchema() validation.JSONSchema {
	text := validation.Property{Type: "string", MaxLength: validation.Int(2000)}
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			FieldName:              {Type: "string", MinLength: validation.Int(1), MaxLength: validation.Int(200)},
			FieldEmail:             text,
			FieldDiscord:           text,
			FieldPhone:             text,
			FieldBrand:             text,
			FieldSubmissionType:    {Type: "string", Enum: []string{string(Individual), string(Business)}},
			FieldVATRegistered:     {Type: "string", Enum: []string{"yes", "no"}},
			FieldVATNumber:         text,
			FieldInvoiceType:       {Type: "string", Enum: []string{string(Retainer), string(Rewards)}},
			FieldPeriod:            text,
			FieldSelectedTier:      text,
			FieldFirstTimeRetainer: {Type: "string", Enum: []string{"true", "false"}},
			FieldVideoCount:        {Type: "string", Pattern: `^[0-9]+$`},
			FieldDeclaredGMV:       {Type: "string", Pattern: numberPattern},
			FieldRewardAmount:      text,
			FieldBankName:          text,
			FieldAccountName:       text,
			FieldAccountNumber:     text,
			FieldSortCode:          text,
			FieldAddress:           text,
			FieldInvoiceMethod:     {Type: "string", Enum: []string{string(ModeGenerate), string(ModeUpload), string(ModeNone)}},
		},
		Required: []string{FieldName},
	}
}

var inputValidator = validation.MustValidator(InputSchema())
