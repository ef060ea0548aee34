package booking

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Field names a Request attribute by its JSON key.
type Field string

const (
	FieldName       Field = "name"
	FieldPhone      Field = "phone"
	FieldEmail      Field = "email"
	FieldProfession Field = "profession"
	FieldAge        Field = "age"
	FieldIncome     Field = "income"
	FieldDebt       Field = "debt"
	FieldDate       Field = "date"
	FieldTime       Field = "time"
)

// RequiredFields lists the mandatory fields in validation order. Debt is optional.
var RequiredFields = []Field{
	FieldName,
	FieldPhone,
	FieldEmail,
	FieldProfession,
	FieldAge,
	FieldIncome,
	FieldDate,
	FieldTime,
}

// Request is a prospective client's booking submission. It only lives for the
// duration of one submission.
type Request struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Profession string `json:"profession"`
	Age        string `json:"age"`
	Income     string `json:"income"`
	Debt       string `json:"debt,omitempty"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// Value returns the value held for field, or "" for an unknown field.
func (r *Request) Value(field Field) string {
	switch field {
	case FieldName:
		return r.Name
	case FieldPhone:
		return r.Phone
	case FieldEmail:
		return r.Email
	case FieldProfession:
		return r.Profession
	case FieldAge:
		return r.Age
	case FieldIncome:
		return r.Income
	case FieldDebt:
		return r.Debt
	case FieldDate:
		return r.Date
	case FieldTime:
		return r.Time
	}
	return ""
}

// Set assigns value to field. It returns false for an unknown field.
func (r *Request) Set(field Field, value string) bool {
	switch field {
	case FieldName:
		r.Name = value
	case FieldPhone:
		r.Phone = value
	case FieldEmail:
		r.Email = value
	case FieldProfession:
		r.Profession = value
	case FieldAge:
		r.Age = value
	case FieldIncome:
		r.Income = value
	case FieldDebt:
		r.Debt = value
	case FieldDate:
		r.Date = value
	case FieldTime:
		r.Time = value
	default:
		return false
	}
	return true
}

// Validate checks required fields in order and stops at the first empty one.
func (r *Request) Validate() error {
	for _, field := range RequiredFields {
		if r.Value(field) == "" {
			return &MissingFieldError{Field: field}
		}
	}
	return nil
}

// HasDebt reports whether the optional debt note was filled in.
func (r *Request) HasDebt() bool {
	return r.Debt != ""
}

// Fingerprint identifies a submission by its normalized content.
func (r *Request) Fingerprint() string {
	parts := make([]string, 0, len(RequiredFields)+1)
	for _, field := range append(RequiredFields, FieldDebt) {
		parts = append(parts, strings.ToLower(strings.TrimSpace(r.Value(field))))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Bracket is one selectable option of an enumerated field.
type Bracket struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AgeBrackets are the age ranges offered by the form.
var AgeBrackets = []Bracket{
	{Value: "25-35", Label: "25-35 years"},
	{Value: "35-45", Label: "35-45 years"},
	{Value: "45-55", Label: "45-55 years"},
}

// IncomeBrackets are the household income ranges offered by the form.
var IncomeBrackets = []Bracket{
	{Value: "30-50k", Label: "€30,000 - €50,000"},
	{Value: "50-80k", Label: "€50,000 - €80,000"},
	{Value: "80-120k", Label: "€80,000 - €120,000"},
	{Value: "120k+", Label: "Over €120,000"},
}

// IsBracket reports whether value is one of the given options.
func IsBracket(options []Bracket, value string) bool {
	for _, b := range options {
		if b.Value == value {
			return true
		}
	}
	return false
}
