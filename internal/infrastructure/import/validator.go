package csvimport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeEmail   FieldType = "email"
	TypeURL     FieldType = "url"
	TypeBool    FieldType = "bool"
	TypeUUID    FieldType = "uuid"
	TypeEnum    FieldType = "enum"
	TypeList    FieldType = "list"
)

// FieldRule defines validation rules for a field
type FieldRule struct {
	Field       string
	Type        FieldType
	Required    bool
	MinLength   int
	MaxLength   int
	MinValue    *decimal.Decimal
	MaxValue    *decimal.Decimal
	Pattern     *regexp.Regexp
	PatternDesc string
	DateFormat  string
	Options     []string
	Separators  string
	Example     string
	CustomFunc  func(value string) error
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(name string) *FieldRuleBuilder {
	return &FieldRuleBuilder{
		rule: FieldRule{
			Field:      name,
			Type:       TypeString,
			DateFormat: "2006-01-02", // Default date format
			Separators: ";,",
		},
	}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// String sets the field type to string
func (b *FieldRuleBuilder) String() *FieldRuleBuilder {
	b.rule.Type = TypeString
	return b
}

// Int sets the field type to integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal sets the field type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Date sets the field type to date
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder {
	b.rule.Type = TypeDate
	return b
}

// DateFormat sets the expected date format
func (b *FieldRuleBuilder) DateFormat(format string) *FieldRuleBuilder {
	b.rule.DateFormat = format
	return b
}

// Email sets the field type to email
func (b *FieldRuleBuilder) Email() *FieldRuleBuilder {
	b.rule.Type = TypeEmail
	return b
}

// URL sets the field type to an http(s) URL
func (b *FieldRuleBuilder) URL() *FieldRuleBuilder {
	b.rule.Type = TypeURL
	return b
}

// Bool sets the field type to boolean
func (b *FieldRuleBuilder) Bool() *FieldRuleBuilder {
	b.rule.Type = TypeBool
	return b
}

// UUID sets the field type to UUID
func (b *FieldRuleBuilder) UUID() *FieldRuleBuilder {
	b.rule.Type = TypeUUID
	return b
}

// Enum restricts the field to the given options (case-insensitive)
func (b *FieldRuleBuilder) Enum(options ...string) *FieldRuleBuilder {
	b.rule.Type = TypeEnum
	b.rule.Options = options
	return b
}

// List sets the field type to a list split on any of the separator characters
func (b *FieldRuleBuilder) List(separators string) *FieldRuleBuilder {
	b.rule.Type = TypeList
	b.rule.Separators = separators
	return b
}

// MinLength sets the minimum length
func (b *FieldRuleBuilder) MinLength(n int) *FieldRuleBuilder {
	b.rule.MinLength = n
	return b
}

// MaxLength sets the maximum length
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Length sets both min and max length
func (b *FieldRuleBuilder) Length(min, max int) *FieldRuleBuilder {
	b.rule.MinLength = min
	b.rule.MaxLength = max
	return b
}

// MinValue sets the minimum numeric value
func (b *FieldRuleBuilder) MinValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

// MaxValue sets the maximum numeric value
func (b *FieldRuleBuilder) MaxValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MaxValue = &v
	return b
}

// Range sets both min and max values
func (b *FieldRuleBuilder) Range(min, max decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &min
	b.rule.MaxValue = &max
	return b
}

// Pattern sets a regex pattern for validation
func (b *FieldRuleBuilder) Pattern(pattern, description string) *FieldRuleBuilder {
	b.rule.Pattern = regexp.MustCompile(pattern)
	b.rule.PatternDesc = description
	return b
}

// Example sets the sample value used in import templates
func (b *FieldRuleBuilder) Example(value string) *FieldRuleBuilder {
	b.rule.Example = value
	return b
}

// Custom sets a custom validation function
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Values holds the typed values of a validated record keyed by field
type Values map[string]any

// String returns a string field, or nil when absent
func (v Values) String(field string) *string {
	if s, ok := v[field].(string); ok {
		return &s
	}
	return nil
}

// Int returns an integer field, or nil when absent
func (v Values) Int(field string) *int {
	if n, ok := v[field].(int); ok {
		return &n
	}
	return nil
}

// Decimal returns a decimal field, or nil when absent
func (v Values) Decimal(field string) *decimal.Decimal {
	if d, ok := v[field].(decimal.Decimal); ok {
		return &d
	}
	return nil
}

// Date returns a date field, or nil when absent
func (v Values) Date(field string) *time.Time {
	if t, ok := v[field].(time.Time); ok {
		return &t
	}
	return nil
}

// Bool returns a boolean field, or nil when absent
func (v Values) Bool(field string) *bool {
	if b, ok := v[field].(bool); ok {
		return &b
	}
	return nil
}

// UUID returns a UUID field, or nil when absent
func (v Values) UUID(field string) *uuid.UUID {
	if id, ok := v[field].(uuid.UUID); ok {
		return &id
	}
	return nil
}

// List returns a list field, or nil when absent
func (v Values) List(field string) []string {
	if items, ok := v[field].([]string); ok {
		return items
	}
	return nil
}

// FieldValidator validates and coerces records according to rules
type FieldValidator struct {
	rules    []FieldRule
	index    map[string]int
	validate *validator.Validate
}

// NewFieldValidator creates a new field validator; rules are checked in the given order
func NewFieldValidator(rules []FieldRule) *FieldValidator {
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.Field] = i
	}

	return &FieldValidator{
		rules:    rules,
		index:    index,
		validate: validator.New(),
	}
}

// Rules returns the rules in declaration order
func (v *FieldValidator) Rules() []FieldRule {
	return v.rules
}

// HasField checks if a rule exists for the field
func (v *FieldValidator) HasField(field string) bool {
	_, ok := v.index[field]
	return ok
}

// Fields returns the field names in declaration order
func (v *FieldValidator) Fields() []string {
	fields := make([]string, len(v.rules))
	for i, r := range v.rules {
		fields[i] = r.Field
	}
	return fields
}

// Validate checks the present fields of a record and coerces them to typed values.
// Fields without a rule are dropped. Absent fields are only reported when required.
func (v *FieldValidator) Validate(record map[string]string) (Values, FieldErrors) {
	values := make(Values, len(record))
	var errs FieldErrors

	for _, rule := range v.rules {
		value := trimSpaces(record[rule.Field])

		if value == "" {
			if rule.Required {
				errs = append(errs, NewFieldError(rule.Field, ErrCodeImportRequiredField, "is required"))
			}
			continue
		}

		typed, err := v.coerce(rule, value)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		// A list cell holding only separators carries no items
		if items, ok := typed.([]string); ok && items == nil {
			if rule.Required {
				errs = append(errs, NewFieldError(rule.Field, ErrCodeImportRequiredField, "is required"))
			}
			continue
		}

		if err := v.checkConstraints(rule, value, typed); err != nil {
			errs = append(errs, *err)
			continue
		}

		values[rule.Field] = typed
	}

	return values, errs
}

// coerce converts value to the rule's type
func (v *FieldValidator) coerce(rule FieldRule, value string) (any, *FieldError) {
	invalid := func(code, message string) (any, *FieldError) {
		err := NewFieldError(rule.Field, code, message)
		return nil, &err
	}

	switch rule.Type {
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalid(ErrCodeImportInvalidType, "must be a whole number")
		}
		return n, nil
	case TypeDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return invalid(ErrCodeImportInvalidType, "must be a number")
		}
		return d, nil
	case TypeDate:
		t, err := time.Parse(rule.DateFormat, value)
		if err != nil {
			return invalid(ErrCodeImportInvalidFormat, "must be a date in YYYY-MM-DD format")
		}
		return t, nil
	case TypeEmail:
		if err := v.validate.Var(value, "email"); err != nil {
			return invalid(ErrCodeImportInvalidFormat, "must be a valid email address")
		}
		return value, nil
	case TypeURL:
		if err := v.validate.Var(value, "http_url"); err != nil {
			return invalid(ErrCodeImportInvalidFormat, "must be a valid URL")
		}
		return value, nil
	case TypeBool:
		b, ok := parseBool(value)
		if !ok {
			return invalid(ErrCodeImportInvalidType, "must be true or false")
		}
		return b, nil
	case TypeUUID:
		id, err := uuid.Parse(value)
		if err != nil {
			return invalid(ErrCodeImportInvalidType, "must be a valid UUID")
		}
		return id, nil
	case TypeEnum:
		lower := strings.ToLower(value)
		for _, option := range rule.Options {
			if strings.ToLower(option) == lower {
				return option, nil
			}
		}
		return invalid(ErrCodeImportInvalidOption, fmt.Sprintf("must be one of %s", strings.Join(rule.Options, ", ")))
	case TypeList:
		return splitList(value, rule.Separators), nil
	}
	return value, nil
}

// checkConstraints applies length, range, pattern and custom checks
func (v *FieldValidator) checkConstraints(rule FieldRule, raw string, typed any) *FieldError {
	fail := func(code, message string) *FieldError {
		err := NewFieldError(rule.Field, code, message)
		return &err
	}

	length := len([]rune(raw))
	if rule.MaxLength > 0 && length > rule.MaxLength {
		return fail(ErrCodeImportInvalidLength, fmt.Sprintf("must be at most %d characters", rule.MaxLength))
	}
	if rule.MinLength > 0 && length < rule.MinLength {
		return fail(ErrCodeImportInvalidLength, fmt.Sprintf("must be at least %d characters", rule.MinLength))
	}

	if rule.MinValue != nil || rule.MaxValue != nil {
		var d decimal.Decimal
		switch n := typed.(type) {
		case int:
			d = decimal.NewFromInt(int64(n))
		case decimal.Decimal:
			d = n
		}
		if msg := rangeMessage(d, rule.MinValue, rule.MaxValue); msg != "" {
			return fail(ErrCodeImportInvalidRange, msg)
		}
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(raw) {
		return fail(ErrCodeImportInvalidFormat, fmt.Sprintf("must be a valid %s", rule.PatternDesc))
	}

	if rule.CustomFunc != nil {
		if err := rule.CustomFunc(raw); err != nil {
			return fail(ErrCodeImportValidation, err.Error())
		}
	}

	return nil
}

func rangeMessage(d decimal.Decimal, min, max *decimal.Decimal) string {
	switch {
	case min != nil && max != nil && (d.LessThan(*min) || d.GreaterThan(*max)):
		return fmt.Sprintf("must be between %s and %s", min.String(), max.String())
	case min != nil && d.LessThan(*min):
		return fmt.Sprintf("must be at least %s", min.String())
	case max != nil && d.GreaterThan(*max):
		return fmt.Sprintf("must be at most %s", max.String())
	}
	return ""
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "y":
		return true, true
	case "false", "0", "no", "n":
		return false, true
	}
	return false, false
}

func splitList(value, separators string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})
	var items []string
	for _, p := range parts {
		if item := trimSpaces(p); item != "" {
			items = append(items, item)
		}
	}
	return items
}
