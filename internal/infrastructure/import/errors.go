package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Import error codes
const (
	// Upload errors
	ErrCodeImportInvalidEntity   = "ERR_IMPORT_INVALID_ENTITY"
	ErrCodeImportInvalidFileType = "ERR_IMPORT_INVALID_FILE_TYPE"
	ErrCodeImportEmptyFile       = "ERR_IMPORT_EMPTY_FILE"
	ErrCodeImportFileTooLarge    = "ERR_IMPORT_FILE_TOO_LARGE"

	// Encoding errors
	ErrCodeImportInvalidEncoding = "ERR_IMPORT_INVALID_ENCODING"

	// CSV parsing errors
	ErrCodeImportParseFailed   = "ERR_IMPORT_PARSE_FAILED"
	ErrCodeImportInvalidHeader = "ERR_IMPORT_INVALID_HEADER"

	// Configuration errors
	ErrCodeImportInvalidMapping  = "ERR_IMPORT_INVALID_MAPPING"
	ErrCodeImportInvalidStrategy = "ERR_IMPORT_INVALID_STRATEGY"

	// Field validation errors
	ErrCodeImportRequiredField = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidType   = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeImportInvalidFormat = "ERR_IMPORT_INVALID_FORMAT"
	ErrCodeImportInvalidLength = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeImportInvalidRange  = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeImportInvalidOption = "ERR_IMPORT_INVALID_OPTION"
	ErrCodeImportValidation    = "ERR_IMPORT_VALIDATION"
)

// Common import errors
var (
	// ErrEmptyFile is returned when the CSV file has no header or no data rows
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding, expected UTF-8")

	// ErrInvalidHeader is returned when a header cell is blank or repeated
	ErrInvalidHeader = errors.New("invalid CSV header")

	// ErrParseFailed is returned when the CSV structure cannot be read
	ErrParseFailed = errors.New("failed to parse CSV file")

	// ErrUnknownEntityKind is returned for an entity kind without a schema
	ErrUnknownEntityKind = errors.New("unknown entity kind")
)

// FieldError is a single field validation failure
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error renders the failure as "<field>: <message>"
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewFieldError creates a new FieldError
func NewFieldError(field, code, message string) FieldError {
	return FieldError{
		Field:   field,
		Code:    code,
		Message: message,
	}
}

// FieldErrors is the ordered list of failures for one record
type FieldErrors []FieldError

// Messages returns every failure as "<field>: <message>"
func (fe FieldErrors) Messages() []string {
	messages := make([]string, len(fe))
	for i, err := range fe {
		messages[i] = err.Error()
	}
	return messages
}

// Error joins all messages with "; "
func (fe FieldErrors) Error() string {
	return strings.Join(fe.Messages(), "; ")
}

// HasErrors returns true if there are any errors
func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

// ErrorSummary returns a count of errors by code
func (fe FieldErrors) ErrorSummary() map[string]int {
	summary := make(map[string]int)
	for _, err := range fe {
		summary[err.Code]++
	}
	return summary
}

// ErrorCode maps a decoder error to its import error code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrEmptyFile):
		return ErrCodeImportEmptyFile
	case errors.Is(err, ErrInvalidEncoding):
		return ErrCodeImportInvalidEncoding
	case errors.Is(err, ErrInvalidHeader):
		return ErrCodeImportInvalidHeader
	case errors.Is(err, ErrUnknownEntityKind):
		return ErrCodeImportInvalidEntity
	default:
		return ErrCodeImportParseFailed
	}
}
