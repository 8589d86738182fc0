package dto

import (
	"net/http"
	"strings"

	csvimport "github.com/earthcare/backend/internal/infrastructure/import"
)

// API error codes. Every code returned to clients starts with ERR_.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeValidation = "ERR_VALIDATION"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodePlanRequired = "ERR_PLAN_REQUIRED"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"

	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

var statusByCode = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodePlanRequired: http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	csvimport.ErrCodeImportInvalidEntity:   http.StatusBadRequest,
	csvimport.ErrCodeImportInvalidFileType: http.StatusUnsupportedMediaType,
	csvimport.ErrCodeImportEmptyFile:       http.StatusBadRequest,
	csvimport.ErrCodeImportFileTooLarge:    http.StatusRequestEntityTooLarge,
	csvimport.ErrCodeImportInvalidEncoding: http.StatusBadRequest,
	csvimport.ErrCodeImportParseFailed:     http.StatusBadRequest,
	csvimport.ErrCodeImportInvalidHeader:   http.StatusBadRequest,
	csvimport.ErrCodeImportInvalidMapping:  http.StatusBadRequest,
	csvimport.ErrCodeImportInvalidStrategy: http.StatusBadRequest,
}

// GetHTTPStatus returns the status for an API error code, 500 when unknown.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

var domainCodes = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"INVALID_STATE":        ErrCodeInvalidState,
	"TOTAL_ROWS_CHANGED":   ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
}

// DomainErrorCode translates a domain error code into an API error code.
// Aggregate invariants (INVALID_MAPPING, INVALID_STRATEGY, ...) become
// ERR_INVALID_INPUT; codes already in API form pass through.
func DomainErrorCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeInvalidInput
	}
	return ErrCodeInternal
}
