package handler

import "github.com/earthcare/backend/internal/interfaces/http/dto"

// Envelope types below exist for the OpenAPI generator only; handlers write
// dto.Response directly.

// APIResponse is the success envelope with a typed data payload.
// List endpoints also fill Meta.
// @Description Success envelope with typed data and optional paging meta
type APIResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    T         `json:"data,omitempty"`
	Meta    *dto.Meta `json:"meta,omitempty"`
}

// ErrorResponse is the failure envelope shared by every import endpoint.
// @Description Failure envelope carrying an ERR_ code and the request ID
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
