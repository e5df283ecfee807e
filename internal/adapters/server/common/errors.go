package common

import (
	"context"
	"errors"
	"net/http"

	"github.com/hylla/sudsboard/internal/app"
	"github.com/hylla/sudsboard/internal/domain"
)

// Error codes shared by HTTP and MCP responses.
const (
	CodeConflict       = "conflict"
	CodeNotFound       = "not_found"
	CodeInvalidRequest = "invalid_request"
	CodeUpstream       = "upstream_error"
	CodeUnavailable    = "service_unavailable"
	CodeTimeout        = "timeout"
	CodeInternal       = "internal_error"
)

// invalidInputErrors are the sentinels that classify as a bad request.
var invalidInputErrors = []error{
	domain.ErrInvalidInput,
	domain.ErrInvalidID,
	domain.ErrInvalidName,
	domain.ErrInvalidPosition,
	domain.ErrInvalidDirection,
	domain.ErrInvalidStatus,
	domain.ErrInvalidField,
	domain.ErrInvalidLocation,
	app.ErrInvalidSnapshot,
}

// Classify maps one service error to a transport status and stable code.
func Classify(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	if errors.Is(err, domain.ErrDuplicate) {
		return http.StatusConflict, CodeConflict
	}
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound, CodeNotFound
	}
	for _, target := range invalidInputErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, CodeInvalidRequest
		}
	}
	if errors.Is(err, app.ErrCompletionUnavailable) {
		return http.StatusServiceUnavailable, CodeUnavailable
	}
	var svcErr domain.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.HTTPStatus >= 400 && svcErr.HTTPStatus < 500 {
			return svcErr.HTTPStatus, CodeUpstream
		}
		return http.StatusBadGateway, CodeUpstream
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, CodeTimeout
	}
	return http.StatusInternalServerError, CodeInternal
}
