package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hanami/internal/sales"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Codes for failures raised by the HTTP layer itself.
const (
	CodeBadRequest   = "bad_request"
	CodeTooLarge     = "payload_too_large"
	CodeRateLimited  = "rate_limited"
	CodeInvalidQuery = "invalid_query"
	CodeNotFound     = "not_found"
	CodeTimeout      = "timeout"
	CodeInternal     = "internal"
)

// StatusClientClosedRequest is answered when the client went away before the
// request finished.
const StatusClientClosedRequest = 499

// StatusFor maps a domain error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	switch sales.KindOf(err) {
	case sales.KindUnsupportedFormat, sales.KindMalformedFile, sales.KindMissingColumns,
		sales.KindSemantic, sales.KindExcessiveNulls:
		return http.StatusUnprocessableEntity
	case sales.KindInvalidFrequency, sales.KindInvalidSortKey:
		return http.StatusBadRequest
	case sales.KindInsufficientData, sales.KindNoData:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Unclassified errors are
// logged and replaced by an opaque message.
func (s *Server) respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	switch status {
	case StatusClientClosedRequest:
		s.log.Debug("api: client gone", "route", c.FullPath(), "error", err)
		c.AbortWithStatus(status)
		return
	case http.StatusGatewayTimeout:
		s.log.Warn("api: request timed out", "route", c.FullPath(), "error", err)
		c.JSON(status, ErrorEnvelope{Error: APIError{Message: "request timed out", Code: CodeTimeout}})
		return
	case http.StatusInternalServerError:
		s.log.Error("api: request failed", "route", c.FullPath(), "error", err)
		c.JSON(status, ErrorEnvelope{Error: APIError{Message: "internal server error", Code: CodeInternal}})
		return
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: sales.KindOf(err).String()}})
}

func respond(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
