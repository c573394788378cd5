package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrKeyFormat          ErrorType = "KEY_FORMAT_ERROR"
	ErrDecode             ErrorType = "DECODE_ERROR"
	ErrSigning            ErrorType = "SIGNING_ERROR"
	ErrUpstreamAuth       ErrorType = "UPSTREAM_AUTH_ERROR"
	ErrUpstreamRateLimit  ErrorType = "UPSTREAM_RATE_LIMITED"
	ErrUpstream           ErrorType = "UPSTREAM_ERROR"
	ErrPartialAggregation ErrorType = "PARTIAL_AGGREGATION_FAILURE"
	ErrTotalAggregation   ErrorType = "TOTAL_AGGREGATION_FAILURE"
	ErrInvalidOrderParams ErrorType = "INVALID_ORDER_PARAMS"
	ErrOrderRejected      ErrorType = "ORDER_REJECTED_BY_VENUE"
	ErrTradingDisabled    ErrorType = "TRADING_DISABLED"
	ErrAuthFailed         ErrorType = "AUTH_FAILED"
	ErrInvalidRequest     ErrorType = "INVALID_REQUEST"
	ErrNotFound           ErrorType = "NOT_FOUND"
	ErrReadOnly           ErrorType = "READ_ONLY"
	ErrInternal           ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`

	// Raw venue diagnostics, passed through untouched.
	Venue          string `json:"venue,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func NewKeyFormat(msg string) *AppError {
	return New(ErrKeyFormat, msg, nil)
}

func NewDecode(msg string, cause error) *AppError {
	return New(ErrDecode, msg, cause)
}

func NewSigning(msg string, cause error) *AppError {
	return New(ErrSigning, msg, cause)
}

func NewInvalidOrder(msg string) *AppError {
	return New(ErrInvalidOrderParams, msg, nil)
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

// NewUpstream classifies a non-2xx venue response by status code. The body is
// kept verbatim so operators see the venue's own diagnostics.
func NewUpstream(venue string, status int, body string) *AppError {
	var errType ErrorType
	var msg string
	switch status {
	case http.StatusUnauthorized:
		errType = ErrUpstreamAuth
		msg = fmt.Sprintf("%s rejected credentials (reconnect required)", venue)
	case http.StatusTooManyRequests:
		errType = ErrUpstreamRateLimit
		msg = fmt.Sprintf("%s rate limited the request", venue)
	default:
		errType = ErrUpstream
		msg = fmt.Sprintf("%s returned status %d", venue, status)
	}
	e := New(errType, msg, nil)
	e.Venue = venue
	e.UpstreamStatus = status
	e.UpstreamBody = body
	return e
}

// NewOrderRejected preserves the venue's original error text.
func NewOrderRejected(venue string, status int, venueMsg, body string) *AppError {
	e := New(ErrOrderRejected, venueMsg, nil)
	e.Venue = venue
	e.UpstreamStatus = status
	e.UpstreamBody = body
	return e
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// Terminal reports whether trying the same request against another endpoint
// would only repeat it with the same credentials.
func Terminal(err error) bool {
	return IsType(err, ErrUpstreamAuth) || IsType(err, ErrUpstreamRateLimit) ||
		IsType(err, ErrKeyFormat) || IsType(err, ErrDecode) || IsType(err, ErrSigning)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidOrderParams, ErrInvalidRequest, ErrKeyFormat, ErrDecode:
		return http.StatusBadRequest
	case ErrAuthFailed, ErrUpstreamAuth:
		return http.StatusUnauthorized
	case ErrTradingDisabled, ErrReadOnly:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUpstreamRateLimit:
		return http.StatusTooManyRequests
	case ErrOrderRejected:
		return http.StatusUnprocessableEntity
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrKeyFormat:
		return "Provide an unencrypted RSA private key in PEM format."
	case ErrUpstreamAuth:
		return "Reconnect the venue account; do not retry with the same credentials."
	case ErrUpstreamRateLimit:
		return "Back off before retrying."
	case ErrInvalidOrderParams:
		return "Price must be strictly between 0 and 1 and size must be positive."
	case ErrTradingDisabled:
		return "Check the trading gate diagnostics."
	default:
		return ""
	}
}
