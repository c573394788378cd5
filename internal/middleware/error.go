package middleware

import (
	"errors"
	"strconv"

	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	HeaderUpstreamVenue  = "X-Upstream-Venue"
	HeaderUpstreamStatus = "X-Upstream-Status"
)

type errorResponse struct {
	*apperrors.AppError
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders the last error attached with c.Error as an AppError
// body. Upstream status and body are passed through untouched, and the venue
// and its status are echoed as headers so clients can tell a venue failure
// from a local one without parsing the body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		last := c.Errors.Last()
		appErr := asAppError(last)
		reqID := c.GetString(ContextRequestID)

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"code", appErr.Type,
			"client_ip", c.ClientIP(),
		}
		if reqID != "" {
			logFields = append(logFields, "request_id", reqID)
		}
		if appErr.Venue != "" {
			logFields = append(logFields, "venue", appErr.Venue, "upstream_status", appErr.UpstreamStatus)
			c.Header(HeaderUpstreamVenue, appErr.Venue)
			if appErr.UpstreamStatus != 0 {
				c.Header(HeaderUpstreamStatus, strconv.Itoa(appErr.UpstreamStatus))
			}
		}
		if appErr.Type == apperrors.ErrUpstreamRateLimit && c.Writer.Header().Get("Retry-After") == "" {
			c.Header("Retry-After", "1")
		}

		if appErr.HTTPStatus >= 500 {
			logger.LogError(c.Request.Context(), appErr, "request failed", logFields...)
		} else {
			logger.Warn(appErr.Message, logFields...)
		}

		c.JSON(appErr.HTTPStatus, errorResponse{AppError: appErr, RequestID: reqID})
	}
}

// Bind errors from gin carry no AppError; they are the caller's fault.
func asAppError(ginErr *gin.Error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(ginErr.Err, &appErr) {
		return appErr
	}
	if ginErr.IsType(gin.ErrorTypeBind) {
		return apperrors.New(apperrors.ErrInvalidRequest, ginErr.Err.Error(), ginErr.Err)
	}
	return apperrors.New(apperrors.ErrInternal, ginErr.Err.Error(), ginErr.Err)
}
