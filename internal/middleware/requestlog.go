package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// bodyLogWriter captures the response body while passing it through.
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLogMiddleware tags each request with an id and logs one line per
// request once it completes. Bodies on credential, signing and order routes
// are redacted before they reach the log.
func RequestLogMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Header(HeaderRequestID, reqID)
		c.Set(ContextRequestID, reqID)

		var reqBody []byte
		if c.Request.Body != nil {
			reqBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(reqBody))
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		path := c.Request.URL.Path
		attrs := []any{
			"request_id", reqID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if acc := CurrentAccount(c); acc != nil {
			attrs = append(attrs, "user_id", acc.UserID)
		}
		if body := redactBody(path, reqBody); body != "" {
			attrs = append(attrs, "request_body", body)
		}
		if body := redactBody(path, blw.body.Bytes()); body != "" {
			attrs = append(attrs, "response_body", body)
		}
		log.Info("request", attrs...)
	}
}

func redactBody(path string, body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if !isSensitivePath(path) {
		return string(body)
	}
	redacted, ok := redactJSON(body)
	if !ok {
		return "[redacted]"
	}
	return string(redacted)
}

func isSensitivePath(path string) bool {
	for _, prefix := range []string{"/v1/credentials", "/v1/venue-a", "/v1/venue-b", "/v1/orders"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func redactJSON(body []byte) ([]byte, bool) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false
	}
	redactValue(&data)
	out, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}
	return out, true
}

func redactValue(v *any) {
	switch raw := (*v).(type) {
	case map[string]any:
		for key, val := range raw {
			if isSensitiveKey(key) {
				raw[key] = "***"
				continue
			}
			vv := val
			redactValue(&vv)
			raw[key] = vv
		}
	case []any:
		for i, val := range raw {
			vv := val
			redactValue(&vv)
			raw[i] = vv
		}
	}
}

func isSensitiveKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "api_key",
		"api_key_id",
		"api_secret",
		"secret",
		"passphrase",
		"api_passphrase",
		"private_key",
		"signature",
		"sig":
		return true
	default:
		return false
	}
}
