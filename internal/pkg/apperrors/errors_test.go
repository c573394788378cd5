package apperrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUpstreamClassifiesStatus(t *testing.T) {
	auth := NewUpstream("kalshi", http.StatusUnauthorized, `{"error":"bad key"}`)
	assert.Equal(t, ErrUpstreamAuth, auth.Type)
	assert.Equal(t, http.StatusUnauthorized, auth.HTTPStatus)
	assert.Equal(t, `{"error":"bad key"}`, auth.UpstreamBody)

	limited := NewUpstream("clob", http.StatusTooManyRequests, "slow down")
	assert.Equal(t, ErrUpstreamRateLimit, limited.Type)

	other := NewUpstream("clob", http.StatusServiceUnavailable, "maintenance")
	assert.Equal(t, ErrUpstream, other.Type)
	assert.Equal(t, http.StatusBadGateway, other.HTTPStatus)
	assert.Equal(t, http.StatusServiceUnavailable, other.UpstreamStatus)
}

func TestIsTypeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("signing venue a: %w", NewKeyFormat("encrypted key"))
	assert.True(t, IsType(err, ErrKeyFormat))
	assert.False(t, IsType(err, ErrSigning))
	assert.True(t, Terminal(err))
	assert.False(t, Terminal(NewUpstream("kalshi", 502, "")))
}

func TestWrapKeepsAppError(t *testing.T) {
	orig := NewInvalidOrder("price out of range")
	assert.Same(t, orig, Wrap(fmt.Errorf("build: %w", orig)))
	assert.Equal(t, ErrInternal, Wrap(fmt.Errorf("boom")).Type)
	assert.Nil(t, Wrap(nil))
}
