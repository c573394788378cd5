package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoPolymarket/polydesk/internal/catalog"
	"github.com/GoPolymarket/polydesk/internal/config"
	"github.com/GoPolymarket/polydesk/internal/middleware"
	"github.com/GoPolymarket/polydesk/internal/repository"
	"github.com/GoPolymarket/polydesk/internal/service"
	"github.com/GoPolymarket/polydesk/internal/venue/clob"
	"github.com/GoPolymarket/polydesk/internal/venue/kalshi"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gatewayKey = "gw-test"

func newTestRouter(t *testing.T, readOnly bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	venue := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events":
			_, _ = w.Write([]byte(`{"events":[],"cursor":""}`))
		case "/markets":
			_, _ = w.Write([]byte(`{"markets":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(venue.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{ReadOnly: readOnly},
		Auth:   config.AuthConfig{RequireAPIKey: true},
		Accounts: []config.AccountConfig{{
			UserID:     "u1",
			GatewayKey: gatewayKey,
			RateLimit:  config.RateLimitConfig{QPS: 100, Burst: 100},
		}},
	}
	accounts := service.NewAccountRegistry(cfg)
	store := repository.NewMemoryCredentialStore()

	kc := kalshi.NewClient(config.KalshiConfig{PublicBaseURLs: []string{venue.URL}})
	cc := clob.NewClient(config.PolymarketConfig{ClobBaseURL: venue.URL, ChainID: 137})
	agg := catalog.NewAggregator(kc, config.CatalogConfig{MaxPages: 1, PageLimit: 200, MarketsLimit: 1000, EnrichTopN: 50, RequestTimeoutSeconds: 10})

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg, accounts))
	v1.Use(middleware.RateLimitMiddleware(accounts))
	v1.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))
	Register(v1,
		NewTradingHandler(service.NewTradingService(store, cc, kc)),
		NewCatalogHandler(service.NewCatalogService(agg)))
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderGatewayKey, gatewayKey)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestMissingGatewayKey(t *testing.T) {
	r := newTestRouter(t, false)
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_FAILED", decode(t, rec)["code"])
}

func TestCredentialsThenSignVenueB(t *testing.T) {
	r := newTestRouter(t, false)

	rec := do(r, http.MethodPost, "/v1/venue-b/sign", map[string]string{"method": "GET", "path": "/data/orders"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodPut, "/v1/credentials", map[string]any{
		"polymarket": map[string]string{
			"api_key":       "key-1",
			"secret":        base64.URLEncoding.EncodeToString([]byte("secret-bytes")),
			"passphrase":    "pass",
			"owner_address": "0x1111111111111111111111111111111111111111",
		},
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(r, http.MethodPost, "/v1/venue-b/sign", map[string]string{"method": "GET", "path": "/data/orders"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "key-1", out["api_key"])
	assert.NotEmpty(t, out["signature"])
	assert.NotEmpty(t, out["timestamp"])
}

func TestBuildOrderRejectsBoundaryPrice(t *testing.T) {
	r := newTestRouter(t, false)
	rec := do(r, http.MethodPost, "/v1/orders/build", map[string]any{
		"token_id": "123", "price": "1", "size": "10", "side": "BUY",
		"signer": "0x1111111111111111111111111111111111111111",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ORDER_PARAMS", decode(t, rec)["code"])
}

func TestBadBodyIsInvalidRequest(t *testing.T) {
	r := newTestRouter(t, false)
	rec := do(r, http.MethodPost, "/v1/venue-a/sign", map[string]string{"method": "GET"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, rec)["code"])
}

func TestReadOnlyBlocksOrders(t *testing.T) {
	r := newTestRouter(t, true)
	rec := do(r, http.MethodPost, "/v1/orders", map[string]any{"order": map[string]string{}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "READ_ONLY", decode(t, rec)["code"])

	rec = do(r, http.MethodDelete, "/v1/orders/0xabc", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEventsDegradedIsOK(t *testing.T) {
	r := newTestRouter(t, false)
	rec := do(r, http.MethodGet, "/v1/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, true, out["degraded"])
	assert.Len(t, out["sources"], 3)
}
