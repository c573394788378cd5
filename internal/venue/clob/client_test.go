package clob

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/auth"
	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob/clobtypes"
	"github.com/GoPolymarket/polydesk/internal/config"
	"github.com/GoPolymarket/polydesk/internal/order"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/signer"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x1111111111111111111111111111111111111111"

var (
	testSecret = base64.URLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	testNow    = time.Unix(1700000000, 0)
)

func newTestClient(url string) *Client {
	c := NewClient(config.PolymarketConfig{ClobBaseURL: url + "/", ChainID: 137, RequestTimeoutSeconds: 5})
	c.now = func() time.Time { return testNow }
	return c
}

func testHMAC(t *testing.T) *signer.HMACSigner {
	t.Helper()
	s, err := signer.NewHMAC(testAddress, auth.APIKey{Key: "key-1", Secret: testSecret, Passphrase: "pass"})
	require.NoError(t, err)
	return s
}

// expectedSig recomputes the L2 signature independently of the signer package.
func expectedSig(ts, method, path, body string) string {
	mac := hmac.New(sha256.New, []byte("0123456789abcdef0123456789abcdef"))
	mac.Write([]byte(ts + method + path + body))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

func TestClosedOnlySendsL2Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathClosedOnly, r.URL.Path)
		assert.Equal(t, testAddress, r.Header.Get(signer.HeaderPolyAddress))
		assert.Equal(t, "key-1", r.Header.Get(signer.HeaderPolyAPIKey))
		assert.Equal(t, "pass", r.Header.Get(signer.HeaderPolyPassphrase))
		assert.Equal(t, "1700000000", r.Header.Get(signer.HeaderPolyTimestamp))
		assert.Equal(t, expectedSig("1700000000", "GET", pathClosedOnly, ""), r.Header.Get(signer.HeaderPolySignature))
		_, _ = w.Write([]byte(`{"closed_only": true}`))
	}))
	defer srv.Close()

	closed, err := newTestClient(srv.URL).ClosedOnly(context.Background(), testHMAC(t))
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestClosedOnlyUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ClosedOnly(context.Background(), testHMAC(t))
	assert.True(t, apperrors.IsType(err, apperrors.ErrUpstreamAuth))
}

func signedFixture() order.SignedOrder {
	return order.SignedOrder{
		Salt: "1", Maker: testAddress, Signer: testAddress,
		Taker:   "0x0000000000000000000000000000000000000000",
		TokenID: "123", MakerAmount: "6500000", TakerAmount: "10000000",
		Expiration: "1700086400", Nonce: "1700000000000", FeeRateBps: "0",
		Side: "BUY", SignatureType: 0, Signature: "0xabc",
	}
}

func TestPostOrderSignsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, expectedSig("1700000000", "POST", pathOrder, string(raw)), r.Header.Get(signer.HeaderPolySignature))

		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "key-1", body["owner"])
		assert.Equal(t, "GTC", body["orderType"])
		assert.Equal(t, "6500000", body["order"].(map[string]any)["makerAmount"])
		_, _ = w.Write([]byte(`{"success":true,"orderID":"0xorder","status":"live"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).PostOrder(context.Background(), testHMAC(t), "key-1", signedFixture(), clobtypes.OrderTypeGTC)
	require.NoError(t, err)
	assert.Equal(t, "0xorder", resp.OrderID)
	assert.Equal(t, "live", resp.Status)
}

func TestPostOrderRejections(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"business error in 200", http.StatusOK, `{"success":false,"errorMsg":"not enough balance / allowance"}`, "not enough balance / allowance"},
		{"failure without message", http.StatusOK, `{"success":false,"errorMsg":"","orderID":""}`, "success=false"},
		{"4xx with error field", http.StatusBadRequest, `{"error":"invalid tick size"}`, "invalid tick size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).PostOrder(context.Background(), testHMAC(t), "key-1", signedFixture(), clobtypes.OrderTypeGTC)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrOrderRejected))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestPostOrderServerErrorStaysUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).PostOrder(context.Background(), testHMAC(t), "key-1", signedFixture(), clobtypes.OrderTypeGTC)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUpstream, appErr.Type)
	assert.Equal(t, http.StatusBadGateway, appErr.UpstreamStatus)
	assert.Equal(t, "bad gateway", appErr.UpstreamBody)
}

func TestCancelOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["orderID"] == "gone" {
			_, _ = w.Write([]byte(`{"canceled":[],"not_canceled":{"gone":"order not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"canceled":["` + body["orderID"] + `"]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.CancelOrder(context.Background(), testHMAC(t), "0xorder")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xorder"}, resp.Canceled)

	_, err = c.CancelOrder(context.Background(), testHMAC(t), "gone")
	assert.True(t, apperrors.IsType(err, apperrors.ErrOrderRejected))
	assert.Contains(t, err.Error(), "order not found")
}

func TestCreateAndDeriveAPIKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := signer.NewWalletFromKey(key)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == pathAPIKey:
		case r.Method == http.MethodGet && r.URL.Path == pathDeriveKey:
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		nonce, err := strconv.ParseUint(r.Header.Get(signer.HeaderPolyNonce), 10, 64)
		assert.NoError(t, err)
		td := signer.ClobAuthTypedData(wallet.Address(), 137, testNow.Unix(), nonce)
		assert.NoError(t, signer.VerifyTypedData(td, r.Header.Get(signer.HeaderPolySignature), wallet.Address()))
		_, _ = w.Write([]byte(`{"apiKey":"k","secret":"s","passphrase":"p"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	created, err := c.CreateAPIKey(context.Background(), wallet, 0)
	require.NoError(t, err)
	assert.Equal(t, auth.APIKey{Key: "k", Secret: "s", Passphrase: "p"}, created)

	derived, err := c.DeriveAPIKey(context.Background(), wallet, 3)
	require.NoError(t, err)
	assert.Equal(t, "k", derived.Key)
}

func TestParseOrderType(t *testing.T) {
	assert.Equal(t, clobtypes.OrderTypeFOK, ParseOrderType(" fok "))
	assert.Equal(t, clobtypes.OrderTypeGTD, ParseOrderType("GTD"))
	assert.Equal(t, clobtypes.OrderTypeGTC, ParseOrderType(""))
}
