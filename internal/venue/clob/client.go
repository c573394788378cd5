// Package clob is a thin Polymarket CLOB client. L2 calls are HMAC-signed
// by the caller's API key; L1 calls carry a wallet ClobAuth signature.
package clob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/auth"
	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob/clobtypes"
	"github.com/GoPolymarket/polydesk/internal/config"
	"github.com/GoPolymarket/polydesk/internal/order"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/pkg/logger"
	"github.com/GoPolymarket/polydesk/internal/pkg/metrics"
	"github.com/GoPolymarket/polydesk/internal/signer"
)

const venue = "polymarket"

const (
	pathClosedOnly = "/auth/ban-status/closed-only"
	pathAPIKey     = "/auth/api-key"
	pathDeriveKey  = "/auth/derive-api-key"
	pathOrder      = "/order"
)

type Client struct {
	baseURL    string
	chainID    int64
	httpClient *http.Client
	now        func() time.Time
	log        *slog.Logger
}

func NewClient(cfg config.PolymarketConfig) *Client {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	chainID := cfg.ChainID
	if chainID == 0 {
		chainID = auth.PolygonChainID
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.ClobBaseURL, "/"),
		chainID:    chainID,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		log:        logger.Component("clob"),
	}
}

func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

func (c *Client) ChainID() int64 { return c.chainID }

// authFunc stamps auth headers onto a request whose body is already known.
type authFunc func(req *http.Request, body string) error

func l2(s *signer.HMACSigner, now time.Time) authFunc {
	return func(req *http.Request, body string) error {
		s.Headers(now, req.Method, req.URL.Path, body).Apply(req)
		return nil
	}
}

func l1(h signer.L1Headers) authFunc {
	return func(req *http.Request, _ string) error {
		h.Apply(req)
		return nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, sign authFunc, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		payload = b
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sign != nil {
		if err := sign(req, string(payload)); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(venue, metrics.StatusClass(0)).Inc()
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues(venue, metrics.StatusClass(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewUpstream(venue, resp.StatusCode, string(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// ClosedOnly reports whether the account behind s may only close positions.
func (c *Client) ClosedOnly(ctx context.Context, s *signer.HMACSigner) (bool, error) {
	var resp struct {
		ClosedOnly bool `json:"closed_only"`
	}
	if err := c.do(ctx, http.MethodGet, pathClosedOnly, nil, l2(s, c.now()), &resp); err != nil {
		return false, err
	}
	return resp.ClosedOnly, nil
}

// ParseOrderType defaults to GTC.
func ParseOrderType(raw string) clobtypes.OrderType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(clobtypes.OrderTypeGTD):
		return clobtypes.OrderTypeGTD
	case string(clobtypes.OrderTypeFAK):
		return clobtypes.OrderTypeFAK
	case string(clobtypes.OrderTypeFOK):
		return clobtypes.OrderTypeFOK
	default:
		return clobtypes.OrderTypeGTC
	}
}

type postOrderBody struct {
	Order     order.SignedOrder   `json:"order"`
	Owner     string              `json:"owner"`
	OrderType clobtypes.OrderType `json:"orderType"`
}

type OrderResponse struct {
	Success     bool     `json:"success"`
	ErrorMsg    string   `json:"errorMsg"`
	OrderID     string   `json:"orderID"`
	Status      string   `json:"status"`
	OrderHashes []string `json:"orderHashes,omitempty"`
}

// PostOrder submits a wallet-signed order. owner is the API key the order is
// filed under. Venue rejections keep the venue's text.
func (c *Client) PostOrder(ctx context.Context, s *signer.HMACSigner, owner string, signed order.SignedOrder, orderType clobtypes.OrderType) (*OrderResponse, error) {
	body := postOrderBody{Order: signed, Owner: owner, OrderType: orderType}
	var resp OrderResponse
	if err := c.do(ctx, http.MethodPost, pathOrder, body, l2(s, c.now()), &resp); err != nil {
		return nil, asRejection(err)
	}
	if !resp.Success {
		reason := resp.ErrorMsg
		if reason == "" {
			reason = "venue reported success=false"
		}
		c.log.Warn("order rejected", "order_id", resp.OrderID, "reason", reason)
		return nil, apperrors.NewOrderRejected(venue, http.StatusOK, reason, "")
	}
	return &resp, nil
}

type CancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
}

func (c *Client) CancelOrder(ctx context.Context, s *signer.HMACSigner, orderID string) (*CancelResponse, error) {
	body := map[string]string{"orderID": orderID}
	var resp CancelResponse
	if err := c.do(ctx, http.MethodDelete, pathOrder, body, l2(s, c.now()), &resp); err != nil {
		return nil, asRejection(err)
	}
	if reason, ok := resp.NotCanceled[orderID]; ok {
		return nil, apperrors.NewOrderRejected(venue, http.StatusOK, reason, "")
	}
	return &resp, nil
}

type apiKeyResponse struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

func (r apiKeyResponse) creds() auth.APIKey {
	return auth.APIKey{Key: r.APIKey, Secret: r.Secret, Passphrase: r.Passphrase}
}

// CreateAPIKey issues a new L2 key for the wallet.
func (c *Client) CreateAPIKey(ctx context.Context, wallet signer.WalletSigner, nonce uint64) (auth.APIKey, error) {
	h, err := signer.SignL1(ctx, wallet, c.chainID, c.now().Unix(), nonce)
	if err != nil {
		return auth.APIKey{}, apperrors.NewSigning("wallet refused to sign ClobAuth", err)
	}
	var resp apiKeyResponse
	if err := c.do(ctx, http.MethodPost, pathAPIKey, nil, l1(h), &resp); err != nil {
		return auth.APIKey{}, err
	}
	return resp.creds(), nil
}

// DeriveAPIKey recovers the key previously issued for (wallet, nonce).
func (c *Client) DeriveAPIKey(ctx context.Context, wallet signer.WalletSigner, nonce uint64) (auth.APIKey, error) {
	h, err := signer.SignL1(ctx, wallet, c.chainID, c.now().Unix(), nonce)
	if err != nil {
		return auth.APIKey{}, apperrors.NewSigning("wallet refused to sign ClobAuth", err)
	}
	var resp apiKeyResponse
	if err := c.do(ctx, http.MethodGet, pathDeriveKey, nil, l1(h), &resp); err != nil {
		return auth.APIKey{}, err
	}
	return resp.creds(), nil
}

// asRejection maps a business 4xx onto ORDER_REJECTED_BY_VENUE.
func asRejection(err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrUpstream {
		return err
	}
	if appErr.UpstreamStatus < 400 || appErr.UpstreamStatus >= 500 {
		return err
	}
	msg := appErr.UpstreamBody
	var body struct {
		Error    string `json:"error"`
		ErrorMsg string `json:"errorMsg"`
	}
	if json.Unmarshal([]byte(appErr.UpstreamBody), &body) == nil {
		if body.ErrorMsg != "" {
			msg = body.ErrorMsg
		} else if body.Error != "" {
			msg = body.Error
		}
	}
	return apperrors.NewOrderRejected(venue, appErr.UpstreamStatus, msg, appErr.UpstreamBody)
}
