package kalshi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/signer"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Balance struct {
	BalanceCents int64   `json:"balance_cents"`
	Balance      float64 `json:"balance"`
}

func (c *Client) Balance(ctx context.Context, s *signer.RSAPSSSigner) (*Balance, error) {
	var resp struct {
		Balance flexNum `json:"balance"`
	}
	if err := c.do(ctx, c.account, request{method: http.MethodGet, path: "/portfolio/balance", signer: s}, &resp); err != nil {
		return nil, err
	}
	return &Balance{
		BalanceCents: resp.Balance.IntPart(),
		Balance:      dollars(flexNum{}, resp.Balance),
	}, nil
}

// Quote is the latest price snapshot for one market.
type Quote struct {
	Ticker    string  `json:"ticker"`
	YesBid    float64 `json:"yes_bid"`
	YesAsk    float64 `json:"yes_ask"`
	LastPrice float64 `json:"last_price"`
	Error     string  `json:"error,omitempty"`
}

func (c *Client) Quote(ctx context.Context, s *signer.RSAPSSSigner, ticker string) (*Quote, error) {
	var resp marketResponse
	path := "/markets/" + url.PathEscape(ticker)
	if err := c.do(ctx, c.account, request{method: http.MethodGet, path: path, signer: s}, &resp); err != nil {
		return nil, err
	}
	m := resp.Market.normalize()
	return &Quote{Ticker: ticker, YesBid: m.YesBid, YesAsk: m.YesAsk, LastPrice: m.LastPrice}, nil
}

// RefreshPrices fetches quotes for many tickers at once. A ticker that fails
// carries its error in the quote; credential or rate-limit failures abort
// the whole refresh since every other ticker would hit them too.
func (c *Client) RefreshPrices(ctx context.Context, s *signer.RSAPSSSigner, tickers []string) ([]Quote, error) {
	out := make([]Quote, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	limit := c.priceLimit
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	var mu sync.Mutex
	for i, ticker := range tickers {
		g.Go(func() error {
			q, err := c.Quote(gctx, s, ticker)
			if err != nil {
				if apperrors.Terminal(err) {
					return err
				}
				c.log.Warn("price refresh failed", "ticker", ticker, "error", err)
				q = &Quote{Ticker: ticker, Error: err.Error()}
			}
			mu.Lock()
			out[i] = *q
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type OrderRequest struct {
	Ticker        string `json:"ticker"`
	Action        string `json:"action"` // buy or sell
	Side          string `json:"side"`   // yes or no
	Count         int    `json:"count"`
	PriceCents    int    `json:"-"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type Order struct {
	OrderID       string `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
	Ticker        string `json:"ticker"`
	Status        string `json:"status"`
	Action        string `json:"action"`
	Side          string `json:"side"`
}

func (r *OrderRequest) validate() error {
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.Side = strings.ToLower(strings.TrimSpace(r.Side))
	switch {
	case r.Ticker == "":
		return apperrors.NewInvalidOrder("ticker is required")
	case r.Action != "buy" && r.Action != "sell":
		return apperrors.NewInvalidOrder("action must be buy or sell")
	case r.Side != "yes" && r.Side != "no":
		return apperrors.NewInvalidOrder("side must be yes or no")
	case r.Count < 1:
		return apperrors.NewInvalidOrder("count must be at least 1")
	case r.PriceCents < 1 || r.PriceCents > 99:
		return apperrors.NewInvalidOrder("price must be between 1 and 99 cents")
	}
	return nil
}

// CreateOrder places a limit order. Orders only go to the production base
// URLs; a sandbox order would silently not trade.
func (c *Client) CreateOrder(ctx context.Context, s *signer.RSAPSSSigner, req OrderRequest) (*Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	body := map[string]any{
		"ticker":          req.Ticker,
		"action":          req.Action,
		"side":            req.Side,
		"count":           req.Count,
		"type":            "limit",
		"client_order_id": req.ClientOrderID,
	}
	if req.Side == "yes" {
		body["yes_price"] = req.PriceCents
	} else {
		body["no_price"] = req.PriceCents
	}

	var resp struct {
		Order Order `json:"order"`
	}
	err := c.do(ctx, c.orders, request{method: http.MethodPost, path: "/portfolio/orders", body: body, signer: s}, &resp)
	if err != nil {
		return nil, asOrderRejection(err)
	}
	return &resp.Order, nil
}

// asOrderRejection turns a business 4xx into ORDER_REJECTED_BY_VENUE with the
// venue's message. Auth and rate-limit errors keep their own type.
func asOrderRejection(err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrUpstream {
		return err
	}
	if appErr.UpstreamStatus < 400 || appErr.UpstreamStatus >= 500 {
		return err
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := appErr.UpstreamBody
	if json.Unmarshal([]byte(appErr.UpstreamBody), &body) == nil && body.Error.Message != "" {
		msg = fmt.Sprintf("%s: %s", body.Error.Code, body.Error.Message)
	}
	return apperrors.NewOrderRejected(venue, appErr.UpstreamStatus, msg, appErr.UpstreamBody)
}
