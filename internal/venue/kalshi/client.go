// Package kalshi talks to the Kalshi trade API. Public catalog reads are
// unsigned; portfolio and order calls carry RSA-PSS headers.
package kalshi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GoPolymarket/polydesk/internal/catalog"
	"github.com/GoPolymarket/polydesk/internal/config"
	"github.com/GoPolymarket/polydesk/internal/endpoint"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/pkg/logger"
	"github.com/GoPolymarket/polydesk/internal/pkg/metrics"
	"github.com/GoPolymarket/polydesk/internal/signer"
)

const venue = "kalshi"

// Client holds three resolvers. Public data fails over across mirrors,
// account reads try the sandbox first and orders only ever go to production.
type Client struct {
	httpClient *http.Client
	public     *endpoint.Resolver
	account    *endpoint.Resolver
	orders     *endpoint.Resolver
	timeout    time.Duration
	priceLimit int
	now        func() time.Time
	log        *slog.Logger
}

func NewClient(cfg config.KalshiConfig) *Client {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		httpClient: &http.Client{},
		public:     endpoint.NewResolver("kalshi-public", cfg.PublicBaseURLs, cfg.StickyEndpoints),
		account:    endpoint.NewResolver("kalshi-account", cfg.AccountBaseURLs, cfg.StickyEndpoints),
		orders:     endpoint.NewResolver("kalshi-orders", cfg.OrderBaseURLs, false),
		timeout:    timeout,
		priceLimit: cfg.PriceConcurrency,
		now:        time.Now,
		log:        logger.Component("kalshi"),
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	signer *signer.RSAPSSSigner
}

// do runs req through the resolver. Each attempt signs with a fresh
// timestamp over the full URL path of the base it is about to hit.
func (c *Client) do(ctx context.Context, r *endpoint.Resolver, req request, out any) error {
	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.path, err)
		}
		payload = b
	}

	return r.Do(ctx, func(ctx context.Context, base string) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		u, err := url.Parse(base + req.path)
		if err != nil {
			return fmt.Errorf("build url: %w", err)
		}
		if len(req.query) > 0 {
			u.RawQuery = req.query.Encode()
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Accept", "application/json")
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if req.signer != nil {
			h, err := req.signer.Headers(c.now(), req.method, u.Path)
			if err != nil {
				return err
			}
			h.Apply(httpReq)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			metrics.UpstreamRequests.WithLabelValues(venue, metrics.StatusClass(0)).Inc()
			return fmt.Errorf("%s %s: %w", req.method, u.Host+u.Path, err)
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
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response from %s: %w", req.path, u.Host, err)
		}
		return nil
	})
}

// EventsPage fetches one page of open events with nested markets.
func (c *Client) EventsPage(ctx context.Context, cursor string, limit int) ([]catalog.Event, string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("status", "open")
	q.Set("with_nested_markets", "true")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp eventsResponse
	if err := c.do(ctx, c.public, request{method: http.MethodGet, path: "/events", query: q}, &resp); err != nil {
		return nil, "", err
	}
	return normalizeEvents(resp.Events), resp.Cursor, nil
}

func (c *Client) SeriesEvents(ctx context.Context, seriesTicker string) ([]catalog.Event, error) {
	q := url.Values{}
	q.Set("series_ticker", seriesTicker)
	q.Set("status", "open")
	q.Set("with_nested_markets", "true")
	var resp eventsResponse
	if err := c.do(ctx, c.public, request{method: http.MethodGet, path: "/events", query: q}, &resp); err != nil {
		return nil, err
	}
	return normalizeEvents(resp.Events), nil
}

func (c *Client) OpenMarkets(ctx context.Context, limit int) ([]catalog.Market, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("status", "open")
	var resp marketsResponse
	if err := c.do(ctx, c.public, request{method: http.MethodGet, path: "/markets", query: q}, &resp); err != nil {
		return nil, err
	}
	out := make([]catalog.Market, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		out = append(out, m.normalize())
	}
	return out, nil
}

func (c *Client) EventImage(ctx context.Context, eventTicker string) (string, error) {
	var resp metadataResponse
	path := "/events/" + url.PathEscape(eventTicker) + "/metadata"
	if err := c.do(ctx, c.public, request{method: http.MethodGet, path: path}, &resp); err != nil {
		return "", err
	}
	return resp.ImageURL, nil
}

func normalizeEvents(raw []rawEvent) []catalog.Event {
	out := make([]catalog.Event, 0, len(raw))
	for _, e := range raw {
		if e.EventTicker == "" {
			continue
		}
		out = append(out, e.normalize())
	}
	return out
}
