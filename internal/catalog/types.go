package catalog

import "context"

// Market is one tradable contract, already normalized: dollars, not cents,
// and RFC3339 close times.
type Market struct {
	Ticker      string  `json:"ticker"`
	EventTicker string  `json:"event_ticker"`
	Title       string  `json:"title"`
	Status      string  `json:"status,omitempty"`
	YesBid      float64 `json:"yes_bid"`
	YesAsk      float64 `json:"yes_ask"`
	LastPrice   float64 `json:"last_price"`
	Volume      float64 `json:"volume"`
	Volume24h   float64 `json:"volume_24h"`
	Liquidity   float64 `json:"liquidity"`
	CloseTime   string  `json:"close_time,omitempty"`
}

// Event groups markets under one event ticker, the dedupe key.
type Event struct {
	EventTicker  string   `json:"event_ticker"`
	SeriesTicker string   `json:"series_ticker,omitempty"`
	Title        string   `json:"title"`
	Category     string   `json:"category,omitempty"`
	Volume24h    float64  `json:"volume_24h"`
	VolumeTotal  float64  `json:"volume_total"`
	Liquidity    float64  `json:"liquidity"`
	EndDate      string   `json:"end_date,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Markets      []Market `json:"markets"`
	SourceTag    Source   `json:"source"`
	Sources      []Source `json:"sources"`
	Score        float64  `json:"score"`
}

// Fetcher is the venue side of the aggregator. *kalshi.Client satisfies it.
type Fetcher interface {
	EventsPage(ctx context.Context, cursor string, limit int) ([]Event, string, error)
	SeriesEvents(ctx context.Context, seriesTicker string) ([]Event, error)
	OpenMarkets(ctx context.Context, limit int) ([]Market, error)
	EventImage(ctx context.Context, eventTicker string) (string, error)
}
