package kalshi

import (
	"strings"
	"time"

	"github.com/GoPolymarket/polydesk/internal/catalog"
	"github.com/shopspring/decimal"
)

// flexNum accepts a JSON number, a numeric string, an empty string or null.
// Kalshi has shipped all four for the same field over time.
type flexNum struct {
	decimal.Decimal
	Valid bool
}

func (f *flexNum) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		// Unparseable values read as absent.
		return nil
	}
	f.Decimal, f.Valid = d, true
	return nil
}

func (f flexNum) float() float64 {
	if !f.Valid {
		return 0
	}
	return f.InexactFloat64()
}

var hundred = decimal.NewFromInt(100)

// dollars prefers the explicit *_dollars field and falls back to cents.
func dollars(dollarField, centsField flexNum) float64 {
	if dollarField.Valid {
		return dollarField.InexactFloat64()
	}
	if centsField.Valid {
		return centsField.Div(hundred).InexactFloat64()
	}
	return 0
}

type rawMarket struct {
	Ticker           string  `json:"ticker"`
	EventTicker      string  `json:"event_ticker"`
	Title            string  `json:"title"`
	YesSubTitle      string  `json:"yes_sub_title"`
	Status           string  `json:"status"`
	CloseTime        string  `json:"close_time"`
	ExpirationTime   string  `json:"expiration_time"`
	Volume           flexNum `json:"volume"`
	Volume24h        flexNum `json:"volume_24h"`
	Liquidity        flexNum `json:"liquidity"`
	LiquidityDollars flexNum `json:"liquidity_dollars"`
	YesBid           flexNum `json:"yes_bid"`
	YesBidDollars    flexNum `json:"yes_bid_dollars"`
	YesAsk           flexNum `json:"yes_ask"`
	YesAskDollars    flexNum `json:"yes_ask_dollars"`
	LastPrice        flexNum `json:"last_price"`
	LastPriceDollars flexNum `json:"last_price_dollars"`
}

type rawEvent struct {
	EventTicker  string      `json:"event_ticker"`
	SeriesTicker string      `json:"series_ticker"`
	Title        string      `json:"title"`
	SubTitle     string      `json:"sub_title"`
	Category     string      `json:"category"`
	StrikeDate   string      `json:"strike_date"`
	Markets      []rawMarket `json:"markets"`
}

type eventsResponse struct {
	Events []rawEvent `json:"events"`
	Cursor string     `json:"cursor"`
}

type marketsResponse struct {
	Markets []rawMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

type marketResponse struct {
	Market rawMarket `json:"market"`
}

type metadataResponse struct {
	ImageURL string `json:"image_url"`
}

func (m rawMarket) normalize() catalog.Market {
	title := m.Title
	if title == "" {
		title = m.YesSubTitle
	}
	closeTime := isoDate(m.CloseTime)
	if closeTime == "" {
		closeTime = isoDate(m.ExpirationTime)
	}
	return catalog.Market{
		Ticker:      m.Ticker,
		EventTicker: m.EventTicker,
		Title:       title,
		Status:      m.Status,
		YesBid:      dollars(m.YesBidDollars, m.YesBid),
		YesAsk:      dollars(m.YesAskDollars, m.YesAsk),
		LastPrice:   dollars(m.LastPriceDollars, m.LastPrice),
		Volume:      m.Volume.float(),
		Volume24h:   m.Volume24h.float(),
		Liquidity:   dollars(m.LiquidityDollars, m.Liquidity),
		CloseTime:   closeTime,
	}
}

// normalize builds an event. Aggregate figures are summed from the markets;
// the end date is the strike date, or else the latest market close.
func (e rawEvent) normalize() catalog.Event {
	ev := catalog.Event{
		EventTicker:  e.EventTicker,
		SeriesTicker: e.SeriesTicker,
		Title:        e.Title,
		Category:     e.Category,
		EndDate:      isoDate(e.StrikeDate),
		Markets:      make([]catalog.Market, 0, len(e.Markets)),
	}
	if ev.Title == "" {
		ev.Title = e.SubTitle
	}
	latest := ""
	for _, rm := range e.Markets {
		m := rm.normalize()
		if m.EventTicker == "" {
			m.EventTicker = e.EventTicker
		}
		ev.Markets = append(ev.Markets, m)
		if m.CloseTime > latest {
			latest = m.CloseTime
		}
	}
	if ev.EndDate == "" {
		ev.EndDate = latest
	}
	catalog.Summarize(&ev)
	return ev
}

// isoDate rewrites any parseable timestamp as RFC3339 UTC. Unknown formats
// come back empty.
func isoDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return ""
}
