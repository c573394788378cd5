package model

import (
	"github.com/GoPolymarket/polydesk/internal/order"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
)

// SignVenueARequest asks for Kalshi headers for one outbound call.
type SignVenueARequest struct {
	Method string `json:"method" binding:"required"`
	Path   string `json:"path" binding:"required"`
}

// SignVenueBRequest asks for CLOB L2 headers. Body is the exact request body
// that will be sent, empty for GET.
type SignVenueBRequest struct {
	Method string `json:"method" binding:"required"`
	Path   string `json:"path" binding:"required"`
	Body   string `json:"body,omitempty"`
}

type BuildOrderRequest struct {
	TokenID       string          `json:"token_id" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	Size          decimal.Decimal `json:"size"`
	Side          string          `json:"side" binding:"required,oneof=BUY SELL buy sell"`
	Signer        string          `json:"signer" binding:"required"`
	Funder        string          `json:"funder,omitempty"`
	SignatureType *int            `json:"signature_type,omitempty"` // 0=EOA,1=Proxy,2=Safe
	NegRisk       bool            `json:"neg_risk,omitempty"`
}

// BuildOrderResponse carries the transport form without a signature and the
// typed data the wallet must sign.
type BuildOrderResponse struct {
	Order     order.SignedOrder  `json:"order"`
	TypedData apitypes.TypedData `json:"typed_data"`
}

type SubmitOrderRequest struct {
	Order            order.SignedOrder `json:"order"`
	OrderType        string            `json:"order_type,omitempty"` // GTC/GTD/FAK/FOK
	NegRisk          bool              `json:"neg_risk,omitempty"`
	ConnectedAddress string            `json:"connected_address,omitempty"`
}

type RefreshPricesRequest struct {
	Tickers []string `json:"tickers" binding:"required,min=1,max=200"`
}

type KalshiOrderRequest struct {
	Ticker        string `json:"ticker" binding:"required"`
	Action        string `json:"action" binding:"required"`
	Side          string `json:"side" binding:"required"`
	Count         int    `json:"count" binding:"required"`
	PriceCents    int    `json:"price_cents" binding:"required"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type UpsertCredentialsRequest struct {
	Kalshi     *VenueACredentials `json:"kalshi,omitempty"`
	Polymarket *VenueBCredentials `json:"polymarket,omitempty"`
}
