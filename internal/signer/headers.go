package signer

import "net/http"

const (
	HeaderKalshiKey       = "KALSHI-ACCESS-KEY"
	HeaderKalshiSignature = "KALSHI-ACCESS-SIGNATURE"
	HeaderKalshiTimestamp = "KALSHI-ACCESS-TIMESTAMP"

	HeaderPolyAddress    = "POLY_ADDRESS"
	HeaderPolyAPIKey     = "POLY_API_KEY"
	HeaderPolyPassphrase = "POLY_PASSPHRASE"
	HeaderPolySignature  = "POLY_SIGNATURE"
	HeaderPolyTimestamp  = "POLY_TIMESTAMP"
	HeaderPolyNonce      = "POLY_NONCE"
)

// VenueAHeaders authenticate one Kalshi request.
type VenueAHeaders struct {
	AccessKey string `json:"access_key"`
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp"`
}

func (h VenueAHeaders) Apply(req *http.Request) {
	req.Header.Set(HeaderKalshiKey, h.AccessKey)
	req.Header.Set(HeaderKalshiSignature, h.Signature)
	req.Header.Set(HeaderKalshiTimestamp, h.Timestamp)
}

// VenueBHeaders are the CLOB L2 headers.
type VenueBHeaders struct {
	Address    string `json:"address"`
	APIKey     string `json:"api_key"`
	Passphrase string `json:"passphrase"`
	Signature  string `json:"signature"`
	Timestamp  string `json:"timestamp"`
}

func (h VenueBHeaders) Apply(req *http.Request) {
	req.Header.Set(HeaderPolyAddress, h.Address)
	req.Header.Set(HeaderPolyAPIKey, h.APIKey)
	req.Header.Set(HeaderPolyPassphrase, h.Passphrase)
	req.Header.Set(HeaderPolySignature, h.Signature)
	req.Header.Set(HeaderPolyTimestamp, h.Timestamp)
}

// L1Headers prove wallet ownership when creating or deriving API keys.
type L1Headers struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp"`
	Nonce     string `json:"nonce"`
}

func (h L1Headers) Apply(req *http.Request) {
	req.Header.Set(HeaderPolyAddress, h.Address)
	req.Header.Set(HeaderPolySignature, h.Signature)
	req.Header.Set(HeaderPolyTimestamp, h.Timestamp)
	req.Header.Set(HeaderPolyNonce, h.Nonce)
}
