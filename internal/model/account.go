package model

// RateLimitConfig is the per-account request budget.
type RateLimitConfig struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}

// Account is a caller of the gateway, identified by the key it presents.
type Account struct {
	UserID     string          `json:"user_id"`
	GatewayKey string          `json:"-"`
	Rate       RateLimitConfig `json:"rate_limit"`
}
