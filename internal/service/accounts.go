package service

import (
	"context"
	"sync"

	"github.com/GoPolymarket/polydesk/internal/config"
	"github.com/GoPolymarket/polydesk/internal/model"
	"golang.org/x/time/rate"
)

// AccountRegistry maps gateway keys to accounts and holds their limiters.
type AccountRegistry struct {
	mu             sync.RWMutex
	accounts       map[string]*model.Account // key: gateway key
	limiters       map[string]*rate.Limiter  // key: user id
	defaultAccount *model.Account
}

func NewAccountRegistry(cfg *config.Config) *AccountRegistry {
	r := &AccountRegistry{
		accounts: make(map[string]*model.Account),
		limiters: make(map[string]*rate.Limiter),
	}
	for _, ac := range cfg.Accounts {
		acc := &model.Account{
			UserID:     ac.UserID,
			GatewayKey: ac.GatewayKey,
			Rate:       model.RateLimitConfig{QPS: ac.RateLimit.QPS, Burst: ac.RateLimit.Burst},
		}
		if acc.Rate.QPS == 0 {
			acc.Rate = model.RateLimitConfig{QPS: 10, Burst: 20}
		}
		r.Register(acc)
		if ac.UserID == cfg.Auth.DefaultAccount || (cfg.Auth.DefaultAccount == "" && r.defaultAccount == nil) {
			r.defaultAccount = acc
		}
	}
	return r
}

func (r *AccountRegistry) Register(a *model.Account) {
	if a == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.GatewayKey] = a

	limit := rate.Limit(a.Rate.QPS)
	if limit == 0 {
		limit = rate.Inf
	}
	burst := a.Rate.Burst
	if burst == 0 {
		burst = 1
	}
	r.limiters[a.UserID] = rate.NewLimiter(limit, burst)
}

func (r *AccountRegistry) Lookup(gatewayKey string) (*model.Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[gatewayKey]
	return a, ok
}

func (r *AccountRegistry) Default() *model.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultAccount
}

func (r *AccountRegistry) Limiter(userID string) *rate.Limiter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limiters[userID]
}

// SeedCredentials writes venue credentials from config into the store.
// Accounts without any configured credentials are skipped.
func SeedCredentials(ctx context.Context, store CredentialStore, accounts []config.AccountConfig) error {
	for _, ac := range accounts {
		creds := &model.Credentials{UserID: ac.UserID}
		if ac.Kalshi.APIKeyID != "" || ac.Kalshi.PrivateKey != "" {
			creds.Kalshi = &model.VenueACredentials{APIKeyID: ac.Kalshi.APIKeyID, PrivateKey: ac.Kalshi.PrivateKey}
		}
		p := ac.Polymarket
		if p.APIKey != "" || p.Secret != "" || p.Passphrase != "" || p.OwnerAddress != "" {
			creds.Polymarket = &model.VenueBCredentials{
				APIKey:        p.APIKey,
				Secret:        p.Secret,
				Passphrase:    p.Passphrase,
				OwnerAddress:  p.OwnerAddress,
				FunderAddress: p.FunderAddress,
				SignatureType: p.SignatureType,
			}
		}
		if creds.Kalshi == nil && creds.Polymarket == nil {
			continue
		}
		if err := store.Upsert(ctx, creds); err != nil {
			return err
		}
	}
	return nil
}
