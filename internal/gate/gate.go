// Package gate decides whether a user may submit CLOB orders right now.
package gate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/GoPolymarket/polydesk/internal/model"
	"github.com/GoPolymarket/polydesk/internal/pkg/logger"
	"github.com/GoPolymarket/polydesk/internal/pkg/metrics"
	"github.com/GoPolymarket/polydesk/internal/signer"
)

// Stage is the first failing check, or StageReady.
type Stage string

const (
	StageNoCredentials         Stage = "NO_CREDENTIALS"
	StageIncompleteCredentials Stage = "INCOMPLETE_CREDENTIALS"
	StageOwnerMismatch         Stage = "OWNER_MISMATCH"
	StageStatusCheckFailed     Stage = "STATUS_CHECK_FAILED"
	StageClosedOnly            Stage = "CLOSED_ONLY"
	StageReady                 Stage = "READY"
)

// Predicates are the raw inputs. ClosedOnly is nil when the status check
// could not be completed, which is never read as "unrestricted".
type Predicates struct {
	HasKey        bool  `json:"has_key"`
	HasSecret     bool  `json:"has_secret"`
	HasPassphrase bool  `json:"has_passphrase"`
	OwnerMatch    bool  `json:"owner_match"`
	ClosedOnly    *bool `json:"closed_only"`
}

type Result struct {
	Predicates
	TradingEnabled bool   `json:"trading_enabled"`
	Stage          Stage  `json:"stage"`
	Reason         string `json:"reason,omitempty"`
}

// Decide is the pure evaluation. Enabled only if every predicate holds.
func Decide(p Predicates) Result {
	r := Result{Predicates: p}
	switch {
	case !p.HasKey && !p.HasSecret && !p.HasPassphrase:
		r.Stage, r.Reason = StageNoCredentials, "no CLOB API credentials stored"
	case !p.HasKey || !p.HasSecret || !p.HasPassphrase:
		r.Stage, r.Reason = StageIncompleteCredentials, "CLOB API key, secret and passphrase are all required"
	case !p.OwnerMatch:
		r.Stage, r.Reason = StageOwnerMismatch, "connected wallet does not own the stored API key"
	case p.ClosedOnly == nil:
		r.Stage, r.Reason = StageStatusCheckFailed, "account restriction status unknown"
	case *p.ClosedOnly:
		r.Stage, r.Reason = StageClosedOnly, "account is in closed-only mode"
	default:
		r.Stage, r.TradingEnabled = StageReady, true
	}
	return r
}

// StatusChecker fetches the closed-only flag. *clob.Client satisfies it.
type StatusChecker interface {
	ClosedOnly(ctx context.Context, s *signer.HMACSigner) (bool, error)
}

type Evaluator struct {
	status StatusChecker
	log    *slog.Logger
}

func NewEvaluator(status StatusChecker) *Evaluator {
	return &Evaluator{status: status, log: logger.Component("trading_gate")}
}

// Evaluate recomputes the gate from creds and the currently connected wallet.
// The status endpoint is only called once the local checks pass.
func (e *Evaluator) Evaluate(ctx context.Context, creds *model.VenueBCredentials, connectedAddress string) Result {
	p := Predicates{
		HasKey:        creds.HasKey(),
		HasSecret:     creds.HasSecret(),
		HasPassphrase: creds.HasPassphrase(),
	}
	if creds != nil {
		p.OwnerMatch = sameAddress(creds.OwnerAddress, connectedAddress)
	}

	if res := Decide(p); res.Stage != StageStatusCheckFailed {
		return e.record(res)
	}

	s, err := signer.NewHMAC(creds.OwnerAddress, creds.APIKeyCreds())
	if err != nil {
		res := Decide(p)
		res.Reason = "stored API secret is unusable: " + err.Error()
		return e.record(res)
	}
	closed, err := e.status.ClosedOnly(ctx, s)
	if err != nil {
		e.log.Warn("closed-only status check failed", "error", err)
		res := Decide(p)
		res.Reason = "status check failed: " + err.Error()
		return e.record(res)
	}
	p.ClosedOnly = &closed
	return e.record(Decide(p))
}

func (e *Evaluator) record(r Result) Result {
	metrics.GateEvaluations.WithLabelValues(string(r.Stage)).Inc()
	return r
}

// sameAddress compares case-insensitively. An empty side never matches.
func sameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && b != "" && strings.EqualFold(a, b)
}
