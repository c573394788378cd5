// Package endpoint tries an ordered list of base URLs until one succeeds.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/pkg/logger"
)

var ErrNoCandidates = errors.New("endpoint: no base URLs configured")

// Attempt runs one request against baseURL. It must sign inside the call so
// every attempt carries its own timestamp.
type Attempt func(ctx context.Context, baseURL string) error

// Resolver walks candidates in order. With Sticky set it starts from the last
// candidate that worked. Credential and rate-limit failures stop the walk:
// another mirror would reject them the same way.
type Resolver struct {
	name       string
	candidates []string
	sticky     bool

	mu   sync.Mutex
	last int
	log  *slog.Logger
}

func NewResolver(name string, candidates []string, sticky bool) *Resolver {
	c := make([]string, len(candidates))
	copy(c, candidates)
	return &Resolver{
		name:       name,
		candidates: c,
		sticky:     sticky,
		log:        logger.Component("endpoint").With("resolver", name),
	}
}

func (r *Resolver) Candidates() []string {
	out := make([]string, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Do returns nil on the first successful attempt. Otherwise it returns the
// last error, or the terminal one that stopped the walk.
func (r *Resolver) Do(ctx context.Context, attempt Attempt) error {
	if len(r.candidates) == 0 {
		return ErrNoCandidates
	}
	start := r.start()
	var lastErr error
	for i := range r.candidates {
		idx := (start + i) % len(r.candidates)
		base := r.candidates[idx]
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (last attempt: %v)", err, lastErr)
			}
			return err
		}
		err := attempt(ctx, base)
		if err == nil {
			r.remember(idx)
			return nil
		}
		lastErr = err
		if apperrors.Terminal(err) {
			return err
		}
		r.log.Debug("endpoint attempt failed", "base_url", base, "error", err)
	}
	return lastErr
}

func (r *Resolver) start() int {
	if !r.sticky {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Resolver) remember(idx int) {
	if !r.sticky {
		return
	}
	r.mu.Lock()
	r.last = idx
	r.mu.Unlock()
}
