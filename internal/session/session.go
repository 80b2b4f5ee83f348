// Package session owns the connection to the table backend.
//
// A Handle connects lazily on first use and hands out the typed table and
// query services. Connect dials under a ReconnectPolicy; idempotent
// operations that fail with grid.ErrUnavailable can be retried whole
// through Handle.Retry, which drops the connection and reconnects.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/tablestore"
)

// Backend is a connected table backend.
type Backend interface {
	grid.TableService
	grid.QueryService
	Close() error
}

// Connector establishes a new backend connection.
type Connector func(ctx context.Context) (Backend, error)

// SQLite returns a Connector for the tablestore database at path.
func SQLite(path string) Connector {
	return func(ctx context.Context) (Backend, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return tablestore.Open(path)
	}
}

// ReconnectPolicy bounds retries after storage failures.
type ReconnectPolicy struct {
	// MaxAttempts counts the first try. Values below 1 mean 1.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Rate caps reconnects per second across all retries of a Handle.
	// Zero means unlimited.
	Rate float64
}

// Backoff returns the delay before retry n (1-based): BaseDelay doubled
// per attempt, capped at MaxDelay.
func (p ReconnectPolicy) Backoff(n int) time.Duration {
	if n < 1 || p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Handle is a lazily connected backend session. It is safe for concurrent
// use.
type Handle struct {
	connect Connector
	policy  ReconnectPolicy
	limiter *rate.Limiter

	mu      sync.Mutex
	backend Backend
	dials   int
}

// New returns a Handle that connects with connect.
func New(connect Connector, policy ReconnectPolicy) *Handle {
	limit := rate.Inf
	if policy.Rate > 0 {
		limit = rate.Limit(policy.Rate)
	}
	return &Handle{
		connect: connect,
		policy:  policy,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// TableService returns the table service, connecting if needed.
func (h *Handle) TableService(ctx context.Context) (grid.TableService, error) {
	return h.get(ctx)
}

// QueryService returns the query service, connecting if needed.
func (h *Handle) QueryService(ctx context.Context) (grid.QueryService, error) {
	return h.get(ctx)
}

func (h *Handle) get(ctx context.Context) (Backend, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.backend != nil {
		return h.backend, nil
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	h.dials++
	b, err := h.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	h.backend = b
	slog.Debug("backend connected", "dials", h.dials)
	return b, nil
}

// Dials returns how many connection attempts the Handle has made.
func (h *Handle) Dials() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dials
}

// Reset drops the current connection. The next service access reconnects.
func (h *Handle) Reset() {
	h.mu.Lock()
	b := h.backend
	h.backend = nil
	h.mu.Unlock()

	if b != nil {
		if err := b.Close(); err != nil {
			slog.Warn("closing backend", "error", err)
		}
	}
}

// Close releases the connection.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.backend == nil {
		return nil
	}
	err := h.backend.Close()
	h.backend = nil
	return err
}

// Connect returns the backend, dialing under the reconnect policy until a
// connection is made, a dial fails with an error other than
// grid.ErrUnavailable, or the policy's attempts are spent.
func (h *Handle) Connect(ctx context.Context, op string) (Backend, error) {
	var b Backend
	err := h.Retry(ctx, op, func(ctx context.Context) error {
		var err error
		b, err = h.get(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Retry runs fn until it succeeds, fails with an error other than
// grid.ErrUnavailable, or the policy's attempts are spent. Between
// attempts the connection is reset and the backoff delay observed.
//
// fn must fetch services from the Handle on every call, and it must be
// safe to repeat: a failure after a backend mutation committed would replay
// that mutation. Operations that write go through Connect instead.
func (h *Handle) Retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := max(h.policy.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := h.policy.Backoff(attempt - 1)
			slog.Info("retrying after storage failure",
				"op", op, "attempt", attempt, "delay", delay, "error", err)
			h.Reset()
			if werr := sleep(ctx, delay); werr != nil {
				return werr
			}
		}

		err = fn(ctx)
		if err == nil || !errors.Is(err, grid.ErrUnavailable) {
			return err
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
