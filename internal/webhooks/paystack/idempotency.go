package paystackwebhook

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/harryyking/pothole-reporter-backend/pkg/errors"
	"github.com/harryyking/pothole-reporter-backend/pkg/logger"
	"github.com/harryyking/pothole-reporter-backend/pkg/redis"
	"go.uber.org/multierr"
)

// DedupStore is the durable record of applied events. InsertIfAbsent must be
// atomic: of N concurrent calls with the same ID exactly one returns true.
type DedupStore interface {
	InsertIfAbsent(ctx context.Context, eventID string) (bool, error)
	Remove(ctx context.Context, eventID string) error
}

// IdempotencyGuard fences duplicate webhook deliveries. The database marker is
// authoritative; Redis is a best-effort fast path in front of it, so cache
// failures degrade to extra DB work instead of lost or double-applied events.
type IdempotencyGuard struct {
	durable DedupStore
	cache   redis.IdempotencyStore
	ttl     time.Duration
	scope   string
	logger  *logger.Logger
}

// NewIdempotencyGuard builds a guard. The cache store may be nil.
func NewIdempotencyGuard(durable DedupStore, cache redis.IdempotencyStore, ttl time.Duration, scope string, logg *logger.Logger) (*IdempotencyGuard, error) {
	if durable == nil {
		return nil, errors.New("durable dedup store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &IdempotencyGuard{
		durable: durable,
		cache:   cache,
		ttl:     ttl,
		scope:   scope,
		logger:  logg,
	}, nil
}

// CheckAndMark claims the event ID, returning true when it was already
// claimed by an earlier delivery.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}

	if g.cache != nil {
		key := g.cache.IdempotencyKey(g.scope, eventID)
		set, err := g.cache.SetNX(ctx, key, "1", g.ttl)
		if err != nil {
			g.logger.Warn(ctx, "idempotency cache unavailable, falling through to database")
		} else if !set {
			return true, nil
		}
	}

	inserted, err := g.durable.InsertIfAbsent(ctx, eventID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record event marker")
	}
	return !inserted, nil
}

// Delete releases the claim so the provider's retry of a failed event can be
// processed. A crash between claim and release leaves the marker in place,
// which drops that retry; that is the accepted trade against double-applying.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}

	var errs error
	if err := g.durable.Remove(ctx, eventID); err != nil {
		errs = multierr.Append(errs, err)
	}
	if g.cache != nil {
		key := g.cache.IdempotencyKey(g.scope, eventID)
		if err := g.cache.Del(ctx, key); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "release event marker")
	}
	return nil
}
