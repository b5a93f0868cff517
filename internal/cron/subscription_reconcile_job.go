package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harryyking/pothole-reporter-backend/internal/subscriptions"
	"github.com/harryyking/pothole-reporter-backend/pkg/db/models"
	"github.com/harryyking/pothole-reporter-backend/pkg/enums"
	pkgerrors "github.com/harryyking/pothole-reporter-backend/pkg/errors"
	"github.com/harryyking/pothole-reporter-backend/pkg/logger"
	"github.com/harryyking/pothole-reporter-backend/pkg/paystack"
	"go.uber.org/multierr"
)

const (
	defaultReconcileLimit    = 250
	defaultReconcileLookback = 7 * 24 * time.Hour
)

// subscriptionFetcher is the slice of the Paystack client the job needs.
type subscriptionFetcher interface {
	FetchSubscription(ctx context.Context, code string) (*paystack.Subscription, error)
}

// SubscriptionReconcileJobParams configures the subscription sync cron job.
type SubscriptionReconcileJobParams struct {
	Logger           *logger.Logger
	SubscriptionRepo subscriptions.Repository
	PaystackClient   subscriptionFetcher
	Limit            int
	Lookback         time.Duration
	Now              func() time.Time
}

// NewSubscriptionReconcileJob builds a job that resyncs stale local
// subscriptions against Paystack. It is the safety net for webhook deliveries
// that were lost or arrived out of order.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.SubscriptionRepo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if params.PaystackClient == nil {
		return nil, fmt.Errorf("paystack client required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &subscriptionReconcileJob{
		logg:     params.Logger,
		subRepo:  params.SubscriptionRepo,
		paystack: params.PaystackClient,
		now:      now,
		limit:    limit,
		lookback: lookback,
	}, nil
}

type subscriptionReconcileJob struct {
	logg     *logger.Logger
	subRepo  subscriptions.Repository
	paystack subscriptionFetcher
	now      func() time.Time
	limit    int
	lookback time.Duration
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	snapshot, err := j.subRepo.ListForReconciliation(ctx, j.limit, j.lookback)
	if err != nil {
		return fmt.Errorf("list subscriptions for reconciliation: %w", err)
	}

	var errs error
	synced := 0
	for i := range snapshot {
		if err := j.reconcileSubscription(ctx, &snapshot[i]); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		synced++
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(snapshot),
		"synced":     synced,
	})
	j.logg.Info(reportCtx, "subscription reconcile loop complete")
	return errs
}

func (j *subscriptionReconcileJob) reconcileSubscription(ctx context.Context, sub *models.Subscription) error {
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"subscription_id":          sub.ID,
		"paystack_subscription_id": sub.PaystackSubscriptionID,
	})

	remote, err := j.paystack.FetchSubscription(logCtx, sub.PaystackSubscriptionID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			j.logg.Warn(logCtx, "subscription no longer exists at provider; cancelling locally")
			return j.cancelLocally(logCtx, sub)
		}
		return fmt.Errorf("fetch subscription %s: %w", sub.PaystackSubscriptionID, err)
	}

	status, known := localStatusFor(remote.Status)
	if !known {
		j.logg.Warn(logCtx, "provider reported unrecognized subscription status; skipping")
		return nil
	}

	if sub.Status == status && datesEqual(sub.NextPaymentDate, remote.NextPaymentDate) {
		return nil
	}

	sub.Status = status
	sub.NextPaymentDate = remote.NextPaymentDate
	if status == enums.SubscriptionStatusCancelled && sub.EndDate == nil {
		now := j.now().UTC()
		sub.EndDate = &now
	}
	if err := j.subRepo.Update(logCtx, sub); err != nil {
		return fmt.Errorf("persist reconciled subscription: %w", err)
	}

	successCtx := j.logg.WithField(logCtx, "provider_status", remote.Status)
	j.logg.Info(successCtx, "subscription reconciled")
	return nil
}

func (j *subscriptionReconcileJob) cancelLocally(ctx context.Context, sub *models.Subscription) error {
	if sub.Status.IsTerminal() {
		return nil
	}
	now := j.now().UTC()
	sub.Status = enums.SubscriptionStatusCancelled
	sub.EndDate = &now
	if err := j.subRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("cancel orphaned subscription: %w", err)
	}
	return nil
}

// localStatusFor maps a Paystack subscription status onto the local
// lifecycle. "attention" means the last charge failed but Paystack is still
// retrying; "non-renewing" keeps access until the paid period lapses.
func localStatusFor(providerStatus string) (enums.SubscriptionStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "active", "non-renewing":
		return enums.SubscriptionStatusActive, true
	case "attention":
		return enums.SubscriptionStatusPaymentFailed, true
	case "cancelled", "completed":
		return enums.SubscriptionStatusCancelled, true
	default:
		return "", false
	}
}

func datesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
