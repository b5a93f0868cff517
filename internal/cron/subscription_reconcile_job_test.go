package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harryyking/pothole-reporter-backend/internal/subscriptions"
	"github.com/harryyking/pothole-reporter-backend/pkg/db/models"
	"github.com/harryyking/pothole-reporter-backend/pkg/enums"
	pkgerrors "github.com/harryyking/pothole-reporter-backend/pkg/errors"
	"github.com/harryyking/pothole-reporter-backend/pkg/logger"
	"github.com/harryyking/pothole-reporter-backend/pkg/paystack"
	"gorm.io/gorm"
)

type reconcileSubRepo struct {
	listed  []models.Subscription
	listErr error
	updated []*models.Subscription
}

func (r *reconcileSubRepo) WithTx(tx *gorm.DB) subscriptions.Repository { return r }

func (r *reconcileSubRepo) Create(ctx context.Context, sub *models.Subscription) error { return nil }

func (r *reconcileSubRepo) Update(ctx context.Context, sub *models.Subscription) error {
	r.updated = append(r.updated, sub)
	return nil
}

func (r *reconcileSubRepo) UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func (r *reconcileSubRepo) FindByUserAndProviderID(ctx context.Context, userID uuid.UUID, providerID string) (*models.Subscription, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *reconcileSubRepo) FindByProviderID(ctx context.Context, providerID string) (*models.Subscription, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *reconcileSubRepo) ListForReconciliation(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.listed, nil
}

type stubFetcher struct {
	subs map[string]*paystack.Subscription
	err  error
}

func (s *stubFetcher) FetchSubscription(ctx context.Context, code string) (*paystack.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	if sub, ok := s.subs[code]; ok {
		return sub, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "paystack resource not found")
}

func newReconcileJob(t *testing.T, repo *reconcileSubRepo, fetcher *stubFetcher) Job {
	t.Helper()
	job, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:           logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		SubscriptionRepo: repo,
		PaystackClient:   fetcher,
		Now:              func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("failed to build job: %v", err)
	}
	return job
}

func TestReconcileAppliesProviderDrift(t *testing.T) {
	repo := &reconcileSubRepo{listed: []models.Subscription{{
		ID:                     uuid.New(),
		PaystackSubscriptionID: "SUB_abc",
		Status:                 enums.SubscriptionStatusActive,
	}}}
	next := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{subs: map[string]*paystack.Subscription{
		"SUB_abc": {SubscriptionCode: "SUB_abc", Status: "attention", NextPaymentDate: &next},
	}}

	if err := newReconcileJob(t, repo, fetcher).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(repo.updated))
	}
	sub := repo.updated[0]
	if sub.Status != enums.SubscriptionStatusPaymentFailed {
		t.Errorf("attention should map to payment_failed, got %s", sub.Status)
	}
	if sub.NextPaymentDate == nil || !sub.NextPaymentDate.Equal(next) {
		t.Errorf("next payment date not synced: %v", sub.NextPaymentDate)
	}
}

func TestReconcileSkipsWhenInSync(t *testing.T) {
	repo := &reconcileSubRepo{listed: []models.Subscription{{
		ID:                     uuid.New(),
		PaystackSubscriptionID: "SUB_abc",
		Status:                 enums.SubscriptionStatusActive,
	}}}
	fetcher := &stubFetcher{subs: map[string]*paystack.Subscription{
		"SUB_abc": {SubscriptionCode: "SUB_abc", Status: "active"},
	}}

	if err := newReconcileJob(t, repo, fetcher).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.updated) != 0 {
		t.Fatal("in-sync subscriptions must not be rewritten")
	}
}

func TestReconcileCancelsOrphans(t *testing.T) {
	repo := &reconcileSubRepo{listed: []models.Subscription{{
		ID:                     uuid.New(),
		PaystackSubscriptionID: "SUB_gone",
		Status:                 enums.SubscriptionStatusActive,
	}}}
	fetcher := &stubFetcher{subs: map[string]*paystack.Subscription{}}

	if err := newReconcileJob(t, repo, fetcher).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(repo.updated))
	}
	sub := repo.updated[0]
	if sub.Status != enums.SubscriptionStatusCancelled {
		t.Errorf("orphaned subscription should be cancelled, got %s", sub.Status)
	}
	if sub.EndDate == nil {
		t.Error("end date not set on cancellation")
	}
}

func TestReconcileAggregatesFetchErrors(t *testing.T) {
	repo := &reconcileSubRepo{listed: []models.Subscription{
		{ID: uuid.New(), PaystackSubscriptionID: "SUB_a", Status: enums.SubscriptionStatusActive},
		{ID: uuid.New(), PaystackSubscriptionID: "SUB_b", Status: enums.SubscriptionStatusActive},
	}}
	fetcher := &stubFetcher{err: errors.New("paystack unreachable")}

	err := newReconcileJob(t, repo, fetcher).Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(repo.updated) != 0 {
		t.Fatal("no updates expected when the provider is unreachable")
	}
}
