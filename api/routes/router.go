package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harryyking/pothole-reporter-backend/api/controllers"
	webhookcontrollers "github.com/harryyking/pothole-reporter-backend/api/controllers/webhooks"
	"github.com/harryyking/pothole-reporter-backend/api/middleware"
	paystackwebhook "github.com/harryyking/pothole-reporter-backend/internal/webhooks/paystack"
	"github.com/harryyking/pothole-reporter-backend/pkg/config"
	"github.com/harryyking/pothole-reporter-backend/pkg/db"
	"github.com/harryyking/pothole-reporter-backend/pkg/logger"
	"github.com/harryyking/pothole-reporter-backend/pkg/metrics"
	"github.com/harryyking/pothole-reporter-backend/pkg/paystack"
	"github.com/harryyking/pothole-reporter-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	paystackClient *paystack.Client,
	webhookService *paystackwebhook.Service,
	webhookGuard *paystackwebhook.IdempotencyGuard,
	webhookMetrics *metrics.WebhookMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisP db.Pinger
	if redisClient != nil {
		redisP = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	webhookHandler := webhookcontrollers.PaystackWebhook(webhookService, paystackClient, webhookGuard, logg, webhookMetrics)

	// Paystack dashboards are usually configured with the bare path; the
	// versioned route exists for consistency with any future API surface.
	r.Post("/webhook", webhookHandler)
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paystack", webhookHandler)
	})

	return r
}
