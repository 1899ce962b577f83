package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type RouterConfig struct {
	// CallbackToken guards the transfer callback. Empty disables the check.
	CallbackToken string
	Gatherer      prometheus.Gatherer
	Readiness     map[string]ReadinessCheck
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", readyHandler(cfg.Readiness))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(cfg.CallbackToken))
			r.Post("/notifications/asset-received", handler.assetReceived)
			r.Post("/transfers/callback", handler.transferCallback)
		})
		r.Get("/campaigns", handler.listCampaigns)
		r.Get("/campaigns/{campaign_id}", handler.getCampaign)
		r.Get("/campaigns/by-slug/{slug}", handler.getCampaignBySlug)
		r.Get("/campaigns/{campaign_id}/rewards/{account}", handler.availableReward)
		r.Get("/supporters/{account}", handler.getSupporter)
		r.Get("/settlements/{settlement_id}", handler.getSettlement)
		r.Get("/worklist", handler.worklist)
	})
	return r
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token", middleware.GetReqID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func readyHandler(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, successResponse{Status: "error", Message: "not ready", Data: failed})
			return
		}
		writeSuccess(w, http.StatusOK, "ready", nil)
	}
}
