// Package api HTTP интерфейс движка распределения и подбора доноров
package api

import (
	"net/http"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/metrics"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Services сервисы, которые обслуживает HTTP слой
type Services struct {
	Slots        *service.SlotService
	Bookings     *service.BookingService
	Inventory    *service.InventoryService
	Donors       *service.DonorService
	Rare         *service.RareDonorService
	Verification *service.VerificationService
}

type Config struct {
	// SubmitRPS частота создания срочных запросов на одного вызывающего, 0 без ограничения
	SubmitRPS   float64
	SubmitBurst int
	// MetricsHandler отдаётся на /metrics, если задан
	MetricsHandler http.Handler
}

type Handler struct {
	svc     Services
	logger  *zap.Logger
	metrics *metrics.Metrics
	limiter *actorLimiter
}

// NewRouter собирает chi роутер со всеми маршрутами
func NewRouter(svc Services, cfg Config, logger *zap.Logger, m *metrics.Metrics) http.Handler {
	h := &Handler{
		svc:     svc,
		logger:  logger,
		metrics: m,
	}
	if cfg.SubmitRPS > 0 {
		h.limiter = newActorLimiter(cfg.SubmitRPS, cfg.SubmitBurst)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identity)

		r.Route("/slots", func(r chi.Router) {
			r.Get("/", h.listSlots)
			r.Post("/", h.createSlot)
			r.Post("/recurring", h.createRecurringSchedule)
			r.Get("/recurring", h.listRecurringSchedules)
			r.Delete("/recurring/{id}", h.deactivateRecurringSchedule)
			r.Get("/{id}", h.getSlot)
			r.Patch("/{id}", h.updateSlot)
			r.Delete("/{id}", h.deleteSlot)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", h.listAppointments)
			r.Post("/", h.bookSlot)
			r.Post("/{id}/cancel", h.cancelAppointment)
			r.Post("/{id}/check-in", h.checkIn)
			r.Post("/{id}/complete", h.complete)
		})
		r.Post("/scan", h.scanToken)

		r.Get("/inventory", h.listInventory)
		r.Patch("/inventory", h.adjustInventory)

		r.Get("/donors/me", h.getDonor)
		r.Put("/donors/me", h.registerDonor)

		r.Route("/rare", func(r chi.Router) {
			r.Get("/profile", h.getRareProfile)
			r.Post("/profile", h.optIn)
			r.Get("/requests", h.listRareRequests)
			r.Post("/requests", h.rateLimited(h.submitRareRequest))
			r.Get("/alerts", h.listAlerts)
			r.Post("/alerts/{id}/respond", h.respondToAlert)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/rare/profiles", h.listRareProfiles)
			r.Post("/rare/profiles/{id}/verify", h.verifyProfile)
			r.Get("/audit-logs", h.listAuditLogs)
		})
	})

	return r
}
