// Package deliveries serves the traffic-level lookup benchmarks and the
// synthetic data seeding endpoint.
package deliveries

import (
	"net/http"
	"strings"
	"sync"

	"github.com/kilianp07/deliveryeta/api/internal/respond"
	"github.com/kilianp07/deliveryeta/core/delivery"
	"github.com/kilianp07/deliveryeta/core/logger"
)

// Handler routes the delivery endpoints.
type Handler struct {
	repo delivery.Repository
	log  logger.Logger

	mu  sync.Mutex
	gen *delivery.Generator
}

// NewHandler returns a Handler over repo. gen seeds synthetic data.
func NewHandler(repo delivery.Repository, gen *delivery.Generator, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop{}
	}
	return &Handler{repo: repo, gen: gen, log: log}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /deliveries/traffic-level/{mode}", h.trafficLevel)
	mux.HandleFunc("POST /seed-and-spam", h.seedAndSpam)
}

func (h *Handler) trafficLevel(w http.ResponseWriter, r *http.Request) {
	mode, err := delivery.ParseScanMode(r.PathValue("mode"))
	if err != nil || mode == delivery.ScanDefault {
		respond.Error(w, http.StatusNotFound, "unknown scan mode")
		return
	}
	level := strings.TrimSpace(r.URL.Query().Get("level"))
	if level == "" {
		respond.Error(w, http.StatusBadRequest, "level is required")
		return
	}
	res, err := delivery.Lookup(r.Context(), h.repo, level, mode)
	if err != nil {
		h.log.Errorf("traffic level lookup: %v", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) seedAndSpam(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	res, err := delivery.Seed(r.Context(), h.repo, h.gen, delivery.DefaultSeed)
	h.mu.Unlock()
	if err != nil {
		h.log.Errorf("seed-and-spam: %v", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.log.Infof("seeded %d deliveries", res.Deliveries)
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":          "Database seeded and filled with fake deliveries",
		"deliveries":       res.Deliveries,
		"reference_seeded": res.ReferenceSeeded,
	})
}
