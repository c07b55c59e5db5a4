package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	httputil "smartparking/pkg/http"
	"smartparking/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	readinessTimeout = 2 * time.Second

	StatusOK          = "ok"
	StatusReady       = "ready"
	StatusUnavailable = "unavailable"
	StatusError       = "error"
)

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Check probes one dependency; a nil error means it is usable.
type Check func(ctx context.Context) error

// MongoCheck pings the primary so a secondary-only cluster is reported unready.
func MongoCheck(db Pinger) Check {
	return func(ctx context.Context) error {
		return db.Ping(ctx, readpref.Primary())
	}
}

type HealthHandler struct {
	checks map[string]Check
	log    *logger.Logger
}

func NewHealthHandler(log *logger.Logger, checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, log: log}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

// Health reports liveness only and never touches dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.write(w, "Health", http.StatusOK, HealthResponse{Status: StatusOK})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: StatusReady, Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.ErrorContext(ctx, "Readiness check failed", "check", name, "error", err)
			resp.Checks[name] = StatusError
			resp.Status = StatusUnavailable
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = StatusOK
	}

	h.write(w, "Ready", status, resp)
}

func (h *HealthHandler) write(w http.ResponseWriter, handler string, status int, resp HealthResponse) {
	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}
