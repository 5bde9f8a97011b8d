package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skywash/skywash-api/internal/models"
	"github.com/skywash/skywash-api/internal/observability"
	"github.com/skywash/skywash-api/internal/service"
	"github.com/skywash/skywash-api/internal/traffic"
	"github.com/skywash/skywash-api/internal/validation"
	"github.com/skywash/skywash-api/internal/washout"
)

// Enricher is the slice of the enrichment service the handlers need.
type Enricher interface {
	EnrichAll(ctx context.Context) ([]models.CityRecord, error)
	Refresh(ctx context.Context) (service.Summary, error)
	StaticFallback() []models.CityRecord
}

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	// DegradedWindow and DegradedStaticPct flag the service degraded when
	// the share of static fallbacks in the window crosses the threshold.
	DegradedWindow    time.Duration
	DegradedStaticPct int
	StartTime         time.Time
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	enricher         Enricher
	tracker          *traffic.Tracker
	washoutCoeff     float64
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	enricher Enricher,
	tracker *traffic.Tracker,
	washoutCoeff float64,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		enricher:     enricher,
		tracker:      tracker,
		washoutCoeff: washoutCoeff,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetCities handles GET /api/cities. The response is always the full city
// list in dataset order with 200; a wholesale enrichment failure serves
// every record from the static baseline instead of erroring.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	records, err := h.enricher.EnrichAll(r.Context())
	if err != nil {
		if h.logger != nil {
			h.logger.Error("enrichment pass failed, serving static dataset", zap.Error(err))
		}
		records = h.enricher.StaticFallback()
	}
	writeJSON(w, http.StatusOK, records)
}

// RefreshCities handles GET /api/cities/refresh. Clears the cache and
// re-fetches every city, returning the pass summary.
func (h *Handler) RefreshCities(w http.ResponseWriter, r *http.Request) {
	summary, err := h.enricher.Refresh(r.Context())
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "REFRESH_FAILED", "Unable to refresh city data")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetWashout handles GET /api/washout?pm25=&rain_mm=&duration_h=.
func (h *Handler) GetWashout(w http.ResponseWriter, r *http.Request) {
	pm25, ok := parseQueryFloat(w, r, "pm25")
	if !ok {
		return
	}
	rainMM, ok := parseQueryFloat(w, r, "rain_mm")
	if !ok {
		return
	}
	durationH, ok := parseQueryFloat(w, r, "duration_h")
	if !ok {
		return
	}

	if err := validation.ValidateWashoutParams(pm25, rainMM, durationH); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMS", err.Error())
		return
	}

	result := washout.Compute(pm25, rainMM, durationH, h.washoutCoeff)
	observability.WashoutCalculationsTotal.Inc()
	writeJSON(w, http.StatusOK, result)
}

// parseQueryFloat extracts a required numeric query parameter. On a
// missing or non-numeric value it writes the 400 response and returns
// ok=false.
func parseQueryFloat(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, "MISSING_PARAM", name+" is required")
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAM", name+" must be a number")
		return 0, false
	}
	return v, true
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status && h.logger != nil {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.reason == "static_fallback_rate" {
		checks["waqiFeed"] = "degraded"
	} else {
		checks["waqiFeed"] = "healthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "skywash-api",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && !h.healthConfig.StartTime.IsZero() {
		resp["uptime"] = time.Since(h.healthConfig.StartTime).Round(time.Second).String()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > cache unreachable > degraded feed > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	if h.healthConfig.CachePing != nil {
		if err := h.healthConfig.CachePing(); err != nil {
			return healthResult{"degraded", http.StatusServiceUnavailable, "cache_unreachable"}
		}
	}
	if h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedStaticPct > 0 {
		pct, total := h.tracker.RealTimePct(h.healthConfig.DegradedWindow)
		if total > 0 && 100-pct >= h.healthConfig.DegradedStaticPct {
			return healthResult{"degraded", http.StatusServiceUnavailable, "static_fallback_rate"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
