package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/kjstillabower/city-explorer/internal/client"
	"github.com/kjstillabower/city-explorer/internal/lifecycle"
	"github.com/kjstillabower/city-explorer/internal/models"
	"github.com/kjstillabower/city-explorer/internal/observability"
	"github.com/kjstillabower/city-explorer/internal/traffic"
	"github.com/kjstillabower/city-explorer/internal/validation"
)

// LocationResolver resolves a place name to a stored location.
type LocationResolver interface {
	Resolve(ctx context.Context, searchQuery string) (models.LocationRecord, error)
}

// Feeds serves the per-request resource types.
type Feeds interface {
	Weather(ctx context.Context, p orb.Point) ([]models.WeatherRecord, error)
	Reviews(ctx context.Context, searchQuery string) ([]models.ReviewRecord, error)
	Movies(ctx context.Context, searchQuery string) ([]models.MovieRecord, error)
	Trails(ctx context.Context, p orb.Point) ([]models.TrailRecord, error)
}

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	// StorePing, when set, is called to check location store reachability.
	StorePing func(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	resolver         LocationResolver
	feeds            Feeds
	healthConfig     *HealthConfig
	logger           *zap.Logger
	maxQueryLength   int
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. maxQueryLength bounds search strings in
// runes; zero disables the bound.
func NewHandler(
	resolver LocationResolver,
	feeds Feeds,
	healthConfig *HealthConfig,
	logger *zap.Logger,
	maxQueryLength int,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		resolver:       resolver,
		feeds:          feeds,
		healthConfig:   healthConfig,
		logger:         logger,
		maxQueryLength: maxQueryLength,
	}
}

// GetLocation handles GET /location?city=.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	q, ok := h.searchQuery(w, r, "city")
	if !ok {
		return
	}
	rec, err := h.resolver.Resolve(r.Context(), q)
	respond(w, r, "/location", rec, err)
}

// GetWeather handles GET /weather?latitude=&longitude=.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	p, ok := coordinates(w, r)
	if !ok {
		return
	}
	recs, err := h.feeds.Weather(r.Context(), p)
	respond(w, r, "/weather", recs, err)
}

// GetReviews handles GET /yelp?search_query=.
func (h *Handler) GetReviews(w http.ResponseWriter, r *http.Request) {
	q, ok := h.searchQuery(w, r, "search_query")
	if !ok {
		return
	}
	recs, err := h.feeds.Reviews(r.Context(), q)
	respond(w, r, "/yelp", recs, err)
}

// GetMovies handles GET /movies?search_query=.
func (h *Handler) GetMovies(w http.ResponseWriter, r *http.Request) {
	q, ok := h.searchQuery(w, r, "search_query")
	if !ok {
		return
	}
	recs, err := h.feeds.Movies(r.Context(), q)
	respond(w, r, "/movies", recs, err)
}

// GetTrails handles GET /trails?latitude=&longitude=.
func (h *Handler) GetTrails(w http.ResponseWriter, r *http.Request) {
	p, ok := coordinates(w, r)
	if !ok {
		return
	}
	recs, err := h.feeds.Trails(r.Context(), p)
	respond(w, r, "/trails", recs, err)
}

// NotFound handles every unmatched route.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found: "+r.URL.Path)
}

// MethodNotAllowed handles known routes called with an unsupported method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
}

func (h *Handler) searchQuery(w http.ResponseWriter, r *http.Request, param string) (string, bool) {
	q, err := validation.SearchQuery(r.URL.Query().Get(param), h.maxQueryLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", param+": "+err.Error())
		return "", false
	}
	return q, true
}

func coordinates(w http.ResponseWriter, r *http.Request) (orb.Point, bool) {
	query := r.URL.Query()
	p, err := validation.Coordinates(query.Get("latitude"), query.Get("longitude"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return orb.Point{}, false
	}
	return p, true
}

// respond writes v as 200 JSON, or the failure as a 500 whose code names the
// failure category. Outcomes feed the health error rate; NO_MATCH is the
// caller's input finding nothing, so it counts as served rather than failed.
func respond(w http.ResponseWriter, r *http.Request, route string, v interface{}, err error) {
	if err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			traffic.RecordSuccess()
		} else {
			traffic.RecordError()
		}
		writeServiceError(w, r, route, err)
		return
	}
	traffic.RecordSuccess()
	writeJSON(w, http.StatusOK, v)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
	storeOK    *bool
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.reason == "error_rate_breach" {
		checks["upstream"] = "unhealthy"
	} else {
		checks["upstream"] = "healthy"
	}
	if result.storeOK != nil {
		if *result.storeOK {
			checks["store"] = "healthy"
		} else {
			checks["store"] = "unhealthy"
		}
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   observability.ServiceName,
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > store unreachable > error-rate degraded > healthy.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{status: "shutting-down", statusCode: http.StatusServiceUnavailable, reason: "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{status: "healthy", statusCode: http.StatusOK}
	}

	var storeOK *bool
	if h.healthConfig.StorePing != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		ok := h.healthConfig.StorePing(pingCtx) == nil
		cancel()
		storeOK = &ok
		if !ok {
			return healthResult{status: "degraded", statusCode: http.StatusServiceUnavailable, reason: "store_unreachable", storeOK: storeOK}
		}
	}

	if h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		failed, total := traffic.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 {
			pct := float64(failed) * 100 / float64(total)
			if pct >= float64(h.healthConfig.DegradedErrorPct) {
				return healthResult{status: "degraded", statusCode: http.StatusServiceUnavailable, reason: "error_rate_breach", storeOK: storeOK}
			}
		}
	}
	return healthResult{status: "healthy", statusCode: http.StatusOK, storeOK: storeOK}
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
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}

var categoryMessages = map[client.ErrorCategory]string{
	client.ErrorCategoryTimeout:             "Provider did not respond in time",
	client.ErrorCategoryUpstreamUnavailable: "Provider unreachable",
	client.ErrorCategoryUpstreamRejected:    "Provider rejected the request",
	client.ErrorCategoryNoMatch:             "No results for the query",
	client.ErrorCategoryMalformed:           "Provider returned unexpected data",
	client.ErrorCategoryStoreUnavailable:    "Location store unavailable",
	client.ErrorCategoryUnknown:             "Internal error",
}

// writeServiceError writes a 500 for any component failure. The code carries
// the failure category; the status stays flat.
func writeServiceError(w http.ResponseWriter, r *http.Request, route string, err error) {
	category := client.CategorizeError(err)
	observability.RequestErrorsTotal.WithLabelValues(route, string(category)).Inc()
	observability.LoggerFromContext(r.Context()).Warn("request failed",
		zap.String("route", route),
		zap.String("category", string(category)),
		zap.Error(err),
	)
	writeError(w, r, http.StatusInternalServerError, category.Code(), categoryMessages[category])
}
