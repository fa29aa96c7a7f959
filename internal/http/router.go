package http

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/city-explorer/internal/observability"
)

// RouterConfig holds the router-wide settings.
type RouterConfig struct {
	RequestTimeout time.Duration
	Limiter        *rate.Limiter // nil disables rate limiting
}

// NewRouter wires the resource routes, /health, /metrics and the not-found
// handler. Resource routes are rate limited and get a request deadline. The
// result allows cross-origin GETs from any origin and recovers from panics.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(RateLimitMiddleware(cfg.Limiter))
	if cfg.RequestTimeout > 0 {
		api.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}
	api.HandleFunc("/location", h.GetLocation).Methods(http.MethodGet)
	api.HandleFunc("/weather", h.GetWeather).Methods(http.MethodGet)
	api.HandleFunc("/yelp", h.GetReviews).Methods(http.MethodGet)
	api.HandleFunc("/movies", h.GetMovies).Methods(http.MethodGet)
	api.HandleFunc("/trails", h.GetTrails).Methods(http.MethodGet)

	// mux does not run middleware for these, so correlation is applied directly.
	router.NotFoundHandler = CorrelationIDMiddleware(logger)(http.HandlerFunc(h.NotFound))
	router.MethodNotAllowedHandler = CorrelationIDMiddleware(logger)(http.HandlerFunc(h.MethodNotAllowed))

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Correlation-ID"}),
		handlers.ExposedHeaders([]string{"X-Correlation-ID"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(cors(router))
}
