package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/fancourier/internal/telemetry"
	"github.com/tournevent/fancourier/pkg/catalog"
	"github.com/tournevent/fancourier/pkg/order"
	"github.com/tournevent/fancourier/pkg/rate"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Server is the HTTP server for the checkout shipping service.
type Server struct {
	port         int
	cookieSecure bool
	gatherer     prometheus.Gatherer

	catalog    *catalog.Catalog
	calculator *rate.Calculator
	orders     order.Store
	logger     *otelzap.Logger
	metrics    *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port         int
	CookieSecure bool
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

// New creates a new server instance.
func New(cfg Config, cat *catalog.Catalog, calc *rate.Calculator, orders order.Store, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		port:         cfg.Port,
		cookieSecure: cfg.CookieSecure,
		gatherer:     gatherer,
		catalog:      cat,
		calculator:   calc,
		orders:       orders,
		logger:       logger,
		metrics:      metrics,
	}
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/services", s.handleServices)
		r.Post("/rates", s.handleRates)

		r.Post("/fanbox/selection", s.handleSelect)
		r.Delete("/fanbox/selection", s.handleClearSelection)

		r.Post("/checkout/validate", s.handleValidate)

		r.Post("/orders/{orderID}/fanbox", s.handlePlaceOrder)
		r.Get("/orders/{orderID}/fanbox", s.handleGetOrder)
	})

	return otelhttp.NewHandler(r, "fancourier",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Ctx(r.Context()).Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
