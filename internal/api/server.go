// Package api exposes the analytical engines over a JSON HTTP API and
// serves the embedded dashboard bundle.
package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airdash/internal/compare"
	"airdash/internal/forecast"
	"airdash/internal/ingest"
	"airdash/internal/metrics"
	"airdash/internal/models"
	"airdash/internal/refdata"
	"airdash/internal/store"
	"airdash/internal/trend"
)

//go:embed static
var staticFS embed.FS

type Server struct {
	store     *store.Store
	refresher *ingest.Refresher
	ref       *refdata.Reference
	trends    *trend.Engine
	forecasts *forecast.Engine
	compares  *compare.Engine
	port      string
	origins   []string
}

func NewServer(st *store.Store, refresher *ingest.Refresher, port string, origins []string) *Server {
	ref := refdata.Default()
	return &Server{
		store:     st,
		refresher: refresher,
		ref:       ref,
		trends:    trend.New(ref),
		forecasts: forecast.New(),
		compares:  compare.New(),
		port:      port,
		origins:   origins,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.instrument)

	r.Get("/api/countries", s.handleCountries)
	r.Get("/api/cities", s.handleCities)
	r.Get("/api/pollutants", s.handlePollutants)
	r.Get("/api/data", s.handleData)
	r.Get("/api/city-aqi-trends", s.handleCityTrends)
	r.Get("/api/pollutant-composition", s.handleComposition)
	r.Get("/api/pollutant-composition-timelapse", s.handleCompositionTimelapse)
	r.Get("/api/temporal-patterns", s.handleTemporalPatterns)
	r.Get("/api/correlation-analysis", s.handleCorrelation)
	r.Post("/api/comparative-analysis", s.handleComparative)
	r.Get("/api/forecast", s.handleForecast)
	r.Post("/api/forecast", s.handleForecast)
	r.Post("/api/reload", s.handleReload)
	r.Get("/api/summary", s.handleSummary)
	r.Get("/health", s.handleHealth)
	r.Method("GET", "/metrics", promhttp.Handler())
	r.NotFound(s.handleStatic)

	return r
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "static"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/")
	if name == "" {
		name = "index.html"
	}
	if _, err := fs.Stat(sub, name); err != nil {
		name = "index.html"
	}
	// http.ServeFileFS requires Go 1.22; open the file and delegate to
	// ServeContent, which is the same core ServeFileFS uses.
	f, err := http.FS(sub).Open("/" + name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	d, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, d.Name(), d.ModTime(), f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrUnknownField),
		errors.Is(err, forecast.ErrInsufficientData),
		errors.Is(err, compare.ErrInvalidSelection):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
