// Package web serves the JSON API and the single-page dashboard.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Veraticus/dinero/internal/alerts"
	"github.com/Veraticus/dinero/internal/anomaly"
	"github.com/Veraticus/dinero/internal/export"
	"github.com/Veraticus/dinero/internal/predict"
	"github.com/Veraticus/dinero/internal/service"
	"github.com/Veraticus/dinero/internal/stats"
)

//go:embed static/*
var staticFiles embed.FS

// Server is the HTTP server for the dashboard and API.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	ledger     service.Ledger
	stats      *stats.Engine
	predictor  *predict.Predictor
	detector   *anomaly.Detector
	aggregator *alerts.Aggregator
	exporter   *export.CSVExporter
}

// Config wires the server's collaborators.
type Config struct {
	Ledger     service.Ledger
	Predictor  *predict.Predictor
	Detector   *anomaly.Detector
	Aggregator *alerts.Aggregator
	Port       int
}

// New creates the server and configures its routes.
func New(cfg Config) *Server {
	s := &Server{
		ledger:     cfg.Ledger,
		stats:      stats.NewEngine(cfg.Ledger),
		predictor:  cfg.Predictor,
		detector:   cfg.Detector,
		aggregator: cfg.Aggregator,
		exporter:   export.NewCSVExporter(cfg.Ledger),
	}
	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/categories", s.handleCategories)
			r.Get("/trend", s.handleTrend)
			r.Get("/methods", s.handleMethods)
			r.Get("/unusual", s.handleUnusual)
			r.Get("/projection", s.handleProjection)
			r.Get("/top", s.handleTopExpenses)
			r.Get("/recurring", s.handleRecurring)
		})

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Get("/budgets", s.handleListBudgets)
		r.Post("/budgets", s.handleUpsertBudget)

		r.Post("/train", s.handleTrain)
		r.Post("/predict", s.handlePredict)
		r.Get("/predict/month", s.handlePredictMonth)
		r.Post("/detect", s.handleDetect)

		r.Get("/alerts", s.handleAlerts)
		r.Get("/export.csv", s.handleExportCSV)
	})

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to load static files: %v", err))
	}
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		data, err := fs.ReadFile(staticFS, "index.html")
		if err != nil {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router = r
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	slog.Info("Dashboard listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
