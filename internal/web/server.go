// Package web serves the dashboard: the overview, predict, dataset and analysis
// pages, their charts, the prediction websocket and a small JSON API.
//
// All state shared between requests (models, scaler, dataset, summary) is built
// before the server starts and only read afterwards.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/common"
	"demand-dashboard/internal/dataset"
	"demand-dashboard/internal/metrics"
	"demand-dashboard/internal/ml"
	"demand-dashboard/internal/predict"
	"demand-dashboard/internal/report"
)

// Catalog is the read-only model store the dashboard serves from.
type Catalog interface {
	predict.Resolver
	Models() []ml.ModelInfo
	Manifest() ml.Manifest
}

// Options configures a Server. Models is required; everything else has a default.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PageSize     int
	ReportName   string
	// PongWait is how long a websocket session may stay silent before it is dropped.
	// Pings go out at 9/10 of it.
	PongWait time.Duration

	Models   Catalog
	Dataset  dataset.Source // nil serves an empty dataset page
	Summary  dataset.Summary
	Recorder metrics.Recorder
	Gatherer prometheus.Gatherer
}

// Server is the dashboard HTTP server.
type Server struct {
	opts      Options
	predictor *predict.Handler
	reporter  *report.Reporter
	pages     map[string]*template.Template
	router    *mux.Router
	server    *http.Server
	upgrader  websocket.Upgrader

	clients   map[*websocket.Conn]struct{} // Open prediction sessions
	clientsMu sync.Mutex

	isRunning bool
	mu        sync.Mutex
}

// New builds the server and its routes. It does not start listening.
func New(opts Options) (*Server, error) {
	if opts.Models == nil {
		return nil, fmt.Errorf("models are required")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = common.DefaultPageSize
	}
	if opts.ReportName == "" {
		opts.ReportName = common.DefaultReportName
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = common.DefaultReadTimeoutSec * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = common.DefaultWriteTimeoutSec * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = common.DefaultWSPongWaitSec * time.Second
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.Nop{}
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Dataset == nil {
		opts.Dataset = dataset.NewMemory(dataset.Table{})
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		predictor: predict.NewHandler(opts.Models),
		reporter:  report.NewReporter(opts.Models.Manifest(), opts.Models.Models(), opts.Summary),
		pages:     pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware, loggingMiddleware)

	// Pages
	r.HandleFunc("/", s.handleOverview).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredictPage).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredictSubmit).Methods(http.MethodPost)
	r.HandleFunc("/dataset", s.handleDataset).Methods(http.MethodGet)
	r.HandleFunc("/analysis", s.handleAnalysis).Methods(http.MethodGet)
	r.HandleFunc("/charts/{name}", s.handleChart).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(staticHandler())

	// Callbacks
	r.HandleFunc("/ws/predict", s.handleWebSocket).Methods(http.MethodGet)

	// API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/predict", s.handleAPIPredict).Methods(http.MethodPost)
	api.HandleFunc("/models", s.handleAPIModels).Methods(http.MethodGet)
	api.HandleFunc("/dataset", s.handleAPIDataset).Methods(http.MethodGet)

	// Report
	r.HandleFunc("/report/download", s.handleReportDownload).Methods(http.MethodGet)
	r.HandleFunc("/report/metrics.csv", s.handleReportCSV).Methods(http.MethodGet)
	r.HandleFunc("/report/metrics.json", s.handleReportJSON).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	return r
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("dashboard server is already running")
	}

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	s.isRunning = true
	return nil
}

// Shutdown closes open websocket sessions and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.clientsMu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.clientsMu.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Dashboard server stopped")
	return nil
}
