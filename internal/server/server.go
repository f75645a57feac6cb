package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/avelter/qrscan/internal/app"
	"github.com/avelter/qrscan/internal/history"
	"github.com/avelter/qrscan/internal/logging"
	"github.com/avelter/qrscan/internal/store"
	"github.com/avelter/qrscan/internal/utils"

	_ "modernc.org/sqlite" // SQLite driver
)

// Server is the HTTP + WebSocket API surface for the scan service.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	store        *store.Store
	history      *history.History
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	historyDB    *sql.DB
}

// NewServer builds the full service: upload store, history database, and
// orchestrator.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewJSONLogger("Server")
	}

	storageRoot, err := utils.ExpandPath(cfg.AppConfig.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("expanding storage root path: %w", err)
	}
	cfg.AppConfig.StorageRoot = storageRoot
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}

	st, err := store.New(filepath.Join(storageRoot, "uploads"), logger)
	if err != nil {
		return nil, fmt.Errorf("creating upload store: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(storageRoot, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	hist, err := history.New(db, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history: %w", err)
	}

	orch, err := app.NewOrchestrator(cfg.AppConfig, st, hist, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		store:        st,
		history:      hist,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
		historyDB: db,
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/scans", s.optionsHandler("GET, POST"))
	r.Options("/scans/{scanID}", s.optionsHandler("GET, DELETE"))
	r.Options("/scans/{scanID}/export.csv", s.optionsHandler("GET"))
	r.Options("/history", s.optionsHandler("GET"))
	r.Options("/history/{scanID}", s.optionsHandler("GET, DELETE"))

	// Scans
	r.Post("/scans", s.handleStartScan)
	r.Get("/scans", s.handleListScans)
	r.Get("/scans/{scanID}", s.handleGetScan)
	r.Delete("/scans/{scanID}", s.handleDeleteScan)
	r.Get("/scans/{scanID}/export.csv", s.handleExportCSV)

	// History
	r.Get("/history", s.handleListHistory)
	r.Get("/history/{scanID}", s.handleGetHistory)
	r.Delete("/history/{scanID}", s.handleDeleteHistory)

	// Service
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/info", s.handleInfo)

	// WebSocket for scan progress
	r.Get("/ws/scans/{scanID}", s.handleScanWS)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.historyDB != nil {
		s.historyDB.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

