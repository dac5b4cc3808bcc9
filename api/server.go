// Package api serves reconciliation over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/aqlanhadi/rekon/extractor"
	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/aqlanhadi/rekon/extractor/rekening_koran"
	"github.com/aqlanhadi/rekon/reconcile"
	"github.com/aqlanhadi/rekon/report"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config holds the API server configuration
type Config struct {
	Port          string
	MaxUploadSize int64
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:          ":8080",
		MaxUploadSize: 32 << 20,
	}
}

// Server represents the HTTP API server
type Server struct {
	config     Config
	router     chi.Router
	classifier *extractor.Classifier
	engine     *reconcile.Engine
	options    reconcile.Options
	registry   *prometheus.Registry
	metrics    *metrics
}

// New creates a server from the loaded configuration. Invalid classifier
// rules or templates fail here rather than on the first request.
func New(cfg Config) (*Server, error) {
	classifier, err := extractor.LoadClassifier()
	if err != nil {
		return nil, err
	}
	engine, err := reconcile.NewEngine(classifier.Ports())
	if err != nil {
		return nil, err
	}
	opts, err := reconcile.DefaultOptions()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		config:     cfg,
		router:     chi.NewRouter(),
		classifier: classifier,
		engine:     engine,
		options:    opts,
		registry:   registry,
		metrics:    newMetrics(registry),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.router.Post("/reconcile", s.handleReconcile)
}

// Handler returns the http.Handler for the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	zap.L().Info("starting server", zap.String("addr", s.config.Port))
	srv := &http.Server{
		Addr:              s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// uploadFields maps form fields to the role of the files they carry.
var uploadFields = []struct {
	field string
	role  common.Role
}{
	{"tiket", common.RoleTiket},
	{"invoice", common.RoleInvoice},
	{"summary", common.RoleSummary},
	{"rekening", common.RoleRekening},
	{"files", ""},
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)
	log := zap.L().With(zap.String("run_id", runID), zap.String("remote", r.RemoteAddr))
	log.Info("received reconcile request")

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(s.config.MaxUploadSize); err != nil {
		log.Warn("could not parse multipart form", zap.Error(err))
		s.fail(w, http.StatusBadRequest, "Could not parse multipart form: "+err.Error())
		return
	}

	format := strings.ToLower(coalesce(r.FormValue("format"), r.URL.Query().Get("format"), "json"))
	if format != "json" && format != "xlsx" {
		s.fail(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}

	opts := s.options
	rng, err := rekening_koran.ParseRange(coalesce(r.FormValue("from"), r.URL.Query().Get("from")), coalesce(r.FormValue("to"), r.URL.Query().Get("to")))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.Range = rng

	inputs, err := s.readInputs(r.MultipartForm)
	if err != nil {
		log.Warn("could not read uploads", zap.Error(err))
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.engine.Run(inputs, opts)
	var missing *extractor.MissingSourceError
	switch {
	case errors.As(err, &missing):
		s.metrics.runs.WithLabelValues("waiting").Inc()
		log.Info("waiting for inputs", zap.Any("missing", missing.Missing))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"status":  "waiting",
			"message": missing.Error(),
			"missing": missing.Missing,
		})
		return
	case err != nil:
		log.Error("reconciliation failed", zap.Error(err))
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.metrics.observe(result, time.Since(startTime))

	if format == "xlsx" {
		var buf bytes.Buffer
		if err := report.Write(&buf, result); err != nil {
			log.Error("could not write report", zap.Error(err))
			s.fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", report.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"run_id":  runID,
		"result":  result,
		"display": result.Display(),
	})
}

func (s *Server) readInputs(form *multipart.Form) (extractor.Inputs, error) {
	var inputs extractor.Inputs
	for _, u := range uploadFields {
		for _, fh := range form.File[u.field] {
			f, err := s.readUpload(fh, u.role)
			if err != nil {
				return extractor.Inputs{}, err
			}
			if err := inputs.Add(f); err != nil {
				return extractor.Inputs{}, err
			}
		}
	}
	return inputs, nil
}

func (s *Server) readUpload(fh *multipart.FileHeader, role common.Role) (extractor.File, error) {
	file, err := fh.Open()
	if err != nil {
		return extractor.File{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	defer file.Close()
	return s.classifier.Load(file, fh.Filename, role)
}

func (s *Server) fail(w http.ResponseWriter, status int, message string) {
	s.metrics.runs.WithLabelValues("error").Inc()
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
