// Package http serves morphological lookups over a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

// TransducerInfo describes one loaded model for the info endpoint.
type TransducerInfo struct {
	Role        string `json:"role"`
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint"`
	Weighted    bool   `json:"weighted"`
	States      int    `json:"states"`
}

// Info is the service description served at GET /api/info.
type Info struct {
	App         string           `json:"app"`
	Version     string           `json:"version"`
	Transducers []TransducerInfo `json:"transducers,omitempty"`
}

// Server exposes a Morphology implementation over HTTP. The provider
// indirection lets hot reload swap the implementation between requests.
type Server struct {
	provider func() ports.Morphology
	logger   *slog.Logger
	metrics  http.Handler
	info     Info
	infoFn   func() Info
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithInfo sets the service description.
func WithInfo(info Info) Option {
	return func(s *Server) {
		s.info = info
	}
}

// WithInfoFunc derives the service description per request, so the info
// endpoint tracks hot reloads. Takes precedence over WithInfo.
func WithInfoFunc(fn func() Info) Option {
	return func(s *Server) {
		s.infoFn = fn
	}
}

// NewHandler creates the HTTP handler for the lookup service.
func NewHandler(provider func() ports.Morphology, opts ...Option) http.Handler {
	s := &Server{
		provider: provider,
		logger:   slog.Default(),
		info:     Info{App: "hfstol-http"},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/api/info", s.getInfo)
	r.Post("/api/analyse", s.analyse)
	r.Post("/api/generate", s.generate)
	r.Post("/api/round-trip", s.roundTrip)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type analyseRequest struct {
	Input string `json:"input"`
}

type analysisPayload struct {
	Text         string   `json:"text"`
	Symbols      []string `json:"symbols"`
	Weight       float64  `json:"weight"`
	Standardized string   `json:"standardized,omitempty"`
}

type analyseResponse struct {
	Input     string            `json:"input"`
	Analyses  []analysisPayload `json:"analyses"`
	Truncated bool              `json:"truncated,omitempty"`
}

// analyse handles the POST /api/analyse request.
func (s *Server) analyse(w http.ResponseWriter, r *http.Request) {
	var body analyseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("analyse: invalid request body", "error", err)
		return
	}
	if body.Input == "" {
		http.Error(w, "Field 'input' is required", http.StatusBadRequest)
		return
	}

	analyses, err := s.provider().Analyse(r.Context(), body.Input)
	truncated, err := splitCutoff(err)
	if err != nil {
		http.Error(w, fmt.Sprintf("Analyse error: %v", err), http.StatusInternalServerError)
		s.logger.Error("analyse failed", "error", err, "input", body.Input)
		return
	}

	resp := analyseResponse{
		Input:     body.Input,
		Analyses:  make([]analysisPayload, len(analyses)),
		Truncated: truncated,
	}
	for i, a := range analyses {
		resp.Analyses[i] = analysisPayload{
			Text:         a.Text(),
			Symbols:      a.Symbols,
			Weight:       a.Weight,
			Standardized: a.Standardized,
		}
	}
	s.writeJSON(w, resp)
}

type generateRequest struct {
	Analysis string `json:"analysis"`
}

type wordformPayload struct {
	Text    string   `json:"text"`
	Symbols []string `json:"symbols"`
	Weight  float64  `json:"weight"`
}

type generateResponse struct {
	Analysis  string            `json:"analysis"`
	Wordforms []wordformPayload `json:"wordforms"`
	Truncated bool              `json:"truncated,omitempty"`
}

// generate handles the POST /api/generate request.
func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("generate: invalid request body", "error", err)
		return
	}
	if body.Analysis == "" {
		http.Error(w, "Field 'analysis' is required", http.StatusBadRequest)
		return
	}

	wordforms, err := s.provider().Generate(r.Context(), body.Analysis)
	truncated, err := splitCutoff(err)
	if err != nil {
		http.Error(w, fmt.Sprintf("Generate error: %v", err), http.StatusInternalServerError)
		s.logger.Error("generate failed", "error", err, "analysis", body.Analysis)
		return
	}

	s.writeJSON(w, generateResponse{
		Analysis:  body.Analysis,
		Wordforms: wordformPayloads(wordforms),
		Truncated: truncated,
	})
}

type roundTripRequest struct {
	Input string `json:"input"`
}

type roundTripResponse struct {
	Input     string            `json:"input"`
	Wordforms []wordformPayload `json:"wordforms"`
	Truncated bool              `json:"truncated,omitempty"`
}

// roundTrip handles the POST /api/round-trip request.
func (s *Server) roundTrip(w http.ResponseWriter, r *http.Request) {
	var body roundTripRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("round-trip: invalid request body", "error", err)
		return
	}
	if body.Input == "" {
		http.Error(w, "Field 'input' is required", http.StatusBadRequest)
		return
	}

	wordforms, err := s.provider().RoundTrip(r.Context(), body.Input)
	truncated, err := splitCutoff(err)
	if err != nil {
		http.Error(w, fmt.Sprintf("Round-trip error: %v", err), http.StatusInternalServerError)
		s.logger.Error("round-trip failed", "error", err, "input", body.Input)
		return
	}

	s.writeJSON(w, roundTripResponse{
		Input:     body.Input,
		Wordforms: wordformPayloads(wordforms),
		Truncated: truncated,
	})
}

// health handles the GET /healthz request.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// getInfo handles the GET /api/info request.
func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	info := s.info
	if s.infoFn != nil {
		info = s.infoFn()
	}
	s.writeJSON(w, info)
}

// -- Helpers --

// splitCutoff turns a truncation into a flag: budget-limited lookups
// still answer with what they found.
func splitCutoff(err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fst.ErrCutoff) {
		return true, nil
	}
	return false, err
}

func wordformPayloads(wordforms []fst.Wordform) []wordformPayload {
	res := make([]wordformPayload, len(wordforms))
	for i, wf := range wordforms {
		res[i] = wordformPayload{
			Text:    wf.Text(),
			Symbols: wf.Symbols,
			Weight:  wf.Weight,
		}
	}
	return res
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
