// Package mcp exposes morphological lookups as Model Context Protocol
// tools, so agents can consult the transducers over stdio or SSE.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

// AnalysisResult is one reading of a wordform.
type AnalysisResult struct {
	Text         string   `json:"text" jsonschema_description:"The reading as a tagged string"`
	Symbols      []string `json:"symbols" jsonschema_description:"The reading split into lemma and tag symbols"`
	Weight       float64  `json:"weight" jsonschema_description:"Path weight, lower is more likely"`
	Standardized string   `json:"standardized,omitempty" jsonschema_description:"Normative spelling agreed on by the generator, if any"`
}

// AnalyseResponse is the structured payload of the analyse tool.
type AnalyseResponse struct {
	Input     string           `json:"input" jsonschema_description:"The wordform that was analysed"`
	Analyses  []AnalysisResult `json:"analyses" jsonschema_description:"All readings accepted by the analyser"`
	Truncated bool             `json:"truncated" jsonschema_description:"True when a search budget cut the result set short"`
}

// WordformResult is one generated surface form.
type WordformResult struct {
	Text   string  `json:"text" jsonschema_description:"The surface wordform"`
	Weight float64 `json:"weight" jsonschema_description:"Path weight, lower is more likely"`
}

// GenerateResponse is the structured payload of the generate and
// round_trip tools.
type GenerateResponse struct {
	Input     string           `json:"input" jsonschema_description:"The analysis or wordform that was looked up"`
	Wordforms []WordformResult `json:"wordforms" jsonschema_description:"All surface forms accepted"`
	Truncated bool             `json:"truncated" jsonschema_description:"True when a search budget cut the result set short"`
}

// Server wraps a Morphology implementation and exposes it as an MCP
// Server. The provider indirection lets hot reload swap the
// implementation between calls.
type Server struct {
	provider  func() ports.Morphology
	info      any
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithServiceInfo attaches a service description served as the
// hfstol://transducers resource.
func WithServiceInfo(info any) Option {
	return func(s *Server) {
		s.info = info
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(provider func() ports.Morphology, opts ...Option) *Server {
	s := &Server{
		provider:  provider,
		mcpServer: server.NewMCPServer("hfstol-mcp", strings.TrimSpace(hfstol.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: analyse
	analyseTool := mcp.NewTool("analyse",
		mcp.WithDescription("Analyse a surface wordform into its morphological readings (lemma plus tags)."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The wordform to analyse")),
		mcp.WithOutputSchema[AnalyseResponse](),
	)
	s.mcpServer.AddTool(analyseTool, mcp.NewStructuredToolHandler(s.handleAnalyse))

	// TOOL: generate
	generateTool := mcp.NewTool("generate",
		mcp.WithDescription("Generate surface wordforms from a tagged analysis string, e.g. \"atim+N+A+Pl\"."),
		mcp.WithString("analysis", mcp.Required(), mcp.Description("The tagged analysis to realize")),
		mcp.WithOutputSchema[GenerateResponse](),
	)
	s.mcpServer.AddTool(generateTool, mcp.NewStructuredToolHandler(s.handleGenerate))

	// TOOL: round_trip
	roundTripTool := mcp.NewTool("round_trip",
		mcp.WithDescription("Analyse a wordform and regenerate every accepted reading, yielding the standardized spellings."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The wordform to standardize")),
		mcp.WithOutputSchema[GenerateResponse](),
	)
	s.mcpServer.AddTool(roundTripTool, mcp.NewStructuredToolHandler(s.handleRoundTrip))
}

// Handler methods for structured tools

func (s *Server) handleAnalyse(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (AnalyseResponse, error) {
	input, _ := args["input"].(string)
	if input == "" {
		return AnalyseResponse{}, errors.New("input is required")
	}

	analyses, err := s.provider().Analyse(ctx, input)
	truncated, err := splitCutoff(err)
	if err != nil {
		return AnalyseResponse{}, fmt.Errorf("analyse failed: %w", err)
	}

	resp := AnalyseResponse{
		Input:     input,
		Analyses:  make([]AnalysisResult, len(analyses)),
		Truncated: truncated,
	}
	for i, a := range analyses {
		resp.Analyses[i] = AnalysisResult{
			Text:         a.Text(),
			Symbols:      a.Symbols,
			Weight:       a.Weight,
			Standardized: a.Standardized,
		}
	}
	return resp, nil
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GenerateResponse, error) {
	analysis, _ := args["analysis"].(string)
	if analysis == "" {
		return GenerateResponse{}, errors.New("analysis is required")
	}

	wordforms, err := s.provider().Generate(ctx, analysis)
	truncated, err := splitCutoff(err)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("generate failed: %w", err)
	}

	return GenerateResponse{
		Input:     analysis,
		Wordforms: wordformResults(wordforms),
		Truncated: truncated,
	}, nil
}

func (s *Server) handleRoundTrip(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GenerateResponse, error) {
	input, _ := args["input"].(string)
	if input == "" {
		return GenerateResponse{}, errors.New("input is required")
	}

	wordforms, err := s.provider().RoundTrip(ctx, input)
	truncated, err := splitCutoff(err)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("round trip failed: %w", err)
	}

	return GenerateResponse{
		Input:     input,
		Wordforms: wordformResults(wordforms),
		Truncated: truncated,
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: hfstol://transducers
	s.mcpServer.AddResource(mcp.NewResource("hfstol://transducers", "Loaded Transducers",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.info)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal service info: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "hfstol://transducers",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func splitCutoff(err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fst.ErrCutoff) {
		return true, nil
	}
	return false, err
}

func wordformResults(wordforms []fst.Wordform) []WordformResult {
	res := make([]WordformResult, len(wordforms))
	for i, wf := range wordforms {
		res[i] = WordformResult{
			Text:   wf.Text(),
			Weight: wf.Weight,
		}
	}
	return res
}
