package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

// MockMorphology for testing
type MockMorphology struct {
	Analyses  []fst.Analysis
	Wordforms []fst.Wordform
	Err       error
}

func (m *MockMorphology) Analyse(ctx context.Context, wordform string) ([]fst.Analysis, error) {
	return m.Analyses, m.Err
}

func (m *MockMorphology) Generate(ctx context.Context, analysis string) ([]fst.Wordform, error) {
	return m.Wordforms, m.Err
}

func (m *MockMorphology) RoundTrip(ctx context.Context, wordform string) ([]fst.Wordform, error) {
	return m.Wordforms, m.Err
}

func fixedProvider(m ports.Morphology) func() ports.Morphology {
	return func() ports.Morphology { return m }
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestAnalyseEndpoint(t *testing.T) {
	mock := &MockMorphology{
		Analyses: []fst.Analysis{
			{Symbols: []string{"atim", "+N", "+A", "+Sg"}, Standardized: "atim"},
			{Symbols: []string{"atimêw", "+V", "+TA"}, Weight: 1.5},
		},
	}
	handler := NewHandler(fixedProvider(mock))

	w := postJSON(t, handler, "/api/analyse", `{"input": "atim"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var resp analyseResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode response: %v", err)
	}
	if resp.Input != "atim" || resp.Truncated {
		t.Errorf("Unexpected envelope: %+v", resp)
	}
	if len(resp.Analyses) != 2 {
		t.Fatalf("Expected 2 analyses, got %d", len(resp.Analyses))
	}
	if resp.Analyses[0].Text != "atim+N+A+Sg" || resp.Analyses[0].Standardized != "atim" {
		t.Errorf("First analysis: %+v", resp.Analyses[0])
	}
	if resp.Analyses[1].Weight != 1.5 {
		t.Errorf("Second analysis weight: %v", resp.Analyses[1].Weight)
	}
}

func TestAnalyseEmptyResultIsAnArray(t *testing.T) {
	handler := NewHandler(fixedProvider(&MockMorphology{}))

	w := postJSON(t, handler, "/api/analyse", `{"input": "mispon"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"analyses":[]`) {
		t.Errorf("Expected an empty JSON array, got: %s", w.Body.String())
	}
}

func TestAnalyseTruncatedAnswersPartial(t *testing.T) {
	mock := &MockMorphology{
		Analyses: []fst.Analysis{{Symbols: []string{"atim", "+N"}}},
		Err:      fmt.Errorf("analyse %q: %w", "atim", fst.ErrCutoff),
	}
	handler := NewHandler(fixedProvider(mock))

	w := postJSON(t, handler, "/api/analyse", `{"input": "atim"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK for truncation, got %d", w.Code)
	}
	var resp analyseResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Truncated || len(resp.Analyses) != 1 {
		t.Errorf("Expected truncated partial result, got: %+v", resp)
	}
}

func TestAnalyseRejectsBadRequests(t *testing.T) {
	handler := NewHandler(fixedProvider(&MockMorphology{}))

	if w := postJSON(t, handler, "/api/analyse", `{not json`); w.Code != http.StatusBadRequest {
		t.Errorf("Malformed body: expected 400, got %d", w.Code)
	}
	if w := postJSON(t, handler, "/api/analyse", `{"input": ""}`); w.Code != http.StatusBadRequest {
		t.Errorf("Empty input: expected 400, got %d", w.Code)
	}
}

func TestAnalyseFailure(t *testing.T) {
	mock := &MockMorphology{Err: errors.New("engine exploded")}
	handler := NewHandler(fixedProvider(mock))

	w := postJSON(t, handler, "/api/analyse", `{"input": "atim"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	mock := &MockMorphology{
		Wordforms: []fst.Wordform{{Symbols: []string{"atimwak"}}},
	}
	handler := NewHandler(fixedProvider(mock))

	w := postJSON(t, handler, "/api/generate", `{"analysis": "atim+N+A+Pl"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	var resp generateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Analysis != "atim+N+A+Pl" || len(resp.Wordforms) != 1 || resp.Wordforms[0].Text != "atimwak" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestRoundTripEndpoint(t *testing.T) {
	mock := &MockMorphology{
		Wordforms: []fst.Wordform{{Symbols: []string{"atim"}}},
	}
	handler := NewHandler(fixedProvider(mock))

	w := postJSON(t, handler, "/api/round-trip", `{"input": "atım"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	var resp roundTripResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Wordforms) != 1 || resp.Wordforms[0].Text != "atim" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestHealthz(t *testing.T) {
	handler := NewHandler(fixedProvider(&MockMorphology{}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}

func TestInfoEndpoint(t *testing.T) {
	info := Info{
		App:     "hfstol-http",
		Version: "1.2.3",
		Transducers: []TransducerInfo{
			{Role: "analyser", Source: "crk.hfstol", Fingerprint: "abc", States: 42},
		},
	}
	handler := NewHandler(fixedProvider(&MockMorphology{}), WithInfo(info))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/info", nil))

	var got Info
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Version != "1.2.3" || len(got.Transducers) != 1 || got.Transducers[0].Source != "crk.hfstol" {
		t.Errorf("Unexpected info: %+v", got)
	}
}

func TestInfoFuncTracksReload(t *testing.T) {
	fingerprint := "before"
	handler := NewHandler(fixedProvider(&MockMorphology{}), WithInfoFunc(func() Info {
		return Info{
			App:         "hfstol-http",
			Transducers: []TransducerInfo{{Role: "analyser", Fingerprint: fingerprint}},
		}
	}))

	fetch := func() Info {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/info", nil))
		var got Info
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		return got
	}

	if got := fetch(); got.Transducers[0].Fingerprint != "before" {
		t.Errorf("Expected fingerprint 'before', got %q", got.Transducers[0].Fingerprint)
	}

	fingerprint = "after"
	if got := fetch(); got.Transducers[0].Fingerprint != "after" {
		t.Errorf("Expected fingerprint 'after', got %q", got.Transducers[0].Fingerprint)
	}
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("metrics-ok"))
	})
	handler := NewHandler(fixedProvider(&MockMorphology{}), WithMetricsHandler(metrics))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK || w.Body.String() != "metrics-ok" {
		t.Errorf("Expected mounted metrics handler, got %d %q", w.Code, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := NewHandler(fixedProvider(&MockMorphology{}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/analyse", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS headers on preflight response")
	}
}

func TestProviderSwapBetweenRequests(t *testing.T) {
	first := &MockMorphology{Analyses: []fst.Analysis{{Symbols: []string{"one"}}}}
	second := &MockMorphology{Analyses: []fst.Analysis{{Symbols: []string{"two"}}}}

	current := first
	handler := NewHandler(func() ports.Morphology { return current })

	w := postJSON(t, handler, "/api/analyse", `{"input": "x"}`)
	if !strings.Contains(w.Body.String(), `"one"`) {
		t.Errorf("Expected first implementation, got: %s", w.Body.String())
	}

	current = second
	w = postJSON(t, handler, "/api/analyse", `{"input": "x"}`)
	if !strings.Contains(w.Body.String(), `"two"`) {
		t.Errorf("Expected swapped implementation, got: %s", w.Body.String())
	}
}
