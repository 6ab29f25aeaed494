package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"readsum/internal/domain"
)

const geminiModelsBody = `{"models":[
	{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]},
	{"name":"models/gemini-pro","supportedGenerationMethods":["generateContent"]},
	{"name":"models/gemini-1.5-flash","supportedGenerationMethods":["countTokens","generateContent"]}
]}`

type geminiRequest struct {
	Model             string `json:"model"`
	SystemInstruction struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type fakeGemini struct {
	mu         sync.Mutex
	listCalls  int
	requests   []geminiRequest
	paths      []string
	status     int
	respBody   string
	modelsBody string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1beta/models":
		f.listCalls++
		_, _ = io.WriteString(w, f.modelsBody)
	case strings.HasSuffix(r.URL.Path, ":generateContent"):
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.requests = append(f.requests, req)
		f.paths = append(f.paths, r.URL.Path)

		if f.status != 0 {
			w.WriteHeader(f.status)
		}
		_, _ = io.WriteString(w, f.respBody)
	default:
		http.NotFound(w, r)
	}
}

func newTestGemini(t *testing.T, model string, fake *fakeGemini) *GeminiSummarizer {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewGeminiSummarizer(context.Background(), "test-key", model, discardLogger(),
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestGeminiSummarizer_DiscoversModelOnce(t *testing.T) {
	fake := &fakeGemini{
		modelsBody: geminiModelsBody,
		respBody:   `{"candidates":[{"content":{"role":"model","parts":[{"text":"• one\n• two"}]}}]}`,
	}
	s := newTestGemini(t, "", fake)

	assert.Empty(t, s.Model())

	for range 2 {
		summary, err := s.Summarize(context.Background(), Input{Text: "article body", SourceURL: "https://example.com/a"})
		require.NoError(t, err)
		assert.Equal(t, "• one\n• two", summary)
	}

	assert.Equal(t, "gemini-1.5-flash", s.Model())

	fake.mu.Lock()
	defer fake.mu.Unlock()

	assert.Equal(t, 1, fake.listCalls)
	require.Len(t, fake.requests, 2)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", fake.paths[0])

	req := fake.requests[0]
	assert.Equal(t, "models/gemini-1.5-flash", req.Model)
	assert.InDelta(t, Temperature, req.GenerationConfig.Temperature, 1e-6)
	require.Len(t, req.SystemInstruction.Parts, 1)
	assert.Equal(t, systemPrompt, req.SystemInstruction.Parts[0].Text)
	require.Len(t, req.Contents, 1)
	require.Len(t, req.Contents[0].Parts, 1)
	assert.Equal(t, userPrompt("article body"), req.Contents[0].Parts[0].Text)
}

func TestGeminiSummarizer_ConfiguredModelSkipsDiscovery(t *testing.T) {
	fake := &fakeGemini{
		modelsBody: geminiModelsBody,
		respBody:   `{"candidates":[]}`,
	}
	s := newTestGemini(t, "models/gemini-pro", fake)

	summary, err := s.Summarize(context.Background(), Input{Text: "article body"})
	require.NoError(t, err)
	assert.Equal(t, NoSummary, summary)
	assert.Equal(t, "gemini-pro", s.Model())

	fake.mu.Lock()
	defer fake.mu.Unlock()

	assert.Zero(t, fake.listCalls)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, "models/gemini-pro", fake.requests[0].Model)
}

func TestGeminiSummarizer_ProviderError(t *testing.T) {
	body := `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`
	fake := &fakeGemini{
		modelsBody: geminiModelsBody,
		status:     http.StatusBadRequest,
		respBody:   body,
	}
	s := newTestGemini(t, "gemini-1.5-flash", fake)

	_, err := s.Summarize(context.Background(), Input{Text: "article body"})
	require.Error(t, err)

	var summaryErr *domain.SummaryError
	require.True(t, errors.As(err, &summaryErr))
	assert.Equal(t, http.StatusBadRequest, summaryErr.StatusCode)
	assert.Equal(t, body, summaryErr.Body)
	assert.Equal(t, "API key not valid", ProviderMessage(summaryErr.Body))
	assert.Contains(t, err.Error(), "400")
}
