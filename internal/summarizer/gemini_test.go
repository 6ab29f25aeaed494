package summarizer

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"readsum/internal/domain"
)

func TestPickModel(t *testing.T) {
	tests := []struct {
		name   string
		models []*genai.ModelInfo
		want   string
		err    error
	}{
		{
			name: "prefers flash",
			models: []*genai.ModelInfo{
				{Name: "models/embedding-001", SupportedGenerationMethods: []string{"embedContent"}},
				{Name: "models/gemini-pro", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-1.5-flash", SupportedGenerationMethods: []string{"countTokens", "generateContent"}},
			},
			want: "gemini-1.5-flash",
		},
		{
			name: "falls back to first capable",
			models: []*genai.ModelInfo{
				nil,
				{Name: "models/gemini-pro", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-ultra", SupportedGenerationMethods: []string{"generateContent"}},
			},
			want: "gemini-pro",
		},
		{
			name: "none capable",
			models: []*genai.ModelInfo{
				{Name: "models/embedding-001", SupportedGenerationMethods: []string{"embedContent"}},
			},
			err: errNoGeminiModel,
		},
		{
			name: "empty",
			err:  errNoGeminiModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickModel(tt.models)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstCandidateText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{name: "nil response"},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}},
		{
			name: "nil content",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
		},
		{
			name: "joins text parts of first candidate",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{
					genai.Text("• one\n"),
					genai.Blob{MIMEType: "image/png"},
					genai.Text("• two\n"),
				}}},
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
			}},
			want: "• one\n• two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstCandidateText(tt.resp))
		})
	}
}

func TestGeminiError(t *testing.T) {
	t.Run("api error keeps body", func(t *testing.T) {
		body := `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`
		err := fmt.Errorf("generate: %w", &googleapi.Error{Code: http.StatusBadRequest, Body: body})

		got := geminiError(err)
		assert.Equal(t, http.StatusBadRequest, got.StatusCode)
		assert.Equal(t, body, got.Body)
		assert.Equal(t, "API key not valid", ProviderMessage(got.Body))
	})

	t.Run("transport", func(t *testing.T) {
		err := &url.Error{Op: "Post", URL: "https://example.invalid", Err: errors.New("dial tcp: refused")}

		got := geminiError(err)
		assert.Zero(t, got.StatusCode)

		var transportErr *domain.TransportError
		require.ErrorAs(t, got, &transportErr)
		assert.Equal(t, domain.StageSummarize, transportErr.Stage)
	})

	t.Run("other", func(t *testing.T) {
		cause := errors.New("boom")

		got := geminiError(cause)
		assert.ErrorIs(t, got, cause)
		assert.Equal(t, "boom", got.Error())
	})
}
