package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"readsum/internal/domain"
)

const (
	geminiModelPrefix      = "models/"
	generateContentMethod  = "generateContent"
	preferredGeminiVariant = "flash"
)

var errNoGeminiModel = errors.New("no model supports generateContent")

// GeminiSummarizer calls Gemini's generateContent endpoint. When no model is
// configured it discovers one on first use and reuses it afterwards.
type GeminiSummarizer struct {
	client *genai.Client
	log    *slog.Logger

	mu    sync.Mutex
	model string
}

// NewGeminiSummarizer creates a REST client authenticated with apiKey.
func NewGeminiSummarizer(
	ctx context.Context,
	apiKey string,
	model string,
	log *slog.Logger,
	opts ...option.ClientOption,
) (*GeminiSummarizer, error) {
	clientOpts := append([]option.ClientOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
	}, opts...)

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiSummarizer{
		client: client,
		log:    log,
		model:  strings.TrimPrefix(strings.TrimSpace(model), geminiModelPrefix),
	}, nil
}

func (s *GeminiSummarizer) Provider() domain.Provider { return domain.ProviderGemini }

// Model returns the configured or discovered model, empty before discovery.
func (s *GeminiSummarizer) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.model
}

func (s *GeminiSummarizer) Close() error {
	return s.client.Close()
}

func (s *GeminiSummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	modelName, err := s.resolveModel(ctx)
	if err != nil {
		summaryErr := geminiError(err)
		s.log.ErrorContext(ctx, "Failed to resolve gemini model",
			"error", err,
			"statusCode", summaryErr.StatusCode)

		return "", summaryErr
	}

	model := s.client.GenerativeModel(modelName)
	model.SetTemperature(Temperature)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt(input.Text)))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			s.log.WarnContext(ctx, "Gemini response was blocked",
				"error", err,
				"model", modelName,
				"sourceURL", input.SourceURL)

			return NoSummary, nil
		}

		summaryErr := geminiError(err)
		s.log.ErrorContext(ctx, "Failed to generate content",
			"error", err,
			"provider", domain.ProviderGemini,
			"model", modelName,
			"statusCode", summaryErr.StatusCode,
			"providerMessage", ProviderMessage(summaryErr.Body),
			"sourceURL", input.SourceURL)

		return "", summaryErr
	}

	summary := firstCandidateText(resp)
	if summary == "" {
		return NoSummary, nil
	}

	return summary, nil
}

func (s *GeminiSummarizer) resolveModel(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != "" {
		return s.model, nil
	}

	var models []*genai.ModelInfo

	it := s.client.ListModels(ctx)
	for {
		info, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("list models: %w", err)
		}

		models = append(models, info)
	}

	name, err := pickModel(models)
	if err != nil {
		return "", err
	}

	s.model = name
	s.log.InfoContext(ctx, "Gemini model is discovered", "model", name)

	return name, nil
}

// pickModel returns the first flash model supporting generateContent, or the
// first such model of any kind.
func pickModel(models []*genai.ModelInfo) (string, error) {
	var fallback string

	for _, m := range models {
		if m == nil || !slices.Contains(m.SupportedGenerationMethods, generateContentMethod) {
			continue
		}

		name := strings.TrimPrefix(m.Name, geminiModelPrefix)
		if strings.Contains(name, preferredGeminiVariant) {
			return name, nil
		}
		if fallback == "" {
			fallback = name
		}
	}

	if fallback == "" {
		return "", errNoGeminiModel
	}

	return fallback, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return strings.TrimSpace(sb.String())
}

func geminiError(err error) *domain.SummaryError {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &domain.SummaryError{
			StatusCode: apiErr.Code,
			Body:       apiErr.Body,
			Err:        err,
		}
	}

	if isTransportError(err) {
		return &domain.SummaryError{
			Err: &domain.TransportError{Stage: domain.StageSummarize, Err: err},
		}
	}

	return &domain.SummaryError{Err: err}
}
