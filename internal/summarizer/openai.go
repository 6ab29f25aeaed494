package summarizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"readsum/internal/domain"
)

const DefaultOpenAIModel = openai.ChatModelGPT4oMini

// OpenAISummarizer calls OpenAI's Chat Completions API to produce summaries.
type OpenAISummarizer struct {
	client openai.Client
	model  string
	log    *slog.Logger
}

// NewOpenAISummarizer builds a new summarizer instance. SDK retries are
// disabled: a failed request surfaces immediately.
func NewOpenAISummarizer(
	apiKey string,
	model string,
	log *slog.Logger,
	opts ...option.RequestOption,
) *OpenAISummarizer {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultOpenAIModel
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithMaxRetries(0),
	}, opts...)

	return &OpenAISummarizer{
		client: openai.NewClient(clientOpts...),
		model:  model,
		log:    log,
	}
}

func (s *OpenAISummarizer) Provider() domain.Provider { return domain.ProviderOpenAI }

func (s *OpenAISummarizer) Model() string { return s.model }

// Summarize sends one chat completion request and returns the first choice.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(input.Text)),
		},
		Temperature: openai.Float(Temperature),
	})
	if err != nil {
		summaryErr := openAIError(err)
		s.log.ErrorContext(ctx, "Failed to create chat completion",
			"error", err,
			"provider", domain.ProviderOpenAI,
			"model", s.model,
			"statusCode", summaryErr.StatusCode,
			"providerMessage", ProviderMessage(summaryErr.Body),
			"sourceURL", input.SourceURL)

		return "", summaryErr
	}

	if len(resp.Choices) == 0 {
		s.log.WarnContext(ctx, "Chat completion has no choices",
			"model", s.model,
			"sourceURL", input.SourceURL)

		return NoSummary, nil
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return NoSummary, nil
	}

	return summary, nil
}

func openAIError(err error) *domain.SummaryError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &domain.SummaryError{
			StatusCode: apiErr.StatusCode,
			Body:       openAIErrorBody(apiErr),
			Err:        err,
		}
	}

	if isTransportError(err) {
		return &domain.SummaryError{
			Err: &domain.TransportError{Stage: domain.StageSummarize, Err: err},
		}
	}

	return &domain.SummaryError{Err: fmt.Errorf("create chat completion: %w", err)}
}

// openAIErrorBody returns the raw response body. The SDK rewinds the body
// before building the error, so it can be read again here.
func openAIErrorBody(apiErr *openai.Error) string {
	if apiErr.Response != nil && apiErr.Response.Body != nil {
		if body, err := io.ReadAll(apiErr.Response.Body); err == nil && len(body) > 0 {
			return string(body)
		}
	}

	return apiErr.RawJSON()
}
