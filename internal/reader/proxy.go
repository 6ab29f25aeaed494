package reader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"readsum/internal/domain"
)

// ProxyRetriever asks a reader-proxy service to fetch and extract the page.
type ProxyRetriever struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

func NewProxyRetriever(baseURL string, client *http.Client, log *slog.Logger) *ProxyRetriever {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultProxyBaseURL
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &ProxyRetriever{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		client:  client,
		log:     log,
	}
}

// Retrieve issues a single GET and returns the body unmodified.
func (r *ProxyRetriever) Retrieve(ctx context.Context, rawURL string) (string, error) {
	normalized := NormalizeURL(rawURL)
	target := r.TargetURL(normalized)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &domain.RetrievalError{
			URL: normalized,
			Err: fmt.Errorf("create request: %w", err),
		}
	}

	resp, err := r.client.Do(req) //nolint:gosec // Reader proxy URL
	if err != nil {
		return "", &domain.RetrievalError{
			URL: normalized,
			Err: &domain.TransportError{Stage: domain.StageRetrieve, Err: err},
		}
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			r.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", normalized,
				"operation", "ProxyRetriever.Retrieve")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &domain.RetrievalError{
			URL:        normalized,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.RetrievalError{
			URL: normalized,
			Err: &domain.TransportError{
				Stage: domain.StageRetrieve,
				Err:   fmt.Errorf("read body: %w", err),
			},
		}
	}

	return string(body), nil
}

// TargetURL is the proxy address for an already normalized URL.
func (r *ProxyRetriever) TargetURL(normalized string) string {
	return r.baseURL + normalized
}
