// Package reader retrieves readable article text for a URL.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

const (
	DefaultProxyBaseURL = "https://r.jina.ai/"

	ModeProxy  = "proxy"
	ModeDirect = "direct"

	defaultScheme = "https://"
)

// Retriever returns the readable text behind rawURL.
type Retriever interface {
	Retrieve(ctx context.Context, rawURL string) (string, error)
}

// NormalizeURL trims rawURL and prepends https:// unless it already starts
// with http:// or https:// in any letter case.
func NormalizeURL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}

	if hasHTTPScheme(trimmed) {
		return trimmed
	}

	return defaultScheme + trimmed
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)

	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// New builds the retriever for mode.
func New(mode string, baseURL string, client *http.Client, log *slog.Logger) (Retriever, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeProxy:
		return NewProxyRetriever(baseURL, client, log), nil
	case ModeDirect:
		return NewDirectRetriever(client, log), nil
	default:
		return nil, fmt.Errorf("unknown reader mode: %s", mode)
	}
}
