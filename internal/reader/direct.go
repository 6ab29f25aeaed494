package reader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"readsum/internal/domain"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	maxDirectBodyBytes = 5 << 20

	noiseSelectors = "script, style, noscript, template, svg, iframe, nav, header, footer, aside, form"
	blockSelectors = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td"
)

var contentRootSelectors = []string{"article", "main", "[role='main']", "body"}

// DirectRetriever downloads the page itself and extracts text with goquery.
// Its output mimics the reader-proxy format: a Title line followed by the body.
type DirectRetriever struct {
	client *http.Client
	log    *slog.Logger
}

func NewDirectRetriever(client *http.Client, log *slog.Logger) *DirectRetriever {
	if client == nil {
		client = http.DefaultClient
	}

	return &DirectRetriever{client: client, log: log}
}

func (r *DirectRetriever) Retrieve(ctx context.Context, rawURL string) (string, error) {
	normalized := NormalizeURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return "", &domain.RetrievalError{
			URL: normalized,
			Err: fmt.Errorf("create request: %w", err),
		}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req) //nolint:gosec // User-supplied article URL
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
				"operation", "DirectRetriever.Retrieve")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &domain.RetrievalError{
			URL:        normalized,
			StatusCode: resp.StatusCode,
		}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxDirectBodyBytes))
	if err != nil {
		return "", &domain.RetrievalError{
			URL: normalized,
			Err: fmt.Errorf("create document from reader: %w", err),
		}
	}

	return ExtractText(doc), nil
}

// ExtractText renders the readable part of an HTML document as plain text.
func ExtractText(doc *goquery.Document) string {
	title := documentTitle(doc)

	doc.Find(noiseSelectors).Remove()

	root := contentRoot(doc)

	var lines []string
	root.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (li > p) are emitted by the innermost element only.
		if s.Find(blockSelectors).Length() > 0 {
			return
		}

		if line := collapseSpaces(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})

	if len(lines) == 0 {
		if text := collapseSpaces(root.Text()); text != "" {
			lines = append(lines, text)
		}
	}

	var b strings.Builder
	if title != "" {
		b.WriteString("Title: ")
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Join(lines, "\n"))

	return strings.TrimSpace(b.String())
}

func documentTitle(doc *goquery.Document) string {
	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		if title := collapseSpaces(content); title != "" {
			return title
		}
	}

	return collapseSpaces(doc.Find("head > title").First().Text())
}

func contentRoot(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentRootSelectors {
		if s := doc.Find(selector).First(); s.Length() > 0 {
			return s
		}
	}

	return doc.Selection
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
