package summarizer

import (
	"context"

	"readsum/internal/domain"
)

// NoSummary is returned when the provider answers successfully but without
// any usable text.
const NoSummary = "No summary produced."

// Input describes the payload for a summary request.
type Input struct {
	// Text contains the extracted article text to summarise.
	Text string
	// SourceURL is the normalized article URL, used for logging only.
	SourceURL string
}

// Summarizer produces a single summary for a given input text.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}

// Described is implemented by summarizers that can report what they call.
type Described interface {
	Provider() domain.Provider
	Model() string
}
