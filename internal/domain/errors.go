package domain

import (
	"fmt"
	"strings"
)

type Stage string

const (
	StageRetrieve  Stage = "retrieve"
	StageSummarize Stage = "summarize"
)

// ValidationError is reported before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError means no response arrived at all. It is always wrapped by the
// error kind of the stage it happened in.
type TransportError struct {
	Stage Stage
	Err   error
}

func (e *TransportError) Error() string {
	if e.Err == nil || strings.TrimSpace(e.Err.Error()) == "" {
		switch e.Stage {
		case StageRetrieve:
			return "network error while fetching article"
		case StageSummarize:
			return "network error while contacting AI provider"
		default:
			return "network error"
		}
	}

	return fmt.Sprintf("network error (stage = %s): %v", e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RetrievalError is a failed reader request. StatusCode is zero when the
// request never got a response.
type RetrievalError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to fetch article content. Status: %d", e.StatusCode)
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return "Failed to fetch article content"
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// SummaryError is a failed completion request or an unusable success body.
// Body holds the provider's raw response text when one was received.
type SummaryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SummaryError) Error() string {
	body := strings.TrimSpace(e.Body)

	switch {
	case e.StatusCode != 0 && body != "":
		return fmt.Sprintf("AI request failed. Status: %d. %s", e.StatusCode, body)
	case e.StatusCode != 0:
		return fmt.Sprintf("AI request failed. Status: %d", e.StatusCode)
	case body != "":
		return "AI request failed. " + body
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "AI request failed"
	}
}

func (e *SummaryError) Unwrap() error {
	return e.Err
}
