package domain

import "time"

type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

type RunState string

const (
	RunStateDone   RunState = "done"
	RunStateFailed RunState = "failed"
)

// Run is the record of one finished summarization.
type Run struct {
	ID             string
	URL            string
	Provider       Provider
	Model          string
	State          RunState
	ExtractedChars int
	Summary        string
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
}
