package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"readsum/internal/domain"
	"readsum/internal/reader"
	"readsum/internal/summarizer"
)

// Recorder stores finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run domain.Run) error
}

type Option func(*Orchestrator)

func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = recorder
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator runs retrieval and summarization for a session, one step
// after the other.
type Orchestrator struct {
	retriever   reader.Retriever
	summarizer  summarizer.Summarizer
	credentials string
	recorder    Recorder
	now         func() time.Time
	log         *slog.Logger
}

func New(
	retriever reader.Retriever,
	sum summarizer.Summarizer,
	credentials string,
	log *slog.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		retriever:   retriever,
		summarizer:  sum,
		credentials: credentials,
		now:         time.Now,
		log:         log,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run performs one run on session. The outcome is always reflected in the
// session; the returned error is the cause of a failed run, or ErrBusy when
// the session is already running and was left untouched.
func (o *Orchestrator) Run(ctx context.Context, session *Session) (err error) {
	snap, ok := session.begin()
	if !ok {
		return ErrBusy
	}

	run := domain.Run{
		ID:        uuid.NewString(),
		URL:       strings.TrimSpace(snap.URL),
		StartedAt: o.now(),
	}

	// A panicking stage must not leave the session running forever.
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		err = fmt.Errorf("run panicked: %v", r)
		o.log.ErrorContext(ctx, "Run panicked",
			"error", err,
			"runID", run.ID,
			"url", run.URL)

		if session.Running() {
			o.failWith(ctx, session, run, GenericErrorMessage)
		}
	}()
	if d, ok := o.summarizer.(summarizer.Described); ok {
		run.Provider = d.Provider()
	}

	if err := o.validate(run.URL); err != nil {
		o.log.WarnContext(ctx, "Run is rejected", "error", err, "runID", run.ID)
		session.failed(UserMessage(err))

		return err
	}

	run.URL = reader.NormalizeURL(run.URL)

	session.retrieving()

	text, err := o.retriever.Retrieve(ctx, run.URL)
	if err != nil {
		o.log.ErrorContext(ctx, "Failed to retrieve article",
			"error", err,
			"runID", run.ID,
			"url", run.URL)

		return o.fail(ctx, session, run, err)
	}

	text = Truncate(text, MaxTextLength)
	session.summarizing(text)

	summary, err := o.summarizer.Summarize(ctx, summarizer.Input{
		Text:      text,
		SourceURL: run.URL,
	})
	if err != nil {
		o.log.ErrorContext(ctx, "Failed to summarize article",
			"error", err,
			"runID", run.ID,
			"url", run.URL)

		return o.fail(ctx, session, run, err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = summarizer.NoSummary
	}

	session.done(summary)

	final := session.Snapshot()
	run.State = domain.RunStateDone
	run.Summary = summary
	run.ExtractedChars = final.ExtractedChars()
	o.record(ctx, run)

	o.log.InfoContext(ctx, "Run is done",
		"runID", run.ID,
		"url", run.URL,
		"extractedChars", run.ExtractedChars)

	return nil
}

func (o *Orchestrator) validate(url string) error {
	if url == "" {
		return &domain.ValidationError{Field: fieldURL, Message: MessageEmptyURL}
	}

	if o.summarizer == nil || strings.TrimSpace(o.credentials) == "" {
		return &domain.ValidationError{Field: fieldCredentials, Message: MessageMissingAPIKey}
	}

	return nil
}

func (o *Orchestrator) fail(
	ctx context.Context,
	session *Session,
	run domain.Run,
	err error,
) error {
	o.failWith(ctx, session, run, UserMessage(err))

	return err
}

func (o *Orchestrator) failWith(
	ctx context.Context,
	session *Session,
	run domain.Run,
	message string,
) {
	session.failed(message)

	run.State = domain.RunStateFailed
	run.Error = message
	run.ExtractedChars = session.Snapshot().ExtractedChars()
	o.record(ctx, run)
}

func (o *Orchestrator) record(ctx context.Context, run domain.Run) {
	if o.recorder == nil {
		return
	}

	if d, ok := o.summarizer.(summarizer.Described); ok {
		run.Model = d.Model()
	}
	run.FinishedAt = o.now()

	// Recording outlives request cancellation.
	if err := o.recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		o.log.ErrorContext(ctx, "Failed to record run",
			"error", err,
			"runID", run.ID)
	}
}

// IsValidation reports whether err was raised before any network call.
func IsValidation(err error) bool {
	var validationErr *domain.ValidationError

	return errors.As(err, &validationErr)
}
