package pipeline

import (
	"sync"
	"unicode/utf8"
)

const (
	// MaxTextLength is the number of characters of article text passed on to
	// the summarizer.
	MaxTextLength = 15000

	PlaceholderSummary  = "Your summary will appear here."
	StatusFetching      = "Fetching article content..."
	StatusSummarizing   = "Summarizing with AI..."
	StatusReady         = "Summary ready."
	GenericErrorMessage = "Something went wrong. Please try again."
)

// Snapshot is a copy of the session fields at one moment.
type Snapshot struct {
	URL           string `json:"url"`
	ExtractedText string `json:"-"`
	Summary       string `json:"summary"`
	Status        string `json:"status"`
	Error         string `json:"error"`
	Busy          bool   `json:"busy"`
	State         State  `json:"state"`
}

// ExtractedChars returns the length of the extracted text in characters.
func (s Snapshot) ExtractedChars() int {
	return utf8.RuneCountInString(s.ExtractedText)
}

// Observer receives a snapshot after every transition.
type Observer func(Snapshot)

// Session holds the state of one user's runs. The URL persists between runs;
// everything else is reset when a run starts.
type Session struct {
	mu       sync.Mutex
	observer Observer

	url           string
	extractedText string
	summary       string
	status        string
	errMsg        string
	busy          bool
	state         State
	running       bool
}

func NewSession(observer Observer) *Session {
	return &Session{
		observer: observer,
		summary:  PlaceholderSummary,
		state:    StateIdle,
	}
}

func (s *Session) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.url = url
}

func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.url
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Running reports whether a run currently owns the session.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		URL:           s.url,
		ExtractedText: s.extractedText,
		Summary:       s.summary,
		Status:        s.status,
		Error:         s.errMsg,
		Busy:          s.busy,
		State:         s.state,
	}
}

// begin claims the session for a new run and enters Validating with every
// field but the URL reset. It returns false if a run is already in flight.
func (s *Session) begin() (Snapshot, bool) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Snapshot{}, false
	}

	s.running = true
	s.extractedText = ""
	s.summary = PlaceholderSummary
	s.status = ""
	s.errMsg = ""
	s.busy = false
	s.state = StateValidating
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)

	return snap, true
}

func (s *Session) retrieving() {
	s.transition(func() {
		s.busy = true
		s.status = StatusFetching
		s.state = StateRetrieving
	})
}

func (s *Session) summarizing(text string) {
	s.transition(func() {
		s.extractedText = text
		s.status = StatusSummarizing
		s.state = StateSummarizing
	})
}

func (s *Session) done(summary string) {
	s.transition(func() {
		s.summary = summary
		s.busy = false
		s.status = StatusReady
		s.errMsg = ""
		s.state = StateDone
		s.running = false
	})
}

func (s *Session) failed(message string) {
	if message == "" {
		message = GenericErrorMessage
	}

	s.transition(func() {
		s.busy = false
		s.status = ""
		s.errMsg = message
		s.state = StateFailed
		s.running = false
	})
}

func (s *Session) transition(mutate func()) {
	s.mu.Lock()
	mutate()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Session) notify(snap Snapshot) {
	if s.observer != nil {
		s.observer(snap)
	}
}

// Truncate returns at most limit leading characters of text.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}

	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}

	return text
}
