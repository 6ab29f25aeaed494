package server

import (
	"bytes"
	"html/template"
	"net/http"

	"readsum/internal/logger"
	"readsum/internal/pipeline"
)

type pageData struct {
	URL         string
	Status      string
	Error       string
	Summary     string
	SummaryHTML template.HTML
	Busy        bool
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, pipeline.NewSession(nil).Snapshot())
}

// handlePageSubmit runs the form without JavaScript and renders the result.
func (s *Server) handlePageSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	session := pipeline.NewSession(nil)
	session.SetURL(r.PostFormValue("url"))

	// The outcome is carried by the session.
	_ = s.runner.Run(r.Context(), session)

	s.renderPage(w, r, session.Snapshot())
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, snap pipeline.Snapshot) {
	resp := s.newSnapshotResponse(r.Context(), snap)

	data := pageData{
		URL:     snap.URL,
		Status:  snap.Status,
		Error:   snap.Error,
		Summary: snap.Summary,
		SummaryHTML: template.HTML(resp.SummaryHTML), //nolint:gosec // Rendered from markdown without raw HTML.
		Busy:        snap.Busy,
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		logger.FromContext(r.Context(), s.log).ErrorContext(r.Context(), "Failed to render page",
			"error", err)

		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		logger.FromContext(r.Context(), s.log).WarnContext(r.Context(), "Failed to write page",
			"error", err)
	}
}
