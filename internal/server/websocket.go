package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"readsum/internal/logger"
	"readsum/internal/pipeline"
)

// handleWebsocket owns one session per connection. Each client message
// starts a run and every transition is pushed back as a snapshot.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.log)

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.WarnContext(r.Context(), "Failed to accept websocket",
			"error", err)

		return
	}
	defer c.CloseNow() //nolint:errcheck

	ctx, cancel := context.WithCancel(r.Context())

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	send := func(snap pipeline.Snapshot) {
		if err := wsjson.Write(ctx, c, s.newSnapshotResponse(ctx, snap)); err != nil {
			log.DebugContext(ctx, "Failed to write snapshot",
				"error", err,
				"state", snap.State.String())
		}
	}

	session := pipeline.NewSession(send)
	send(session.Snapshot())

	var inFlight atomic.Bool

	for {
		var req summaryRequest
		if err = wsjson.Read(ctx, c, &req); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				log.DebugContext(ctx, "Websocket read ended",
					"error", err)
			}

			return
		}

		// Claim before the run goroutine starts; later messages must not
		// replace the URL of a pending run.
		if !inFlight.CompareAndSwap(false, true) {
			send(session.Snapshot())
			continue
		}

		session.SetURL(req.URL)

		wg.Go(func() {
			defer inFlight.Store(false)

			if err := s.runner.Run(ctx, session); errors.Is(err, pipeline.ErrBusy) {
				send(session.Snapshot())
			}
		})
	}
}
