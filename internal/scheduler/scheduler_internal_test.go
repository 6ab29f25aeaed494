package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	cutoffs []time.Time
	err     error
}

func (p *fakePruner) DeleteRunsBefore(_ context.Context, t time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, t)

	return int64(len(p.cutoffs)), p.err
}

func newTestScheduler(ctx context.Context, pruner Pruner, retention time.Duration) *Scheduler {
	s := New(ctx, pruner, retention, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}

	return s
}

func TestPruneHistory_UsesRetention(t *testing.T) {
	pruner := &fakePruner{}
	s := newTestScheduler(context.Background(), pruner, 24*time.Hour)

	s.pruneHistory()

	require.Len(t, pruner.cutoffs, 1)
	assert.Equal(t, time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC), pruner.cutoffs[0])
}

func TestPruneHistory_DisabledRetention(t *testing.T) {
	pruner := &fakePruner{}
	s := newTestScheduler(context.Background(), pruner, 0)

	s.pruneHistory()

	assert.Empty(t, pruner.cutoffs)
}

func TestPruneHistory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pruner := &fakePruner{}
	s := newTestScheduler(ctx, pruner, time.Hour)

	s.pruneHistory()

	assert.Empty(t, pruner.cutoffs)
}

func TestPruneHistory_ErrorIsLogged(t *testing.T) {
	pruner := &fakePruner{err: errors.New("locked")}
	s := newTestScheduler(context.Background(), pruner, time.Hour)

	assert.NotPanics(t, s.pruneHistory)
	assert.Len(t, pruner.cutoffs, 1)
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler(context.Background(), &fakePruner{}, time.Hour)

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
