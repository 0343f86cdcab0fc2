package builder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/logging"
)

// scriptedBuilder returns one scripted result per Build call. A call whose
// gate is non-nil blocks until the gate is closed.
type scriptedBuilder struct {
	mu      sync.Mutex
	calls   int
	results []scriptedResult
	started chan int
}

type scriptedResult struct {
	snap *graph.Snapshot
	err  error
	gate chan struct{}
}

func (s *scriptedBuilder) Build(ctx context.Context) (*graph.Snapshot, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	r := s.results[i]
	s.mu.Unlock()

	if s.started != nil {
		s.started <- i
	}
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.snap, r.err
}

func snapshotWith(ids ...string) *graph.Snapshot {
	g := graph.NewProjectGraph(nil)
	for _, id := range ids {
		g.AddNode(id, nil, 1, graph.StatusUnchanged)
	}
	return g.Materialize()
}

type recordingObserver struct {
	mu        sync.Mutex
	builds    int
	failures  int
	discarded int
}

func (o *recordingObserver) ObserveBuild(_ time.Duration, _ *graph.Snapshot, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.builds++
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) ObserveDiscarded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discarded++
}

func TestService_RefreshPublishes(t *testing.T) {
	want := snapshotWith("a.ts")
	svc := NewService(&scriptedBuilder{results: []scriptedResult{{snap: want}}}, WithLogger(logging.Discard()))
	assert.Nil(t, svc.Snapshot())

	ch, cancel := svc.Subscribe()
	defer cancel()

	got, published, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, published)
	assert.Same(t, want, got)
	assert.Same(t, want, svc.Snapshot())
	assert.Equal(t, uint64(1), svc.Generation())

	select {
	case pushed := <-ch:
		assert.Same(t, want, pushed)
	case <-time.After(time.Second):
		t.Fatal("subscriber was not notified")
	}
}

func TestService_LastRebuildWins(t *testing.T) {
	older := snapshotWith("old.ts")
	newer := snapshotWith("new.ts")
	gate := make(chan struct{})
	b := &scriptedBuilder{
		results: []scriptedResult{
			{snap: older, gate: gate},
			{snap: newer},
		},
		started: make(chan int, 2),
	}
	obs := &recordingObserver{}
	svc := NewService(b, WithObserver(obs), WithLogger(logging.Discard()))

	type outcome struct {
		snap      *graph.Snapshot
		published bool
	}
	slow := make(chan outcome, 1)
	go func() {
		snap, published, err := svc.Refresh(context.Background())
		assert.NoError(t, err)
		slow <- outcome{snap, published}
	}()
	require.Equal(t, 0, <-b.started, "slow rebuild starts first")

	snap, published, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, published)
	assert.Same(t, newer, snap)

	close(gate)
	res := <-slow
	assert.False(t, res.published, "a result older than the published one is discarded")
	assert.Same(t, newer, res.snap)
	assert.Same(t, newer, svc.Snapshot())
	assert.Equal(t, uint64(2), svc.Generation())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 2, obs.builds)
	assert.Equal(t, 1, obs.discarded)
}

func TestService_FailedRebuildKeepsPrevious(t *testing.T) {
	first := snapshotWith("a.ts")
	obs := &recordingObserver{}
	svc := NewService(&scriptedBuilder{results: []scriptedResult{
		{snap: first},
		{err: errors.New("discovery failed")},
	}}, WithObserver(obs), WithLogger(logging.Discard()))

	_, _, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	snap, published, err := svc.Refresh(context.Background())
	assert.Error(t, err)
	assert.False(t, published)
	assert.Same(t, first, snap)
	assert.Same(t, first, svc.Snapshot())
	assert.Equal(t, 1, obs.failures)
}

func TestService_LoadsIndex(t *testing.T) {
	idx := graph.NewMemIndex()
	svc := NewService(&scriptedBuilder{results: []scriptedResult{{snap: snapshotWith("a.ts", "b.ts")}}},
		WithIndex(idx), WithLogger(logging.Discard()))
	assert.Same(t, idx, svc.Index())

	_, _, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FileCount)
}

func TestService_Ensure(t *testing.T) {
	b := &scriptedBuilder{results: []scriptedResult{{snap: snapshotWith("a.ts")}}}
	svc := NewService(b, WithLogger(logging.Discard()))

	first, err := svc.Ensure(context.Background())
	require.NoError(t, err)
	second, err := svc.Ensure(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, b.calls, "the second call reuses the published snapshot")
}

func TestService_SlowSubscriberSeesNewest(t *testing.T) {
	b := &scriptedBuilder{results: []scriptedResult{
		{snap: snapshotWith("1.ts")},
		{snap: snapshotWith("2.ts")},
		{snap: snapshotWith("3.ts")},
	}}
	svc := NewService(b, WithLogger(logging.Discard()))
	ch, cancel := svc.Subscribe()

	var last *graph.Snapshot
	for range 3 {
		snap, _, err := svc.Refresh(context.Background())
		require.NoError(t, err)
		last = snap
	}

	assert.Same(t, last, <-ch)
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open, "cancel closes the channel once")
}
