package builder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/logging"
)

// ErrNoSnapshot is returned by queries issued before the first publish.
var ErrNoSnapshot = errors.New("no graph has been built yet")

// Observer is notified about every finished rebuild.
type Observer interface {
	ObserveBuild(d time.Duration, snap *graph.Snapshot, err error)
	ObserveDiscarded()
}

// Snapshotter builds one snapshot per call.
type Snapshotter interface {
	Build(ctx context.Context) (*graph.Snapshot, error)
}

// Service owns the latest published snapshot. Rebuilds may overlap; a result
// is published only if no newer rebuild has published first.
type Service struct {
	builder  Snapshotter
	index    graph.Index
	observer Observer
	logger   *slog.Logger

	mu        sync.Mutex
	started   uint64
	published uint64
	snap      *graph.Snapshot
	subs      map[int]chan *graph.Snapshot
	nextSub   int
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithIndex loads every published snapshot into idx.
func WithIndex(idx graph.Index) ServiceOption {
	return func(s *Service) { s.index = idx }
}

// WithObserver reports rebuild outcomes to o.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService wraps b.
func NewService(b Snapshotter, opts ...ServiceOption) *Service {
	s := &Service{
		builder: b,
		subs:    make(map[int]chan *graph.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	return s
}

// Refresh runs a rebuild and publishes it unless a newer one already has.
// It returns the snapshot current after the call and whether this rebuild's
// result was the one published. On error the previous snapshot stays current.
func (s *Service) Refresh(ctx context.Context) (*graph.Snapshot, bool, error) {
	s.mu.Lock()
	s.started++
	gen := s.started
	s.mu.Unlock()

	start := time.Now()
	snap, err := s.builder.Build(ctx)
	if s.observer != nil {
		s.observer.ObserveBuild(time.Since(start), snap, err)
	}
	if err != nil {
		s.logger.Warn("rebuild failed", "generation", gen, "error", err)
		return s.Snapshot(), false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.published {
		s.logger.Debug("rebuild superseded", "generation", gen, "published", s.published)
		if s.observer != nil {
			s.observer.ObserveDiscarded()
		}
		return s.snap, false, nil
	}

	if s.index != nil {
		if err := s.index.Load(ctx, snap); err != nil {
			s.logger.Warn("load query index", "generation", gen, "error", err)
		}
	}
	s.published = gen
	s.snap = snap
	for _, ch := range s.subs {
		deliver(ch, snap)
	}
	s.logger.Info("graph published", "generation", gen, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return snap, true, nil
}

// Snapshot returns the latest published snapshot, or nil before the first.
func (s *Service) Snapshot() *graph.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Generation returns the generation of the latest published snapshot.
func (s *Service) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}

// Index returns the query index, or nil when none was configured.
func (s *Service) Index() graph.Index {
	return s.index
}

// Ensure returns the current snapshot, building one first if nothing has
// been published yet.
func (s *Service) Ensure(ctx context.Context) (*graph.Snapshot, error) {
	if snap := s.Snapshot(); snap != nil {
		return snap, nil
	}
	snap, _, err := s.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Subscribe returns a channel that receives every published snapshot. A slow
// reader only sees the newest one. Call cancel to unsubscribe.
func (s *Service) Subscribe() (<-chan *graph.Snapshot, func()) {
	ch := make(chan *graph.Snapshot, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// deliver replaces any unread snapshot in ch with snap. Callers hold s.mu,
// so there is a single sender.
func deliver(ch chan *graph.Snapshot, snap *graph.Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
