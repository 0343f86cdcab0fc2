package builder

import "fmt"

// Phase names a step of one build pass.
type Phase string

const (
	PhaseDiscover Phase = "discover"
	PhaseAnalyze  Phase = "analyze"
	PhaseLink     Phase = "link"
	PhaseDone     Phase = "done"
)

// ProgressEvent reports how far a build pass has come. Done and Total count
// files; they are zero for phases that are not per-file.
type ProgressEvent struct {
	Phase Phase  `json:"phase"`
	Path  string `json:"path,omitempty"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
// Emit on a nil reporter is a no-op.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	if pr == nil {
		return
	}
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Phase {
	case PhaseDiscover:
		return fmt.Sprintf("  ○ discovered %d files", event.Total)
	case PhaseAnalyze:
		return fmt.Sprintf("  ● [%d/%d] %s", event.Done, event.Total, event.Path)
	case PhaseLink:
		return fmt.Sprintf("  ● linking %d files", event.Total)
	case PhaseDone:
		return fmt.Sprintf("  ✓ graph built: %d files", event.Total)
	default:
		return fmt.Sprintf("  ? %s (unknown phase)", event.Phase)
	}
}
