package coordinator

import (
	"sync"
	"time"

	"github.com/rubiojr/gsuggest/pkg/aggregator"
	"github.com/rubiojr/gsuggest/pkg/metrics"
	"github.com/rubiojr/gsuggest/pkg/progress"
)

// Status is the lifecycle state of a round.
type Status int

const (
	StatusActive Status = iota
	StatusComplete
	StatusSuperseded
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusComplete:
		return "complete"
	case StatusSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// FailureKind classifies a region that completed without contributing items.
type FailureKind string

const (
	KindTransportError   FailureKind = metrics.OutcomeTransportError
	KindTimeout          FailureKind = metrics.OutcomeTimeout
	KindMalformedPayload FailureKind = metrics.OutcomeMalformedPayload
)

// RegionFailure records why a region contributed no suggestions.
type RegionFailure struct {
	RegionID string
	Kind     FailureKind
	Err      error
}

// Round is the handle of one search. All methods are safe for concurrent use.
// A round is mutated only by the coordinator that created it; once it is
// complete or superseded it no longer changes.
type Round struct {
	phrase     string
	generation uint64
	startedAt  time.Time

	mu         sync.RWMutex
	agg        *aggregator.Aggregator
	status     Status
	failures   []RegionFailure
	finishedAt time.Time
	done       chan struct{}
}

func newRound(phrase string, generation uint64, total int, now time.Time) *Round {
	return &Round{
		phrase:     phrase,
		generation: generation,
		startedAt:  now,
		agg:        aggregator.New(total),
		status:     StatusActive,
		done:       make(chan struct{}),
	}
}

// Generation identifies the round.
func (r *Round) Generation() uint64 { return r.generation }

// Phrase is the search phrase the round was started with.
func (r *Round) Phrase() string { return r.phrase }

// StartedAt is when the round was created.
func (r *Round) StartedAt() time.Time { return r.startedAt }

// Done is closed once the round is complete or superseded.
func (r *Round) Done() <-chan struct{} { return r.done }

// Results returns the deduplicated suggestions gathered so far, in first
// arrival order.
func (r *Round) Results() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agg.Results()
}

// Progress returns the completion percentage in [0,100].
func (r *Round) Progress() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return progress.Percent(r.agg.Completed(), r.agg.Total())
}

// Completed returns how many regions have reported.
func (r *Round) Completed() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agg.Completed()
}

// Total returns how many regions the round queries.
func (r *Round) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agg.Total()
}

// CompletedRegions lists region ids in the order they reported.
func (r *Round) CompletedRegions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agg.CompletedRegions()
}

// IsComplete reports whether every region has reported.
func (r *Round) IsComplete() bool {
	return r.Status() == StatusComplete
}

// Status returns the lifecycle state.
func (r *Round) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Failures returns the regions that completed without contributing items.
func (r *Round) Failures() []RegionFailure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RegionFailure, len(r.failures))
	copy(out, r.failures)
	return out
}

// FinishedAt returns when the round became terminal, or the zero time.
func (r *Round) FinishedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finishedAt
}

// terminate moves an active round to status. It reports whether the
// transition happened. Callers hold r.mu.
func (r *Round) terminate(status Status, now time.Time) bool {
	if r.status != StatusActive {
		return false
	}
	r.status = status
	r.finishedAt = now
	close(r.done)
	return true
}

func (r *Round) supersede(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminate(StatusSuperseded, now)
}

// FailureInfo is the serializable form of a RegionFailure.
type FailureInfo struct {
	RegionID string `json:"region"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// Snapshot is a point-in-time copy of a round's state.
type Snapshot struct {
	Generation uint64        `json:"generation"`
	Phrase     string        `json:"phrase"`
	Status     string        `json:"status"`
	Progress   float64       `json:"progress"`
	Completed  int           `json:"completed"`
	Total      int           `json:"total"`
	Results    []string      `json:"results"`
	Failures   []FailureInfo `json:"failures"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Snapshot returns a consistent copy of the round's state.
func (r *Round) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		Generation: r.generation,
		Phrase:     r.phrase,
		Status:     r.status.String(),
		Progress:   progress.Percent(r.agg.Completed(), r.agg.Total()),
		Completed:  r.agg.Completed(),
		Total:      r.agg.Total(),
		Results:    r.agg.Results(),
		Failures:   make([]FailureInfo, 0, len(r.failures)),
		StartedAt:  r.startedAt,
	}
	for _, f := range r.failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		s.Failures = append(s.Failures, FailureInfo{RegionID: f.RegionID, Kind: string(f.Kind), Message: msg})
	}
	if !r.finishedAt.IsZero() {
		finished := r.finishedAt
		s.FinishedAt = &finished
	}
	return s
}
