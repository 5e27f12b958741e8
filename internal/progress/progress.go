// Package progress turns raw transfer events into one uniform progress state.
package progress

import "darkroom/internal/ndjson"

// Unknown is the Total of an indeterminate state.
const Unknown int64 = -1

// State is the progress of one request. Done never decreases during a
// request's lifetime.
type State struct {
	Done  int64
	Total int64
}

// Indeterminate reports whether the total is not known yet.
func (s State) Indeterminate() bool { return s.Total < 0 }

// Ratio is Done/Total clamped to [0, 1], or 0 when indeterminate.
func (s State) Ratio() float64 {
	if s.Indeterminate() || s.Total == 0 {
		return 0
	}
	r := float64(s.Done) / float64(s.Total)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// Func receives progress updates.
type Func func(State)

// Event is a raw progress signal: bytes received so far, the expected length
// (negative when unknown) and the body received so far, which is only needed
// for multi-status streams.
type Event struct {
	Loaded int64
	Total  int64
	Body   []byte
}

// Reporter adapts raw events of one response into States.
type Reporter struct {
	multiStatus bool
	fn          Func
	last        State
	closed      bool
}

// NewReporter returns a reporter for a response. multiStatus is decided from
// the response headers; when set, logical item counts from the stream take
// priority over byte counts. fn may be nil.
func NewReporter(multiStatus bool, fn Func) *Reporter {
	return &Reporter{multiStatus: multiStatus, fn: fn, last: State{Total: Unknown}}
}

// OnRawProgress folds an event into the current state and forwards it.
// After Close it is a no-op returning the final state.
func (r *Reporter) OnRawProgress(evt Event) State {
	if r.closed {
		return r.last
	}
	next := r.derive(evt)
	if next.Done < r.last.Done {
		next.Done = r.last.Done
	}
	if next.Indeterminate() && !r.last.Indeterminate() {
		next.Total = r.last.Total
	}
	if next == r.last {
		return next
	}
	r.last = next
	if r.fn != nil {
		r.fn(next)
	}
	return next
}

func (r *Reporter) derive(evt Event) State {
	if r.multiStatus {
		rec, err := ndjson.ParseLast(evt.Body)
		if err == nil && rec != nil {
			done, okDone := rec.Int("done")
			total, okTotal := rec.Int("total")
			if okDone && okTotal {
				return State{Done: done, Total: total}
			}
		}
		// The logical count is what matters for this content type; until a
		// record with counts arrives, keep whatever was reported.
		return r.last
	}
	if evt.Total > 0 {
		return State{Done: evt.Loaded, Total: evt.Total}
	}
	return State{Done: 0, Total: Unknown}
}

// Last returns the most recent state.
func (r *Reporter) Last() State { return r.last }

// Close stops forwarding; later events are ignored.
func (r *Reporter) Close() { r.closed = true }
