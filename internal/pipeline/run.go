package pipeline

import (
	"fmt"
	"slices"

	"github.com/fmueller/voxchunk/internal/chunk"
	"github.com/fmueller/voxchunk/internal/recognize"
	"github.com/google/uuid"
)

type State int

const (
	Idle State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Completed || s == Aborted
}

// Run is the record of one pass over an input. Outcomes are appended in
// window order while the run is Running and frozen once it ends.
type Run struct {
	ID      string
	Backend string
	Windows []chunk.Window

	state    State
	outcomes []recognize.Outcome
}

func newRun(backend string) *Run {
	return &Run{ID: uuid.NewString(), Backend: backend, state: Idle}
}

func (r *Run) start(windows []chunk.Window) {
	if r.state != Idle {
		panic(fmt.Sprintf("pipeline: cannot start run in state %s", r.state))
	}
	r.Windows = windows
	r.state = Running
}

func (r *Run) append(o recognize.Outcome) {
	if r.state != Running {
		panic(fmt.Sprintf("pipeline: append to run in state %s", r.state))
	}
	r.outcomes = append(r.outcomes, o)
}

func (r *Run) finish(state State) {
	if r.state != Running || !state.Terminal() {
		panic(fmt.Sprintf("pipeline: invalid transition %s -> %s", r.state, state))
	}
	r.state = state
}

func (r *Run) State() State {
	return r.state
}

// Outcomes returns a copy of the recorded outcomes in window order.
func (r *Run) Outcomes() []recognize.Outcome {
	return slices.Clone(r.outcomes)
}

func (r *Run) Total() int {
	return len(r.Windows)
}

func (r *Run) Attempted() int {
	return len(r.outcomes)
}

func (r *Run) Aborted() bool {
	return r.state == Aborted
}

// Failure returns the backend error that aborted the run.
func (r *Run) Failure() (recognize.Outcome, bool) {
	if r.state != Aborted || len(r.outcomes) == 0 {
		return recognize.Outcome{}, false
	}
	return r.outcomes[len(r.outcomes)-1], true
}

// Warnings returns the unintelligible outcomes recorded so far.
func (r *Run) Warnings() []recognize.Outcome {
	var out []recognize.Outcome
	for _, o := range r.outcomes {
		if o.Kind == recognize.Unintelligible {
			out = append(out, o)
		}
	}
	return out
}

// Progress is attempted/total, except that it only reaches 1 once the run
// has completed.
func (r *Run) Progress() float64 {
	total := r.Total()
	if total == 0 {
		return 0
	}
	attempted := r.Attempted()
	if attempted >= total && r.state != Completed {
		attempted = total - 1
	}
	return float64(attempted) / float64(total)
}
