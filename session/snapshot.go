package session

import (
	"slices"

	"github.com/etnz/foresight"
)

// State is the state of a session.
type State int

const (
	LoggedOut State = iota // nobody is signed in
	Idle                   // signed in, no analysis requested yet
	Loading                // an analysis is in flight
	Ready                  // the last analysis succeeded
	Failed                 // the last analysis failed
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged-out"
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureMessage is shown for every analysis failure, whatever the cause.
const FailureMessage = "Failed to load data. Please check if backend is running."

// Snapshot is the complete view-model of a session at one point in time.
//
// A Snapshot is a value: the Controller replaces it on every transition and
// never changes one that has been handed out.
type Snapshot struct {
	Identity  foresight.Identity
	SessionID string // random id of the login, for logs
	State     State
	Loading   bool
	Error     string // user facing, empty when there is none

	Metrics foresight.DerivedMetrics
	Series  []foresight.SeriesPoint

	// Result is the last applied analysis, it carries the optional metrics.
	Result foresight.AnalysisResult
	// Request and Seq identify the last issued analysis.
	Request foresight.AnalysisRequest
	Seq     uint64
}

// LoggedIn reports whether the snapshot has an identity.
func (s Snapshot) LoggedIn() bool { return !s.Identity.IsZero() }

// HasData reports whether an analysis has ever been applied in this session.
func (s Snapshot) HasData() bool { return s.Metrics != foresight.NoMetrics() }

// clone returns s with its own copy of the series.
func (s Snapshot) clone() Snapshot {
	s.Series = slices.Clone(s.Series)
	s.Result.Series = slices.Clone(s.Result.Series)
	return s
}

func loggedOut() Snapshot {
	return Snapshot{State: LoggedOut, Metrics: foresight.NoMetrics()}
}
