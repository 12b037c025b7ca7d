package session

import (
	"context"

	"github.com/etnz/foresight"
)

// Task is one analysis request issued by a Controller.
type Task struct {
	seq    uint64
	epoch  uint64
	req    foresight.AnalysisRequest
	cancel context.CancelFunc
	done   chan struct{}

	// written once by the Controller before done is closed.
	err   error
	stale bool
}

// Seq returns the sequence number of the task, unique in its Controller.
func (t *Task) Seq() uint64 { return t.seq }

// Request returns the normalized request sent to the analysis service.
func (t *Task) Request() foresight.AnalysisRequest { return t.req }

// Done is closed once the task resolution has been applied or discarded.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel aborts the request. Its resolution, if any, is still subject to the
// stale check and ends in the Failed state only if the task is still current.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task is resolved or ctx is done. It returns the
// underlying cause of a failed analysis, nil on success.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stale reports whether the resolution was discarded because a newer request
// was issued, or the session ended, in the meantime. Only meaningful after Done.
func (t *Task) Stale() bool {
	select {
	case <-t.done:
		return t.stale
	default:
		return false
	}
}
