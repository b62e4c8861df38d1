package import_service

import (
	"sync/atomic"
)

// RunState control state of an active run
type RunState int32

const (
	RunStateRunning RunState = iota
	RunStatePauseRequested
	RunStateStopRequested
)

func (s RunState) String() string {
	switch s {
	case RunStatePauseRequested:
		return "pause_requested"
	case RunStateStopRequested:
		return "stop_requested"
	default:
		return "running"
	}
}

// RunControl pause/stop flags and the current chunk of one run.
// The scheduler samples it at batch boundaries only.
type RunControl struct {
	RunId string

	state        atomic.Int32
	currentChunk atomic.Int32
	done         chan struct{}
}

// NewRunControl create a running control for a run
func NewRunControl(runID string) *RunControl {
	return &RunControl{RunId: runID, done: make(chan struct{})}
}

// State current control state
func (c *RunControl) State() RunState {
	return RunState(c.state.Load())
}

// RequestPause asks the run to pause at the next batch boundary. A pending stop wins.
func (c *RunControl) RequestPause() bool {
	return c.state.CompareAndSwap(int32(RunStateRunning), int32(RunStatePauseRequested))
}

// RequestStop asks the run to stop at the next batch boundary
func (c *RunControl) RequestStop() {
	c.state.Store(int32(RunStateStopRequested))
}

// CurrentChunk chunk number being processed, 0 before the first chunk
func (c *RunControl) CurrentChunk() int {
	return int(c.currentChunk.Load())
}

func (c *RunControl) setCurrentChunk(n int) {
	c.currentChunk.Store(int32(n))
}

// Done is closed when the run's worker returns
func (c *RunControl) Done() <-chan struct{} {
	return c.done
}

func (c *RunControl) finish() {
	close(c.done)
}
