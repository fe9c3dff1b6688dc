// Package stream ties a launched process, its transcript and a repeating
// poll tick together into a Run whose snapshots are published to the UI.
package stream

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Akaiko1/drop-inspector/internal/launcher"
	"github.com/Akaiko1/drop-inspector/internal/transcript"
)

// State is the lifecycle position of a Run.
type State int

const (
	Running State = iota
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Process is the view of a child process the poll tick works against.
type Process interface {
	PollStatus() launcher.Status
	DrainAvailableLines() []string
	Finalize() (remainingStdout, stderr string)
}

// Launcher spawns the listing command. Start may block.
type Launcher interface {
	Start(argv []string) (Process, error)
}

// ExecLauncher starts real child processes.
type ExecLauncher struct{}

// Start implements Launcher.
func (ExecLauncher) Start(argv []string) (Process, error) {
	p, err := launcher.Start(argv)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Run is one invocation of the listing command against one target.
// It is only ever touched from dispatched functions.
type Run struct {
	ID        uuid.UUID
	Target    string
	State     State
	ErrorText string

	transcript *transcript.Accumulator
}

func newRun(target string) *Run {
	return &Run{
		ID:         uuid.New(),
		Target:     target,
		State:      Running,
		transcript: transcript.New(),
	}
}

// Lines returns a copy of the captured output lines.
func (r *Run) Lines() []string {
	return r.transcript.Lines()
}

// Snapshot is the rendered state of a Run at one tick.
type Snapshot struct {
	RunID     uuid.UUID
	Target    string
	State     State
	Text      string
	Lines     []string
	ErrorText string
}

func (r *Run) snapshot() Snapshot {
	var text string
	switch r.State {
	case Failed:
		text = transcript.ErrorText(r.Target, r.ErrorText)
	default:
		text = r.transcript.SnapshotText(r.Target, r.State == Running)
	}
	return Snapshot{
		RunID:     r.ID,
		Target:    r.Target,
		State:     r.State,
		Text:      text,
		Lines:     r.transcript.Lines(),
		ErrorText: r.ErrorText,
	}
}

func (r *Run) fail(message string) {
	r.State = Failed
	r.ErrorText = message
}
