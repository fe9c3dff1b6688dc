package stream

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Akaiko1/drop-inspector/internal/launcher"
)

// scriptedProcess replays one drain result and one status per tick.
type scriptedProcess struct {
	mu        sync.Mutex
	drains    [][]string
	statuses  []launcher.Status
	stdout    string
	stderr    string
	tick      int
	finalized int
}

func (p *scriptedProcess) DrainAvailableLines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tick < len(p.drains) {
		return p.drains[p.tick]
	}
	return nil
}

func (p *scriptedProcess) PollStatus() launcher.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.tick
	p.tick++
	if i < len(p.statuses) {
		return p.statuses[i]
	}
	return p.statuses[len(p.statuses)-1]
}

func (p *scriptedProcess) Finalize() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finalized++
	if p.finalized > 1 {
		return "", ""
	}
	return p.stdout, p.stderr
}

// liveProcess stays alive until exit is set.
type liveProcess struct {
	exit  atomic.Bool
	polls atomic.Int32
}

func (p *liveProcess) DrainAvailableLines() []string { return []string{"line"} }

func (p *liveProcess) PollStatus() launcher.Status {
	p.polls.Add(1)
	if p.exit.Load() {
		return launcher.ExitedOk
	}
	return launcher.Alive
}

func (p *liveProcess) Finalize() (string, string) { return "", "" }

type fakeLauncher struct {
	proc  Process
	err   error
	panic bool
	argv  atomic.Pointer[[]string]
}

func (l *fakeLauncher) Start(argv []string) (Process, error) {
	l.argv.Store(&argv)
	if l.panic {
		panic("spawn exploded")
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.proc, nil
}

var errNoBinary = &launcher.LaunchError{Argv: []string{"nope"}, Err: errors.New("executable file not found in $PATH")}

// recorder collects published snapshots from any goroutine.
type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (r *recorder) publish(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snapshots...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}
