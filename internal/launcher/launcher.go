// Package launcher starts the external listing command and exposes its output
// through non-blocking polling calls.
package launcher

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// waitDelay bounds how long Finalize can be held up by a grandchild that
// inherited the output pipes.
const waitDelay = time.Second

// Status is the non-blocking view of a child process.
type Status int

const (
	Alive Status = iota
	ExitedOk
	ExitedWithStderr
)

func (s Status) String() string {
	switch s {
	case Alive:
		return "alive"
	case ExitedOk:
		return "exited"
	case ExitedWithStderr:
		return "exited-with-stderr"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// LaunchError reports that the command could not be started at all.
type LaunchError struct {
	Argv []string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Process is a running (or exited) child whose stdout and stderr are
// captured in memory.
type Process struct {
	cmd    *exec.Cmd
	stdout *lineBuffer
	stderr *lockedBuffer

	done     chan struct{}
	waitErr  error
	exitCode int

	finalizeOnce sync.Once
}

// Start spawns argv[0] with the remaining tokens as arguments. Spawn failures
// are returned as *LaunchError; they never show up as a later poll result.
func Start(argv []string) (*Process, error) {
	if len(argv) == 0 {
		return nil, &LaunchError{Argv: argv, Err: errors.New("empty command")}
	}

	p := &Process{
		stdout:   &lineBuffer{},
		stderr:   &lockedBuffer{},
		done:     make(chan struct{}),
		exitCode: -1,
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr
	cmd.WaitDelay = waitDelay
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Argv: argv, Err: err}
	}
	p.cmd = cmd

	go func() {
		// Wait returns only after the copy goroutines have flushed both streams.
		err := cmd.Wait()
		if cmd.ProcessState != nil {
			p.exitCode = cmd.ProcessState.ExitCode()
		}
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.waitErr = err
		}
		close(p.done)
	}()

	return p, nil
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// PollStatus reports whether the child is still running. It never blocks.
func (p *Process) PollStatus() Status {
	select {
	case <-p.done:
		if p.stderr.Len() > 0 {
			return ExitedWithStderr
		}
		return ExitedOk
	default:
		return Alive
	}
}

// DrainAvailableLines returns the complete lines written since the last
// drain. Bytes after the final newline stay buffered.
func (p *Process) DrainAvailableLines() []string {
	return p.stdout.drainLines()
}

// Finalize waits for the child to be reaped and returns the stdout that was
// never drained together with the whole of stderr. Only the first call
// returns data.
func (p *Process) Finalize() (remainingStdout, stderr string) {
	p.finalizeOnce.Do(func() {
		<-p.done
		remainingStdout = p.stdout.rest()
		stderr = p.stderr.String()
	})
	return remainingStdout, stderr
}

// ExitCode is the child's exit status, or -1 while it is still running.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
		return p.exitCode
	default:
		return -1
	}
}

// Err returns a wait failure that is not a plain non-zero exit, such as the
// output pipes being closed after waitDelay.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// lineBuffer collects stdout and hands out newline-terminated lines.
type lineBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *lineBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	b.buf = append(b.buf, data...)
	b.mu.Unlock()
	return len(data), nil
}

func (b *lineBuffer) drainLines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	end := bytes.LastIndexByte(b.buf, '\n')
	if end < 0 {
		return nil
	}
	complete := string(b.buf[:end])
	b.buf = append([]byte(nil), b.buf[end+1:]...)

	lines := strings.Split(complete, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func (b *lineBuffer) rest() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := string(b.buf)
	b.buf = nil
	return s
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(data)
}

func (b *lockedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
