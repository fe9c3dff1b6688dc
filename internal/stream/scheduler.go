package stream

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Akaiko1/drop-inspector/internal/launcher"
)

// DefaultInterval is the poll period used when Options.Interval is zero.
const DefaultInterval = 100 * time.Millisecond

// Dispatcher runs fn on the thread that owns the UI. fyne.Do in the app.
type Dispatcher func(fn func())

// Immediate runs fn on the calling goroutine.
func Immediate(fn func()) {
	fn()
}

// Publisher receives every snapshot, in tick order.
type Publisher func(Snapshot)

// Options configures Begin.
type Options struct {
	Launcher Launcher
	Dispatch Dispatcher
	Publish  Publisher
	Interval time.Duration
	Logger   *log.Logger
}

// Scheduler advances one Run by draining its process on every tick.
type Scheduler struct {
	run     *Run
	proc    Process
	publish Publisher
	logger  *log.Logger

	cancelled *atomic.Bool
}

// NewScheduler returns a scheduler for a process that has already started.
func NewScheduler(target string, proc Process, publish Publisher, logger *log.Logger) *Scheduler {
	return newScheduler(newRun(target), proc, publish, logger)
}

func newScheduler(run *Run, proc Process, publish Publisher, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		run:       run,
		proc:      proc,
		publish:   publish,
		logger:    logger,
		cancelled: &atomic.Bool{},
	}
}

// Run returns the run driven by this scheduler.
func (s *Scheduler) Run() *Run {
	return s.run
}

// Tick drains available output, checks the process and publishes one
// snapshot. It returns false once no further tick should be scheduled.
func (s *Scheduler) Tick() bool {
	if s.cancelled.Load() || s.run.State.Terminal() {
		return false
	}

	s.run.transcript.AppendIfNew(s.proc.DrainAvailableLines()...)

	if s.proc.PollStatus() == launcher.Alive {
		s.publish(s.run.snapshot())
		return true
	}

	remaining, stderr := s.proc.Finalize()
	if stderr != "" {
		s.run.fail(strings.TrimRight(stderr, "\r\n"))
		s.logger.Warn("run failed", "run", s.run.ID, "target", s.run.Target, "exit", exitCode(s.proc), "stderr", s.run.ErrorText)
	} else {
		s.run.transcript.ReconcileFinal(remaining)
		s.run.State = Completed
		s.logger.Info("run completed", "run", s.run.ID, "target", s.run.Target, "exit", exitCode(s.proc), "lines", s.run.transcript.Len())
	}
	s.publish(s.run.snapshot())
	return false
}

func pid(proc Process) int {
	if p, ok := proc.(interface{ Pid() int }); ok {
		return p.Pid()
	}
	return 0
}

func exitCode(proc Process) int {
	if p, ok := proc.(interface{ ExitCode() int }); ok {
		return p.ExitCode()
	}
	return -1
}

// Handle is the cancellable reference to a Run returned by Begin.
type Handle struct {
	RunID  uuid.UUID
	Target string

	cancelled atomic.Bool
	stopOnce  sync.Once
	stop      chan struct{}
	loopDone  chan struct{}
}

// Cancel stops observing the run: no tick fires and nothing is published
// afterwards. The child process itself is left alone. Calling Cancel more
// than once, or after the run ended, does nothing.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
	h.finish()
}

// Cancelled reports whether Cancel was called.
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

// Done is closed when the run stops ticking, either because it reached a
// terminal state or because it was cancelled.
func (h *Handle) Done() <-chan struct{} {
	return h.stop
}

func (h *Handle) finish() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Begin spawns argv on a worker goroutine and, once the process is up, ticks
// it every Interval on the dispatcher until it exits or the handle is
// cancelled. A spawn failure publishes a single Failed snapshot.
func Begin(target string, argv []string, opts Options) *Handle {
	if opts.Launcher == nil {
		opts.Launcher = ExecLauncher{}
	}
	if opts.Dispatch == nil {
		opts.Dispatch = Immediate
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Publish == nil {
		opts.Publish = func(Snapshot) {}
	}

	run := newRun(target)
	h := &Handle{
		RunID:    run.ID,
		Target:   target,
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}

	go func() {
		var (
			proc Process
			err  error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic during launch: %v", r)
				}
			}()
			proc, err = opts.Launcher.Start(argv)
		}()

		opts.Dispatch(func() {
			if h.cancelled.Load() {
				close(h.loopDone)
				return
			}

			if err != nil {
				run.fail(err.Error())
				opts.Logger.Error("launch failed", "run", run.ID, "target", target, "err", err)
				opts.Publish(run.snapshot())
				h.finish()
				close(h.loopDone)
				return
			}

			sched := newScheduler(run, proc, opts.Publish, opts.Logger)
			sched.cancelled = &h.cancelled
			opts.Logger.Debug("run started", "run", run.ID, "target", target, "argv", argv, "pid", pid(proc))
			go h.loop(sched, opts.Interval, opts.Dispatch)
		})
	}()

	return h
}

func (h *Handle) loop(sched *Scheduler, interval time.Duration, dispatch Dispatcher) {
	defer close(h.loopDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			dispatch(func() {
				if !sched.Tick() {
					h.finish()
				}
			})
		}
	}
}
