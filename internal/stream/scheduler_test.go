package stream

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akaiko1/drop-inspector/internal/launcher"
	"github.com/Akaiko1/drop-inspector/internal/logging"
)

func newTestScheduler(proc Process, rec *recorder) *Scheduler {
	return NewScheduler("/data", proc, rec.publish, logging.Discard())
}

func TestTickExitBeforeAnyDrain(t *testing.T) {
	rec := &recorder{}
	proc := &scriptedProcess{statuses: []launcher.Status{launcher.ExitedOk}, stdout: "a\nb\nc\n"}
	s := newTestScheduler(proc, rec)

	assert.False(t, s.Tick())

	run := s.Run()
	assert.Equal(t, Completed, run.State)
	assert.Equal(t, []string{"a", "b", "c"}, run.Lines())

	snaps := rec.all()
	require.Len(t, snaps, 1)
	assert.Equal(t, Completed, snaps[0].State)
	assert.Equal(t, "[/data]\na\nb\nc", snaps[0].Text)
	assert.Equal(t, run.ID, snaps[0].RunID)
}

func TestTickReconcileDoesNotDuplicate(t *testing.T) {
	rec := &recorder{}
	proc := &scriptedProcess{
		drains:   [][]string{{"a"}, nil},
		statuses: []launcher.Status{launcher.Alive, launcher.ExitedOk},
		stdout:   "a\nb\n",
	}
	s := newTestScheduler(proc, rec)

	assert.True(t, s.Tick())
	assert.False(t, s.Tick())

	assert.Equal(t, []string{"a", "b"}, s.Run().Lines())

	snaps := rec.all()
	require.Len(t, snaps, 2)
	assert.Equal(t, Running, snaps[0].State)
	assert.Equal(t, "[/data]\n実行中...\na", snaps[0].Text)
	assert.Equal(t, "[/data]\na\nb", snaps[1].Text)
}

func TestTickStderrFails(t *testing.T) {
	rec := &recorder{}
	proc := &scriptedProcess{
		drains:   [][]string{{"partial"}},
		statuses: []launcher.Status{launcher.ExitedWithStderr},
		stderr:   "Permission denied\n",
	}
	s := newTestScheduler(proc, rec)

	assert.False(t, s.Tick())

	run := s.Run()
	assert.Equal(t, Failed, run.State)
	assert.Equal(t, "Permission denied", run.ErrorText)

	snaps := rec.all()
	require.Len(t, snaps, 1)
	assert.Equal(t, Failed, snaps[0].State)
	assert.Contains(t, snaps[0].Text, "エラー: Permission denied")
	assert.Equal(t, "[/data]\nエラー: Permission denied", snaps[0].Text)
}

func TestTickLinesGrowMonotonically(t *testing.T) {
	rec := &recorder{}
	proc := &scriptedProcess{
		drains: [][]string{
			{"total 3"},
			nil,
			{"a", "total 3"},
			{"b", "c"},
			{"a"},
		},
		statuses: []launcher.Status{launcher.Alive, launcher.Alive, launcher.Alive, launcher.Alive, launcher.ExitedOk},
		stdout:   "d\n",
	}
	s := newTestScheduler(proc, rec)

	for s.Tick() {
	}

	snaps := rec.all()
	require.Len(t, snaps, 5)
	for i := 1; i < len(snaps); i++ {
		prev, cur := snaps[i-1].Lines, snaps[i].Lines
		require.GreaterOrEqual(t, len(cur), len(prev))
		assert.Equal(t, prev, cur[:len(prev)], "snapshot %d must extend snapshot %d", i, i-1)
	}
	assert.Equal(t, []string{"total 3", "a", "b", "c", "d"}, snaps[len(snaps)-1].Lines)
}

func TestTickAfterTerminalIsInert(t *testing.T) {
	for _, status := range []launcher.Status{launcher.ExitedOk, launcher.ExitedWithStderr} {
		t.Run(status.String(), func(t *testing.T) {
			rec := &recorder{}
			proc := &scriptedProcess{
				drains:   [][]string{{"x"}, {"late"}, {"later"}},
				statuses: []launcher.Status{status},
				stdout:   "y\n",
				stderr:   "oops",
			}
			if status == launcher.ExitedOk {
				proc.stderr = ""
			}
			s := newTestScheduler(proc, rec)

			assert.False(t, s.Tick())
			lines := s.Run().Lines()
			errText := s.Run().ErrorText

			assert.False(t, s.Tick())
			assert.False(t, s.Tick())

			assert.Equal(t, lines, s.Run().Lines())
			assert.Equal(t, errText, s.Run().ErrorText)
			assert.Equal(t, 1, rec.count())
			assert.Equal(t, 1, proc.finalized)
		})
	}
}

func TestBeginLaunchFailure(t *testing.T) {
	rec := &recorder{}
	l := &fakeLauncher{err: errNoBinary}

	h := Begin("/data", []string{"nope"}, Options{
		Launcher: l,
		Publish:  rec.publish,
		Interval: time.Millisecond,
		Logger:   logging.Discard(),
	})

	waitClosed(t, h.loopDone)
	waitClosed(t, h.Done())

	snaps := rec.all()
	require.Len(t, snaps, 1)
	assert.Equal(t, Failed, snaps[0].State)
	assert.Equal(t, h.RunID, snaps[0].RunID)
	assert.Contains(t, snaps[0].Text, "[/data]\nエラー: ")
	assert.Contains(t, snaps[0].Text, "executable file not found")

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestBeginLaunchPanic(t *testing.T) {
	rec := &recorder{}
	h := Begin("/data", []string{"ls"}, Options{
		Launcher: &fakeLauncher{panic: true},
		Publish:  rec.publish,
		Logger:   logging.Discard(),
	})

	waitClosed(t, h.loopDone)
	snaps := rec.all()
	require.Len(t, snaps, 1)
	assert.Equal(t, Failed, snaps[0].State)
	assert.Contains(t, snaps[0].ErrorText, "spawn exploded")
}

func TestBeginRunsToCompletion(t *testing.T) {
	rec := &recorder{}
	proc := &scriptedProcess{
		drains:   [][]string{{"a"}, {"b"}},
		statuses: []launcher.Status{launcher.Alive, launcher.Alive, launcher.ExitedOk},
		stdout:   "c",
	}
	l := &fakeLauncher{proc: proc}

	h := Begin("/data", []string{"ls", "-la", "/data"}, Options{
		Launcher: l,
		Publish:  rec.publish,
		Interval: time.Millisecond,
		Logger:   logging.Discard(),
	})

	waitClosed(t, h.Done())
	waitClosed(t, h.loopDone)

	snaps := rec.all()
	require.Len(t, snaps, 3)
	assert.Equal(t, Running, snaps[0].State)
	assert.Equal(t, Running, snaps[1].State)
	assert.Equal(t, Completed, snaps[2].State)
	assert.Equal(t, []string{"a", "b", "c"}, snaps[2].Lines)
	assert.Equal(t, []string{"ls", "-la", "/data"}, *l.argv.Load())

	// cancelling after natural termination is a no-op
	h.Cancel()
	h.Cancel()
	assert.Equal(t, 3, rec.count())
}

func TestCancelStopsPublishing(t *testing.T) {
	rec := &recorder{}
	proc := &liveProcess{}

	h := Begin("/data", []string{"ls"}, Options{
		Launcher: &fakeLauncher{proc: proc},
		Publish:  rec.publish,
		Interval: time.Millisecond,
		Logger:   logging.Discard(),
	})

	require.Eventually(t, func() bool { return rec.count() >= 2 }, 5*time.Second, time.Millisecond)

	h.Cancel()
	h.Cancel()
	waitClosed(t, h.loopDone)
	assert.True(t, h.Cancelled())

	published := rec.count()
	polls := proc.polls.Load()
	proc.exit.Store(true)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, published, rec.count())
	assert.Equal(t, polls, proc.polls.Load())
	for _, s := range rec.all() {
		assert.Equal(t, Running, s.State)
	}
}

func TestCancelBeforeSpawnCompletes(t *testing.T) {
	rec := &recorder{}
	release := make(chan struct{})
	var queued func()

	h := Begin("/data", []string{"ls"}, Options{
		Launcher: &fakeLauncher{proc: &liveProcess{}},
		Publish:  rec.publish,
		Interval: time.Millisecond,
		Logger:   logging.Discard(),
		Dispatch: func(fn func()) {
			queued = fn
			close(release)
		},
	})

	<-release
	h.Cancel()
	queued()

	waitClosed(t, h.loopDone)
	assert.Zero(t, rec.count())
}

func TestBeginWithListingCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ls output format is POSIX only")
	}

	dir := t.TempDir()
	for _, name := range []string{"alpha.txt", "beta.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	rec := &recorder{}
	h := Begin(dir, launcher.ListingCommand(runtime.GOOS, dir), Options{
		Publish:  rec.publish,
		Interval: 5 * time.Millisecond,
		Logger:   logging.Discard(),
	})

	select {
	case <-h.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("listing run did not finish")
	}
	waitClosed(t, h.loopDone)

	snaps := rec.all()
	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	assert.Equal(t, Completed, last.State)
	assert.Contains(t, last.Text, "alpha.txt")
	assert.Contains(t, last.Text, "beta.png")
	assert.NotContains(t, last.Text, "実行中...")
}

func TestBeginWithListingCommandMissingDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ls output format is POSIX only")
	}

	missing := filepath.Join(t.TempDir(), "gone")
	rec := &recorder{}
	h := Begin(missing, launcher.ListingCommand(runtime.GOOS, missing), Options{
		Publish:  rec.publish,
		Interval: 5 * time.Millisecond,
		Logger:   logging.Discard(),
	})

	select {
	case <-h.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("listing run did not finish")
	}

	snaps := rec.all()
	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	assert.Equal(t, Failed, last.State)
	assert.Contains(t, last.Text, "エラー: ")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "failed", Failed.String())
	assert.False(t, Running.Terminal())
	assert.True(t, Completed.Terminal())
	assert.True(t, Failed.Terminal())
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("channel was not closed in time")
	}
}
