// Package transcript accumulates the de-duplicated output lines of one run.
package transcript

import (
	"strings"
)

const (
	runningIndicator = "実行中..."
	errorPrefix      = "エラー: "
)

// Accumulator owns the ordered lines captured for one run.
//
// Lines are keyed on their trimmed text, so a row that repeats verbatim is
// only kept the first time it is seen.
type Accumulator struct {
	lines []string
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// AppendIfNew trims each candidate and appends the ones not captured yet.
func (a *Accumulator) AppendIfNew(candidates ...string) {
	for _, candidate := range candidates {
		line := strings.TrimSpace(candidate)
		if line == "" || a.contains(line) {
			continue
		}
		a.lines = append(a.lines, line)
	}
}

// ReconcileFinal merges the output that was still buffered when the process
// exited.
func (a *Accumulator) ReconcileFinal(remainingStdout string) {
	a.AppendIfNew(strings.Split(remainingStdout, "\n")...)
}

// Lines returns a copy of the captured lines in discovery order.
func (a *Accumulator) Lines() []string {
	return append([]string(nil), a.lines...)
}

// Len returns the number of captured lines.
func (a *Accumulator) Len() int {
	return len(a.lines)
}

// SnapshotText renders the transcript under a "[target]" header, with the
// running indicator while the process is alive.
func (a *Accumulator) SnapshotText(target string, running bool) string {
	var b strings.Builder
	b.WriteString(Header(target))
	b.WriteString("\n")
	if running {
		b.WriteString(runningIndicator)
		b.WriteString("\n")
	}
	b.WriteString(strings.Join(a.lines, "\n"))
	return b.String()
}

func (a *Accumulator) contains(line string) bool {
	for _, existing := range a.lines {
		if existing == line {
			return true
		}
	}
	return false
}

// Header is the first line of every snapshot for target.
func Header(target string) string {
	return "[" + target + "]"
}

// PendingText is shown before the process has been spawned.
func PendingText(target string) string {
	return Header(target) + "\n" + runningIndicator
}

// ErrorText renders a failed run.
func ErrorText(target, message string) string {
	return Header(target) + "\n" + errorPrefix + message
}
