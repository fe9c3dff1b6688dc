package renderer

import (
	"fmt"
	"strings"
)

const (
	// Icons
	folderIcon = "📁"
	fileIcon   = "📄"
	noticeIcon = "⚠"

	separatorWidth = 50
)

// Kind tells what a visible row holds.
type Kind int

const (
	KindClassification Kind = iota
	KindTranscript
	KindNotice
)

// Entry is one visible row of the window.
type Entry struct {
	Kind Kind
	Path string
	// Text is the latest snapshot for transcripts and the message for notices.
	Text string
}

// SessionRenderer defines the interface for exporting the visible rows.
type SessionRenderer interface {
	RenderSession(title string, entries []Entry) string
}

// StandardSessionRenderer renders rows as plain text, one block per row.
type StandardSessionRenderer struct{}

// RenderSession renders all rows under a title header.
func (r *StandardSessionRenderer) RenderSession(title string, entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s\n", title))
	builder.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	for i, entry := range entries {
		r.renderEntry(&builder, entry)
		if i < len(entries)-1 && (entry.Kind == KindTranscript || entries[i+1].Kind == KindTranscript) {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

func (r *StandardSessionRenderer) renderEntry(builder *strings.Builder, entry Entry) {
	switch entry.Kind {
	case KindClassification:
		builder.WriteString(fmt.Sprintf("%s %s\n", fileIcon, entry.Path))
	case KindTranscript:
		builder.WriteString(fmt.Sprintf("%s %s\n", folderIcon, entry.Path))
		builder.WriteString(strings.Repeat("-", separatorWidth) + "\n")
		builder.WriteString(strings.TrimRight(entry.Text, "\n") + "\n")
	case KindNotice:
		builder.WriteString(fmt.Sprintf("%s %s\n", noticeIcon, entry.Text))
	}
}
