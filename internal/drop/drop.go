// Package drop turns drag-and-drop payloads into per-path actions.
package drop

import (
	"net/url"
	"os"
	"strings"

	"fyne.io/fyne/v2"

	"github.com/Akaiko1/drop-inspector/internal/config"
)

// Action is what the window should do with one dropped path.
type Action int

const (
	// ActionLearn streams the listing command output for a directory.
	ActionLearn Action = iota
	// ActionClassifyDir adds a thumbnail row per file inside a directory.
	ActionClassifyDir
	// ActionClassifyFile adds a thumbnail row for the file itself.
	ActionClassifyFile
	// ActionNotice tells the user that learning mode needs a directory.
	ActionNotice
)

func (a Action) String() string {
	switch a {
	case ActionLearn:
		return "learn"
	case ActionClassifyDir:
		return "classify-dir"
	case ActionClassifyFile:
		return "classify-file"
	case ActionNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// Route picks the action for a path given the current mode.
func Route(mode string, isDir bool) Action {
	if mode == config.ModeLearning {
		if isDir {
			return ActionLearn
		}
		return ActionNotice
	}
	if isDir {
		return ActionClassifyDir
	}
	return ActionClassifyFile
}

// Item is a dropped path with its routed action.
type Item struct {
	Path   string
	Action Action
}

// Plan stats each path and routes it. Paths that cannot be stat'ed are
// treated as files.
func Plan(mode string, paths []string) []Item {
	items := make([]Item, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		isDir := err == nil && info.IsDir()
		items = append(items, Item{Path: path, Action: Route(mode, isDir)})
	}
	return items
}

// ParsePaths splits newline separated drop text into paths. file:// URIs are
// decoded; blank lines are skipped.
func ParsePaths(text string) []string {
	var paths []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "file://") {
			u, err := url.Parse(line)
			if err == nil && u.Path != "" {
				line = u.Path
			}
		}
		paths = append(paths, line)
	}
	return paths
}

// LocalPaths returns the paths of the file URIs in a Fyne drop event. Other
// schemes are counted as rejected.
func LocalPaths(uris []fyne.URI) (paths []string, rejected int) {
	for _, uri := range uris {
		if uri == nil || uri.Scheme() != "file" {
			rejected++
			continue
		}
		paths = append(paths, uri.Path())
	}
	return paths, rejected
}
