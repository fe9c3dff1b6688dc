package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Akaiko1/drop-inspector/internal/config"
)

// Entry is one regular file found directly inside a dropped directory.
type Entry struct {
	Path string
	Name string
}

// DirectoryLister defines the interface for expanding a dropped directory.
type DirectoryLister interface {
	ListFiles(ctx context.Context, dir string) ([]Entry, error)
}

// FileLister implements DirectoryLister one level deep.
type FileLister struct {
	config *config.Config
	logger *log.Logger
}

// NewFileLister creates a new FileLister with the given configuration.
func NewFileLister(cfg *config.Config, logger *log.Logger) *FileLister {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileLister{
		config: cfg,
		logger: logger,
	}
}

// ListFiles returns the regular files directly inside dir. Subdirectories
// are not entered.
func (s *FileLister) ListFiles(ctx context.Context, dir string) ([]Entry, error) {
	if dir == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	if !s.config.ShowHidden {
		entries = filterHiddenEntries(entries)
	}
	if s.config.SortEntries {
		sortEntries(entries)
	}

	files := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return files, ctx.Err()
		default:
		}

		childPath := filepath.Join(dir, entry.Name())
		if isProblematicPath(childPath) {
			continue
		}
		if !isRegularFile(childPath, entry) {
			continue
		}

		if s.config.MaxEntries > 0 && len(files) >= s.config.MaxEntries {
			s.logger.Warn("directory has too many files, truncating", "dir", dir, "limit", s.config.MaxEntries)
			break
		}
		files = append(files, Entry{Path: childPath, Name: entry.Name()})
	}

	return files, nil
}

// isRegularFile follows symlinks so a link to a file counts as a file.
func isRegularFile(path string, entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// isProblematicPath checks if a path might cause issues and should be skipped.
func isProblematicPath(path string) bool {
	// Windows system paths that often cause permission issues
	problematicPaths := []string{
		"System Volume Information",
		"$Recycle.Bin",
		"$WINDOWS.~BT",
	}

	for _, problematic := range problematicPaths {
		if strings.Contains(path, problematic) {
			return true
		}
	}
	return false
}

func filterHiddenEntries(entries []os.DirEntry) []os.DirEntry {
	filtered := make([]os.DirEntry, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), ".") {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// sortEntries sorts directory entries alphabetically, case-insensitive first.
func sortEntries(entries []os.DirEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Name()), strings.ToLower(entries[j].Name())
		if a != b {
			return a < b
		}
		return entries[i].Name() < entries[j].Name()
	})
}
