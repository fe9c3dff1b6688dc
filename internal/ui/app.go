package ui

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/log"

	"github.com/Akaiko1/drop-inspector/internal/clipboard"
	"github.com/Akaiko1/drop-inspector/internal/config"
	"github.com/Akaiko1/drop-inspector/internal/drop"
	"github.com/Akaiko1/drop-inspector/internal/launcher"
	"github.com/Akaiko1/drop-inspector/internal/renderer"
	"github.com/Akaiko1/drop-inspector/internal/scanner"
	"github.com/Akaiko1/drop-inspector/internal/stream"
	"github.com/Akaiko1/drop-inspector/internal/thumbnail"
	"github.com/Akaiko1/drop-inspector/internal/transcript"
)

const (
	// UI Constants
	appTitle = "Drop Inspector"

	// Mode labels
	labelClassification = "分類モード"
	labelLearning       = "学習モード"

	// Row heights
	learningRowHeight = 200
	noticeRowHeight   = 50

	// File operations
	defaultFileExt = ".txt"
	timeFormat     = "2006-01-02_15-04-05"

	// Messages
	msgNeedDirectory = "学習モードではディレクトリを指定してください"
	msgNoData        = "Drop some files or folders first."
	msgSaveSuccess   = "Session saved successfully!"
	msgCopySuccess   = "Session copied to clipboard!"
	msgReady         = "Drop files or folders onto the window"
	msgInvalidDrop   = "only local files and folders can be dropped"
)

// row is one visible item and what it exports as.
type row struct {
	entry  renderer.Entry
	object fyne.CanvasObject
}

// DropApp is the main window: a mode switch and a growing list of rows fed by
// drag-and-drop.
type DropApp struct {
	// Core components
	app    fyne.App
	window fyne.Window
	config *config.Config
	logger *log.Logger

	// Services
	lister    scanner.DirectoryLister
	renderer  renderer.SessionRenderer
	clipboard clipboard.ClipboardManager
	launcher  stream.Launcher
	runs      *stream.Registry
	dispatch  stream.Dispatcher
	goos      string

	// UI components
	modeGroup   *widget.RadioGroup
	content     *fyne.Container
	statusLabel *widget.Label

	// State - UI thread only, no synchronization needed
	mode       string
	rows       []*row
	generation int
}

// NewDropApp creates a DropApp backed by a new Fyne application.
func NewDropApp(cfg *config.Config, logger *log.Logger) *DropApp {
	fyneApp := app.New()
	fyneApp.SetIcon(theme.FolderOpenIcon())
	return newDropApp(fyneApp, cfg, logger)
}

func newDropApp(fyneApp fyne.App, cfg *config.Config, logger *log.Logger) *DropApp {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}

	window := fyneApp.NewWindow(appTitle)
	window.Resize(fyne.NewSize(cfg.WindowWidth, cfg.WindowHeight))

	a := &DropApp{
		app:         fyneApp,
		window:      window,
		config:      cfg,
		logger:      logger,
		lister:      scanner.NewFileLister(cfg, logger),
		renderer:    &renderer.StandardSessionRenderer{},
		clipboard:   clipboard.NewManager(fyneApp.Clipboard()),
		launcher:    stream.ExecLauncher{},
		runs:        stream.NewRegistry(),
		dispatch:    fyne.Do,
		goos:        runtime.GOOS,
		content:     container.NewVBox(),
		statusLabel: widget.NewLabel(msgReady),
		mode:        cfg.DefaultMode,
	}
	a.window.SetContent(a.createMainContent())
	return a
}

// Run starts the application.
func (a *DropApp) Run() {
	a.enableDragDrop()
	a.window.SetOnClosed(func() {
		if n := a.runs.CancelAll(); n > 0 {
			a.logger.Debug("stopped observing runs on close", "runs", n)
		}
	})
	a.window.ShowAndRun()
}

// createMainContent creates the main UI content.
func (a *DropApp) createMainContent() fyne.CanvasObject {
	a.modeGroup = widget.NewRadioGroup([]string{labelClassification, labelLearning}, a.handleModeSwitch)
	a.modeGroup.Horizontal = true
	a.modeGroup.Required = true
	if a.mode == config.ModeLearning {
		a.modeGroup.SetSelected(labelLearning)
	} else {
		a.modeGroup.SetSelected(labelClassification)
	}

	clearBtn := widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), a.handleClear)
	saveBtn := widget.NewButtonWithIcon("Save to File", theme.DocumentSaveIcon(), a.handleSaveToFile)
	copyBtn := widget.NewButtonWithIcon("Copy to Clipboard", theme.ContentCopyIcon(), a.handleCopyToClipboard)

	buttonContainer := container.NewGridWithColumns(3, clearBtn, saveBtn, copyBtn)

	header := container.NewVBox(a.modeGroup, buttonContainer, a.statusLabel)
	return container.NewBorder(header, nil, nil, nil, container.NewVScroll(a.content))
}

// handleModeSwitch maps the radio label to a drop mode.
func (a *DropApp) handleModeSwitch(selected string) {
	if selected == labelLearning {
		a.mode = config.ModeLearning
	} else {
		a.mode = config.ModeClassification
	}
	a.logger.Debug("mode switched", "mode", a.mode)
}

// handleDrop routes every dropped path according to the current mode.
func (a *DropApp) handleDrop(paths []string) {
	for _, item := range drop.Plan(a.mode, paths) {
		a.logger.Debug("dropped", "path", item.Path, "action", item.Action)
		switch item.Action {
		case drop.ActionLearn:
			a.addLearningItem(item.Path)
		case drop.ActionClassifyDir:
			a.classifyDirectoryAsync(item.Path)
		case drop.ActionClassifyFile:
			a.addClassificationItem(item.Path)
		case drop.ActionNotice:
			a.addNoticeItem(msgNeedDirectory)
		}
	}
}

// addClassificationItem appends a thumbnail row scaled to the configured
// height, next to the file path.
func (a *DropApp) addClassificationItem(path string) {
	height := a.config.ThumbnailHeight
	size := thumbnail.Size(0, 0, height)

	var img *canvas.Image
	if thumbnail.IsImage(path) {
		var err error
		size, err = thumbnail.SizeFor(path, height)
		if err != nil {
			a.logger.Warn("could not read image size", "path", path, "err", err)
		}
		img = canvas.NewImageFromFile(path)
	} else {
		img = canvas.NewImageFromResource(theme.FileIcon())
	}
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(size)

	pathLabel := widget.NewLabel(path)
	pathLabel.Wrapping = fyne.TextWrapBreak

	item := container.NewBorder(nil, nil, img, nil, pathLabel)
	a.appendRow(&row{
		entry:  renderer.Entry{Kind: renderer.KindClassification, Path: path},
		object: container.NewPadded(item),
	})
}

// classifyDirectoryAsync lists the files inside dir off the UI thread and
// adds a classification row for each one.
func (a *DropApp) classifyDirectoryAsync(dir string) {
	generation := a.generation
	a.statusLabel.SetText("Listing: " + dir)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		files, err := a.lister.ListFiles(ctx, dir)

		a.dispatch(func() {
			if generation != a.generation {
				return
			}
			if err != nil {
				a.logger.Error("listing failed", "dir", dir, "err", err)
				a.showError("Listing Error", err)
				a.statusLabel.SetText("Listing failed")
				return
			}
			for _, f := range files {
				a.addClassificationItem(f.Path)
			}
			a.statusLabel.SetText(fmt.Sprintf("Added %d files from: %s", len(files), dir))
		})
	}()
}

// addLearningItem appends a transcript row and starts streaming the listing
// command output into it.
func (a *DropApp) addLearningItem(dir string) {
	resultLabel := widget.NewLabel(transcript.PendingText(dir))
	resultLabel.Wrapping = fyne.TextWrapWord
	resultLabel.Alignment = fyne.TextAlignLeading

	scroll := container.NewVScroll(resultLabel)
	scroll.SetMinSize(fyne.NewSize(0, learningRowHeight))

	r := &row{
		entry:  renderer.Entry{Kind: renderer.KindTranscript, Path: dir, Text: resultLabel.Text},
		object: scroll,
	}
	a.appendRow(r)

	h := stream.Begin(dir, launcher.ListingCommand(a.goos, dir), stream.Options{
		Launcher: a.launcher,
		Dispatch: a.dispatch,
		Interval: a.config.PollInterval,
		Logger:   a.logger,
		Publish: func(s stream.Snapshot) {
			resultLabel.SetText(s.Text)
			r.entry.Text = s.Text
			if s.State.Terminal() {
				a.runs.Remove(s.RunID)
				scroll.ScrollToTop()
			} else {
				scroll.ScrollToBottom()
			}
		},
	})
	a.runs.Add(h)
}

// addNoticeItem appends a single line message row.
func (a *DropApp) addNoticeItem(message string) {
	label := widget.NewLabel(message)
	label.Alignment = fyne.TextAlignCenter
	a.appendRow(&row{
		entry:  renderer.Entry{Kind: renderer.KindNotice, Text: message},
		object: container.NewGridWrap(fyne.NewSize(a.config.WindowWidth, noticeRowHeight), label),
	})
}

func (a *DropApp) appendRow(r *row) {
	a.rows = append(a.rows, r)
	a.content.Add(r.object)
}

// handleClear removes every row and stops observing running commands.
func (a *DropApp) handleClear() {
	cancelled := a.runs.CancelAll()
	a.generation++
	a.rows = nil
	a.content.RemoveAll()
	a.statusLabel.SetText(msgReady)
	a.logger.Debug("cleared", "cancelled_runs", cancelled)
}

// sessionText renders every visible row.
func (a *DropApp) sessionText() string {
	entries := make([]renderer.Entry, 0, len(a.rows))
	for _, r := range a.rows {
		entries = append(entries, r.entry)
	}
	return a.renderer.RenderSession(appTitle, entries)
}

// handleSaveToFile handles saving the session to a file.
func (a *DropApp) handleSaveToFile() {
	text := a.sessionText()
	if text == "" {
		dialog.ShowInformation("No Data", msgNoData, a.window)
		return
	}

	timestamp := time.Now().Format(timeFormat)
	defaultName := fmt.Sprintf("drop_session_%s%s", timestamp, defaultFileExt)

	saveDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			a.showError("Save Error", err)
			return
		}
		if writer == nil {
			return // User cancelled
		}
		defer writer.Close()

		if _, werr := writer.Write([]byte(text)); werr != nil {
			a.showError("Save Error", werr)
			return
		}

		dialog.ShowInformation("Success", msgSaveSuccess, a.window)
	}, a.window)

	saveDialog.SetFileName(defaultName)
	saveDialog.Show()
}

// handleCopyToClipboard handles copying the session to the clipboard.
func (a *DropApp) handleCopyToClipboard() {
	text := a.sessionText()
	if text == "" {
		dialog.ShowInformation("No Data", msgNoData, a.window)
		return
	}

	if err := a.clipboard.SetContent(text); err != nil {
		a.showError("Clipboard Error", err)
		return
	}

	dialog.ShowInformation("Success", msgCopySuccess, a.window)
}

// showError shows an error dialog.
func (a *DropApp) showError(title string, err error) {
	dialog.ShowError(fmt.Errorf("%s: %w", title, err), a.window)
}

// enableDragDrop routes dropped URIs to handleDrop.
func (a *DropApp) enableDragDrop() {
	a.window.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		paths, rejected := drop.LocalPaths(uris)
		if rejected > 0 {
			a.logger.Warn("ignored non-file drop", "count", rejected)
			dialog.ShowError(errors.New(msgInvalidDrop), a.window)
		}
		a.handleDrop(paths)
	})

	// Pasting newline separated paths behaves like dropping them.
	a.window.Canvas().AddShortcut(&fyne.ShortcutPaste{}, func(fyne.Shortcut) {
		a.handlePaste(a.app.Clipboard().Content())
	})
}

// handlePaste treats pasted text as a list of dropped paths.
func (a *DropApp) handlePaste(text string) {
	paths := drop.ParsePaths(text)
	if len(paths) == 0 {
		return
	}
	a.handleDrop(paths)
}
