// Package main starts Drop Inspector, a desktop window that shows thumbnails
// of dropped images or streams a directory listing of dropped folders.
package main

import (
	"flag"
	"os"

	"github.com/Akaiko1/drop-inspector/internal/config"
	"github.com/Akaiko1/drop-inspector/internal/logging"
	"github.com/Akaiko1/drop-inspector/internal/ui"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logging.New(os.Stderr, "info").Fatal("failed to load config", "path", *configPath, "err", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	logger.Info("Starting Drop Inspector...", "config", *configPath)
	logger.Debug("config", "mode", cfg.DefaultMode, "poll_interval", cfg.PollInterval, "thumbnail_height", cfg.ThumbnailHeight)

	app := ui.NewDropApp(cfg, logger)
	logger.Info("App created, starting UI...")

	app.Run()
}
