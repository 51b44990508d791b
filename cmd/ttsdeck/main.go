package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Makepad-fr/ttsdeck/internal/auth"
	"github.com/Makepad-fr/ttsdeck/internal/cli"
	"github.com/Makepad-fr/ttsdeck/internal/config"
	"github.com/Makepad-fr/ttsdeck/internal/metrics"
	"github.com/Makepad-fr/ttsdeck/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root flags (apply to every subcommand)
	theme := flag.String("theme", "", "color theme: classic, neon or mono")
	noColor := flag.Bool("no-color", false, "disable colors")
	forceColor := flag.Bool("force-color", false, "color even when stdout is not a terminal")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		ui.Fail(err.Error())
		return 2
	}

	if *theme == "" {
		*theme = cfg.App.Theme
	}
	ui.SetColorForcing(*forceColor, *noColor)
	ui.SetTheme(*theme)

	logger, err := cfg.App.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	m := metrics.New(logger)
	if cfg.App.MetricsAddr != "" {
		go func() {
			if err := m.Serve(cfg.App.MetricsAddr); err != nil {
				logger.Error("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	store, err := auth.DefaultStore()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}

	logger.Info("starting ttsdeck",
		zap.String("base_url", cfg.API.BaseURL),
		zap.Strings("args", flag.Args()))

	// Hand the remaining args to the CLI runner.
	code := cli.Run(flag.Args(), cli.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Auth:    store,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
