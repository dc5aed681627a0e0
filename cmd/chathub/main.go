// Package main is the entry point for the chat server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/app"
	"github.com/aiautotool/chathub/internal/logging"
	"github.com/aiautotool/chathub/internal/providers"
	"github.com/aiautotool/chathub/internal/providers/anthropic"
	"github.com/aiautotool/chathub/internal/providers/deepseek"
	"github.com/aiautotool/chathub/internal/providers/gemini"
	"github.com/aiautotool/chathub/internal/providers/openai"
	"github.com/aiautotool/chathub/internal/providers/xai"
	"github.com/aiautotool/chathub/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	slog.Info("starting chathub",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	factory := providers.NewProviderFactory()
	factory.Add(deepseek.Registration)
	factory.Add(anthropic.Registration)
	factory.Add(gemini.Registration)
	factory.Add(openai.Registration)
	factory.Add(xai.Registration)

	application, err := app.New(app.Config{
		AppConfig: cfg,
		Factory:   factory,
	})
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			slog.Error("application shutdown error", "error", err)
		}
	}()

	if err := application.Start(":" + cfg.Server.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
