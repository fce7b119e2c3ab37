package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/chzyer/readline"
	"github.com/jo-hoe/gosolve/internal/cli"
	"github.com/jo-hoe/gosolve/internal/client"
	"github.com/jo-hoe/gosolve/internal/core"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	baseURL := flag.String("base", envOr("GOSOLVE_URL", "http://127.0.0.1:8080"), "server base url")
	timeout := flag.Duration("timeout", 90*time.Second, "request timeout")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	core.InitLogger(*logLevel)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gosolve> ",
		HistoryFile:     historyPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start prompt: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	session := cli.NewSession(client.New(*baseURL, *timeout), rl.Stdout())
	fmt.Fprintf(rl.Stdout(), "connected to %s, type help for commands\n", *baseURL)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			slog.Error("cli: read input failed", "error", err)
			return
		}

		// Ctrl+C cancels a running request instead of the whole session
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = session.Handle(ctx, line)
		stop()
		if errors.Is(err, cli.ErrQuit) {
			return
		}
		if err != nil {
			fmt.Fprintf(rl.Stdout(), "error: %v\n", err)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gosolve_history")
}
