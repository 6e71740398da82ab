package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"hotkeyclicker/internal/settings"
)

func newSlogLogger(level slog.Level, out io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func run(stderr io.Writer) int {
	logger := newSlogLogger(slog.LevelInfo, stderr)

	store, err := settings.NewStore(settings.DefaultPath(), logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	store.Load()

	app, err := newClickerApp(store, openPlatformRuntime, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := runUI(app); err != nil {
		app.shutdown()
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Stderr))
}
