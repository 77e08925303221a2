// Package commands implements the purse-render subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"purse/internal/log"
)

// readInput reads path, or standard input when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or standard output when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// newLogger logs to standard error so that "-" outputs stay clean.
func newLogger(level string) *log.Logger {
	return log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: log.ParseLevel(level)}),
	})
}
