package testwindows

import (
	"fmt"
	"io"
	"os"

	"github.com/mszinte/locEMexp/pkg/logger"
)

// SetupLogging sends logs to stdout and, when logFile is set, to that file too.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	if logFile == "" {
		return io.NopCloser(nil), logger.Init(logger.WithLevel(level))
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file)), logger.WithLevel(level)); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Saccade Window Load Test
========================

Synthesizes gaze windows with a known number of saccades, submits them
concurrently, waits for the results and checks the detected counts.

Usage:
  go run ./cmd/test-windows [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -windows int       Number of windows to generate (default 1000)
  -saccades int      Maximum saccades per window (default 4)
  -samples int       Minimum samples per window (default 1000)
  -rate float        Sampling rate in Hz (default 1000)
  -workers int       Concurrent submitters (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 30s)
  -poll duration     Delay between result polls (default 250ms)
  -wait duration     Give up waiting for results after (default 2m)
  -seed uint         Generator seed, 0 for time based (default 0)
  -output string     Save generated windows as JSON
  -log string        Also write logs to this file
  -verbose           Enable verbose logging
  -help              Show this help message

Examples:
  go run ./cmd/test-windows -windows 5000 -workers 16
  go run ./cmd/test-windows -rate 500 -samples 600 -seed 42 -output windows.json
`)
}
