package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/mszinte/locEMexp/internal/testwindows"
)

// Default configuration constants.
const (
	defaultNumWindows   = 1000
	defaultMaxSaccades  = 4
	defaultSamples      = 1000
	defaultRate         = 1000.0
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 250 * time.Millisecond
	defaultPollTimeout  = 2 * time.Minute
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numWindows  = flag.Int("windows", defaultNumWindows, "Number of windows to generate")
		maxSaccades = flag.Int("saccades", defaultMaxSaccades, "Maximum saccades per window")
		samples     = flag.Int("samples", defaultSamples, "Minimum samples per window")
		rate        = flag.Float64("rate", defaultRate, "Sampling rate in Hz")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent submitters")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		poll        = flag.Duration("poll", defaultPollInterval, "Delay between result polls")
		wait        = flag.Duration("wait", defaultPollTimeout, "Give up waiting for results after")
		seed        = flag.Uint64("seed", 0, "Generator seed, 0 for time based")
		outputFile  = flag.String("output", "", "Save generated windows as JSON")
		logFile     = flag.String("log", "", "Also write logs to this file")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testwindows.ShowHelp()
		return
	}
	if !(*rate > 0) {
		*rate = defaultRate
	}

	closer, err := testwindows.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testwindows.Config{
		BaseURL:      *baseURL,
		NumWindows:   max(*numWindows, 1),
		MaxSaccades:  max(*maxSaccades, 0),
		Samples:      *samples,
		SamplingRate: *rate,
		Workers:      max(*workers, 1),
		Timeout:      *timeout,
		PollInterval: *poll,
		PollTimeout:  *wait,
		Seed:         *seed,
		OutputFile:   *outputFile,
		Verbose:      *verbose,
	}

	if _, err := testwindows.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		closer.Close()
		os.Exit(1)
	}
}
