package testwindows

import "time"

// Config holds configuration for the load test.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumWindows   int           // Number of windows to generate
	MaxSaccades  int           // Upper bound of saccades per window
	Samples      int           // Minimum samples per window
	SamplingRate float64       // Hz
	Workers      int           // Number of concurrent submitters
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between result polls
	PollTimeout  time.Duration // Give up waiting for results after this long
	Seed         uint64        // Generator seed; zero picks one from the clock
	OutputFile   string        // Where to save generated windows, empty to skip
	Verbose      bool          // Enable verbose logging
}

// Stats holds test statistics.
type Stats struct {
	WindowsGenerated  int
	WindowsSubmitted  int
	WindowsAccepted   int
	WindowsDuplicate  int
	WindowsRejected   int
	WindowsFailed     int
	ResultsRetrieved  int
	CountsMatched     int
	CountsMismatched  int
	NotAnalyzable     int
	SaccadesExpected  int
	SaccadesReported  int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
	SubmitThroughput  float64 // windows per second
	AnalysisP50Millis float64
	AnalysisP95Millis float64
}
