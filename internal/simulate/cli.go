package simulate

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/keepsake/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "simulation_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the session simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Keepsake Session Simulation Tool
================================

A concurrent tool for exercising the keepsake curation service with
synthetic albums.

Usage:
  go run cmd/test-sessions/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -albums int
        Number of albums to simulate (default 100)
  -clusters int
        Maximum clusters per album (default 8)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated albums (default: generated_albums_TIMESTAMP.json)
  -log string
        Log file for simulation output (default: simulation_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/test-sessions/main.go

  # Simulate a large batch against a remote service
  go run cmd/test-sessions/main.go -albums 1000 -workers 16 -url http://localhost:8080

  # Simulate with a custom log file
  go run cmd/test-sessions/main.go -albums 500 -log my_run.log
`)
}
