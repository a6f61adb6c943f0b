package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/keepsake/internal/simulate"
)

// Default configuration constants.
const (
	defaultNumAlbums   = 100
	defaultMaxClusters = 8
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numAlbums   = flag.Int("albums", defaultNumAlbums, "Number of albums to simulate")
		maxClusters = flag.Int("clusters", defaultMaxClusters, "Maximum clusters per album")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for generated albums (default: generated_albums_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for simulation output (default: simulation_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simulate.Config{
		BaseURL:     *baseURL,
		NumAlbums:   *numAlbums,
		MaxClusters: *maxClusters,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
