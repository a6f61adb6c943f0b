package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/keepsake/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete session simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting keepsake session simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("albums", config.NumAlbums),
		logger.Int("maxClusters", config.MaxClusters),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose),
	)

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	albums, err := generateAlbums(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("album generation failed: %w", err)
	}

	if err := createSessions(ctx, config, albums, stats); err != nil {
		return fmt.Errorf("session creation failed: %w", err)
	}

	if err := playSessions(ctx, config, albums, stats); err != nil {
		return fmt.Errorf("session play failed: %w", err)
	}

	states, err := fetchSessions(ctx, config, albums)
	if err != nil {
		return fmt.Errorf("session retrieval failed: %w", err)
	}

	pools, err := fetchPools(ctx, config, albums)
	if err != nil {
		return fmt.Errorf("pool retrieval failed: %w", err)
	}

	if err := verifyResults(ctx, states, pools, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	if err := saveAlbumsToFile(ctx, config, albums); err != nil {
		logger.Get().Warn(ctx, "failed to save albums to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != statusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveAlbumsToFile saves the generated albums to a JSON file.
func saveAlbumsToFile(ctx context.Context, config *Config, albums []Album) error {
	if len(albums) == 0 {
		return fmt.Errorf("no albums to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_albums_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(albums, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal albums: %w", err)
	}
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "albums saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var choicesPerSecond float64
	if stats.Duration > 0 {
		choicesPerSecond = float64(stats.ChoicesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("albumsGenerated", stats.AlbumsGenerated),
		logger.Int("sessionsCreated", stats.SessionsCreated),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("choicesSubmitted", stats.ChoicesSubmitted),
		logger.Int("choicesDuplicate", stats.ChoicesDuplicate),
		logger.Int("choicesFailed", stats.ChoicesFailed),
		logger.Int("sessionsCompleted", stats.SessionsCompleted),
		logger.Int("poolsVerified", stats.PoolsVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("choicesPerSecond", choicesPerSecond),
	)
}
