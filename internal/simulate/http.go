package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/keepsake/pkg/logger"
)

// HTTP status code constants.
const (
	statusOK      = 200
	statusCreated = 201
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON performs a GET request and decodes the JSON response into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != statusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, v)
}

// createSessions creates one session per album using a worker pool.
func createSessions(ctx context.Context, config *Config, albums []Album, stats *Stats) error {
	logger.Get().Info(ctx, "creating sessions",
		logger.Int("albums", len(albums)),
		logger.Int("workers", config.Workers),
	)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/sessions"

	var created, failed int64

	albumChan := make(chan Album, config.Workers)
	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for album := range albumChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				resp, err := client.Post(ctx, url, album)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				if resp.StatusCode == statusCreated {
					atomic.AddInt64(&created, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	for _, album := range albums {
		select {
		case <-ctx.Done():
			break
		case albumChan <- album:
		}
	}
	close(albumChan)
	wg.Wait()

	stats.SessionsCreated = int(atomic.LoadInt64(&created))
	stats.SessionsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "session creation completed",
		logger.Int("created", stats.SessionsCreated),
		logger.Int("failed", stats.SessionsFailed),
	)

	if stats.SessionsCreated == 0 {
		return fmt.Errorf("no sessions created (%d failures)", stats.SessionsFailed)
	}
	return nil
}

// playSessions drives every album to completion by repeatedly fetching
// the next matchup and submitting a choice.
func playSessions(ctx context.Context, config *Config, albums []Album, stats *Stats) error {
	logger.Get().Info(ctx, "playing sessions to completion",
		logger.Int("albums", len(albums)),
		logger.Int("workers", config.Workers),
	)

	client := newHTTPClient(config.Timeout)

	var submitted, duplicate, failed, completed int64

	albumChan := make(chan Album, config.Workers)
	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for album := range albumChan {
				done, err := playSingleSession(ctx, client, config.BaseURL, album,
					&submitted, &duplicate, &failed)
				if err != nil {
					logger.Get().Warn(ctx, "session play failed",
						logger.String("albumID", album.AlbumID),
						logger.Error(err),
					)
					continue
				}
				if done {
					atomic.AddInt64(&completed, 1)
				}
			}
		}()
	}

	for _, album := range albums {
		select {
		case <-ctx.Done():
			break
		case albumChan <- album:
		}
	}
	close(albumChan)
	wg.Wait()

	stats.ChoicesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ChoicesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.ChoicesFailed = int(atomic.LoadInt64(&failed))
	stats.SessionsCompleted = int(atomic.LoadInt64(&completed))

	logger.Get().Info(ctx, "session play completed",
		logger.Int("choices", stats.ChoicesSubmitted),
		logger.Int("duplicates", stats.ChoicesDuplicate),
		logger.Int("failures", stats.ChoicesFailed),
		logger.Int("sessionsCompleted", stats.SessionsCompleted),
	)

	return nil
}

// playSingleSession plays one album until the service reports done.
func playSingleSession(ctx context.Context, client *HTTPClient, baseURL string, album Album, submitted, duplicate, failed *int64) (bool, error) {
	sizes := make(map[int]int, len(album.Clusters))
	for _, c := range album.Clusters {
		sizes[c.ClusterID] = c.Size
	}

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		var next NextMatchResponse
		if err := client.getJSON(ctx, baseURL+"/sessions/"+album.AlbumID+"/next-match", &next); err != nil {
			return false, err
		}
		if next.Done || next.Match == nil {
			return next.Done, nil
		}

		winner := pickWinner(next.Match, sizes)
		choice := map[string]interface{}{
			"left_cluster_id":   next.Match.LeftClusterID,
			"right_cluster_id":  next.Match.RightClusterID,
			"winner_cluster_id": winner,
			"choice_id":         uuid.New().String(),
		}

		resp, err := client.Post(ctx, baseURL+"/sessions/"+album.AlbumID+"/choose", choice)
		if err != nil {
			atomic.AddInt64(failed, 1)
			return false, err
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode != statusOK {
			atomic.AddInt64(failed, 1)
			return false, fmt.Errorf("choose returned status %d: %s", resp.StatusCode, string(body))
		}

		atomic.AddInt64(submitted, 1)
		var ack ChoiceResponse
		if err := json.Unmarshal(body, &ack); err == nil {
			if ack.Duplicate {
				atomic.AddInt64(duplicate, 1)
			}
			if ack.Session.Done {
				return true, nil
			}
		}
	}
}

// pickWinner favors the larger cluster most of the time so ratings drift
// toward a realistic preference signal instead of a coin flip.
func pickWinner(match *Matchup, sizes map[int]int) int {
	larger, smaller := match.LeftClusterID, match.RightClusterID
	if sizes[match.RightClusterID] > sizes[match.LeftClusterID] {
		larger, smaller = match.RightClusterID, match.LeftClusterID
	}
	if randomFloat() < 0.75 {
		return larger
	}
	return smaller
}

// fetchPools retrieves the final pool for every album.
func fetchPools(ctx context.Context, config *Config, albums []Album) (map[string]PoolResult, error) {
	client := newHTTPClient(config.Timeout)
	pools := make(map[string]PoolResult, len(albums))

	for _, album := range albums {
		var result PoolResult
		if err := client.getJSON(ctx, config.BaseURL+"/sessions/"+album.AlbumID+"/pool", &result); err != nil {
			return nil, fmt.Errorf("fetch pool for %s: %w", album.AlbumID, err)
		}
		pools[album.AlbumID] = result
	}
	return pools, nil
}

// fetchSessions retrieves the final state for every album.
func fetchSessions(ctx context.Context, config *Config, albums []Album) (map[string]SessionState, error) {
	client := newHTTPClient(config.Timeout)
	states := make(map[string]SessionState, len(albums))

	for _, album := range albums {
		var state SessionState
		if err := client.getJSON(ctx, config.BaseURL+"/sessions/"+album.AlbumID, &state); err != nil {
			return nil, fmt.Errorf("fetch session for %s: %w", album.AlbumID, err)
		}
		states[album.AlbumID] = state
	}
	return states, nil
}
