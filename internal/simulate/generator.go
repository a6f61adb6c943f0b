package simulate

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/keepsake/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	minClusters        = 2
	clusterKindCount   = 4
	maxImagesPerGroup  = 12
)

// Constants for cluster size generation ranges.
const (
	smallClusterMin    = 1
	smallClusterRange  = 4
	mediumClusterMin   = 5
	mediumClusterRange = 15
	largeClusterMin    = 20
	largeClusterRange  = 40
	hugeClusterMin     = 60
	hugeClusterRange   = 80
)

// Constants for cluster kind cases.
const (
	caseSmallCluster  = 0
	caseMediumCluster = 1
	caseLargeCluster  = 2
	caseHugeCluster   = 3
)

var clusterNames = []string{
	"beach", "city", "food", "friends", "hike", "museum",
	"night-out", "pets", "portraits", "sunset",
}

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random int in [0, max).
func randomInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

// generateAlbums creates the requested number of synthetic albums.
func generateAlbums(ctx context.Context, config *Config, stats *Stats) ([]Album, error) {
	logger.Get().Info(ctx, "generating synthetic albums", logger.Int("numAlbums", config.NumAlbums))

	albums := make([]Album, config.NumAlbums)
	for i := range albums {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during album generation: %w", ctx.Err())
		default:
		}
		albums[i] = generateSingleAlbum(config.MaxClusters)
	}

	stats.AlbumsGenerated = len(albums)
	logger.Get().Info(ctx, "generated albums successfully", logger.Int("count", len(albums)))

	return albums, nil
}

// generateSingleAlbum creates one album with a varied cluster layout.
func generateSingleAlbum(maxClusters int) Album {
	if maxClusters < minClusters {
		maxClusters = minClusters
	}
	clusterCount := minClusters + randomInt(maxClusters-minClusters+1)

	album := Album{AlbumID: uuid.New().String()}
	for id := 1; id <= clusterCount; id++ {
		size := generateClusterSize()
		name := clusterNames[randomInt(len(clusterNames))]
		seed := ClusterSeed{
			ClusterID:   id,
			ClusterName: fmt.Sprintf("%s-%d", name, id),
			Size:        size,
			PrefScore:   randomFloat()*2 - 1,
		}
		album.Clusters = append(album.Clusters, seed)

		imageCount := size
		if imageCount > maxImagesPerGroup {
			imageCount = maxImagesPerGroup
		}
		for rank := 0; rank < imageCount; rank++ {
			album.Images = append(album.Images, Image{
				Path:          fmt.Sprintf("%s/%s/img_%03d.jpg", album.AlbumID, seed.ClusterName, rank),
				ClusterID:     id,
				RankInCluster: rank,
				PrefScore:     randomFloat(),
			})
		}
	}
	return album
}

// generateClusterSize draws a size from a mix of small, medium, large
// and huge clusters so allocation sees realistic skew.
func generateClusterSize() int {
	switch randomInt(clusterKindCount) {
	case caseSmallCluster:
		return smallClusterMin + randomInt(smallClusterRange)
	case caseMediumCluster:
		return mediumClusterMin + randomInt(mediumClusterRange)
	case caseLargeCluster:
		return largeClusterMin + randomInt(largeClusterRange)
	case caseHugeCluster:
		return hugeClusterMin + randomInt(hugeClusterRange)
	default:
		return mediumClusterMin + randomInt(mediumClusterRange)
	}
}
