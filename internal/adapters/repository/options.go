package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithShardCount sets the number of shards for the in-memory store.
// Values below one are ignored; the count is rounded up to a power of two.
func WithShardCount(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.shardCount = nextPowerOfTwo(n)
		}
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
