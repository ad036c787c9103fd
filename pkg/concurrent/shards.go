package concurrent

import (
	"sync"
)

// TileShard is one contiguous range of tile indexes handed to a worker.
// End is exclusive.
type TileShard struct {
	ID    int
	Start int
	End   int
}

// SplitShards divides total items into n contiguous shards. The remainder
// spreads over the leading shards so sizes differ by at most one.
func SplitShards(total, n int) []TileShard {
	shards := make([]TileShard, 0, n)
	chunk := total / n
	rem := total % n
	start := 0
	for i := 0; i < n; i++ {
		size := chunk
		if i < rem {
			size++
		}
		shards = append(shards, TileShard{ID: i, Start: start, End: start + size})
		start += size
	}
	return shards
}

// RunShards splits total items over workers contiguous shards, runs work on
// each shard in its own goroutine, and returns the results indexed by shard
// id once every worker has finished.
func RunShards[R any](total, workers int, work func(TileShard) R) []R {
	shards := SplitShards(total, workers)
	results := make([]R, len(shards))
	var wg sync.WaitGroup
	for _, shard := range shards {
		wg.Add(1)
		go func(s TileShard) {
			defer wg.Done()
			results[s.ID] = work(s)
		}(shard)
	}
	wg.Wait()
	return results
}
