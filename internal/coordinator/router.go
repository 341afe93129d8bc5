package coordinator

import (
	"fmt"
	"hash/fnv"
)

// Route determines which shard owns a game id, enabling every request for
// the same game to reach the same worker without any shared lock.
//
// Hashing algorithm:
//   - FNV-1a 64-bit over the raw key bytes
//   - reduced modulo shardCount
//
// The result depends only on the key and the shard count, so it is stable
// across calls, goroutines and process restarts. The shard count is fixed
// for the life of an Engine; changing it remaps keys.
//
// Route panics when shardCount is not positive.
//
// Example:
//
//	shardID := Route("game-42", 8)
//	// shardID will always be the same for "game-42" with 8 shards
func Route(key string, shardCount int) int {
	if shardCount <= 0 {
		panic(fmt.Sprintf("coordinator: invalid shard count %d", shardCount))
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	return int(h.Sum64() % uint64(shardCount))
}

// Owner returns a predicate reporting whether shardID owns a key under
// shardCount shards.
func Owner(shardID, shardCount int) func(string) bool {
	return func(key string) bool {
		return Route(key, shardCount) == shardID
	}
}
