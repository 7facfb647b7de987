// Package shard maps string keys onto a fixed number of lock shards.
package shard

import "github.com/cespare/xxhash/v2"

// DefaultCount is the shard count used when a caller does not configure one.
const DefaultCount = 32

// Index returns the shard index in [0, n) for key.
// n must be positive.
func Index(key string, n int) int {
	return int(xxhash.Sum64String(key) % uint64(n))
}

// Normalize returns n, or DefaultCount when n is not positive.
func Normalize(n int) int {
	if n <= 0 {
		return DefaultCount
	}
	return n
}
