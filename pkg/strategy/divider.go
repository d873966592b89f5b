package strategy

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/spf13/cast"

	"github.com/nemanja-m/scatter/pkg/core"
)

// Lines splits text into one part per line, ignoring the suggested count.
func Lines() core.Divider {
	return func(value any, _ int) ([]any, error) {
		text, err := cast.ToStringE(value)
		if err != nil {
			return nil, fmt.Errorf("lines: %w", err)
		}
		if text == "" {
			return nil, nil
		}
		return toAny(strings.Split(text, "\n")), nil
	}
}

// Chunks splits a []T into contiguous chunks of max(len/parts, 1)
// elements, so it yields at least parts chunks when there are enough
// elements.
func Chunks[T any]() core.Divider {
	return func(value any, parts int) ([]any, error) {
		items, ok := value.([]T)
		if !ok {
			return nil, fmt.Errorf("chunks: expected %T, got %T", items, value)
		}
		size := max(len(items)/max(parts, 1), 1)
		return toAny(slice.Chunk(items, size)), nil
	}
}

// FixedChunks splits a []T into chunks of exactly size elements, the last
// one possibly shorter. A non-positive size uses the suggested count as
// the chunk size.
func FixedChunks[T any](size int) core.Divider {
	return func(value any, parts int) ([]any, error) {
		items, ok := value.([]T)
		if !ok {
			return nil, fmt.Errorf("fixed chunks: expected %T, got %T", items, value)
		}
		n := size
		if n <= 0 {
			n = max(parts, 1)
		}
		return toAny(slice.Chunk(items, n)), nil
	}
}

// HashBuckets groups the elements of a []T into at most parts buckets by
// the FNV-1a hash of key(element). Equal keys always land in the same
// bucket; empty buckets are dropped.
func HashBuckets[T any](key func(T) string) core.Divider {
	return func(value any, parts int) ([]any, error) {
		items, ok := value.([]T)
		if !ok {
			return nil, fmt.Errorf("hash buckets: expected %T, got %T", items, value)
		}

		buckets := make([][]T, max(parts, 1))
		for _, item := range items {
			i := Bucket(key(item), len(buckets))
			buckets[i] = append(buckets[i], item)
		}

		var out []any
		for _, b := range buckets {
			if len(b) > 0 {
				out = append(out, b)
			}
		}
		return out, nil
	}
}

func Hash(value string) uint32 {
	hash := fnv.New32a()
	hash.Write([]byte(value))
	return hash.Sum32()
}

func Bucket(key string, numBuckets int) int {
	if numBuckets <= 0 {
		return 0
	}
	return int(Hash(key) % uint32(numBuckets))
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
