package strategy

import (
	"fmt"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/duke-git/lancet/v2/slice"
	"github.com/spf13/cast"

	"github.com/nemanja-m/scatter/pkg/core"
)

func SumInts() core.Reducer {
	return func(values []any) (any, error) {
		nums, err := convert(values, cast.ToIntE)
		if err != nil {
			return nil, fmt.Errorf("sum ints: %w", err)
		}
		return slice.ReduceBy(nums, 0, func(_ int, n, acc int) int {
			return acc + n
		}), nil
	}
}

func SumFloats() core.Reducer {
	return func(values []any) (any, error) {
		nums, err := convert(values, cast.ToFloat64E)
		if err != nil {
			return nil, fmt.Errorf("sum floats: %w", err)
		}
		return slice.ReduceBy(nums, 0.0, func(_ int, n, acc float64) float64 {
			return acc + n
		}), nil
	}
}

// MergeCounts adds up map[string]int partials key by key.
func MergeCounts() core.Reducer {
	return func(values []any) (any, error) {
		partials, err := convert(values, cast.ToStringMapIntE)
		if err != nil {
			return nil, fmt.Errorf("merge counts: %w", err)
		}
		total := make(map[string]int)
		for _, partial := range partials {
			for key, n := range partial {
				total[key] += n
			}
		}
		return total, nil
	}
}

// MergeMaps unions map partials whose key sets do not overlap, such as the
// results of tasks divided with HashBuckets. On overlap the value of a
// later partial wins.
func MergeMaps() core.Reducer {
	return func(values []any) (any, error) {
		partials, err := convert(values, cast.ToStringMapE)
		if err != nil {
			return nil, fmt.Errorf("merge maps: %w", err)
		}
		if len(partials) == 0 {
			return map[string]any{}, nil
		}
		return maputil.Merge(partials...), nil
	}
}

// Concat flattens []T partials into one slice.
func Concat[T any]() core.Reducer {
	return func(values []any) (any, error) {
		out := []T{}
		for _, v := range values {
			part, ok := v.([]T)
			if !ok {
				return nil, fmt.Errorf("concat: expected %T, got %T", part, v)
			}
			out = append(out, part...)
		}
		return out, nil
	}
}

func convert[T any](values []any, fn func(any) (T, error)) ([]T, error) {
	out := make([]T, 0, len(values))
	for _, v := range values {
		t, err := fn(v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
