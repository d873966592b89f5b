package core

import (
	"cmp"
	"fmt"
	"reflect"
	"runtime"
	"slices"
)

// Partition splits value into the sub-values handed to individual workers.
// An empty value, or a divider that returns nothing, yields no parts: the
// call is then run once with its original arguments.
func Partition(value any, requested int, mode PartitionMode, divider Divider) ([]any, error) {
	if isEmpty(value) {
		return nil, nil
	}

	switch mode {
	case Undivided:
		return []any{value}, nil
	case Chunked:
		parts, err := divider(value, DefaultWorkers(requested))
		if err != nil {
			return nil, fmt.Errorf("divide: %w", err)
		}
		return parts, nil
	case ElementWise:
		return elements(value)
	}
	return nil, fmt.Errorf("unknown partition mode: %s", mode)
}

// DefaultWorkers resolves a worker count hint; anything below one means the
// number of CPUs.
func DefaultWorkers(requested int) int {
	if requested <= 0 {
		return runtime.NumCPU()
	}
	return requested
}

// EffectiveWorkers bounds the pool by the number of bundles. It is never
// less than one.
func EffectiveWorkers(requested, bundles int) int {
	return max(1, min(DefaultWorkers(requested), bundles))
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func elements(value any) ([]any, error) {
	switch vs := value.(type) {
	case []any:
		return slices.Clone(vs), nil
	case string:
		parts := make([]any, 0, len(vs))
		for _, r := range vs {
			parts = append(parts, string(r))
		}
		return parts, nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]any, v.Len())
		for i := range v.Len() {
			parts[i] = v.Index(i).Interface()
		}
		return parts, nil
	case reflect.Map:
		keys := v.MapKeys()
		slices.SortFunc(keys, compareKeys)
		parts := make([]any, len(keys))
		for i, k := range keys {
			parts[i] = k.Interface()
		}
		return parts, nil
	}
	return nil, &ConfigurationError{Reason: fmt.Sprintf("value of type %T is not iterable", value)}
}

func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	}
	return 0
}
