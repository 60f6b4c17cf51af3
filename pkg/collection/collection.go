// Package collection provides generic slice and map helpers.
package collection

import "sort"

// Map applies fn to each element and returns the results.
func Map[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

// Filter returns the elements for which fn returns true.
func Filter[T any](items []T, fn func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if fn(item) {
			out = append(out, item)
		}
	}
	return out
}

// GroupBy buckets items by the key fn returns, preserving slice order
// within each bucket.
func GroupBy[T any, K comparable](items []T, fn func(T) K) map[K][]T {
	out := make(map[K][]T)
	for _, item := range items {
		key := fn(item)
		out[key] = append(out[key], item)
	}
	return out
}

// Sum adds up the values fn extracts from each item.
func Sum[T any, N int | int64 | float64](items []T, fn func(T) N) N {
	var total N
	for _, item := range items {
		total += fn(item)
	}
	return total
}

// Keys returns the map's keys in unspecified order.
func Keys[K comparable, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// SortedKeys returns the map's keys in ascending order.
func SortedKeys[K string, V any](m map[K]V) []K {
	keys := Keys(m)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
