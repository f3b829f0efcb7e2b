// Package parallel splits row loops across GOMAXPROCS goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// chunks returns the [start, end) ranges used to split n rows.
func chunks(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	size := (n + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// For calls fn over disjoint [start, end) ranges covering [0, n).
func For(n int, fn func(start, end int)) {
	ranges := chunks(n)
	if len(ranges) == 0 {
		return
	}
	if len(ranges) == 1 {
		fn(ranges[0][0], ranges[0][1])
		return
	}
	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(r[0], r[1])
	}
	wg.Wait()
}

// Sum runs fn over the same ranges as For and adds the partial results in
// range order, so repeated calls on identical input return identical sums.
func Sum(n int, fn func(start, end int) float64) float64 {
	ranges := chunks(n)
	partials := make([]float64, len(ranges))
	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func(idx, s, e int) {
			defer wg.Done()
			partials[idx] = fn(s, e)
		}(i, r[0], r[1])
	}
	wg.Wait()
	total := 0.0
	for _, p := range partials {
		total += p
	}
	return total
}
