package images

import (
	"math"
	"runtime"
	"sync"
)

// Clamp restricts a value to the specified range [min, max].
// This is used to prevent overflow in color calculations.
//
// Arguments:
// - value: The value to clamp.
// - min: Minimum allowed value.
// - max: Maximum allowed value.
//
// Returns:
// - The clamped value.
//
// @example
// clamped := Clamp(300.0, 0.0, 255.0) // Returns 255.0
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampUint8 rounds v to the nearest integer and clamps it to [0, 255].
// NaN maps to 0.
func ClampUint8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(Clamp(math.Round(v), 0, 255))
}

// Parallel executes fn across multiple goroutines, partitioning [0, dataSize)
// into contiguous ranges. workers <= 0 uses the number of CPU cores.
//
// Arguments:
// - dataSize: The number of items to process.
// - workers: Upper bound on concurrent partitions.
// - fn: Function to call for each partition.
//
// @example
//
//	Parallel(len(tiles), 4, func(start, end int) {
//	    for i := start; i < end; i++ {
//	        process(tiles[i])
//	    }
//	})
func Parallel(dataSize, workers int, fn func(partStart, partEnd int)) {
	if dataSize <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, dataSize)

	// Process serially when there is nothing to fan out.
	if workers == 1 {
		fn(0, dataSize)
		return
	}

	// Partition sizes differ by at most one item.
	partSize := dataSize / workers
	remainder := dataSize % workers

	var wg sync.WaitGroup
	wg.Add(workers)

	partStart := 0
	for i := 0; i < workers; i++ {
		partEnd := partStart + partSize
		if i < remainder {
			partEnd++
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)

		partStart = partEnd
	}

	wg.Wait()
}
