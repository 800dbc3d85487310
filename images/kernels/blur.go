// Package kernels - Sliding-window filters over single-channel alpha masks.
package kernels

import (
	"image"
	"math"
	"sync"
)

// EdgeMode defines how sampling behaves outside the mask bounds.
// - Clamp: repeats edge pixels.
// - Mirror: reflects coordinates.
// - Wrap: tiles the mask.
type EdgeMode int

const (
	EdgeClamp EdgeMode = iota
	EdgeMirror
	EdgeWrap
)

// Options configures the blur call.
type Options struct {
	Radius   int      // Blur radius (window size = 2*Radius + 1). Must be >= 0.
	Edge     EdgeMode // Edge sampling mode.
	Parallel bool     // Enable row/column parallelism for large masks.
}

// BoxBlur applies a separable box blur to a mask.
// - Operates on raw bytes of an origin-zero copy.
// - Uses a sliding window per row/col to achieve O(1) updates per pixel.
//
// Repeating the blur three times approximates a Gaussian with
// sigma ≈ sqrt((window² - 1) / 4).
//
// Returns a new *image.Gray with origin (0, 0).
func BoxBlur(src *image.Gray, opt Options) *image.Gray {
	in := toGray(src)
	if opt.Radius <= 0 {
		return in
	}

	tmp := image.NewGray(in.Rect)
	dst := image.NewGray(in.Rect)
	boxBlurHoriz(in, tmp, opt.Radius, opt.Edge, opt.Parallel)
	boxBlurVert(tmp, dst, opt.Radius, opt.Edge, opt.Parallel)
	return dst
}

// GaussianApprox runs three box blur passes whose combined response
// approximates a Gaussian of the given sigma.
func GaussianApprox(src *image.Gray, sigma float64, edge EdgeMode) *image.Gray {
	out := toGray(src)
	r := boxRadiusForSigma(sigma)
	if r <= 0 {
		return out
	}
	for i := 0; i < 3; i++ {
		out = BoxBlur(out, Options{Radius: r, Edge: edge})
	}
	return out
}

// boxRadiusForSigma picks the radius of a box filter that, applied three
// times, has about the same variance as a Gaussian of the given sigma.
func boxRadiusForSigma(sigma float64) int {
	if sigma <= 0 {
		return 0
	}
	// Three passes of width w have variance 3 * (w² - 1) / 12.
	ideal := math.Sqrt(4*sigma*sigma + 1)
	return int(math.Round((ideal - 1) / 2))
}

// toGray returns an origin-zero copy of src.
func toGray(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):][:b.Dx()])
	}
	return dst
}

// boxBlurHoriz applies horizontal blur into dst using a sliding window.
// Both images must be origin-zero with the same bounds.
func boxBlurHoriz(src, dst *image.Gray, r int, edge EdgeMode, parallel bool) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}

	window := uint32(2*r + 1)
	rowTask := func(y int) {
		row := src.Pix[y*src.Stride:][:w]
		out := dst.Pix[y*dst.Stride:][:w]
		load := func(x int) uint32 {
			return uint32(row[mapCoord(x, w, edge)])
		}

		var sum uint32
		for dx := -r; dx <= r; dx++ {
			sum += load(dx)
		}
		for x := 0; x < w; x++ {
			out[x] = uint8((sum + window/2) / window)
			// Slide: remove left, add right.
			sum += load(x+r+1) - load(x-r)
		}
	}

	run(h, parallel, rowTask)
}

// boxBlurVert mirrors the horizontal pass along columns.
func boxBlurVert(src, dst *image.Gray, r int, edge EdgeMode, parallel bool) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}

	window := uint32(2*r + 1)
	colTask := func(x int) {
		load := func(y int) uint32 {
			return uint32(src.Pix[mapCoord(y, h, edge)*src.Stride+x])
		}

		var sum uint32
		for dy := -r; dy <= r; dy++ {
			sum += load(dy)
		}
		for y := 0; y < h; y++ {
			dst.Pix[y*dst.Stride+x] = uint8((sum + window/2) / window)
			sum += load(y+r+1) - load(y-r)
		}
	}

	run(w, parallel, colTask)
}

// run calls task for every index in [0, n), splitting the range into chunks
// across goroutines when parallel is set.
func run(n int, parallel bool, task func(i int)) {
	if !parallel || n < 4 {
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}

	chunk := chooseChunk(n)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				task(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// mapCoord maps an index i to [0, n) according to edge mode.
// For Clamp: clamp to [0, n-1].
// For Mirror: reflect indices ... -2,-1,0,1,2, ... -> 1,0,0,1,2, ... (no duplication at edges).
// For Wrap: modulo wrap to [0, n).
func mapCoord(i, n int, mode EdgeMode) int {
	switch mode {
	case EdgeMirror:
		if n == 1 {
			return 0
		}
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - i - 1
			}
		}
		return i
	case EdgeWrap:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}

// chooseChunk picks a work chunk size that balances overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
