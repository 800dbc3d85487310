package kernels

import "image"

// MinFilter replaces every mask value with the minimum over a size x size
// window centered on it (grayscale erosion). Even sizes are rounded up to the
// next odd size. Samples outside the mask follow edge.
func MinFilter(src *image.Gray, size int, edge EdgeMode) *image.Gray {
	return rankFilter(src, size, edge, func(a, b uint8) uint8 { return min(a, b) })
}

// MaxFilter replaces every mask value with the maximum over a size x size
// window centered on it (grayscale dilation).
func MaxFilter(src *image.Gray, size int, edge EdgeMode) *image.Gray {
	return rankFilter(src, size, edge, func(a, b uint8) uint8 { return max(a, b) })
}

// Open erodes and then dilates the mask, removing specks smaller than the window.
func Open(src *image.Gray, size int, edge EdgeMode) *image.Gray {
	return MaxFilter(MinFilter(src, size, edge), size, edge)
}

// Threshold maps values at or above level to 255 and everything else to 0.
func Threshold(src *image.Gray, level uint8) *image.Gray {
	dst := toGray(src)
	for i, v := range dst.Pix {
		if v >= level {
			dst.Pix[i] = 255
		} else {
			dst.Pix[i] = 0
		}
	}
	return dst
}

// rankFilter applies a separable rank operation: a row pass followed by a
// column pass, each over a window of the odd size derived from size.
func rankFilter(src *image.Gray, size int, edge EdgeMode, pick func(a, b uint8) uint8) *image.Gray {
	in := toGray(src)
	if size <= 1 {
		return in
	}
	r := size / 2
	w, h := in.Rect.Dx(), in.Rect.Dy()
	if w == 0 || h == 0 {
		return in
	}

	tmp := image.NewGray(in.Rect)
	for y := 0; y < h; y++ {
		row := in.Pix[y*in.Stride:][:w]
		for x := 0; x < w; x++ {
			v := row[mapCoord(x-r, w, edge)]
			for dx := -r + 1; dx <= r; dx++ {
				v = pick(v, row[mapCoord(x+dx, w, edge)])
			}
			tmp.Pix[y*tmp.Stride+x] = v
		}
	}

	dst := image.NewGray(in.Rect)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			v := tmp.Pix[mapCoord(y-r, h, edge)*tmp.Stride+x]
			for dy := -r + 1; dy <= r; dy++ {
				v = pick(v, tmp.Pix[mapCoord(y+dy, h, edge)*tmp.Stride+x])
			}
			dst.Pix[y*dst.Stride+x] = v
		}
	}
	return dst
}
