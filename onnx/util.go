package onnx

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
)

// ImageNet channel statistics the u2net family was trained with.
var (
	mean = [3]float32{0.485, 0.456, 0.406}
	std  = [3]float32{0.229, 0.224, 0.225}
)

// Preprocess turns a tile into the model's NCHW float input.
//
// The tile's alpha is ignored, the RGB image is resized to size x size with
// Lanczos3, scaled by its brightest channel value and normalized with the
// ImageNet mean and deviation.
//
// Arguments:
//   - tile: The RGBA tile.
//   - size: The square model input side.
//
// Returns:
//   - A slice of 3*size*size values in channel-major order.
func Preprocess(tile *image.NRGBA, size int) []float32 {
	b := tile.Bounds()
	opaque := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := tile.Pix[tile.PixOffset(b.Min.X, b.Min.Y+y):][:b.Dx()*4]
		dst := opaque.Pix[y*opaque.Stride:][:b.Dx()*4]
		copy(dst, src)
		for x := 3; x < len(dst); x += 4 {
			dst[x] = 255
		}
	}

	scaled := resize.Resize(uint(size), uint(size), opaque, resize.Lanczos3)
	sb := scaled.Bounds()

	plane := size * size
	data := make([]float32, 3*plane)
	peak := float32(0)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, bl, _ := scaled.At(sb.Min.X+x, sb.Min.Y+y).RGBA()
			i := y*size + x
			data[i] = float32(r >> 8)
			data[plane+i] = float32(g >> 8)
			data[2*plane+i] = float32(bl >> 8)
			peak = math32.Max(peak, math32.Max(data[i], math32.Max(data[plane+i], data[2*plane+i])))
		}
	}

	peak = math32.Max(peak, 1e-6)
	for c := 0; c < 3; c++ {
		ch := data[c*plane : (c+1)*plane]
		for i, v := range ch {
			ch[i] = (v/peak - mean[c]) / std[c]
		}
	}
	return data
}

// Postprocess turns the model's first prediction map into an 8-bit mask
// sized like the tile. The prediction is min-max normalized; a constant map
// becomes all zero.
//
// Arguments:
//   - pred: At least size*size values; the first plane is used.
//   - size: The square model output side.
//   - tile: The tile dimensions to scale the mask back to.
//
// Returns:
//   - An origin-zero mask of the tile's size.
func Postprocess(pred []float32, size int, tile image.Point) *image.Gray {
	plane := pred[:size*size]

	var lo, hi float32 = math32.MaxFloat32, -math32.MaxFloat32
	for _, v := range plane {
		lo = math32.Min(lo, v)
		hi = math32.Max(hi, v)
	}

	mask := image.NewGray(image.Rect(0, 0, size, size))
	if span := hi - lo; span > 0 {
		for i, v := range plane {
			mask.Pix[i] = uint8(math32.Min((v-lo)/span*255, 255))
		}
	}

	if tile.X == size && tile.Y == size {
		return mask
	}
	scaled := resize.Resize(uint(tile.X), uint(tile.Y), mask, resize.Lanczos3)
	if g, ok := scaled.(*image.Gray); ok {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, tile.X, tile.Y))
	sb := scaled.Bounds()
	for y := 0; y < tile.Y; y++ {
		for x := 0; x < tile.X; x++ {
			r, _, _, _ := scaled.At(sb.Min.X+x, sb.Min.Y+y).RGBA()
			out.Pix[y*out.Stride+x] = uint8(r >> 8)
		}
	}
	return out
}
