package kernels

import (
	"image"
	"testing"
)

func benchmarkMask(w, h int) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, w, h))
	for i := range m.Pix {
		m.Pix[i] = uint8(i * 31)
	}
	return m
}

func BenchmarkBoxBlur(b *testing.B) {
	src := benchmarkMask(512, 512)
	for _, parallel := range []bool{false, true} {
		name := "serial"
		if parallel {
			name = "parallel"
		}
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				BoxBlur(src, Options{Radius: 3, Parallel: parallel})
			}
		})
	}
}

func BenchmarkMinFilter(b *testing.B) {
	src := benchmarkMask(320, 320)
	for i := 0; i < b.N; i++ {
		MinFilter(src, 11, EdgeClamp)
	}
}
