package images

import (
	"crypto/md5"
	"fmt"
	"image"
)

// Checksum generates a deterministic checksum of the pixels of img, used to
// verify that a build is reproducible. The origin of img does not matter.
//
// Arguments:
// - img: The image to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	checksum := Checksum(tile)
//	fmt.Printf("Tile checksum: %s\n", checksum)
//
// ```
func Checksum(img image.Image) string {
	if img.Bounds().Empty() {
		return "empty"
	}

	buf := ToNRGBA(img)
	b := buf.Bounds()
	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d;", b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		hash.Write(buf.Pix[buf.PixOffset(b.Min.X, y):][:b.Dx()*4])
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}
