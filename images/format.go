package images

import (
	"bytes"
	"image"
	"image/png"
	"io"

	// Sheet decoders.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/pkg/errors"
)

// ImageFormat represents supported sprite sheet formats.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
	FormatBMP  ImageFormat = "bmp"
	FormatGIF  ImageFormat = "gif"
)

// Decode reads an image of any registered format and returns it as an
// origin-zero straight-alpha buffer together with the detected format.
//
// Arguments:
//   - r: Encoded image bytes.
//
// Returns:
//   - *image.NRGBA: The decoded pixels.
//   - ImageFormat: The format reported by the decoder.
//   - error: An error if the data cannot be decoded.
func Decode(r io.Reader) (*image.NRGBA, ImageFormat, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to decode image")
	}
	return ToNRGBA(img), ImageFormat(format), nil
}

// EncodePNG encodes buf as a PNG with the best compression level.
func EncodePNG(w io.Writer, buf image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, buf); err != nil {
		return errors.Wrap(err, "failed to encode PNG")
	}
	return nil
}

// PNGBytes encodes buf as PNG into memory.
func PNGBytes(buf image.Image) ([]byte, error) {
	var b bytes.Buffer
	if err := EncodePNG(&b, buf); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
