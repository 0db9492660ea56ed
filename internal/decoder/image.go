package decoder

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"image"
	"io"
	"os"

	// Register still-image codecs with image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/frame"
)

// DecodeImage decodes a still image into a frame. Unknown formats yield an
// unsupported_format error; corrupt data yields a decode error.
func DecodeImage(r io.Reader) (*frame.Buffer, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if stderrors.Is(err, image.ErrFormat) {
			return nil, "", apperrors.NewUnsupportedFormatError("unrecognized image format", err)
		}
		return nil, "", apperrors.NewDecodeError("failed to decode image", err)
	}

	buf, err := frame.FromImage(img)
	if err != nil {
		return nil, format, apperrors.NewDecodeError(fmt.Sprintf("invalid %s image", format), err)
	}
	return buf, format, nil
}

// DecodeImageBytes decodes an in-memory image
func DecodeImageBytes(data []byte) (*frame.Buffer, string, error) {
	return DecodeImage(bytes.NewReader(data))
}

// DecodeImageFile opens and decodes the image at path
func DecodeImageFile(path string) (*frame.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("image not found: %s", path), err)
		}
		return nil, apperrors.NewDecodeError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	buf, _, err := DecodeImage(f)
	return buf, err
}
