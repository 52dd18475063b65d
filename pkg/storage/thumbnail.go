package storage

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// Thumbnail decodes an image and returns a JPEG scaled to the given width, keeping the aspect ratio.
func Thumbnail(r io.Reader, width int) ([]byte, error) {
	if width <= 0 {
		width = 320
	}
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var thumb image.Image = src
	if src.Bounds().Dx() > width {
		thumb = imaging.Resize(src, width, 0, imaging.Lanczos)
	}
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
