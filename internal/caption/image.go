package caption

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// prepareImage decodes data, downscales it to at most maxWidth pixels wide
// keeping the aspect ratio, and re-encodes it as JPEG. maxWidth <= 0 disables
// resizing but still re-encodes.
func prepareImage(data []byte, maxWidth, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	if maxWidth > 0 && width > maxWidth {
		height := uint(float64(maxWidth) * float64(bounds.Dy()) / float64(width))
		if height == 0 {
			height = 1
		}
		img = resize.Resize(uint(maxWidth), height, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
