package artwork

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder
	"image/jpeg"
	_ "image/png" // PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder
)

// MaxUploadDimension is the longest edge allowed before upload. Roon can
// serve original-resolution scans; the presence display never shows more
// than a small square.
const MaxUploadDimension = 1024

// Downscale re-encodes an image so its longest edge is at most maxDim
// pixels, preserving aspect ratio. Images already within bounds are
// returned unchanged.
func Downscale(data []byte, maxDim int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW <= maxDim && srcH <= maxDim {
		return data, nil
	}

	var newW, newH int
	if srcW > srcH {
		newW = maxDim
		newH = int(float64(srcH) * float64(maxDim) / float64(srcW))
	} else {
		newH = maxDim
		newW = int(float64(srcW) * float64(maxDim) / float64(srcH))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode %s as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}
