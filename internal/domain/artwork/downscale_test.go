package artwork

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
)

func encodeTestImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDownscaleLargeImage(t *testing.T) {
	data := encodeTestImage(t, 2048, 1024)

	out, err := Downscale(data, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 1024 {
		t.Errorf("width = %d, want 1024", bounds.Dx())
	}
	if bounds.Dy() != 512 {
		t.Errorf("height = %d, want 512 (aspect preserved)", bounds.Dy())
	}
}

func TestDownscalePortraitImage(t *testing.T) {
	data := encodeTestImage(t, 500, 2000)

	out, err := Downscale(data, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dy() != 1000 {
		t.Errorf("height = %d, want 1000", img.Bounds().Dy())
	}
	if img.Bounds().Dx() != 250 {
		t.Errorf("width = %d, want 250", img.Bounds().Dx())
	}
}

func TestDownscaleSmallImageUnchanged(t *testing.T) {
	data := encodeTestImage(t, 300, 300)

	out, err := Downscale(data, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("image within bounds should be returned unchanged")
	}
}

func TestDownscaleInvalidData(t *testing.T) {
	if _, err := Downscale([]byte("not an image"), 1024); err == nil {
		t.Error("expected error for undecodable data")
	}
}
