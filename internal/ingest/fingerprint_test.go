package ingest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestFingerprintIsStable(t *testing.T) {
	a := Fingerprint([]byte("same bytes"))
	b := Fingerprint([]byte("same bytes"))
	if a != b {
		t.Fatalf("same content produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}

	if Fingerprint([]byte("other bytes")) == a {
		t.Fatal("different content produced the same fingerprint")
	}
}

func TestSniffMimeDetectsPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}

	mime := SniffMime(buf.Bytes())
	if mime != "image/png" {
		t.Fatalf("expected image/png, got %s", mime)
	}
	if !IsAllowedMime(mime) {
		t.Fatal("png should be allowed")
	}
}

func TestIsAllowedMimeRejectsNonImages(t *testing.T) {
	mime := SniffMime([]byte("plain text, definitely not an image"))
	if IsAllowedMime(mime) {
		t.Fatalf("%s should not be allowed", mime)
	}
}
