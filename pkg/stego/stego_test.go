package stego

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
)

func uniformCarrier(w, h int) *image.NRGBA {
	carrier := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(carrier, carrier.Bounds(), &image.Uniform{color.NRGBA{R: 100, G: 100, B: 100, A: 255}}, image.Point{}, draw.Src)
	return carrier
}

func TestEmbedAndExtract(t *testing.T) {
	// 10x10 pixels hold 300 bits, 268 after the length prefix: 33 bytes.
	carrier := uniformCarrier(10, 10)
	secret := []byte("0301ab02cd03ef")

	stegoImg, err := Embed(carrier, secret)
	if err != nil {
		t.Fatalf("Failed to embed data: %v", err)
	}

	extracted, err := Extract(stegoImg)
	if err != nil {
		t.Fatalf("Failed to extract data: %v", err)
	}
	if !bytes.Equal(secret, extracted) {
		t.Errorf("Extracted data mismatch.\nExpected: %v\nGot: %v", secret, extracted)
	}
}

func TestSurvivesPNGEncoding(t *testing.T) {
	secret := []byte("share payload survives a PNG round trip")
	stegoImg, err := Embed(uniformCarrier(40, 40), secret)
	if err != nil {
		t.Fatalf("Failed to embed data: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, stegoImg); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}

	extracted, err := Extract(decoded)
	if err != nil {
		t.Fatalf("Failed to extract data: %v", err)
	}
	if !bytes.Equal(secret, extracted) {
		t.Errorf("Extracted %q", extracted)
	}
}

func TestCapacityCheck(t *testing.T) {
	// 2x2 image = 12 bits, not even enough for the length prefix.
	_, err := Embed(uniformCarrier(2, 2), []byte("A"))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("Expected error wrapping ErrMessageTooLarge, got %v", err)
	}
	if Capacity(image.Rect(0, 0, 10, 10)) != 33 {
		t.Errorf("Capacity(10x10) = %d, want 33", Capacity(image.Rect(0, 0, 10, 10)))
	}
}

func TestExtractFromCleanImage(t *testing.T) {
	// All LSBs are zero, so the length prefix is zero.
	_, err := Extract(uniformCarrier(10, 10))
	if !errors.Is(err, ErrNoHiddenData) {
		t.Errorf("Expected ErrNoHiddenData, got %v", err)
	}
}
