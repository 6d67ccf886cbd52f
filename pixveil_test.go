package pixveil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeCarrierPNG(t *testing.T, dir, name string, w, h int, seed byte) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: byte(x*7 + int(seed)),
				G: byte(y*3 + int(seed)),
				B: byte((x + y) * 5),
				A: 255,
			})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
}

func TestFacadeEncodeDecodeRoundTrip(t *testing.T) {
	carrierDir := t.TempDir()
	outputDir := t.TempDir()
	secretDir := t.TempDir()

	writeCarrierPNG(t, carrierDir, "carrier1.png", 64, 64, 9)
	writeCarrierPNG(t, carrierDir, "carrier2.png", 64, 64, 99)

	secretPath := filepath.Join(secretDir, "secret.txt")
	secretContent := []byte("hidden via the public facade")
	if err := os.WriteFile(secretPath, secretContent, 0o644); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	ctx := context.Background()
	encRes, err := Encode(ctx, EncodeConfig{
		SecretPath:     secretPath,
		CarrierDir:     carrierDir,
		OutputDir:      outputDir,
		Password:       "facade-password",
		BitsPerChannel: 2,
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(encRes.CarrierFiles) != 2 {
		t.Fatalf("expected 2 carrier files, got %d", len(encRes.CarrierFiles))
	}

	outPath := filepath.Join(secretDir, "recovered.txt")
	decRes, err := Decode(ctx, DecodeConfig{
		CarrierDir: outputDir,
		OutputPath: outPath,
		Password:   "facade-password",
	})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decRes.Filename != "secret.txt" {
		t.Errorf("Filename = %q, want %q", decRes.Filename, "secret.txt")
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read recovered output: %v", err)
	}
	if !bytes.Equal(got, secretContent) {
		t.Errorf("recovered content mismatch: got %q, want %q", got, secretContent)
	}
}

func TestCompressionStrategyConstants(t *testing.T) {
	if CompressionNone == CompressionGzip || CompressionGzip == CompressionBrotli || CompressionNone == CompressionBrotli {
		t.Errorf("expected CompressionNone, CompressionGzip, CompressionBrotli to be distinct")
	}
}
