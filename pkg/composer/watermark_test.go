package composer

import (
	"bytes"
	"image/color"
	"testing"
)

func TestApplyWatermarkMarksBottomRight(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	buf := solidPNG(t, 400, 200, white)

	out, err := ApplyWatermark(buf)
	if err != nil {
		t.Fatalf("ApplyWatermark: %v", err)
	}

	img := decodePNG(t, out)

	// The badge sits inside the bottom-right quadrant; at least one pixel
	// there must have been darkened.
	marked := false
	for y := 100; y < 200 && !marked; y++ {
		for x := 200; x < 400; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
				marked = true
				break
			}
		}
	}
	if !marked {
		t.Error("no darkened pixels in bottom-right quadrant, watermark missing")
	}

	// Top-left quadrant stays untouched.
	if !nearColor(img.At(10, 10), white) {
		t.Errorf("top-left pixel = %v, want untouched white", img.At(10, 10))
	}
}

func TestApplyWatermarkTinyCanvas(t *testing.T) {
	buf := solidPNG(t, 10, 10, red)

	out, err := ApplyWatermark(buf)
	if err != nil {
		t.Fatalf("ApplyWatermark on tiny canvas: %v", err)
	}
	if w, h, err := Dimensions(out); err != nil || w != 10 || h != 10 {
		t.Errorf("output %dx%d err=%v, want 10x10", w, h, err)
	}
}

func TestRenderOverlayUnknownThemeFallsBack(t *testing.T) {
	unknown, err := RenderOverlay(120, 80, "disco")
	if err != nil {
		t.Fatalf("RenderOverlay with unknown theme: %v", err)
	}
	classic, err := RenderOverlay(120, 80, "classic")
	if err != nil {
		t.Fatalf("RenderOverlay: %v", err)
	}
	if !bytes.Equal(unknown, classic) {
		t.Error("unknown theme should render identically to the default")
	}
}

func TestRenderOverlayRejectsInvalidSize(t *testing.T) {
	if _, err := RenderOverlay(0, 100, "classic"); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := RenderOverlay(100, -1, "classic"); err == nil {
		t.Fatal("expected error for negative height")
	}
}
