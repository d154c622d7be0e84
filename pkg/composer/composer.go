package composer

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Defaults for the composition canvas and for foregrounds whose intrinsic
// dimensions cannot be read (portrait booth shots).
const (
	DefaultCanvasWidth  = 1920
	DefaultCanvasHeight = 1080

	fallbackForegroundWidth  = 800
	fallbackForegroundHeight = 1200
)

// Transform positions a foreground cutout on the canvas.
type Transform struct {
	Scale   float64
	OffsetX int
	OffsetY int
}

// DefaultTransform centers the foreground at its intrinsic size.
func DefaultTransform() Transform {
	return Transform{Scale: 1}
}

// CompositionError marks malformed input buffers. The compositor never emits
// a blank canvas for undecodable input.
type CompositionError struct {
	Stage string
	Err   error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("composition failed at %s: %v", e.Stage, e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

// Compose layers a foreground cutout over a background, both given as encoded
// image buffers, and returns a lossless PNG of the result.
//
// The background is cover-fitted to the canvas: it fills the whole canvas and
// overflow is center-cropped, never letterboxed. The foreground is scaled by
// t.Scale around its intrinsic size, centered, displaced by the offsets, and
// its top-left corner is clamped to stay non-negative on both axes.
func Compose(foreground, background []byte, t Transform, canvasW, canvasH int) ([]byte, error) {
	if canvasW <= 0 || canvasH <= 0 {
		canvasW, canvasH = DefaultCanvasWidth, DefaultCanvasHeight
	}
	if t.Scale <= 0 {
		t.Scale = 1
	}

	bg, err := imaging.Decode(bytes.NewReader(background))
	if err != nil {
		return nil, &CompositionError{Stage: "decode background", Err: err}
	}

	fg, err := imaging.Decode(bytes.NewReader(foreground))
	if err != nil {
		return nil, &CompositionError{Stage: "decode foreground", Err: err}
	}

	canvas := imaging.Fill(bg, canvasW, canvasH, imaging.Center, imaging.Lanczos)

	fgW := fg.Bounds().Dx()
	fgH := fg.Bounds().Dy()
	if fgW <= 0 || fgH <= 0 {
		fgW, fgH = fallbackForegroundWidth, fallbackForegroundHeight
	}

	scaledW := int(float64(fgW) * t.Scale)
	scaledH := int(float64(fgH) * t.Scale)
	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}
	if scaledW != fgW || scaledH != fgH {
		fg = imaging.Resize(fg, scaledW, scaledH, imaging.Lanczos)
	}

	x := (canvasW-scaledW)/2 + t.OffsetX
	y := (canvasH-scaledH)/2 + t.OffsetY
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	out := imaging.Overlay(canvas, fg, image.Pt(x, y), 1.0)

	return encodePNG(out)
}

// ResizeToFit scales an image down to fit within maxW x maxH, preserving
// aspect ratio. Images already inside the box are returned unresized, so the
// operation is idempotent at fixed bounds.
func ResizeToFit(buf []byte, maxW, maxH int) ([]byte, error) {
	if maxW <= 0 || maxH <= 0 {
		return nil, &CompositionError{Stage: "resize bounds", Err: fmt.Errorf("invalid bounds %dx%d", maxW, maxH)}
	}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, &CompositionError{Stage: "decode", Err: err}
	}

	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return buf, nil
	}

	fitted := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	return encodePNG(fitted)
}

// Dimensions reads the intrinsic size of an encoded image without a full
// decode.
func Dimensions(buf []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return 0, 0, &CompositionError{Stage: "decode config", Err: err}
	}
	return cfg.Width, cfg.Height, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.PNG); err != nil {
		return nil, &CompositionError{Stage: "encode", Err: err}
	}
	return out.Bytes(), nil
}
