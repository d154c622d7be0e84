package composer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	watermarkText   = "Made with BoothPix"
	watermarkMargin = 16
	badgePadding    = 8
)

// OverlayTheme parameterizes the live capture overlay.
type OverlayTheme struct {
	Border color.NRGBA
	Accent color.NRGBA
	Scrim  color.NRGBA
	Text   string
}

var overlayThemes = map[string]OverlayTheme{
	"classic": {
		Border: color.NRGBA{255, 255, 255, 230},
		Accent: color.NRGBA{212, 175, 55, 255},
		Scrim:  color.NRGBA{0, 0, 0, 140},
		Text:   "say cheese!",
	},
	"midnight": {
		Border: color.NRGBA{30, 30, 60, 230},
		Accent: color.NRGBA{120, 160, 255, 255},
		Scrim:  color.NRGBA{10, 10, 30, 160},
		Text:   "lights, camera...",
	},
	"blush": {
		Border: color.NRGBA{255, 235, 240, 230},
		Accent: color.NRGBA{240, 120, 160, 255},
		Scrim:  color.NRGBA{60, 20, 35, 130},
		Text:   "strike a pose",
	},
	"forest": {
		Border: color.NRGBA{230, 245, 230, 230},
		Accent: color.NRGBA{70, 160, 90, 255},
		Scrim:  color.NRGBA{10, 35, 20, 140},
		Text:   "smile!",
	},
}

const defaultTheme = "classic"

// ApplyWatermark stamps the branding badge onto the bottom-right of an
// encoded image and returns a PNG. Plan gating happens in the delivery
// pipeline; this function is unconditional.
func ApplyWatermark(buf []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, &CompositionError{Stage: "decode for watermark", Err: err}
	}

	canvas := imaging.Clone(img)

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, watermarkText).Round()
	badgeW := textWidth + 2*badgePadding
	badgeH := face.Height + 2*badgePadding

	// Anchor bottom-right with a fixed margin; on canvases smaller than the
	// badge, pin to the origin instead of going negative.
	b := canvas.Bounds()
	x := b.Max.X - badgeW - watermarkMargin
	y := b.Max.Y - badgeH - watermarkMargin
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	badge := image.Rect(x, y, x+badgeW, y+badgeH)
	draw.Draw(canvas, badge, &image.Uniform{color.NRGBA{0, 0, 0, 150}}, image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x+badgePadding, y+badgePadding+face.Ascent),
	}
	d.DrawString(watermarkText)

	return encodePNG(canvas)
}

// RenderOverlay draws the decorative live-capture frame: border, bottom
// gradient scrim, corner accents and a text badge. Unknown theme names fall
// back to the default palette; the renderer never fails on theme input.
func RenderOverlay(width, height int, theme string) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, &CompositionError{Stage: "overlay bounds", Err: fmt.Errorf("invalid size %dx%d", width, height)}
	}

	t, ok := overlayThemes[theme]
	if !ok {
		t = overlayThemes[defaultTheme]
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))

	const borderW = 6
	drawFrame(canvas, borderW, t.Border)

	// Gradient scrim over the bottom quarter, fading in toward the edge.
	scrimTop := height * 3 / 4
	for yy := scrimTop; yy < height; yy++ {
		alpha := uint8(int(t.Scrim.A) * (yy - scrimTop) / (height - scrimTop))
		row := color.NRGBA{t.Scrim.R, t.Scrim.G, t.Scrim.B, alpha}
		draw.Draw(canvas, image.Rect(0, yy, width, yy+1), &image.Uniform{row}, image.Point{}, draw.Over)
	}

	accentSize := width / 20
	if accentSize < 12 {
		accentSize = 12
	}
	drawCornerAccents(canvas, accentSize, t.Accent)

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, t.Text).Round()
	tx := width - textWidth - watermarkMargin - badgePadding
	ty := height - watermarkMargin - badgePadding
	if tx < 0 {
		tx = 0
	}
	if ty < face.Ascent {
		ty = face.Ascent
	}
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(t.Accent),
		Face: face,
		Dot:  fixed.P(tx, ty),
	}
	d.DrawString(t.Text)

	return encodePNG(canvas)
}

func drawFrame(dst *image.NRGBA, thickness int, c color.NRGBA) {
	b := dst.Bounds()
	src := &image.Uniform{c}
	draw.Draw(dst, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+thickness), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(b.Min.X, b.Max.Y-thickness, b.Max.X, b.Max.Y), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(b.Min.X, b.Min.Y, b.Min.X+thickness, b.Max.Y), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(b.Max.X-thickness, b.Min.Y, b.Max.X, b.Max.Y), src, image.Point{}, draw.Over)
}

func drawCornerAccents(dst *image.NRGBA, size int, c color.NRGBA) {
	b := dst.Bounds()
	src := &image.Uniform{c}
	const arm = 4
	corners := []image.Point{
		{b.Min.X, b.Min.Y},
		{b.Max.X - size, b.Min.Y},
		{b.Min.X, b.Max.Y - size},
		{b.Max.X - size, b.Max.Y - size},
	}
	for i, p := range corners {
		// Each accent is an L shape opening toward the canvas center.
		horiz := image.Rect(p.X, p.Y, p.X+size, p.Y+arm)
		vert := image.Rect(p.X, p.Y, p.X+arm, p.Y+size)
		if i == 1 || i == 3 {
			vert = image.Rect(p.X+size-arm, p.Y, p.X+size, p.Y+size)
		}
		if i == 2 || i == 3 {
			horiz = image.Rect(p.X, p.Y+size-arm, p.X+size, p.Y+size)
		}
		draw.Draw(dst, horiz, src, image.Point{}, draw.Over)
		draw.Draw(dst, vert, src, image.Point{}, draw.Over)
	}
}
