package composer

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// FilterID names a fixed tone/saturation transform. Unknown identifiers fall
// back to FilterNone rather than erroring.
type FilterID string

const (
	FilterNone      FilterID = "none"
	FilterBW        FilterID = "bw"
	FilterWarm      FilterID = "warm"
	FilterCool      FilterID = "cool"
	FilterMatte     FilterID = "matte"
	FilterSoft      FilterID = "soft"
	FilterVintage   FilterID = "vintage"
	FilterGlam      FilterID = "glam"
	FilterNeon      FilterID = "neon"
	FilterDramatic  FilterID = "dramatic"
	FilterCinematic FilterID = "cinematic"
	FilterNoir      FilterID = "noir"
)

var filterTable = map[FilterID]func(image.Image) image.Image{
	FilterBW: func(img image.Image) image.Image {
		return imaging.Grayscale(img)
	},
	FilterWarm: func(img image.Image) image.Image {
		tinted := tint(img, 14, 4, -12)
		return imaging.AdjustSaturation(tinted, 8)
	},
	FilterCool: func(img image.Image) image.Image {
		tinted := tint(img, -12, 2, 14)
		return imaging.AdjustSaturation(tinted, 5)
	},
	FilterMatte: func(img image.Image) image.Image {
		flat := imaging.AdjustContrast(img, -12)
		return imaging.AdjustGamma(flat, 1.08)
	},
	FilterSoft: func(img image.Image) image.Image {
		blurred := imaging.Blur(img, 0.8)
		return imaging.AdjustBrightness(blurred, 4)
	},
	FilterVintage: func(img image.Image) image.Image {
		faded := imaging.AdjustSaturation(img, -35)
		sepia := tint(faded, 18, 8, -10)
		return imaging.AdjustContrast(sepia, -6)
	},
	FilterGlam: func(img image.Image) image.Image {
		vivid := imaging.AdjustSaturation(img, 22)
		crisp := imaging.AdjustContrast(vivid, 10)
		return imaging.Sharpen(crisp, 0.5)
	},
	FilterNeon: func(img image.Image) image.Image {
		vivid := imaging.AdjustSaturation(img, 45)
		return imaging.AdjustContrast(vivid, 18)
	},
	FilterDramatic: func(img image.Image) image.Image {
		hard := imaging.AdjustContrast(img, 28)
		return imaging.AdjustBrightness(hard, -6)
	},
	FilterCinematic: func(img image.Image) image.Image {
		graded := imaging.AdjustSaturation(img, -12)
		teal := tint(graded, -6, 4, 10)
		return imaging.AdjustContrast(teal, 12)
	},
	FilterNoir: func(img image.Image) image.Image {
		gray := imaging.Grayscale(img)
		hard := imaging.AdjustContrast(gray, 22)
		return imaging.AdjustGamma(hard, 0.92)
	},
}

// ApplyFilter runs the named filter over an encoded image and returns a PNG.
// FilterNone and unrecognized identifiers return the input buffer untouched.
func ApplyFilter(buf []byte, id FilterID) ([]byte, error) {
	fn, ok := filterTable[id]
	if !ok {
		return buf, nil
	}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, &CompositionError{Stage: "decode for filter", Err: err}
	}

	return encodePNG(fn(img))
}

// tint shifts each channel by a fixed amount, clamped to [0,255]. Alpha is
// untouched so cutout transparency survives filtering.
func tint(img image.Image, dr, dg, db int) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clampByte(int(c.R) + dr),
			G: clampByte(int(c.G) + dg),
			B: clampByte(int(c.B) + db),
			A: c.A,
		}
	})
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
