package backdrop

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ToneAnalyzer classifies a backdrop as light or dark from its average
// relative luminance. The bitmap is collapsed onto a small square grid
// first, so cost stays flat no matter how large the source image is.
type ToneAnalyzer struct {
	gridSide int
}

// NewToneAnalyzer creates an analyzer sized for the given device class.
func NewToneAnalyzer(device DeviceClass) *ToneAnalyzer {
	return &ToneAnalyzer{gridSide: device.GridSide()}
}

// Classify samples bitmap on the analyzer's grid and returns ToneLight when
// the mean linear luminance exceeds ToneLightThreshold, ToneDark otherwise.
// Anything unsampleable returns ToneUnknown; callers keep the previous tone
// in that case instead of resetting.
func (a *ToneAnalyzer) Classify(bitmap image.Image) ToneClass {
	if bitmap == nil || a.gridSide <= 0 {
		return ToneUnknown
	}
	bounds := bitmap.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return ToneUnknown
	}

	grid := imaging.Resize(bitmap, a.gridSide, a.gridSide, imaging.Box)

	var sum float64
	for y := 0; y < a.gridSide; y++ {
		for x := 0; x < a.gridSide; x++ {
			r, g, b, _ := grid.At(x, y).RGBA()
			sum += relativeLuminance(float64(r)/65535, float64(g)/65535, float64(b)/65535)
		}
	}

	if sum/float64(a.gridSide*a.gridSide) > ToneLightThreshold {
		return ToneLight
	}
	return ToneDark
}

// srgbToLinear converts one gamma encoded sRGB channel to linear light using
// the piecewise transform.
func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// relativeLuminance is the BT.709 weighted sum of the linearized channels.
func relativeLuminance(r, g, b float64) float64 {
	return 0.2126*srgbToLinear(r) + 0.7152*srgbToLinear(g) + 0.0722*srgbToLinear(b)
}
