package backdrop

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradientImage gives smartcrop some structure to score.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(255 * x / w),
				G: uint8(255 * y / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func fitInput(img image.Image, contentType string) *LoadResult {
	return NewLoadResult(img, []byte{0x1}, contentType, "test://img", "test")
}

func TestFitPassesThroughSmallImages(t *testing.T) {
	p := newProcessor(DefaultTuningConfig(), nil)
	in := fitInput(gradientImage(800, 600), "image/jpeg")

	out, err := p.Fit(context.Background(), in, 1920, 1080, false)
	require.NoError(t, err)
	assert.Same(t, in, out, "an undersized image is left for the client to stretch")
}

func TestFitResizesMatchingAspect(t *testing.T) {
	p := newProcessor(DefaultTuningConfig(), nil)
	in := fitInput(gradientImage(3840, 2160), "image/jpeg")

	out, err := p.Fit(context.Background(), in, 1920, 1080, false)
	require.NoError(t, err)
	assert.Equal(t, 1920, out.Bitmap.Bounds().Dx())
	assert.Equal(t, 1080, out.Bitmap.Bounds().Dy())
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.NotEqual(t, in.Bytes, out.Bytes, "resized pixels must be re-encoded")
	assert.Equal(t, in.ID, out.ID, "fitting keeps the load identity")
	assert.Equal(t, in.SourceURL, out.SourceURL)
}

func TestFitCropsMismatchedAspect(t *testing.T) {
	p := newProcessor(DefaultTuningConfig(), nil)
	in := fitInput(gradientImage(2560, 1440), "image/jpeg")

	out, err := p.Fit(context.Background(), in, 1920, 1200, false)
	require.NoError(t, err)
	assert.Equal(t, 1920, out.Bitmap.Bounds().Dx())
	assert.Equal(t, 1200, out.Bitmap.Bounds().Dy())
}

func TestFitSkipsExtremeAspectMismatch(t *testing.T) {
	p := newProcessor(DefaultTuningConfig(), nil)
	in := fitInput(gradientImage(2500, 1000), "image/jpeg")

	// Aspect gap beyond the threshold; cropping would discard too much.
	out, err := p.Fit(context.Background(), in, 1000, 900, false)
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestFitKeepsPNGEncoding(t *testing.T) {
	p := newProcessor(DefaultTuningConfig(), nil)
	in := fitInput(gradientImage(3840, 2160), "image/png")

	out, err := p.Fit(context.Background(), in, 1920, 1080, false)
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
}

func TestFitHonorsCancellation(t *testing.T) {
	p := newProcessor(DefaultTuningConfig(), nil)
	in := fitInput(gradientImage(3840, 2160), "image/jpeg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := p.Fit(ctx, in, 1920, 1080, false)
	if err == nil {
		// The resize may have finished before the cancellation was seen;
		// either outcome is acceptable, but not a torn result.
		require.NotNil(t, out)
		assert.Equal(t, 1920, out.Bitmap.Bounds().Dx())
	}
}

func TestFitNoopDimensions(t *testing.T) {
	p := newProcessor(DefaultTuningConfig(), nil)
	in := fitInput(gradientImage(1920, 1080), "image/jpeg")

	out, err := p.Fit(context.Background(), in, 1920, 1080, false)
	require.NoError(t, err)
	assert.Same(t, in, out, "an exact match needs no work")

	out, err = p.Fit(context.Background(), in, 0, 0, false)
	require.NoError(t, err)
	assert.Same(t, in, out)
}
