package backdrop

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"github.com/muesli/smartcrop"
)

// processor fits fetched backdrops to the viewport. Images whose aspect
// ratio is close to the viewport's are resized; images that differ get a
// content aware crop, optionally nudged to keep the strongest detected face
// in frame. Images too far off aspect pass through untouched and the client
// cover-fits them.
type processor struct {
	tuning    TuningConfig
	resampler imaging.ResampleFilter
	detector  *pigo.Pigo // nil disables face boost
}

func newProcessor(tuning TuningConfig, detector *pigo.Pigo) *processor {
	return &processor{
		tuning:    tuning,
		resampler: imaging.Lanczos,
		detector:  detector,
	}
}

// Fit returns res fitted to width x height. The returned result keeps the
// id and source of the input; bytes are re-encoded only when pixels changed.
func (p *processor) Fit(ctx context.Context, res *LoadResult, width, height int, faceBoost bool) (*LoadResult, error) {
	img := res.Bitmap
	imgW, imgH := img.Bounds().Dx(), img.Bounds().Dy()
	if width <= 0 || height <= 0 || imgW <= 0 || imgH <= 0 {
		return res, nil
	}
	if imgW == width && imgH == height {
		return res, nil
	}
	if imgW < width || imgH < height {
		// Too small to crop or downscale. The client stretches it.
		return res, nil
	}

	viewAspect := float64(width) / float64(height)
	imgAspect := float64(imgW) / float64(imgH)
	aspectDiff := math.Abs(viewAspect - imgAspect)

	var fitted image.Image
	switch {
	case aspectDiff > p.tuning.AspectThreshold:
		// Cropping away this much would gut the image.
		return res, nil
	case imgAspect == viewAspect:
		fitted = p.resizeWithContext(ctx, img, width, height)
	default:
		cropped, err := p.crop(ctx, img, width, height, faceBoost)
		if err != nil {
			return nil, fmt.Errorf("cropping backdrop: %w", err)
		}
		fitted = cropped
	}
	if fitted == nil {
		return nil, ctx.Err()
	}

	raw, contentType, err := p.encode(fitted, res.ContentType)
	if err != nil {
		return nil, err
	}

	out := *res
	out.Bitmap = fitted
	out.Bytes = raw
	out.ContentType = contentType
	return &out, nil
}

// encode re-encodes a fitted bitmap. PNG input stays PNG; everything else
// becomes JPEG at the tuned quality.
func (p *processor) encode(img image.Image, contentType string) ([]byte, string, error) {
	var buf bytes.Buffer
	if contentType == "image/png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encoding backdrop: %w", err)
		}
		return buf.Bytes(), contentType, nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.tuning.EncodingQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding backdrop: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// crop finds the most interesting viewport shaped window and cuts it out.
func (p *processor) crop(ctx context.Context, img image.Image, width, height int, faceBoost bool) (image.Image, error) {
	r := &resizer{resampler: p.resampler}
	analyzer := smartcrop.NewAnalyzer(r)

	// FindBestCrop has no context support, so run it in a goroutine and
	// race it against cancellation.
	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult, 1)

	go func() {
		topCrop, err := analyzer.FindBestCrop(img, width, height)
		resultChan <- cropResult{crop: topCrop, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return nil, fmt.Errorf("finding best crop: %w", result.err)
		}

		rect := result.crop
		if faceBoost && p.detector != nil {
			rect = p.boostFace(img, rect)
		}

		type subImager interface {
			SubImage(r image.Rectangle) image.Image
		}
		si, ok := img.(subImager)
		if !ok {
			return nil, fmt.Errorf("bitmap type %T does not support cropping", img)
		}

		resized := p.resizeWithContext(ctx, si.SubImage(rect), width, height)
		if resized == nil {
			return nil, ctx.Err()
		}
		return resized, nil
	}
}

// boostFace shifts the crop window so the strongest detected face stays in
// frame. The window keeps its size; only its position moves, clamped to the
// image bounds.
func (p *processor) boostFace(img image.Image, rect image.Rectangle) image.Rectangle {
	det, ok := p.bestFace(img)
	if !ok {
		return rect
	}

	face := image.Pt(det.Col, det.Row)
	if face.In(rect) {
		return rect
	}

	dx, dy := 0, 0
	if face.X < rect.Min.X {
		dx = face.X - rect.Min.X
	} else if face.X > rect.Max.X {
		dx = face.X - rect.Max.X
	}
	if face.Y < rect.Min.Y {
		dy = face.Y - rect.Min.Y
	} else if face.Y > rect.Max.Y {
		dy = face.Y - rect.Max.Y
	}

	bounds := img.Bounds()
	shifted := rect.Add(image.Pt(dx, dy))
	if shifted.Min.X < bounds.Min.X {
		shifted = shifted.Add(image.Pt(bounds.Min.X-shifted.Min.X, 0))
	}
	if shifted.Min.Y < bounds.Min.Y {
		shifted = shifted.Add(image.Pt(0, bounds.Min.Y-shifted.Min.Y))
	}
	if shifted.Max.X > bounds.Max.X {
		shifted = shifted.Add(image.Pt(bounds.Max.X-shifted.Max.X, 0))
	}
	if shifted.Max.Y > bounds.Max.Y {
		shifted = shifted.Add(image.Pt(0, bounds.Max.Y-shifted.Max.Y))
	}
	return shifted
}

// bestFace runs the cascade over a grayscale copy of img and returns the
// highest quality clustered detection above the confidence floor.
func (p *processor) bestFace(img image.Image) (pigo.Detection, bool) {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	minSize := min(rows, cols) * p.tuning.FaceDetectMinSizePct / 100
	if minSize < 20 {
		minSize = 20
	}

	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     max(rows, cols),
		ShiftFactor: p.tuning.FaceDetectShift,
		ScaleFactor: p.tuning.FaceScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := p.detector.RunCascade(params, 0.0)
	dets = p.detector.ClusterDetections(dets, p.tuning.FaceIoUThreshold)

	var best pigo.Detection
	found := false
	for _, d := range dets {
		if float64(d.Q) < p.tuning.FaceDetectConfidence {
			continue
		}
		if !found || d.Q > best.Q {
			best = d
			found = true
		}
	}
	return best, found
}

// resizer implements the smartcrop.Resizer interface.
type resizer struct {
	resampler imaging.ResampleFilter
}

// Resize satisfies smartcrop's analyzer; cancellation is handled by the
// callers via resizeWithContext.
func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

// resizeWithContext performs the resize operation with context awareness; it
// returns nil when the context is canceled before the resize finishes.
func (p *processor) resizeWithContext(ctx context.Context, img image.Image, width, height int) image.Image {
	resultChan := make(chan image.Image, 1)

	go func() {
		resultChan <- imaging.Resize(img, width, height, p.resampler)
	}()

	select {
	case <-ctx.Done():
		return nil
	case result := <-resultChan:
		return result
	}
}
