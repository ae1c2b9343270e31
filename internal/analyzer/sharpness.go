package analyzer

import (
	"image"
	"image/draw"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// SmoothingReport compares an image before and after augmentation
type SmoothingReport struct {
	SharpnessBefore  float64 `json:"sharpness_before"`
	SharpnessAfter   float64 `json:"sharpness_after"`
	BrightnessBefore float64 `json:"brightness_before"`
	BrightnessAfter  float64 `json:"brightness_after"`
}

// Reduction returns the fraction of Laplacian variance removed, in [0, 1] for a smoothing pass
func (r SmoothingReport) Reduction() float64 {
	if r.SharpnessBefore == 0 {
		return 0
	}
	return 1 - r.SharpnessAfter/r.SharpnessBefore
}

// CompareSharpness measures both images
func CompareSharpness(before, after image.Image) SmoothingReport {
	grayBefore, grayAfter := ToGray(before), ToGray(after)
	return SmoothingReport{
		SharpnessBefore:  LaplacianVariance(grayBefore),
		SharpnessAfter:   LaplacianVariance(grayAfter),
		BrightnessBefore: Brightness(grayBefore),
		BrightnessAfter:  Brightness(grayAfter),
	}
}

// Sharpness returns the variance of the Laplacian of img's luminance.
// Higher values mean more high-frequency detail.
func Sharpness(img image.Image) float64 {
	return LaplacianVariance(ToGray(img))
}

// ToGray converts img to grayscale, reusing it when it already is
func ToGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

var laplacianPool = sync.Pool{
	New: func() interface{} {
		return make([]float64, 0, 1024)
	},
}

// LaplacianVariance applies the 4-neighbour Laplacian [0 1 0; 1 -4 1; 0 1 0]
// to the interior pixels and returns the variance of the response.
func LaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := laplacianPool.Get().([]float64)[:0]
	defer func() { laplacianPool.Put(data[:0]) }()

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	return stat.Variance(data, nil)
}

// Brightness returns the mean luminance in [0, 255]
func Brightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	if bounds.Empty() {
		return 0
	}

	values := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			values = append(values, float64(gray.GrayAt(x, y).Y))
		}
	}
	return stat.Mean(values, nil)
}
