package technique

import (
	"fmt"
	"image"

	"github.com/disintegration/gift"
	"github.com/sirupsen/logrus"

	apperrors "go-image-augmentor/internal/errors"
	"go-image-augmentor/internal/logger"
)

// GaussianBlurName is the registry name of the Gaussian blur technique
const GaussianBlurName = "gaussian_blur"

// GaussianBlur smooths images with a square Gaussian kernel. It never moves
// pixels, so it is a NonAltering technique.
type GaussianBlur struct {
	kernel KernelSize
	matrix []float32
}

var _ NonAltering = (*GaussianBlur)(nil)

// NewGaussianBlur validates params and builds the technique.
func NewGaussianBlur(params BlurParameters) (*GaussianBlur, error) {
	kernel, err := params.KernelSize()
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"technique": GaussianBlurName,
		"kernel":    int(kernel),
		"sigma":     kernel.Sigma(),
	}).Debug("Gaussian blur technique configured")

	return &GaussianBlur{
		kernel: kernel,
		matrix: kernel.Matrix(),
	}, nil
}

// NewGaussianBlurFromMap builds the technique from a loose parameter map.
// Only the "kernel" key is read; when it is absent the kernel defaults to 3.
func NewGaussianBlurFromMap(raw map[string]interface{}) (*GaussianBlur, error) {
	params, err := DecodeBlurParameters(raw)
	if err != nil {
		return nil, err
	}
	return NewGaussianBlur(params)
}

// Name returns the registry name of the technique
func (g *GaussianBlur) Name() string {
	return GaussianBlurName
}

// Kernel returns the effective kernel size
func (g *GaussianBlur) Kernel() KernelSize {
	return g.kernel
}

// NonAltering marks the blur as a pixel-value-only transform
func (g *GaussianBlur) NonAltering() {}

func (g *GaussianBlur) String() string {
	return fmt.Sprintf("GaussianBlur(%s)", g.kernel)
}

// Apply returns a blurred copy of img with the same bounds. Borders are
// extended by reflection before convolving so edge pixels see a full window.
//
// Colour is convolved on non-premultiplied values, alpha separately. A solid
// colour therefore keeps its hue next to more transparent pixels instead of
// being darkened toward them. Opaque images are unaffected by this choice.
func (g *GaussianBlur) Apply(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, apperrors.NewInvalidImageError("image is nil", nil)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, apperrors.NewInvalidImageError(
			fmt.Sprintf("image has empty bounds %v", bounds), nil)
	}

	format := formatOf(img)
	radius := g.kernel.Radius()
	padded := padReflect101(img, format, radius)

	filter := gift.New(
		gift.Convolution(g.matrix, false, true, false, 0),
		gift.Crop(image.Rect(radius, radius, radius+bounds.Dx(), radius+bounds.Dy())),
	)

	dst := format.newImage(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	filter.Draw(dst, padded)

	return translate(dst, bounds.Min), nil
}
