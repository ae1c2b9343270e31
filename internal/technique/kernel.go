package technique

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "go-image-augmentor/internal/errors"
)

// KernelSize is the side length of the square smoothing window.
type KernelSize int

const (
	Kernel3  KernelSize = 3
	Kernel5  KernelSize = 5
	Kernel7  KernelSize = 7
	Kernel9  KernelSize = 9
	Kernel11 KernelSize = 11

	// DefaultKernelSize is used when no kernel parameter is given
	DefaultKernelSize = Kernel3
)

// SupportedKernelSizes lists every accepted kernel size in ascending order
var SupportedKernelSizes = []KernelSize{Kernel3, Kernel5, Kernel7, Kernel9, Kernel11}

// Binomial approximations used for small kernels when sigma is derived
// automatically. Larger kernels sample the Gaussian directly.
var smallGaussianTables = map[KernelSize][]float64{
	Kernel3: {0.25, 0.5, 0.25},
	Kernel5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	Kernel7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// ParseKernelSize validates k against the supported set.
func ParseKernelSize(k int) (KernelSize, error) {
	for _, supported := range SupportedKernelSizes {
		if KernelSize(k) == supported {
			return supported, nil
		}
	}
	return 0, apperrors.NewConfigurationError(
		fmt.Sprintf("invalid value for kernel: %d (supported: %s)", k, supportedList()),
		nil,
	)
}

// Radius is the number of pixels on each side of the center pixel
func (k KernelSize) Radius() int {
	return int(k) / 2
}

// Sigma returns the standard deviation derived from the kernel extent
func (k KernelSize) Sigma() float64 {
	return 0.3*((float64(k)-1)*0.5-1) + 0.8
}

// Weights returns the normalized one-dimensional Gaussian kernel.
func (k KernelSize) Weights() []float64 {
	if table, ok := smallGaussianTables[k]; ok {
		weights := make([]float64, len(table))
		copy(weights, table)
		return weights
	}

	size := int(k)
	sigma := k.Sigma()
	center := k.Radius()
	weights := make([]float64, size)
	sum := 0.0
	for i := 0; i < size; i++ {
		x := float64(i - center)
		weights[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// Matrix returns the row-major k×k kernel, the outer product of Weights.
func (k KernelSize) Matrix() []float32 {
	weights := k.Weights()
	size := len(weights)
	matrix := make([]float32, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			matrix[y*size+x] = float32(weights[y] * weights[x])
		}
	}
	return matrix
}

func (k KernelSize) String() string {
	return fmt.Sprintf("%dx%d", int(k), int(k))
}

func supportedList() string {
	parts := make([]string, len(SupportedKernelSizes))
	for i, k := range SupportedKernelSizes {
		parts[i] = strconv.Itoa(int(k))
	}
	return strings.Join(parts, ", ")
}
