package technique

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	apperrors "go-image-augmentor/internal/errors"
)

// KernelKey is the only parameter key consulted by the blur technique
const KernelKey = "kernel"

// BlurParameters configures the Gaussian blur technique.
type BlurParameters struct {
	// Kernel is the square kernel extent; nil selects DefaultKernelSize
	Kernel *int `mapstructure:"kernel" yaml:"kernel,omitempty" json:"kernel,omitempty"`
}

// WithKernel returns parameters with an explicit kernel size
func WithKernel(k int) BlurParameters {
	return BlurParameters{Kernel: &k}
}

// KernelSize resolves and validates the configured kernel.
func (p BlurParameters) KernelSize() (KernelSize, error) {
	if p.Kernel == nil {
		return DefaultKernelSize, nil
	}
	return ParseKernelSize(*p.Kernel)
}

// DecodeBlurParameters converts a loose parameter map, as read from YAML,
// JSON or a request body, into BlurParameters. Unrelated keys are ignored.
// A kernel key that is present but not an integer is an error; it never
// falls back to the default.
func DecodeBlurParameters(raw map[string]interface{}) (BlurParameters, error) {
	var params BlurParameters

	value, present := raw[KernelKey]
	if present && value == nil {
		return params, apperrors.NewConfigurationError("invalid value for kernel: <nil>", nil)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncKind(integralNumberHook),
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return mapKey == fieldName
		},
		Result: &params,
	})
	if err != nil {
		return params, apperrors.NewInternalError("failed to create parameter decoder", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return BlurParameters{}, apperrors.NewConfigurationError(
			fmt.Sprintf("invalid value for kernel: %v", value), err)
	}
	return params, nil
}

// integralNumberHook rejects floats with a fractional part before they are
// truncated into integer fields, and parses strings as base-10 integers so a
// leading zero or a 0x prefix never changes the value.
func integralNumberHook(from, to reflect.Kind, data interface{}) (interface{}, error) {
	if to != reflect.Int {
		return data, nil
	}
	switch from {
	case reflect.Float32, reflect.Float64:
		f := reflect.ValueOf(data).Float()
		if math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer", data)
		}
	case reflect.String:
		n, err := strconv.Atoi(strings.TrimSpace(reflect.ValueOf(data).String()))
		if err != nil {
			return nil, fmt.Errorf("%q is not a base-10 integer", data)
		}
		return n, nil
	}
	return data, nil
}
