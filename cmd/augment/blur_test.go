package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-image-augmentor/internal/errors"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 9, 9))
	img.SetGray(4, 4, color.Gray{Y: 255})
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func writeParams(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBlurParameters(t *testing.T) {
	tests := []struct {
		name     string
		opts     blurOptions
		params   string
		expected interface{}
	}{
		{"flag default", blurOptions{kernel: 3}, "", 3},
		{"explicit flag", blurOptions{kernel: 9, kernelSet: true}, "", 9},
		{"file wins over default flag", blurOptions{kernel: 3}, "kernel: 7\n", 7},
		{"explicit flag wins over file", blurOptions{kernel: 5, kernelSet: true}, "kernel: 7\n", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if tt.params != "" {
				opts.paramsFile = writeParams(t, tt.params)
			}
			params, err := blurParameters(opts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, params["kernel"])
		})
	}
}

func TestBlurParameters_FileWithoutKernel(t *testing.T) {
	params, err := blurParameters(blurOptions{kernel: 3, paramsFile: writeParams(t, "strength: high\n")})
	require.NoError(t, err)
	_, ok := params["kernel"]
	assert.False(t, ok)
}

func TestRunBlur(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()
	input := writePNG(t, in, "dot.png")

	var out bytes.Buffer
	err := runBlur(context.Background(), blurOptions{kernel: 5, outDir: outDir}, []string{input}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ok   "+input)

	blurred, err := imaging.Open(filepath.Join(outDir, "dot_gaussian_blur.png"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 9, 9), blurred.Bounds())
}

func TestRunBlur_PartialFailure(t *testing.T) {
	in := t.TempDir()
	input := writePNG(t, in, "dot.png")

	var out bytes.Buffer
	err := runBlur(context.Background(), blurOptions{kernel: 3, outDir: t.TempDir()},
		[]string{input, filepath.Join(in, "nope.png")}, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, out.String(), "FAIL ")
}

func TestRunBlur_InvalidKernel(t *testing.T) {
	err := runBlur(context.Background(), blurOptions{kernel: 4, outDir: t.TempDir()}, []string{"x.png"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestRunBlur_InvalidFormat(t *testing.T) {
	err := runBlur(context.Background(), blurOptions{kernel: 3, format: "webp", outDir: t.TempDir()}, []string{"x.png"}, &bytes.Buffer{})
	assert.Error(t, err)
}
