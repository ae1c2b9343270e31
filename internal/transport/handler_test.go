package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-image-augmentor/internal/config"
	"go-image-augmentor/internal/factory"
	"go-image-augmentor/internal/observer"
	"go-image-augmentor/internal/repository"
	"go-image-augmentor/internal/service"
	"go-image-augmentor/internal/storage"
	"go-image-augmentor/internal/technique"
	"go-image-augmentor/pkg/models"
)

type stubFetcher struct {
	img image.Image
	err error
}

func (f *stubFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	return f.img, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  5 * time.Second,
		MaxRequestBodySize: 1024,
		DefaultKernel:      technique.Kernel3,
		OutputFormat:       "png",
	}
}

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 6))
	for y := 0; y < 6; y++ {
		img.SetNRGBA(4, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return img
}

func newTestHandler(fetcher *stubFetcher, cfg *config.Config, metrics *observer.MetricsObserver) http.Handler {
	gin.SetMode(gin.TestMode)
	techniques := factory.NewTechniqueFactory()
	repo := repository.NewImageRepository(fetcher, nil, nil)

	var publisher observer.Subject
	var metricsHandler http.Handler
	if metrics != nil {
		p := observer.NewEventPublisher()
		p.Subscribe(metrics)
		publisher = p
		metricsHandler = metrics.Handler()
	}

	svc := service.NewAugmentationService(repo, techniques, publisher)
	return NewHandler(svc, techniques, metricsHandler, cfg)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(&stubFetcher{}, testConfig(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "available", resp.Status)
}

func TestListTechniques(t *testing.T) {
	h := newTestHandler(&stubFetcher{}, testConfig(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/techniques", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.TechniquesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Techniques, 1)
	assert.Equal(t, technique.GaussianBlurName, resp.Techniques[0].Name)
	assert.False(t, resp.Techniques[0].AltersGeometry)
	assert.Equal(t, "GaussianBlur(3x3)", resp.Techniques[0].Defaults)
}

func TestAugmentBlur_Success(t *testing.T) {
	h := newTestHandler(&stubFetcher{img: testImage()}, testConfig(), nil)

	rec := postJSON(t, h, "/augment/blur", `{"url":"https://example.com/a.png","parameters":{"kernel":7}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "7", rec.Header().Get(HeaderKernelSize))
	assert.Equal(t, technique.GaussianBlurName, rec.Header().Get(HeaderTechnique))
	assert.NotEmpty(t, rec.Header().Get(HeaderSharpnessBefore))

	decoded, err := storage.DecodeImage(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 6), decoded.Bounds())
}

func TestAugmentBlur_DefaultKernelFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultKernel = technique.Kernel9
	h := newTestHandler(&stubFetcher{img: testImage()}, cfg, nil)

	rec := postJSON(t, h, "/augment/blur", `{"url":"https://example.com/a.png","format":"jpeg"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "9", rec.Header().Get(HeaderKernelSize))
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	rec = postJSON(t, h, "/augment/blur", `{"url":"https://example.com/a.png","parameters":{"kernel":5}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "5", rec.Header().Get(HeaderKernelSize))
}

func TestAugmentByName(t *testing.T) {
	h := newTestHandler(&stubFetcher{img: testImage()}, testConfig(), nil)

	rec := postJSON(t, h, "/augment/gaussian_blur", `{"url":"https://example.com/a.png"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get(HeaderKernelSize))

	rec = postJSON(t, h, "/augment/mosaic", `{"url":"https://example.com/a.png"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAugmentBlur_Errors(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		fetcher      *stubFetcher
		expectedCode int
		expectedType string
	}{
		{"malformed json", `{"url":`, &stubFetcher{}, http.StatusBadRequest, ""},
		{"missing url", `{}`, &stubFetcher{}, http.StatusBadRequest, ""},
		{"bad format", `{"url":"https://example.com/a.png","format":"webp"}`, &stubFetcher{}, http.StatusBadRequest, ""},
		{"bad kernel", `{"url":"https://example.com/a.png","parameters":{"kernel":4}}`, &stubFetcher{img: testImage()}, http.StatusBadRequest, "configuration"},
		{"null kernel", `{"url":"https://example.com/a.png","parameters":{"kernel":null}}`, &stubFetcher{img: testImage()}, http.StatusBadRequest, "configuration"},
		{"scheme", `{"url":"ftp://example.com/a.png"}`, &stubFetcher{}, http.StatusBadRequest, "validation"},
		{"fetch failure", `{"url":"https://example.com/a.png"}`, &stubFetcher{err: assert.AnError}, http.StatusBadGateway, "network"},
		{"empty image", `{"url":"https://example.com/a.png"}`, &stubFetcher{img: image.NewGray(image.Rectangle{})}, http.StatusUnprocessableEntity, "invalid_image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(tt.fetcher, testConfig(), nil)
			rec := postJSON(t, h, "/augment/blur", tt.body)

			assert.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedType, resp.Type)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestAugmentBlur_BodyTooLarge(t *testing.T) {
	h := newTestHandler(&stubFetcher{img: testImage()}, testConfig(), nil)
	body := `{"url":"https://example.com/a.png","parameters":{"padding":"` + strings.Repeat("x", 2048) + `"}}`

	rec := postJSON(t, h, "/augment/blur", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observer.NewMetricsObserver()
	h := newTestHandler(&stubFetcher{img: testImage()}, testConfig(), metrics)

	rec := postJSON(t, h, "/augment/blur", `{"url":"https://example.com/a.png"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		return rec.Code == http.StatusOK &&
			strings.Contains(rec.Body.String(), `image_augmentor_augmentations_total{outcome="success",technique="gaussian_blur"} 1`)
	}, time.Second, 10*time.Millisecond)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	h := newTestHandler(&stubFetcher{}, testConfig(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
