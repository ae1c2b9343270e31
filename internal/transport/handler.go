package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-image-augmentor/internal/config"
	apperrors "go-image-augmentor/internal/errors"
	"go-image-augmentor/internal/factory"
	"go-image-augmentor/internal/logger"
	"go-image-augmentor/internal/service"
	"go-image-augmentor/internal/storage"
	"go-image-augmentor/internal/technique"
	"go-image-augmentor/pkg/models"
)

// Response headers describing the augmentation
const (
	HeaderTechnique       = "X-Technique"
	HeaderKernelSize      = "X-Kernel-Size"
	HeaderSharpnessBefore = "X-Sharpness-Before"
	HeaderSharpnessAfter  = "X-Sharpness-After"
	HeaderProcessingTime  = "X-Processing-Time-Ms"
)

// NewHandler builds the HTTP API. metrics may be nil, in which case /metrics is not served.
func NewHandler(svc service.AugmentationService, techniques factory.TechniqueFactory, metrics http.Handler, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/techniques", listTechniques(techniques))
	r.POST("/augment/blur", augment(svc, cfg, technique.GaussianBlurName))
	r.POST("/augment/:technique", augment(svc, cfg, ""))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}

// augment serves the named technique, or the :technique path parameter when name is empty
func augment(svc service.AugmentationService, cfg *config.Config, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		techniqueName := name
		if techniqueName == "" {
			techniqueName = c.Param("technique")
		}

		var req models.AugmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		formatName := req.Format
		if formatName == "" {
			formatName = cfg.OutputFormat
		}
		format, err := storage.ParseFormat(formatName)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid output format", err)
			return
		}

		params := req.Parameters
		if techniqueName == technique.GaussianBlurName {
			params = withDefaultKernel(params, cfg)
		}

		result, err := svc.Augment(ctx, techniqueName, req.URL, params)
		if err != nil {
			respondError(c, determineStatusCode(err), fmt.Sprintf("%s failed", techniqueName), err)
			return
		}

		var buf bytes.Buffer
		if err := storage.EncodeImage(&buf, result.Image, format); err != nil {
			respondError(c, http.StatusInternalServerError, "failed to encode image", err)
			return
		}

		c.Header(HeaderTechnique, result.Technique.Name())
		if blur, ok := result.Technique.(*technique.GaussianBlur); ok {
			c.Header(HeaderKernelSize, strconv.Itoa(int(blur.Kernel())))
		}
		c.Header(HeaderSharpnessBefore, strconv.FormatFloat(result.Smoothing.SharpnessBefore, 'f', 2, 64))
		c.Header(HeaderSharpnessAfter, strconv.FormatFloat(result.Smoothing.SharpnessAfter, 'f', 2, 64))
		c.Header(HeaderProcessingTime, strconv.FormatInt(result.ProcessingTime.Milliseconds(), 10))

		logger.WithFields(logrus.Fields{
			"url":                req.URL,
			"technique":          techniqueName,
			"format":             format.String(),
			"bytes":              buf.Len(),
			"processing_time_ms": result.ProcessingTime.Milliseconds(),
		}).Info("Augmentation request completed")

		c.Data(http.StatusOK, storage.ContentType(format), buf.Bytes())
	}
}

// withDefaultKernel fills in the server's default kernel when the request omits it
func withDefaultKernel(params map[string]interface{}, cfg *config.Config) map[string]interface{} {
	if _, ok := params[technique.KernelKey]; ok {
		return params
	}
	merged := cfg.DefaultParameters()
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

func listTechniques(techniques factory.TechniqueFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.TechniquesResponse{Techniques: []models.TechniqueInfo{}}
		for _, name := range techniques.Names() {
			t, err := techniques.CreateTechnique(name, nil)
			if err != nil {
				logger.WithError(err).WithField("technique", name).Warn("Technique has no usable defaults")
				continue
			}
			resp.Techniques = append(resp.Techniques, models.TechniqueInfo{
				Name:           name,
				AltersGeometry: technique.AltersGeometry(t),
				Defaults:       fmt.Sprint(t),
			})
		}
		c.JSON(http.StatusOK, resp)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "available",
		Version: "1.0.0",
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"user_agent":  c.Request.UserAgent(),
			"ip":          c.ClientIP(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Type = string(appErr.Type)
	}
	c.AbortWithStatusJSON(code, resp)
}
