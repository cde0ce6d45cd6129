package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "go-ela-inspector/internal/errors"
	"go-ela-inspector/internal/logger"
	"go-ela-inspector/internal/observer"
	"go-ela-inspector/internal/service"
	"go-ela-inspector/pkg/models"
)

// uploadField is the multipart field carrying the image
const uploadField = "image"

// Version is reported by the health endpoint
const Version = "1.0.0"

// HandlerOptions configures the HTTP layer
type HandlerOptions struct {
	MaxRequestBodySize int64
	RequestTimeout     time.Duration
}

type handler struct {
	service service.AnalysisService
	metrics *observer.MetricsObserver
	opts    HandlerOptions
}

// NewHandler builds the gin engine serving the analysis API
func NewHandler(svc service.AnalysisService, metrics *observer.MetricsObserver, opts HandlerOptions) http.Handler {
	h := &handler{service: svc, metrics: metrics, opts: opts}

	r := gin.New()
	r.Use(
		recovery(),
		requestID(),
		requestLogger(),
		cors(),
		requestSizeLimiter(opts.MaxRequestBodySize),
	)

	r.GET("/health", h.healthCheck)
	r.GET("/metrics", h.getMetrics)
	r.POST("/analyze", h.analyzeUpload)

	return r
}

func (h *handler) analyzeUpload(c *gin.Context) {
	ctx := c.Request.Context()
	if h.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.RequestTimeout)
		defer cancel()
	}

	requestID := c.GetString(requestIDKey)

	if limit := h.opts.MaxRequestBodySize; limit > 0 && c.Request.ContentLength > limit {
		h.reject(c, requestID, "", apperrors.NewTooLargeError(fmt.Sprintf("Request body exceeds %d bytes", limit), nil))
		return
	}

	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(c, requestID, "", apperrors.NewTooLargeError("Request body too large", err))
			return
		}
		h.reject(c, requestID, "", apperrors.NewValidationError("No image provided", err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.reject(c, requestID, fileHeader.Filename, apperrors.NewValidationError("Uploaded file could not be read", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.reject(c, requestID, fileHeader.Filename, apperrors.NewValidationError("Uploaded file could not be read", err))
		return
	}

	logger.ForRequest(requestID).WithFields(logrus.Fields{
		"filename": fileHeader.Filename,
		"bytes":    len(data),
	}).Debug("Received upload")

	resp, err := h.service.AnalyzeUpload(ctx, service.UploadRequest{
		RequestID: requestID,
		Filename:  fileHeader.Filename,
		Data:      data,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reject answers an upload refused before analysis and records it
func (h *handler) reject(c *gin.Context, requestID, filename string, err error) {
	h.service.RejectUpload(c.Request.Context(), service.UploadRequest{
		RequestID: requestID,
		Filename:  filename,
	}, err)
	respondError(c, err)
}

func (h *handler) healthCheck(c *gin.Context) {
	resp := models.HealthResponse{
		Status:    "available",
		Version:   Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	summary, err := h.service.ModelSummary()
	if err != nil {
		resp.Status = "unavailable"
		c.JSON(apperrors.GetStatusCode(err), resp)
		return
	}
	resp.Model = summary
	c.JSON(http.StatusOK, resp)
}

func (h *handler) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetMetrics())
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
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {error, message}. Internal causes are logged, never returned.
func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	message := http.StatusText(code)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	entry := logger.ForRequest(c.GetString(requestIDKey)).WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	})
}
