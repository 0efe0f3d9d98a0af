package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-raffle-images/internal/config"
	apperrors "go-raffle-images/internal/errors"
	"go-raffle-images/internal/logger"
	"go-raffle-images/internal/service"
	"go-raffle-images/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	userKey     = "userID"
	uploadField = "files"
	version     = "1.0.0"
)

func NewHandler(svc service.ImageService, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/blobs/:key", getBlob(svc, cfg))

	api := r.Group("/api", authenticate())
	api.GET("/images", listOwnerImages(svc, cfg))
	api.POST("/images", uploadImages(svc, cfg))
	api.DELETE("/images/:id", deleteImage(svc, cfg))
	api.GET("/images/raffle/:id", listRaffleImages(svc, cfg))
	api.PUT("/images/raffle/:id", saveImageOrder(svc, cfg))

	r.NoRoute(func(c *gin.Context) {
		respondEnvelope(c, models.NewError(http.StatusNotFound, models.CodeNotFound, "Route not found"))
	})

	return r
}

func listOwnerImages(svc service.ImageService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		images, err := svc.ListForOwner(ctx, c.GetString(userKey))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewSuccess("Images retrieved", &models.ImagesPayload{Images: images}))
	}
}

func listRaffleImages(svc service.ImageService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raffleID, ok := pathID(c, "Invalid raffle id")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		images, err := svc.ListForRaffle(ctx, raffleID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewSuccess("Images retrieved", &models.ImagesPayload{Images: images}))
	}
}

func uploadImages(svc service.ImageService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		form, err := c.MultipartForm()
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondEnvelope(c, models.NewError(http.StatusRequestEntityTooLarge, models.CodeBadRequest, "Request body too large"))
				return
			}
			respondError(c, apperrors.NewInvalidInputError("Invalid multipart form", err.Error()))
			return
		}
		defer form.RemoveAll()

		files := make([]service.UploadFile, 0, len(form.File[uploadField]))
		for _, fh := range form.File[uploadField] {
			f, err := fh.Open()
			if err != nil {
				respondError(c, apperrors.NewInvalidInputError("Unreadable upload", err.Error()))
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				respondError(c, apperrors.NewInvalidInputError("Unreadable upload", err.Error()))
				return
			}
			files = append(files, service.UploadFile{
				Name:         fh.Filename,
				DeclaredType: fh.Header.Get("Content-Type"),
				Data:         data,
			})
		}

		images, err := svc.Upload(ctx, c.GetString(userKey), files)
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"count":              len(images),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Debug("Upload request completed")

		c.JSON(http.StatusCreated, models.NewSuccess("Images uploaded", &models.ImagesPayload{Images: images}))
	}
}

func deleteImage(svc service.ImageService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		imageID, ok := pathID(c, "Invalid image id")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		if err := svc.Delete(ctx, c.GetString(userKey), imageID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewSuccess[struct{}]("Image deleted", nil))
	}
}

func saveImageOrder(svc service.ImageService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raffleID, ok := pathID(c, "Invalid raffle id")
		if !ok {
			return
		}

		var req models.SaveOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewInvalidInputError("Invalid request format", err.Error()))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		images, err := svc.SaveOrder(ctx, c.GetString(userKey), raffleID, req.Images)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewSuccess("Image order saved", &models.ImagesPayload{Images: images}))
	}
}

func getBlob(svc service.ImageService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		data, contentType, err := svc.Blob(ctx, c.Param("key"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Data(http.StatusOK, contentType, data)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "available",
		Version: version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions

// authenticate maps "Authorization: Bearer <user>" to the caller's user id
func authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			respondEnvelope(c, models.NewError(http.StatusUnauthorized, models.CodeUnauthorized, "Authentication required"))
			return
		}
		c.Set(userKey, token)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(startTime).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Info("Request handled")
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
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func pathID(c *gin.Context, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperrors.NewInvalidInputError(message, c.Param("id")))
		return 0, false
	}
	return id, true
}

// respondError renders err as an error envelope
func respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("unexpected error", err)
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": apperrors.GetStatusCode(appErr),
		"error_type":  appErr.Type,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Warn("Request failed")

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		env := models.ValidationErrorEnvelope{ErrorEnvelope: *appErr.Envelope, Errors: appErr.Fields}
		c.AbortWithStatusJSON(env.StatusCode, env)
	case apperrors.ErrorTypeInvalidInput:
		respondEnvelope(c, models.NewError(http.StatusBadRequest, models.CodeBadRequest, appErr.Message))
	case apperrors.ErrorTypeNotFound:
		respondEnvelope(c, models.NewError(http.StatusNotFound, models.CodeNotFound, appErr.Message))
	case apperrors.ErrorTypeForbidden:
		respondEnvelope(c, models.NewError(http.StatusForbidden, models.CodeForbidden, appErr.Message))
	default:
		// internal details stay in the log
		respondEnvelope(c, models.NewError(http.StatusInternalServerError, models.CodeServer, "Internal server error"))
	}
}

func respondEnvelope(c *gin.Context, env models.ErrorEnvelope) {
	c.AbortWithStatusJSON(env.StatusCode, env)
}
