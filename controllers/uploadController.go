package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"locallink-be/storage"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for the form framing around the file.
const multipartOverhead = 1 << 20

type UploadController struct {
	// uploader is nil when no object storage is configured.
	uploader *storage.Uploader
	logger   *slog.Logger
}

func NewUploadController(uploader *storage.Uploader, logger *slog.Logger) *UploadController {
	return &UploadController{uploader: uploader, logger: logger}
}

// UploadImage stores the "image" form file and returns its public URL
func (ctl *UploadController) UploadImage(c *gin.Context) {
	if _, ok := identityOrAbort(c); !ok {
		return
	}
	if ctl.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	if limit := ctl.uploader.MaxBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is unreadable"})
		return
	}
	defer file.Close()

	ctx, cancel := requestContext(c)
	defer cancel()

	url, err := ctl.uploader.Upload(ctx, file, header.Size, header.Header.Get("Content-Type"))
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
	case errors.Is(err, storage.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only JPEG, PNG, GIF and WebP images are accepted"})
	case err != nil:
		respondError(c, ctl.logger, err)
	default:
		c.JSON(http.StatusCreated, gin.H{"imageUrl": url})
	}
}
