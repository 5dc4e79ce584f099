package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/timmy/r2gate/internal/config"
	"github.com/timmy/r2gate/internal/domain"
	"github.com/timmy/r2gate/internal/logger"
	"github.com/timmy/r2gate/internal/service"
)

const (
	maxListKeys = 1000

	// multipartOverhead is the slack allowed on top of the file size for
	// boundaries, part headers and the key field.
	multipartOverhead = 64 << 10
)

// ObjectHandler serves the object routes on top of the storage gateway.
type ObjectHandler struct {
	gateway        *service.StorageGateway
	maxUploadBytes int64
}

// NewObjectHandler creates a new object handler.
// Parameters:
//   - gateway: storage gateway bound to the bucket.
//   - maxUploadBytes: upload size limit; 0 disables the check.
// Returns:
//   - *ObjectHandler: initialized handler.
func NewObjectHandler(gateway *service.StorageGateway, maxUploadBytes int64) *ObjectHandler {
	return &ObjectHandler{
		gateway:        gateway,
		maxUploadBytes: maxUploadBytes,
	}
}

// uploadResponse is returned by Upload and Delete.
type uploadResponse struct {
	Message string `json:"message"`
	domain.ObjectResult
}

// Upload handles POST /upload.
// Form fields: file (required), key (optional, defaults to the file name).
func (h *ObjectHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		limit := h.maxUploadBytes + multipartOverhead
		if c.Request.ContentLength > limit {
			HandleError(c, fmt.Errorf("%w: request body is %d bytes, limit %d", domain.ErrFileTooLarge, c.Request.ContentLength, h.maxUploadBytes))
			return
		}
		// Bodies of unknown length are cut off while multipart parsing reads them.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, fmt.Errorf("%w: request body exceeds limit %d", domain.ErrFileTooLarge, h.maxUploadBytes))
			return
		}
		HandleError(c, fmt.Errorf("%w: %v", domain.ErrMissingFile, err))
		return
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		HandleError(c, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrFileTooLarge, fh.Size, h.maxUploadBytes))
		return
	}

	key := c.PostForm("key")
	if key == "" {
		key = fh.Filename
	}
	if key == "" {
		HandleError(c, domain.ErrMissingKey)
		return
	}

	data, err := readUpload(fh)
	if err != nil {
		HandleError(c, err)
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	ctx := logger.SetObjectKey(c.Request.Context(), key)
	result, err := h.gateway.Upload(ctx, key, data, contentType)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, uploadResponse{
		Message:      "File uploaded successfully",
		ObjectResult: *result,
	})
}

// Download handles GET /download/*path. The body is sent as an attachment.
func (h *ObjectHandler) Download(c *gin.Context) {
	key, ok := objectKey(c)
	if !ok {
		return
	}

	data, err := h.gateway.Download(c.Request.Context(), key)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", key))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// Display handles GET /file/*path. The body is served inline with the stored
// content type. Body and metadata come from two separate calls.
func (h *ObjectHandler) Display(c *gin.Context) {
	key, ok := objectKey(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	data, err := h.gateway.Download(ctx, key)
	if err != nil {
		HandleError(c, err)
		return
	}

	info, err := h.gateway.Exists(ctx, key)
	if err != nil {
		HandleError(c, err)
		return
	}

	contentType := "application/octet-stream"
	if info.Exists && info.ContentType != "" {
		contentType = info.ContentType
	}
	c.Data(http.StatusOK, contentType, data)
}

// Delete handles DELETE /file/*path.
func (h *ObjectHandler) Delete(c *gin.Context) {
	key, ok := objectKey(c)
	if !ok {
		return
	}

	result, err := h.gateway.Delete(c.Request.Context(), key)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		Message:      "File deleted successfully",
		ObjectResult: *result,
	})
}

// List handles GET /list?prefix=&maxKeys=&continuationToken=.
func (h *ObjectHandler) List(c *gin.Context) {
	maxKeys, err := intQuery(c, "maxKeys", 0, 1, maxListKeys)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.gateway.List(c.Request.Context(), service.ListOptions{
		Prefix:            c.Query("prefix"),
		MaxKeys:           maxKeys,
		ContinuationToken: c.Query("continuationToken"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Exists handles GET /exists/*path.
func (h *ObjectHandler) Exists(c *gin.Context) {
	key, ok := objectKey(c)
	if !ok {
		return
	}

	info, err := h.gateway.Exists(c.Request.Context(), key)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// PresignedURL handles GET /presigned-url/*path?expiresIn=.
func (h *ObjectHandler) PresignedURL(c *gin.Context) {
	key, ok := objectKey(c)
	if !ok {
		return
	}

	expiresIn, err := intQuery(c, "expiresIn", h.gateway.PresignExpiry(), 1, config.MaxPresignExpiry)
	if err != nil {
		HandleError(c, err)
		return
	}

	url, err := h.gateway.PresignedURL(c.Request.Context(), key, expiresIn)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.PresignedURL{URL: url, ExpiresIn: expiresIn})
}

// readUpload buffers the parsed part, which gin keeps in memory or in a temp file.
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadUpload, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadUpload, err)
	}
	return data, nil
}

// objectKey reads the wildcard key and writes a 400 when it is empty.
func objectKey(c *gin.Context) (string, bool) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	if key == "" {
		HandleError(c, domain.ErrMissingKey)
		return "", false
	}
	c.Request = c.Request.WithContext(logger.SetObjectKey(c.Request.Context(), key))
	return key, true
}

// intQuery parses an optional integer query parameter within [min, max].
func intQuery(c *gin.Context, name string, def, min, max int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("%w: %s must be an integer between %d and %d", domain.ErrInvalidParameter, name, min, max)
	}
	return n, nil
}
