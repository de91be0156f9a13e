package handler

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"s3gateway/internal/config"
	"s3gateway/internal/domain"
	"s3gateway/internal/service"
)

// MultipartOverhead is the allowance for multipart framing on top of the
// upload ceiling when bounding the request body.
const MultipartOverhead int64 = 1 << 20

const (
	msgUploaded      = "File uploaded successfully with KMS encryption"
	msgDeleted       = "File deleted successfully"
	msgUploadFailed  = "Upload failed"
	msgPresignFailed = "Failed to generate download URL"
	msgDeleteFailed  = "Failed to delete file"
)

// ObjectHandler handles upload, download-link and delete endpoints.
type ObjectHandler struct {
	objects            service.ObjectService
	maxUploadBytes     int64
	exposeErrorDetails bool
}

// NewObjectHandler creates a new ObjectHandler.
func NewObjectHandler(objects service.ObjectService, upload *config.UploadConfig, server *config.ServerConfig) *ObjectHandler {
	return &ObjectHandler{
		objects:            objects,
		maxUploadBytes:     upload.MaxBytes(),
		exposeErrorDetails: server.ExposeErrorDetails,
	}
}

// Upload handles POST /upload
// @Summary Upload a file
// @Description Stores the file under uploads/<unix-millis>-<filename> with KMS server-side encryption
// @Tags objects
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Success 200 {object} UploadResponse "File uploaded"
// @Failure 400 {object} ErrorResponse "Missing file"
// @Failure 413 {object} ErrorResponse "File too large"
// @Failure 500 {object} ErrorResponse "Upload failed"
// @Router /upload [post]
func (h *ObjectHandler) Upload(c *gin.Context) {
	limit := h.maxUploadBytes + MultipartOverhead
	if c.Request.ContentLength > limit {
		HandleError(c, domain.ErrFileTooLarge, msgUploadFailed, h.exposeErrorDetails)
		return
	}
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			HandleError(c, domain.ErrFileTooLarge, msgUploadFailed, h.exposeErrorDetails)
			return
		}
		HandleError(c, domain.ErrMissingFile, msgUploadFailed, h.exposeErrorDetails)
		return
	}

	file, err := header.Open()
	if err != nil {
		HandleError(c, err, msgUploadFailed, h.exposeErrorDetails)
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.objects.Upload(c.Request.Context(), service.UploadInput{
		Filename:    uploadFilename(header),
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		HandleError(c, err, msgUploadFailed, h.exposeErrorDetails)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{Message: msgUploaded, Key: result.Key})
}

// Download handles GET /download/*key
// @Summary Generate a download link
// @Description Returns a presigned GET URL valid for 3600 seconds. The object is not checked for existence.
// @Tags objects
// @Produce json
// @Param key path string true "Object key, e.g. uploads/1760779800000-report.pdf"
// @Success 200 {object} DownloadResponse "Presigned URL"
// @Failure 400 {object} ErrorResponse "Missing key"
// @Failure 500 {object} ErrorResponse "Failed to generate download URL"
// @Router /download/{key} [get]
func (h *ObjectHandler) Download(c *gin.Context) {
	link, err := h.objects.DownloadLink(c.Request.Context(), objectKey(c))
	if err != nil {
		HandleError(c, err, msgPresignFailed, h.exposeErrorDetails)
		return
	}

	c.JSON(http.StatusOK, DownloadResponse{
		URL:       link.URL,
		ExpiresIn: int64(link.ExpiresIn / time.Second),
		ExpiresAt: link.ExpiresAt.Format(time.RFC3339),
	})
}

// Delete handles DELETE /delete/*key
// @Summary Delete a file
// @Description Deletes the object. Deleting a key that does not exist succeeds.
// @Tags objects
// @Produce json
// @Param key path string true "Object key"
// @Success 200 {object} MessageResponse "File deleted"
// @Failure 400 {object} ErrorResponse "Missing key"
// @Failure 500 {object} ErrorResponse "Failed to delete file"
// @Router /delete/{key} [delete]
func (h *ObjectHandler) Delete(c *gin.Context) {
	if err := h.objects.Delete(c.Request.Context(), objectKey(c)); err != nil {
		HandleError(c, err, msgDeleteFailed, h.exposeErrorDetails)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: msgDeleted})
}

// uploadFilename returns the filename exactly as the client sent it.
// multipart.FileHeader.Filename drops any directory part, so the
// Content-Disposition parameter is read directly.
func uploadFilename(header *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(header.Header.Get("Content-Disposition"))
	if err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return header.Filename
}
