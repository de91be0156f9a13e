package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"s3gateway/internal/domain"
)

// ErrorResponse is the body of every failed request. Details carries the raw
// backend message when error details are exposed.
type ErrorResponse struct {
	Error   string `json:"error" example:"Upload failed"`
	Details string `json:"details,omitempty" example:"operation error S3: PutObject, api error AccessDenied: Access Denied"`
	Code    string `json:"code" example:"STORAGE_ACCESS_DENIED"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Message string `json:"message" example:"File uploaded successfully with KMS encryption"`
	Key     string `json:"key" example:"uploads/1760779800000-report.pdf"`
}

// DownloadResponse is returned by GET /download/{key}.
type DownloadResponse struct {
	URL       string `json:"url" example:"https://bucket.s3.us-east-1.amazonaws.com/uploads/1760779800000-report.pdf?X-Amz-Expires=3600"`
	ExpiresIn int64  `json:"expires_in" example:"3600"`
	ExpiresAt string `json:"expires_at" example:"2026-10-18T10:30:00Z"`
}

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message" example:"File deleted successfully"`
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg, details string) {
	c.JSON(status, ErrorResponse{Error: msg, Details: details, Code: code})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Storage failures keep status 500; the code tells them apart.
func MapDomainError(err error) (status int, code string) {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, "MISSING_FILE"
	case errors.Is(err, domain.ErrMissingKey):
		return http.StatusBadRequest, "MISSING_KEY"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.Is(err, domain.ErrStorageAccessDenied):
		return http.StatusInternalServerError, "STORAGE_ACCESS_DENIED"
	case errors.Is(err, domain.ErrStorageNotFound):
		return http.StatusInternalServerError, "STORAGE_NOT_FOUND"
	case errors.Is(err, domain.ErrStorageInvalidRequest):
		return http.StatusInternalServerError, "STORAGE_INVALID_REQUEST"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusInternalServerError, "STORAGE_UNAVAILABLE"
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusInternalServerError, "STORAGE_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// HandleError maps err and sends the error response. Client errors carry the
// domain message; server errors carry failureMsg, are logged, and include the
// backend message only when exposeDetails is set.
func HandleError(c *gin.Context, err error, failureMsg string, exposeDetails bool) {
	status, code := MapDomainError(err)
	if status < http.StatusInternalServerError {
		RespondError(c, status, code, err.Error(), "")
		return
	}

	requestID, _ := c.Get("request_id")
	slog.ErrorContext(c.Request.Context(), "request failed",
		"request_id", requestID, "code", code, "error", err)

	var details string
	if exposeDetails {
		details = errorDetail(err)
	}
	RespondError(c, status, code, failureMsg, details)
}

func errorDetail(err error) string {
	var se *domain.StorageError
	if errors.As(err, &se) {
		return se.Detail()
	}
	return err.Error()
}

// objectKey returns the key captured by a catch-all route parameter. When the
// request carries a raw path the router matches on it and leaves the param
// escaped, so it is path-unescaped here; '+' stays a literal plus.
func objectKey(c *gin.Context) string {
	key := c.Param("key")
	if c.Request != nil && c.Request.URL != nil && c.Request.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(key); err == nil {
			key = unescaped
		}
	}
	return strings.TrimPrefix(key, "/")
}
