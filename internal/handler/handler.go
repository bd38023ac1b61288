package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/auth"
	"bscar/backend/internal/hub"
	"bscar/backend/internal/middleware"
	"bscar/backend/internal/models"
	"bscar/backend/internal/storage"
	"bscar/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionOptions controls how login tokens are issued.
type SessionOptions struct {
	Secret       string
	TTL          time.Duration
	CookieSecure bool
}

// Handler serves the HTTP API on top of the store.
type Handler struct {
	store   *store.Store
	files   storage.Files
	events  *hub.Hub
	log     *logrus.Logger
	session SessionOptions
}

func New(s *store.Store, files storage.Files, events *hub.Hub, log *logrus.Logger, session SessionOptions) *Handler {
	return &Handler{store: s, files: files, events: events, log: log, session: session}
}

// region --- Common DTOs ---

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// StatusResponse is returned by actions that have nothing else to report.
type StatusResponse struct {
	Message  string   `json:"message" example:"Listing deleted"`
	Warnings []string `json:"warnings,omitempty"`
}

// endregion

// respondError writes err as {"error": message} with the status of its kind.
// Internal failures are logged and their cause is not shown to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	appErr := apperr.As(err)
	if appErr.Kind == apperr.KindInternal {
		h.log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	c.JSON(appErr.Status(), ErrorResponse{Error: appErr.Message})
}

// currentUser returns the session principal or answers 401.
func currentUser(c *gin.Context) (models.User, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
	}
	return user, ok
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}

func parseOptionalID(raw string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, apperr.Validation("invalid id: " + raw)
	}
	value := uint(id)
	return &value, nil
}

func uploadFromHeader(fh *multipart.FileHeader) store.Upload {
	return store.Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// formUploads collects the files sent under field. Requests that are not
// multipart simply carry no files.
func formUploads(c *gin.Context, field string) ([]store.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperr.Validation("malformed multipart form")
	}

	var uploads []store.Upload
	for _, fh := range form.File[field] {
		if fh.Filename == "" {
			continue
		}
		uploads = append(uploads, uploadFromHeader(fh))
	}
	return uploads, nil
}

// formUpload returns the single optional file sent under field.
func formUpload(c *gin.Context, field string) (*store.Upload, error) {
	uploads, err := formUploads(c, field)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

func fileURL(bucket storage.Bucket, name string) string {
	return "/uploads/" + string(bucket) + "/" + name
}
