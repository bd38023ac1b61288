package handler

import (
	"errors"
	"net/http"
	"os"

	"bscar/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// GetUpload godoc
// @Summary      Download an uploaded file
// @Tags         uploads
// @Produce      octet-stream
// @Param        bucket   path string true "Bucket" Enums(listings, avatars)
// @Param        filename path string true "Stored file name"
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Router       /uploads/{bucket}/{filename} [get]
func (h *Handler) GetUpload(c *gin.Context) {
	path, err := h.files.Path(storage.Bucket(c.Param("bucket")), c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "File not found"})
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			h.log.WithError(err).WithField("path", path).Warn("failed to stat upload")
		}
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "File not found"})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}
