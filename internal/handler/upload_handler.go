package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/priceforge/priceforge_api/internal/middleware"
	"github.com/priceforge/priceforge_api/internal/service"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// UploadHandler handles FILE field uploads from the storefront widget.
type UploadHandler struct {
	uploads *service.UploadService
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload handles POST /v1/storefront/uploads
// Multipart form: "file" is the artwork, "fieldKey" names the FILE field it
// belongs to. Responds with the stored object URL the widget submits as the
// field value.
func (h *UploadHandler) Upload(c *gin.Context) {
	// The service is nil when S3 is not configured for this deployment.
	if h.uploads == nil {
		utils.Error(c, 503, "UPLOADS_DISABLED", "File uploads are not configured")
		return
	}

	shop := middleware.GetShop(c)

	fieldKey := c.PostForm("fieldKey")
	if fieldKey == "" {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing fieldKey")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing file")
		return
	}
	if max := h.uploads.MaxBytes(); max > 0 && fileHeader.Size > max {
		utils.Error(c, 413, "UPLOAD_TOO_LARGE", "File exceeds the upload size limit")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to read upload")
		return
	}
	defer f.Close()

	limit := h.uploads.MaxBytes()
	if limit <= 0 {
		limit = 50 << 20
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to read upload")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.uploads.UploadFieldFile(c.Request.Context(), shop.ID, fieldKey, contentType, data)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrUploadType):
			utils.Error(c, 415, "UNSUPPORTED_UPLOAD_TYPE", "File type is not accepted")
		case errors.Is(err, utils.ErrUploadTooLarge):
			utils.Error(c, 413, "UPLOAD_TOO_LARGE", "File exceeds the upload size limit")
		default:
			utils.Error(c, 502, "UPLOAD_FAILED", "Failed to store file")
		}
		return
	}

	utils.Success(c, 201, "File uploaded", gin.H{"url": url})
}
