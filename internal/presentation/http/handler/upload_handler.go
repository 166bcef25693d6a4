package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/swiftinvoice/swift-invoice-api/internal/presentation/http/dto/response"
	"github.com/swiftinvoice/swift-invoice-api/pkg/storage"
)

// UploadHandler handles image uploads for logos and payment QR codes
type UploadHandler struct {
	uploader storage.Uploader
	maxSize  int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploader storage.Uploader, maxSize int64) *UploadHandler {
	return &UploadHandler{uploader: uploader, maxSize: maxSize}
}

// Upload handles storing an image and returning its public URL
// @Summary Upload Image
// @Description Upload a logo or QR image and get back its URL
// @Tags uploads
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} response.APIResponse
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Missing file field")
		return
	}
	if fileHeader.Size > h.maxSize {
		response.BadRequest(c, "File exceeds maximum upload size")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.BadRequest(c, "Only image uploads are allowed")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalServerError(c, "Failed to read upload")
		return
	}
	defer file.Close()

	url, err := h.uploader.Upload(c.Request.Context(), file, fileHeader.Filename, contentType)
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}

	response.Created(c, "File uploaded successfully", gin.H{"url": url})
}
