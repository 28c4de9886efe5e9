package dto

import (
	"time"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// UploadResponse describes a stored attachment.
type UploadResponse struct {
	ID         uint      `json:"id"`
	URL        string    `json:"url"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewUploadResponse converts an AttachmentFile model into a DTO.
func NewUploadResponse(model models.AttachmentFile) UploadResponse {
	return UploadResponse{
		ID:         model.ID,
		URL:        model.URL,
		FileName:   model.FileName,
		MimeType:   model.MimeType,
		SizeBytes:  model.SizeBytes,
		UploadedAt: model.CreatedAt,
	}
}
