package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// AttachmentRepository persists metadata about uploaded answer files.
type AttachmentRepository interface {
	Create(ctx context.Context, file *models.AttachmentFile) error
	GetByID(ctx context.Context, id uint) (models.AttachmentFile, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.AttachmentFile, error)
	Repoint(ctx context.Context, fileIDs []uint, uploaderID, submissionID, questionID uint) error
}

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository constructs a repository for attachment records.
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, file *models.AttachmentFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *attachmentRepository) GetByID(ctx context.Context, id uint) (models.AttachmentFile, error) {
	var file models.AttachmentFile
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return models.AttachmentFile{}, err
	}

	return file, nil
}

func (r *attachmentRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.AttachmentFile, error) {
	var files []models.AttachmentFile
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&files).Error; err != nil {
		return nil, err
	}

	return files, nil
}

// Repoint binds previously uploaded files to a submission/question pair.
// Only files owned by the uploader are touched.
func (r *attachmentRepository) Repoint(ctx context.Context, fileIDs []uint, uploaderID, submissionID, questionID uint) error {
	if len(fileIDs) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Model(&models.AttachmentFile{}).
		Where("id IN ? AND uploader_id = ?", fileIDs, uploaderID).
		Updates(map[string]interface{}{
			"submission_id": submissionID,
			"question_id":   questionID,
		}).Error
}
