package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// AssignmentQuestionRepository defines persistence operations for
// per-assignment questions.
type AssignmentQuestionRepository interface {
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.AssignmentQuestion, error)
	GetByID(ctx context.Context, assignmentID, questionID uint) (models.AssignmentQuestion, error)
	Create(ctx context.Context, question *models.AssignmentQuestion) error
	Update(ctx context.Context, question *models.AssignmentQuestion) error
	Delete(ctx context.Context, assignmentID, questionID uint) error
}

type assignmentQuestionRepository struct {
	db *gorm.DB
}

// NewAssignmentQuestionRepository instantiates a GORM-backed repository.
func NewAssignmentQuestionRepository(db *gorm.DB) AssignmentQuestionRepository {
	return &assignmentQuestionRepository{db: db}
}

func (r *assignmentQuestionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.AssignmentQuestion, error) {
	var questions []models.AssignmentQuestion
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("position ASC, id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *assignmentQuestionRepository) GetByID(ctx context.Context, assignmentID, questionID uint) (models.AssignmentQuestion, error) {
	var question models.AssignmentQuestion
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		First(&question, questionID).Error; err != nil {
		return models.AssignmentQuestion{}, err
	}

	return question, nil
}

func (r *assignmentQuestionRepository) Create(ctx context.Context, question *models.AssignmentQuestion) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *assignmentQuestionRepository) Update(ctx context.Context, question *models.AssignmentQuestion) error {
	return r.db.WithContext(ctx).Save(question).Error
}

func (r *assignmentQuestionRepository) Delete(ctx context.Context, assignmentID, questionID uint) error {
	result := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Delete(&models.AssignmentQuestion{}, questionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
