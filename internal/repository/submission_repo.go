package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
	Status       *string
}

// SubmissionRepository defines data operations for submissions and their
// answers. Transaction runs the supplied function against a repository bound
// to a single database transaction so the submit flow is atomic.
type SubmissionRepository interface {
	Transaction(ctx context.Context, fn func(repo SubmissionRepository) error) error
	LockRosterEntry(ctx context.Context, assignmentID, studentID uint) error
	CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error)

	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetDetail(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error

	RepointFiles(ctx context.Context, fileIDs []uint, uploaderID, submissionID, questionID uint) error

	CreateAnswer(ctx context.Context, answer *models.StudentAnswer) error
	UpdateAnswer(ctx context.Context, answer *models.StudentAnswer) error
	GetAnswer(ctx context.Context, submissionID, questionID uint) (models.StudentAnswer, error)
	ListAnswers(ctx context.Context, submissionID uint) ([]models.StudentAnswer, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Transaction(ctx context.Context, fn func(repo SubmissionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&submissionRepository{db: tx})
	})
}

// LockRosterEntry takes a FOR UPDATE lock on the roster edge so that
// concurrent submissions from the same student serialize on it.
func (r *submissionRepository) LockRosterEntry(ctx context.Context, assignmentID, studentID uint) error {
	var edge models.AssignmentStudent
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&edge).Error
}

func (r *submissionRepository) CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Count(&count).Error

	return count, err
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Answers").
		Where("assignment_id = ?", assignmentID).
		Order("created_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetDetail(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Preload("Answers").
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

// RepointFiles binds previously uploaded files to a submission/question pair
// within the submit transaction. Only files owned by the uploader move.
func (r *submissionRepository) RepointFiles(ctx context.Context, fileIDs []uint, uploaderID, submissionID, questionID uint) error {
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

func (r *submissionRepository) CreateAnswer(ctx context.Context, answer *models.StudentAnswer) error {
	return r.db.WithContext(ctx).Create(answer).Error
}

func (r *submissionRepository) UpdateAnswer(ctx context.Context, answer *models.StudentAnswer) error {
	return r.db.WithContext(ctx).Save(answer).Error
}

func (r *submissionRepository) GetAnswer(ctx context.Context, submissionID, questionID uint) (models.StudentAnswer, error) {
	var answer models.StudentAnswer
	if err := r.db.WithContext(ctx).
		Where("submission_id = ? AND question_id = ?", submissionID, questionID).
		First(&answer).Error; err != nil {
		return models.StudentAnswer{}, err
	}

	return answer, nil
}

func (r *submissionRepository) ListAnswers(ctx context.Context, submissionID uint) ([]models.StudentAnswer, error) {
	var answers []models.StudentAnswer
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}
