package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// QuestionSetRepository defines persistence operations for question banks.
type QuestionSetRepository interface {
	List(ctx context.Context, createdBy *uint) ([]models.QuestionSet, error)
	GetByID(ctx context.Context, id uint) (models.QuestionSet, error)
	Create(ctx context.Context, set *models.QuestionSet) error
	Update(ctx context.Context, set *models.QuestionSet) error
	Delete(ctx context.Context, id uint) error

	ListQuestions(ctx context.Context, setID uint) ([]models.Question, error)
	GetQuestion(ctx context.Context, setID, questionID uint) (models.Question, error)
	CreateQuestion(ctx context.Context, question *models.Question) error
	CreateQuestions(ctx context.Context, questions []models.Question) error
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, setID, questionID uint) error
}

type questionSetRepository struct {
	db *gorm.DB
}

// NewQuestionSetRepository instantiates a GORM-backed repository.
func NewQuestionSetRepository(db *gorm.DB) QuestionSetRepository {
	return &questionSetRepository{db: db}
}

func (r *questionSetRepository) List(ctx context.Context, createdBy *uint) ([]models.QuestionSet, error) {
	query := r.db.WithContext(ctx).Model(&models.QuestionSet{})
	if createdBy != nil {
		query = query.Where("created_by = ?", *createdBy)
	}

	var sets []models.QuestionSet
	if err := query.Order("updated_at DESC").Find(&sets).Error; err != nil {
		return nil, err
	}

	return sets, nil
}

func (r *questionSetRepository) GetByID(ctx context.Context, id uint) (models.QuestionSet, error) {
	var set models.QuestionSet
	if err := r.db.WithContext(ctx).Preload("Questions").First(&set, id).Error; err != nil {
		return models.QuestionSet{}, err
	}

	return set, nil
}

func (r *questionSetRepository) Create(ctx context.Context, set *models.QuestionSet) error {
	return r.db.WithContext(ctx).Create(set).Error
}

func (r *questionSetRepository) Update(ctx context.Context, set *models.QuestionSet) error {
	return r.db.WithContext(ctx).Save(set).Error
}

func (r *questionSetRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_set_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.QuestionSet{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *questionSetRepository) ListQuestions(ctx context.Context, setID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("question_set_id = ?", setID).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionSetRepository) GetQuestion(ctx context.Context, setID, questionID uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).
		Where("question_set_id = ?", setID).
		First(&question, questionID).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *questionSetRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionSetRepository) CreateQuestions(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&questions).Error
}

func (r *questionSetRepository) UpdateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

func (r *questionSetRepository) DeleteQuestion(ctx context.Context, setID, questionID uint) error {
	result := r.db.WithContext(ctx).
		Where("question_set_id = ?", setID).
		Delete(&models.Question{}, questionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
