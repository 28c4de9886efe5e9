package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/repository"
)

var (
	// ErrQuestionSetNotFound indicates the question bank does not exist.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrQuestionNotFound indicates the question does not exist in the set.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNotOwner indicates the caller does not own the resource.
	ErrNotOwner = errors.New("caller does not own this resource")
)

// QuestionSetService manages reusable question banks and their questions.
type QuestionSetService interface {
	List(ctx context.Context, principal Principal) ([]dto.QuestionSetResponse, error)
	Get(ctx context.Context, principal Principal, setID uint) (dto.QuestionSetResponse, error)
	Create(ctx context.Context, principal Principal, payload dto.QuestionSetCreateRequest) (dto.QuestionSetResponse, error)
	Update(ctx context.Context, principal Principal, setID uint, payload dto.QuestionSetUpdateRequest) (dto.QuestionSetResponse, error)
	Delete(ctx context.Context, principal Principal, setID uint) error

	AddQuestion(ctx context.Context, principal Principal, setID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	UpdateQuestion(ctx context.Context, principal Principal, setID, questionID uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error)
	DeleteQuestion(ctx context.Context, principal Principal, setID, questionID uint) error
}

type questionSetService struct {
	sets      repository.QuestionSetRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewQuestionSetService constructs the question set service.
func NewQuestionSetService(sets repository.QuestionSetRepository, validate *validator.Validate, logger zerolog.Logger) QuestionSetService {
	return &questionSetService{
		sets:      sets,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "question_set_service").Logger(),
	}
}

func (s *questionSetService) List(ctx context.Context, principal Principal) ([]dto.QuestionSetResponse, error) {
	if !principal.IsTeacher() {
		return nil, ErrTeacherOnly
	}

	sets, err := s.sets.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	return dto.NewQuestionSetResponseSlice(sets), nil
}

func (s *questionSetService) Get(ctx context.Context, principal Principal, setID uint) (dto.QuestionSetResponse, error) {
	if !principal.IsTeacher() {
		return dto.QuestionSetResponse{}, ErrTeacherOnly
	}

	set, err := s.sets.GetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionSetResponse{}, ErrQuestionSetNotFound
		}
		return dto.QuestionSetResponse{}, err
	}

	return dto.NewQuestionSetResponse(set), nil
}

func (s *questionSetService) Create(ctx context.Context, principal Principal, payload dto.QuestionSetCreateRequest) (dto.QuestionSetResponse, error) {
	if !principal.IsTeacher() {
		return dto.QuestionSetResponse{}, ErrTeacherOnly
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionSetResponse{}, err
	}

	showScore := true
	if payload.ShowScore != nil {
		showScore = *payload.ShowScore
	}

	set := models.QuestionSet{
		Name:             strings.TrimSpace(payload.Name),
		Description:      s.sanitizer.Sanitize(payload.Description),
		CreatedBy:        principal.UserID,
		InstantFeedback:  payload.InstantFeedback,
		PresentationMode: payload.PresentationMode,
		ShuffleQuestions: payload.ShuffleQuestions,
		ShuffleChoices:   payload.ShuffleChoices,
		AllowSkip:        payload.AllowSkip,
		ShowScore:        showScore,
		TimeLimitSeconds: payload.TimeLimitSeconds,
	}

	if err := s.sets.Create(ctx, &set); err != nil {
		return dto.QuestionSetResponse{}, err
	}

	s.logger.Info().Uint("question_set_id", set.ID).Uint("teacher_id", principal.UserID).Msg("question set created")

	return dto.NewQuestionSetResponse(set), nil
}

func (s *questionSetService) Update(ctx context.Context, principal Principal, setID uint, payload dto.QuestionSetUpdateRequest) (dto.QuestionSetResponse, error) {
	if !principal.IsTeacher() {
		return dto.QuestionSetResponse{}, ErrTeacherOnly
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionSetResponse{}, err
	}

	set, err := s.sets.GetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionSetResponse{}, ErrQuestionSetNotFound
		}
		return dto.QuestionSetResponse{}, err
	}

	if payload.Name != nil {
		set.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		set.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.InstantFeedback != nil {
		set.InstantFeedback = *payload.InstantFeedback
	}
	if payload.PresentationMode != nil {
		set.PresentationMode = *payload.PresentationMode
	}
	if payload.ShuffleQuestions != nil {
		set.ShuffleQuestions = *payload.ShuffleQuestions
	}
	if payload.ShuffleChoices != nil {
		set.ShuffleChoices = *payload.ShuffleChoices
	}
	if payload.AllowSkip != nil {
		set.AllowSkip = *payload.AllowSkip
	}
	if payload.ShowScore != nil {
		set.ShowScore = *payload.ShowScore
	}
	if payload.TimeLimitSeconds != nil {
		set.TimeLimitSeconds = *payload.TimeLimitSeconds
	}

	if err := s.sets.Update(ctx, &set); err != nil {
		return dto.QuestionSetResponse{}, err
	}

	return dto.NewQuestionSetResponse(set), nil
}

func (s *questionSetService) Delete(ctx context.Context, principal Principal, setID uint) error {
	if !principal.IsTeacher() {
		return ErrTeacherOnly
	}

	if err := s.sets.Delete(ctx, setID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionSetNotFound
		}
		return err
	}

	s.logger.Info().Uint("question_set_id", setID).Uint("teacher_id", principal.UserID).Msg("question set deleted")

	return nil
}

func (s *questionSetService) AddQuestion(ctx context.Context, principal Principal, setID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if !principal.IsTeacher() {
		return dto.QuestionResponse{}, ErrTeacherOnly
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	if _, err := s.sets.GetByID(ctx, setID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionSetNotFound
		}
		return dto.QuestionResponse{}, err
	}

	question := models.Question{
		QuestionSetID: setID,
		Prompt:        strings.TrimSpace(payload.Prompt),
		ChoiceA:       payload.ChoiceA,
		ChoiceB:       payload.ChoiceB,
		ChoiceC:       payload.ChoiceC,
		ChoiceD:       payload.ChoiceD,
		CorrectIndex:  payload.CorrectIndex,
		Explanation:   s.sanitizer.Sanitize(payload.Explanation),
	}

	if err := s.sets.CreateQuestion(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionSetService) UpdateQuestion(ctx context.Context, principal Principal, setID, questionID uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error) {
	if !principal.IsTeacher() {
		return dto.QuestionResponse{}, ErrTeacherOnly
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := s.sets.GetQuestion(ctx, setID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	if payload.Prompt != nil {
		question.Prompt = strings.TrimSpace(*payload.Prompt)
	}
	if payload.ChoiceA != nil {
		question.ChoiceA = *payload.ChoiceA
	}
	if payload.ChoiceB != nil {
		question.ChoiceB = *payload.ChoiceB
	}
	if payload.ChoiceC != nil {
		question.ChoiceC = *payload.ChoiceC
	}
	if payload.ChoiceD != nil {
		question.ChoiceD = *payload.ChoiceD
	}
	if payload.CorrectIndex != nil {
		question.CorrectIndex = *payload.CorrectIndex
	}
	if payload.Explanation != nil {
		question.Explanation = s.sanitizer.Sanitize(*payload.Explanation)
	}

	if err := s.sets.UpdateQuestion(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionSetService) DeleteQuestion(ctx context.Context, principal Principal, setID, questionID uint) error {
	if !principal.IsTeacher() {
		return ErrTeacherOnly
	}

	if err := s.sets.DeleteQuestion(ctx, setID, questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}

	return nil
}
