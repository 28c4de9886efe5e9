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
	// ErrChoicesRequired indicates a multiple-choice question is missing
	// choices or a usable correct answer.
	ErrChoicesRequired = errors.New("multiple-choice questions need four choices and a correct answer")
	// ErrAssignmentQuestionNotFound indicates the question does not exist on
	// this assignment.
	ErrAssignmentQuestionNotFound = errors.New("assignment question not found")
)

// AssignmentQuestionService manages per-assignment questions.
type AssignmentQuestionService interface {
	List(ctx context.Context, principal Principal, assignmentID uint) ([]dto.AssignmentQuestionResponse, error)
	Create(ctx context.Context, principal Principal, assignmentID uint, payload dto.AssignmentQuestionCreateRequest) (dto.AssignmentQuestionResponse, error)
	Update(ctx context.Context, principal Principal, assignmentID, questionID uint, payload dto.AssignmentQuestionUpdateRequest) (dto.AssignmentQuestionResponse, error)
	Delete(ctx context.Context, principal Principal, assignmentID, questionID uint) error
}

type assignmentQuestionService struct {
	questions   repository.AssignmentQuestionRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewAssignmentQuestionService constructs the assignment question service.
func NewAssignmentQuestionService(
	questions repository.AssignmentQuestionRepository,
	assignments repository.AssignmentRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentQuestionService {
	return &assignmentQuestionService{
		questions:   questions,
		assignments: assignments,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "assignment_question_service").Logger(),
	}
}

func (s *assignmentQuestionService) List(ctx context.Context, principal Principal, assignmentID uint) ([]dto.AssignmentQuestionResponse, error) {
	if principal.IsStudent() {
		onRoster, err := s.assignments.IsOnRoster(ctx, assignmentID, principal.UserID)
		if err != nil {
			return nil, err
		}
		if !onRoster {
			return nil, ErrNotOnRoster
		}
	} else if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentQuestionResponseSlice(questions), nil
}

func (s *assignmentQuestionService) Create(ctx context.Context, principal Principal, assignmentID uint, payload dto.AssignmentQuestionCreateRequest) (dto.AssignmentQuestionResponse, error) {
	if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		return dto.AssignmentQuestionResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentQuestionResponse{}, err
	}

	question := models.AssignmentQuestion{
		AssignmentID:     assignmentID,
		Type:             payload.Type,
		Prompt:           strings.TrimSpace(payload.Prompt),
		Position:         payload.Position,
		Points:           payload.Points,
		ChoiceA:          payload.ChoiceA,
		ChoiceB:          payload.ChoiceB,
		ChoiceC:          payload.ChoiceC,
		ChoiceD:          payload.ChoiceD,
		CorrectAnswer:    strings.TrimSpace(payload.CorrectAnswer),
		FileRequired:     payload.FileRequired,
		AllowedFileTypes: payload.AllowedFileTypes,
		Explanation:      s.sanitizer.Sanitize(payload.Explanation),
	}

	if err := validateChoices(question); err != nil {
		return dto.AssignmentQuestionResponse{}, err
	}

	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.AssignmentQuestionResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Uint("question_id", question.ID).
		Str("type", question.Type).
		Msg("assignment question added")

	return dto.NewAssignmentQuestionResponse(question), nil
}

func (s *assignmentQuestionService) Update(ctx context.Context, principal Principal, assignmentID, questionID uint, payload dto.AssignmentQuestionUpdateRequest) (dto.AssignmentQuestionResponse, error) {
	if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		return dto.AssignmentQuestionResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentQuestionResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, assignmentID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentQuestionResponse{}, ErrAssignmentQuestionNotFound
		}
		return dto.AssignmentQuestionResponse{}, err
	}

	if payload.Prompt != nil {
		question.Prompt = strings.TrimSpace(*payload.Prompt)
	}
	if payload.Position != nil {
		question.Position = *payload.Position
	}
	if payload.Points != nil {
		question.Points = *payload.Points
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
	if payload.CorrectAnswer != nil {
		question.CorrectAnswer = strings.TrimSpace(*payload.CorrectAnswer)
	}
	if payload.FileRequired != nil {
		question.FileRequired = *payload.FileRequired
	}
	if payload.AllowedFileTypes != nil {
		question.AllowedFileTypes = *payload.AllowedFileTypes
	}
	if payload.Explanation != nil {
		question.Explanation = s.sanitizer.Sanitize(*payload.Explanation)
	}

	if err := validateChoices(question); err != nil {
		return dto.AssignmentQuestionResponse{}, err
	}

	if err := s.questions.Update(ctx, &question); err != nil {
		return dto.AssignmentQuestionResponse{}, err
	}

	return dto.NewAssignmentQuestionResponse(question), nil
}

func (s *assignmentQuestionService) Delete(ctx context.Context, principal Principal, assignmentID, questionID uint) error {
	if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		return err
	}

	if err := s.questions.Delete(ctx, assignmentID, questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentQuestionNotFound
		}
		return err
	}

	return nil
}

func (s *assignmentQuestionService) ownedAssignment(ctx context.Context, principal Principal, assignmentID uint) (models.Assignment, error) {
	if !principal.IsTeacher() {
		return models.Assignment{}, ErrTeacherOnly
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	if assignment.TeacherID != principal.UserID {
		return models.Assignment{}, ErrNotOwner
	}

	return assignment, nil
}

// validateChoices enforces MC invariants; essay questions carry no choices.
func validateChoices(question models.AssignmentQuestion) error {
	if question.IsEssay() {
		return nil
	}

	if question.ChoiceA == "" || question.ChoiceB == "" || question.ChoiceC == "" || question.ChoiceD == "" {
		return ErrChoicesRequired
	}
	if _, ok := question.CorrectChoiceIndex(); !ok {
		return ErrChoicesRequired
	}

	return nil
}
