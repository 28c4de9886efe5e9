package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/repository"
)

var (
	// ErrAssignmentNotFound indicates the assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrInvalidDueDate indicates the due date could not be parsed.
	ErrInvalidDueDate = errors.New("due date must be RFC 3339")
	// ErrRosterStudentInvalid indicates a roster entry is not an active student.
	ErrRosterStudentInvalid = errors.New("roster contains an unknown or inactive student")
	// ErrNotOnRoster indicates the student is not assigned this work.
	ErrNotOnRoster = errors.New("student is not on the assignment roster")
)

// AssignmentService manages assignments and their rosters.
type AssignmentService interface {
	ListForTeacher(ctx context.Context, principal Principal) ([]dto.AssignmentResponse, error)
	ListForStudent(ctx context.Context, principal Principal) ([]dto.StudentAssignmentResponse, error)
	Get(ctx context.Context, principal Principal, assignmentID uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, principal Principal, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, principal Principal, assignmentID uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, principal Principal, assignmentID uint) error

	SetRoster(ctx context.Context, principal Principal, assignmentID uint, payload dto.RosterRequest) ([]dto.UserResponse, error)
	GetRoster(ctx context.Context, principal Principal, assignmentID uint) ([]dto.UserResponse, error)
	ListStudents(ctx context.Context, principal Principal, class string) ([]dto.UserResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	sets        repository.QuestionSetRepository
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	sets repository.QuestionSetRepository,
	users repository.UserRepository,
	submissions repository.SubmissionRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		sets:        sets,
		users:       users,
		submissions: submissions,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) ListForTeacher(ctx context.Context, principal Principal) ([]dto.AssignmentResponse, error) {
	if !principal.IsTeacher() {
		return nil, ErrTeacherOnly
	}

	assignments, err := s.assignments.ListByTeacher(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) ListForStudent(ctx context.Context, principal Principal) ([]dto.StudentAssignmentResponse, error) {
	assignments, err := s.assignments.ListForStudent(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	responses := make([]dto.StudentAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		entry := dto.StudentAssignmentResponse{
			Assignment: dto.NewAssignmentResponse(assignment),
			Overdue:    assignment.IsPastDue(now),
		}

		studentID := principal.UserID
		assignmentID := assignment.ID
		submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
			AssignmentID: &assignmentID,
			StudentID:    &studentID,
		})
		if err != nil {
			return nil, err
		}

		entry.Attempts = len(submissions)
		entry.Submitted = len(submissions) > 0
		if len(submissions) > 0 {
			// List orders newest first.
			latest := submissions[0]
			entry.PendingGrading = latest.PendingGrading
			if latest.IsPublished() || !latest.PendingGrading {
				score := latest.Score
				entry.LatestScore = &score
			}
		}

		responses = append(responses, entry)
	}

	return responses, nil
}

func (s *assignmentService) Get(ctx context.Context, principal Principal, assignmentID uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetWithQuestions(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if principal.IsStudent() {
		onRoster, err := s.assignments.IsOnRoster(ctx, assignmentID, principal.UserID)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		if !onRoster {
			return dto.AssignmentResponse{}, ErrNotOnRoster
		}
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, principal Principal, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if !principal.IsTeacher() {
		return dto.AssignmentResponse{}, ErrTeacherOnly
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, ErrInvalidDueDate
	}

	if payload.QuestionSetID != nil {
		if _, err := s.sets.GetByID(ctx, *payload.QuestionSetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AssignmentResponse{}, ErrQuestionSetNotFound
			}
			return dto.AssignmentResponse{}, err
		}
	}

	assignment := models.Assignment{
		Title:           strings.TrimSpace(payload.Title),
		Description:     s.sanitizer.Sanitize(payload.Description),
		TeacherID:       principal.UserID,
		QuestionSetID:   payload.QuestionSetID,
		DueDate:         dueDate,
		AllowRetake:     payload.AllowRetake,
		CustomQuestions: payload.CustomQuestions,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("teacher_id", principal.UserID).
		Time("due_date", dueDate).
		Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, principal Principal, assignmentID uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	assignment, err := s.ownedAssignment(ctx, principal, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		assignment.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, ErrInvalidDueDate
		}
		assignment.DueDate = dueDate
	}
	if payload.AllowRetake != nil {
		assignment.AllowRetake = *payload.AllowRetake
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, principal Principal, assignmentID uint) error {
	if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", assignmentID).Msg("assignment deleted")

	return nil
}

func (s *assignmentService) SetRoster(ctx context.Context, principal Principal, assignmentID uint, payload dto.RosterRequest) ([]dto.UserResponse, error) {
	if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		return nil, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(payload.StudentIDs))
	unique := make([]uint, 0, len(payload.StudentIDs))
	for _, studentID := range payload.StudentIDs {
		if _, ok := seen[studentID]; ok {
			continue
		}
		seen[studentID] = struct{}{}

		user, err := s.users.GetByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrRosterStudentInvalid
			}
			return nil, err
		}
		if user.Role != models.RoleStudent || !user.Active {
			return nil, ErrRosterStudentInvalid
		}

		unique = append(unique, studentID)
	}

	if err := s.assignments.ReplaceRoster(ctx, assignmentID, unique); err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Int("roster_size", len(unique)).
		Msg("roster replaced")

	return s.GetRoster(ctx, principal, assignmentID)
}

func (s *assignmentService) GetRoster(ctx context.Context, principal Principal, assignmentID uint) ([]dto.UserResponse, error) {
	if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		return nil, err
	}

	students, err := s.assignments.ListRoster(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewUserResponse(student))
	}

	return responses, nil
}

// ListStudents exposes the student directory teachers build rosters from.
func (s *assignmentService) ListStudents(ctx context.Context, principal Principal, class string) ([]dto.UserResponse, error) {
	if !principal.IsTeacher() {
		return nil, ErrTeacherOnly
	}

	students, err := s.users.ListStudents(ctx, strings.TrimSpace(class))
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewUserResponse(student))
	}

	return responses, nil
}

// ownedAssignment loads the assignment and checks the caller is its teacher.
func (s *assignmentService) ownedAssignment(ctx context.Context, principal Principal, assignmentID uint) (models.Assignment, error) {
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
