package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/observability"
	"github.com/noah-isme/quizdesk-api/internal/repository"
)

var (
	// ErrStudentOnly indicates the operation requires the student role.
	ErrStudentOnly = errors.New("operation requires student role")
	// ErrAssignmentPastDue indicates the deadline has passed.
	ErrAssignmentPastDue = errors.New("assignment is past its due date")
	// ErrRetakeNotAllowed indicates the student already submitted and the
	// assignment forbids retakes.
	ErrRetakeNotAllowed = errors.New("assignment does not allow retakes")
	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrResultsNotPublished indicates the student's results are not yet
	// visible.
	ErrResultsNotPublished = errors.New("results are not published yet")
	// ErrFileRequired indicates an essay answer is missing its mandatory
	// attachment.
	ErrFileRequired = errors.New("this question requires a file attachment")
)

// SubmissionService records student attempts and grades the multiple-choice
// portion at submit time.
type SubmissionService interface {
	Submit(ctx context.Context, principal Principal, assignmentID uint, payload dto.SubmitRequest) (dto.SubmitResponse, error)
	List(ctx context.Context, principal Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, principal Principal, submissionID uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	questions   repository.AssignmentQuestionRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	events      EventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	questions repository.AssignmentQuestionRepository,
	validate *validator.Validate,
	events EventPublisher,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		questions:   questions,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		events:      events,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/quizdesk-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, principal Principal, assignmentID uint, payload dto.SubmitRequest) (dto.SubmitResponse, error) {
	if !principal.IsStudent() {
		return dto.SubmitResponse{}, ErrStudentOnly
	}

	spanCtx, span := s.tracer.Start(ctx, "submissions.submit", trace.WithAttributes(
		attribute.Int64("assignment.id", int64(assignmentID)),
		attribute.Int64("student.id", int64(principal.UserID)),
	))
	defer span.End()

	assignment, err := s.assignments.GetByID(spanCtx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmitResponse{}, err
	}

	onRoster, err := s.assignments.IsOnRoster(spanCtx, assignmentID, principal.UserID)
	if err != nil {
		return dto.SubmitResponse{}, err
	}
	if !onRoster {
		return dto.SubmitResponse{}, ErrNotOnRoster
	}

	submittedAt := s.now()
	if assignment.IsPastDue(submittedAt) {
		return dto.SubmitResponse{}, ErrAssignmentPastDue
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmitResponse{}, err
	}

	questions, err := s.questions.ListByAssignment(spanCtx, assignmentID)
	if err != nil {
		return dto.SubmitResponse{}, err
	}

	graded, err := s.gradeAnswers(questions, payload.Answers, submittedAt)
	if err != nil {
		return dto.SubmitResponse{}, err
	}

	submission := models.Submission{
		AssignmentID:     assignmentID,
		StudentID:        principal.UserID,
		Score:            graded.mcSubscore,
		MaxScore:         graded.maxScore,
		CorrectCount:     graded.correctCount,
		TimeTakenSeconds: payload.TimeTaken,
		Status:           models.SubmissionStatusSubmitted,
		McScore:          graded.mcSubscore,
		PendingGrading:   graded.hasEssay,
		SubmittedAt:      submittedAt,
	}
	if !graded.hasEssay {
		// Nothing left to grade; results are visible immediately.
		gradedAt := submittedAt
		submission.GradedAt = &gradedAt
		submission.PublishedAt = &gradedAt
	}

	err = s.submissions.Transaction(spanCtx, func(repo repository.SubmissionRepository) error {
		if err := repo.LockRosterEntry(spanCtx, assignmentID, principal.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotOnRoster
			}
			return err
		}

		attempts, err := repo.CountAttempts(spanCtx, assignmentID, principal.UserID)
		if err != nil {
			return err
		}
		if attempts > 0 && !assignment.AllowRetake {
			return ErrRetakeNotAllowed
		}
		submission.Attempt = int(attempts) + 1

		if err := repo.Create(spanCtx, &submission); err != nil {
			return err
		}

		for i := range graded.answers {
			graded.answers[i].answer.SubmissionID = submission.ID
			if err := repo.CreateAnswer(spanCtx, &graded.answers[i].answer); err != nil {
				return err
			}
			if err := repo.RepointFiles(spanCtx, graded.answers[i].fileIDs, principal.UserID, submission.ID, graded.answers[i].answer.QuestionID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.SubmitResponse{}, err
	}

	for i := range graded.answers {
		submission.Answers = append(submission.Answers, graded.answers[i].answer)
	}
	submission.Assignment = assignment

	pendingLabel := "false"
	if submission.PendingGrading {
		pendingLabel = "true"
	}
	observability.SubmissionsTotal().WithLabelValues(pendingLabel).Inc()

	s.events.Publish(ctx, EventSubmissionSubmitted, assignmentID, submission.ID, principal.UserID)

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Uint("submission_id", submission.ID).
		Uint("student_id", principal.UserID).
		Int("attempt", submission.Attempt).
		Bool("pending_grading", submission.PendingGrading).
		Int("skipped", len(graded.skippedQuestionIDs)).
		Msg("submission recorded")

	return dto.SubmitResponse{
		Submission:         dto.NewSubmissionResponse(submission),
		SkippedQuestionIDs: graded.skippedQuestionIDs,
	}, nil
}

func (s *submissionService) List(ctx context.Context, principal Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}

	if principal.IsStudent() {
		// Students only ever see their own attempts.
		studentID := principal.UserID
		repoFilter.StudentID = &studentID
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	if principal.IsStudent() {
		visible := submissions[:0]
		for _, submission := range submissions {
			if submission.IsPublished() {
				visible = append(visible, submission)
			}
		}
		submissions = visible
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, principal Principal, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetDetail(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if principal.IsStudent() {
		if submission.StudentID != principal.UserID {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		if !submission.IsPublished() {
			return dto.SubmissionResponse{}, ErrResultsNotPublished
		}
	}

	return dto.NewSubmissionResponse(submission), nil
}

// gradedAnswer couples a stored answer with the attachments to re-point.
type gradedAnswer struct {
	answer  models.StudentAnswer
	fileIDs []uint
}

type gradingOutcome struct {
	answers            []gradedAnswer
	skippedQuestionIDs []uint
	correctCount       int
	mcSubscore         float64
	maxScore           float64
	hasEssay           bool
}

// gradeAnswers scores multiple-choice answers in memory and prepares essay
// answers for storage. Answers referencing unknown questions are skipped and
// reported, never silently dropped.
func (s *submissionService) gradeAnswers(questions []models.AssignmentQuestion, answers []dto.AnswerSubmission, submittedAt time.Time) (gradingOutcome, error) {
	byID := make(map[uint]models.AssignmentQuestion, len(questions))

	var outcome gradingOutcome
	var mcTotal int
	var mcPointPool float64
	for _, question := range questions {
		byID[question.ID] = question
		outcome.maxScore += question.Points
		if question.IsEssay() {
			outcome.hasEssay = true
		} else {
			mcTotal++
			mcPointPool += question.Points
		}
	}

	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			outcome.skippedQuestionIDs = append(outcome.skippedQuestionIDs, answer.QuestionID)
			continue
		}

		stored := models.StudentAnswer{
			QuestionID:   question.ID,
			QuestionType: question.Type,
		}

		if question.IsEssay() {
			if question.FileRequired && len(answer.FileIDs) == 0 {
				return gradingOutcome{}, ErrFileRequired
			}
			stored.EssayText = strings.TrimSpace(s.sanitizer.Sanitize(answer.EssayText))
		} else {
			selected := -1
			if answer.SelectedAnswer != nil {
				selected = *answer.SelectedAnswer
			}
			stored.SelectedAnswer = &selected

			correctIndex, usable := question.CorrectChoiceIndex()
			score := 0.0
			if usable && selected == correctIndex {
				score = question.Points
				outcome.correctCount++
			}
			gradedAt := submittedAt
			stored.Score = &score
			stored.Graded = true
			stored.GradedAt = &gradedAt
		}

		outcome.answers = append(outcome.answers, gradedAnswer{answer: stored, fileIDs: answer.FileIDs})
	}

	if mcTotal > 0 {
		outcome.mcSubscore = math.Round(float64(outcome.correctCount) / float64(mcTotal) * mcPointPool)
	}

	return outcome, nil
}
