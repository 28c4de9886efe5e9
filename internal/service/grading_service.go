package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/observability"
	"github.com/noah-isme/quizdesk-api/internal/repository"
)

var (
	// ErrScoreExceedsPoints indicates an essay grade surpasses the question's
	// point value.
	ErrScoreExceedsPoints = errors.New("score exceeds question points")
	// ErrNotEssayQuestion indicates the question is auto-graded and cannot be
	// scored manually.
	ErrNotEssayQuestion = errors.New("question is not an essay")
	// ErrUngradedEssays indicates publication was attempted while essay
	// answers are still unscored.
	ErrUngradedEssays = errors.New("submission has ungraded essay answers")
)

// resultExportHeader is the column order of the results CSV.
var resultExportHeader = []string{"student", "class", "attempt", "score", "max_score", "mc_score", "status", "submitted_at"}

// GradingService drives the manual half of the grading engine: essay scoring,
// publication, batch repair of multiple-choice answers and the teacher queue.
type GradingService interface {
	GradeEssay(ctx context.Context, principal Principal, submissionID uint, payload dto.GradeEssayRequest) (dto.GradeEssayResponse, error)
	Publish(ctx context.Context, principal Principal, submissionID uint) (dto.SubmissionResponse, error)
	AutoGrade(ctx context.Context, principal Principal, assignmentID uint) (dto.AutoGradeResponse, error)
	PendingGrading(ctx context.Context, principal Principal, assignmentID uint) ([]dto.PendingGradingEntry, error)
	GradingDetail(ctx context.Context, principal Principal, submissionID uint) (dto.GradingDetailResponse, error)
	ExportResults(ctx context.Context, principal Principal, assignmentID uint, writer io.Writer) error
}

type gradingService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	questions   repository.AssignmentQuestionRepository
	attachments repository.AttachmentRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	activity    ActivityRecorder
	events      EventPublisher
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewGradingService constructs the grading service. The Redis client is
// optional; without it the pending queue is computed on every call.
func NewGradingService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	questions repository.AssignmentQuestionRepository,
	attachments repository.AttachmentRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	events EventPublisher,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		submissions: submissions,
		assignments: assignments,
		questions:   questions,
		attachments: attachments,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		activity:    activity,
		events:      events,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/quizdesk-api/internal/service/grading"),
		now:         time.Now,
	}
}

func (s *gradingService) GradeEssay(ctx context.Context, principal Principal, submissionID uint, payload dto.GradeEssayRequest) (dto.GradeEssayResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.grade_essay", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(principal.UserID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradeEssayResponse{}, err
	}

	submission, err := s.ownedSubmission(ctx, principal, submissionID)
	if err != nil {
		span.RecordError(err)
		return dto.GradeEssayResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, submission.AssignmentID, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeEssayResponse{}, ErrAssignmentQuestionNotFound
		}
		return dto.GradeEssayResponse{}, err
	}
	if !question.IsEssay() {
		return dto.GradeEssayResponse{}, ErrNotEssayQuestion
	}

	score := *payload.Score
	if score > question.Points+1e-9 {
		span.SetStatus(codes.Error, "score_exceeds_points")
		return dto.GradeEssayResponse{}, ErrScoreExceedsPoints
	}

	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	gradedAt := s.now()

	answer, err := s.submissions.GetAnswer(ctx, submissionID, payload.QuestionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeEssayResponse{}, err
		}
		// No answer row means the student never reached this question; grade
		// it anyway so the submission can finalize.
		answer = models.StudentAnswer{
			SubmissionID: submissionID,
			QuestionID:   payload.QuestionID,
			QuestionType: models.QuestionTypeEssay,
		}
		answer.Score = &score
		answer.Feedback = feedback
		answer.Graded = true
		answer.GradedAt = &gradedAt
		if err := s.submissions.CreateAnswer(ctx, &answer); err != nil {
			return dto.GradeEssayResponse{}, err
		}
	} else {
		answer.Score = &score
		answer.Feedback = feedback
		answer.Graded = true
		answer.GradedAt = &gradedAt
		if err := s.submissions.UpdateAnswer(ctx, &answer); err != nil {
			return dto.GradeEssayResponse{}, err
		}
	}

	response := dto.GradeEssayResponse{
		QuestionID: payload.QuestionID,
		Score:      score,
		Feedback:   feedback,
	}

	finalScore, gradedCount, totalCount, err := s.recomputeFinal(ctx, &submission)
	if err != nil {
		return dto.GradeEssayResponse{}, err
	}
	response.GradedQuestions = gradedCount
	response.TotalQuestions = totalCount
	response.FinalScore = finalScore

	observability.EssayGradesTotal().Inc()
	s.invalidateQueue(ctx, submission.AssignmentID)

	if finalScore != nil {
		s.events.Publish(ctx, EventSubmissionGraded, submission.AssignmentID, submission.ID, submission.StudentID)
	}

	if s.activity != nil {
		entityID := submission.ID
		_ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    principal.UserID,
			ActorRole:  principal.Role,
			Action:     "submission.essay_graded",
			EntityType: "submission",
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"assignment_id": submission.AssignmentID,
				"question_id":   payload.QuestionID,
				"score":         score,
			},
		})
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("question_id", payload.QuestionID).
		Float64("score", score).
		Int("graded", gradedCount).
		Int("total", totalCount).
		Msg("essay graded")

	return response, nil
}

func (s *gradingService) Publish(ctx context.Context, principal Principal, submissionID uint) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.publish", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
	))
	defer span.End()

	submission, err := s.ownedSubmission(ctx, principal, submissionID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	questions, err := s.questions.ListByAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	answers, err := s.submissions.ListAnswers(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	scoreByQuestion := make(map[uint]*float64, len(answers))
	for _, answer := range answers {
		scoreByQuestion[answer.QuestionID] = answer.Score
	}

	for _, question := range questions {
		if !question.IsEssay() {
			continue
		}
		score, ok := scoreByQuestion[question.ID]
		if !ok || score == nil {
			span.SetStatus(codes.Error, "ungraded_essays")
			return dto.SubmissionResponse{}, ErrUngradedEssays
		}
	}

	publishedAt := s.now()
	submission.PendingGrading = false
	submission.PublishedAt = &publishedAt

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsPublishedTotal().Inc()
	s.invalidateQueue(ctx, submission.AssignmentID)
	s.events.Publish(ctx, EventSubmissionPublished, submission.AssignmentID, submission.ID, submission.StudentID)

	if s.activity != nil {
		entityID := submission.ID
		_ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    principal.UserID,
			ActorRole:  principal.Role,
			Action:     "submission.published",
			EntityType: "submission",
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"assignment_id": submission.AssignmentID,
				"student_id":    submission.StudentID,
				"score":         submission.Score,
			},
		})
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("student_id", submission.StudentID).
		Float64("score", submission.Score).
		Msg("submission published")

	submission.Answers = answers

	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) AutoGrade(ctx context.Context, principal Principal, assignmentID uint) (dto.AutoGradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.auto_grade", trace.WithAttributes(
		attribute.Int64("grading.assignment_id", int64(assignmentID)),
	))
	defer span.End()

	if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		span.RecordError(err)
		return dto.AutoGradeResponse{}, err
	}

	questions, err := s.questions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return dto.AutoGradeResponse{}, err
	}

	byID := make(map[uint]models.AssignmentQuestion, len(questions))
	var mcTotal int
	var mcPointPool float64
	for _, question := range questions {
		byID[question.ID] = question
		if !question.IsEssay() {
			mcTotal++
			mcPointPool += question.Points
		}
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return dto.AutoGradeResponse{}, err
	}

	gradedCount := 0
	for i := range submissions {
		submission := &submissions[i]
		changed := false

		for j := range submission.Answers {
			answer := &submission.Answers[j]
			// The null-score guard makes the batch idempotent.
			if answer.QuestionType != models.QuestionTypeMultipleChoice || answer.Score != nil {
				continue
			}
			question, ok := byID[answer.QuestionID]
			if !ok {
				continue
			}

			selected := -1
			if answer.SelectedAnswer != nil {
				selected = *answer.SelectedAnswer
			}

			score := 0.0
			if correctIndex, usable := question.CorrectChoiceIndex(); usable && selected == correctIndex {
				score = question.Points
			}

			gradedAt := s.now()
			answer.Score = &score
			answer.Graded = true
			answer.GradedAt = &gradedAt

			if err := s.submissions.UpdateAnswer(ctx, answer); err != nil {
				return dto.AutoGradeResponse{}, err
			}
			gradedCount++
			changed = true
		}

		if changed && mcTotal > 0 {
			correctCount := 0
			for _, answer := range submission.Answers {
				question, ok := byID[answer.QuestionID]
				if !ok || question.IsEssay() || answer.Score == nil {
					continue
				}
				if *answer.Score > 0 {
					correctCount++
				}
			}
			submission.CorrectCount = correctCount
			submission.McScore = math.Round(float64(correctCount) / float64(mcTotal) * mcPointPool)
			if submission.PendingGrading {
				submission.Score = submission.McScore
			}
			if err := s.submissions.Update(ctx, submission); err != nil {
				return dto.AutoGradeResponse{}, err
			}
		}
	}

	if gradedCount > 0 {
		observability.AutoGradedAnswersTotal().Add(float64(gradedCount))
		s.invalidateQueue(ctx, assignmentID)
	}

	span.SetAttributes(attribute.Int("grading.auto_graded", gradedCount))
	s.logger.Info().Uint("assignment_id", assignmentID).Int("graded_count", gradedCount).Msg("auto grade complete")

	return dto.AutoGradeResponse{GradedCount: gradedCount}, nil
}

func (s *gradingService) PendingGrading(ctx context.Context, principal Principal, assignmentID uint) ([]dto.PendingGradingEntry, error) {
	if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		return nil, err
	}

	cacheKey := pendingQueueKey(assignmentID)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var entries []dto.PendingGradingEntry
			if unmarshalErr := json.Unmarshal([]byte(cached), &entries); unmarshalErr == nil {
				observability.GradingQueueCache().WithLabelValues("hit").Inc()
				return entries, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("pending queue cache read failed")
		}
		observability.GradingQueueCache().WithLabelValues("miss").Inc()
	}

	questions, err := s.questions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.PendingGradingEntry, 0, len(submissions))
	for _, submission := range submissions {
		entry := dto.PendingGradingEntry{
			SubmissionID:   submission.ID,
			Attempt:        submission.Attempt,
			SubmittedAt:    submission.SubmittedAt,
			TotalQuestions: len(questions),
			PendingGrading: submission.PendingGrading,
			Student: dto.StudentLite{
				ID:       submission.Student.ID,
				FullName: submission.Student.FullName,
				Class:    submission.Student.Class,
			},
		}

		for _, answer := range submission.Answers {
			if answer.Score != nil {
				entry.GradedQuestions++
			}
			if answer.QuestionType == models.QuestionTypeEssay {
				entry.EssayAnswers = append(entry.EssayAnswers, dto.NewStudentAnswerResponse(answer))
			}
		}
		entry.PendingQuestions = entry.TotalQuestions - entry.GradedQuestions

		entries = append(entries, entry)
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("pending queue cache write failed")
			}
		}
	}

	return entries, nil
}

func (s *gradingService) GradingDetail(ctx context.Context, principal Principal, submissionID uint) (dto.GradingDetailResponse, error) {
	submission, err := s.ownedSubmission(ctx, principal, submissionID)
	if err != nil {
		return dto.GradingDetailResponse{}, err
	}

	questions, err := s.questions.ListByAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return dto.GradingDetailResponse{}, err
	}
	answers, err := s.submissions.ListAnswers(ctx, submissionID)
	if err != nil {
		return dto.GradingDetailResponse{}, err
	}
	files, err := s.attachments.ListBySubmission(ctx, submissionID)
	if err != nil {
		return dto.GradingDetailResponse{}, err
	}

	answerByQuestion := make(map[uint]models.StudentAnswer, len(answers))
	for _, answer := range answers {
		answerByQuestion[answer.QuestionID] = answer
	}
	filesByQuestion := make(map[uint][]models.AttachmentFile)
	for _, file := range files {
		if file.QuestionID != nil {
			filesByQuestion[*file.QuestionID] = append(filesByQuestion[*file.QuestionID], file)
		}
	}

	details := make([]dto.GradingQuestionDetail, 0, len(questions))
	for _, question := range questions {
		var answer *models.StudentAnswer
		if found, ok := answerByQuestion[question.ID]; ok {
			copied := found
			answer = &copied
		}
		details = append(details, dto.NewGradingQuestionDetail(question, answer, filesByQuestion[question.ID]))
	}

	submission.Answers = answers

	return dto.GradingDetailResponse{
		Submission: dto.NewSubmissionResponse(submission),
		Questions:  details,
	}, nil
}

func (s *gradingService) ExportResults(ctx context.Context, principal Principal, assignmentID uint, writer io.Writer) error {
	if _, err := s.ownedAssignment(ctx, principal, assignmentID); err != nil {
		return err
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}

	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(resultExportHeader); err != nil {
		return err
	}

	for _, submission := range submissions {
		record := []string{
			submission.Student.FullName,
			submission.Student.Class,
			strconv.Itoa(submission.Attempt),
			formatScore(submission.Score),
			formatScore(submission.MaxScore),
			formatScore(submission.McScore),
			submission.Status,
			submission.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()

	return csvWriter.Error()
}

// recomputeFinal sets the submission-level final score once every question
// has a graded answer. Partial grading leaves the displayed score untouched.
func (s *gradingService) recomputeFinal(ctx context.Context, submission *models.Submission) (*float64, int, int, error) {
	questions, err := s.questions.ListByAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return nil, 0, 0, err
	}
	answers, err := s.submissions.ListAnswers(ctx, submission.ID)
	if err != nil {
		return nil, 0, 0, err
	}

	gradedCount := 0
	var sum float64
	var essaySum float64
	for _, answer := range answers {
		if answer.Score == nil {
			continue
		}
		gradedCount++
		sum += *answer.Score
		if answer.QuestionType == models.QuestionTypeEssay {
			essaySum += *answer.Score
		}
	}

	totalCount := len(questions)
	if gradedCount != totalCount || totalCount == 0 {
		return nil, gradedCount, totalCount, nil
	}

	final := math.Round(sum / float64(gradedCount))
	gradedAt := s.now()
	submission.Score = final
	submission.EssayScore = &essaySum
	submission.GradedAt = &gradedAt

	if err := s.submissions.Update(ctx, submission); err != nil {
		return nil, gradedCount, totalCount, err
	}

	return &final, gradedCount, totalCount, nil
}

func (s *gradingService) ownedSubmission(ctx context.Context, principal Principal, submissionID uint) (models.Submission, error) {
	if !principal.IsTeacher() {
		return models.Submission{}, ErrTeacherOnly
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if submission.Assignment.ID != 0 && submission.Assignment.TeacherID != principal.UserID {
		return models.Submission{}, ErrNotOwner
	}

	return submission, nil
}

func (s *gradingService) ownedAssignment(ctx context.Context, principal Principal, assignmentID uint) (models.Assignment, error) {
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

func (s *gradingService) invalidateQueue(ctx context.Context, assignmentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, pendingQueueKey(assignmentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("pending queue cache invalidation failed")
	}
}

func pendingQueueKey(assignmentID uint) string {
	return fmt.Sprintf("grading:pending:%d", assignmentID)
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
