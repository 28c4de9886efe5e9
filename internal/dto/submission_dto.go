package dto

import (
	"time"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// AnswerSubmission is one answered question inside a submit payload.
type AnswerSubmission struct {
	QuestionID     uint   `json:"question_id" validate:"required,gt=0"`
	QuestionType   string `json:"question_type" validate:"required,oneof=multiple_choice essay"`
	SelectedAnswer *int   `json:"selected_answer" validate:"omitempty,gte=-1,lte=3"`
	EssayText      string `json:"essay_text"`
	FileIDs        []uint `json:"file_ids" validate:"omitempty,dive,gt=0"`
}

// SubmitRequest is the student submit payload.
type SubmitRequest struct {
	Answers   []AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
	TimeTaken int                `json:"time_taken" validate:"gte=0"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=submitted"`
}

// StudentAnswerResponse serializes one answer within a submission.
type StudentAnswerResponse struct {
	ID             uint       `json:"id"`
	QuestionID     uint       `json:"question_id"`
	QuestionType   string     `json:"question_type"`
	SelectedAnswer *int       `json:"selected_answer,omitempty"`
	EssayText      string     `json:"essay_text,omitempty"`
	Score          *float64   `json:"score"`
	Feedback       string     `json:"feedback,omitempty"`
	Graded         bool       `json:"graded"`
	GradedAt       *time.Time `json:"graded_at,omitempty"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID               uint                    `json:"id"`
	AssignmentID     uint                    `json:"assignment_id"`
	StudentID        uint                    `json:"student_id"`
	Attempt          int                     `json:"attempt"`
	Score            float64                 `json:"score"`
	MaxScore         float64                 `json:"max_score"`
	CorrectCount     int                     `json:"correct_count"`
	TimeTakenSeconds int                     `json:"time_taken_seconds"`
	Status           string                  `json:"status"`
	McScore          float64                 `json:"mc_score"`
	EssayScore       *float64                `json:"essay_score"`
	PendingGrading   bool                    `json:"pending_grading"`
	SubmittedAt      time.Time               `json:"submitted_at"`
	GradedAt         *time.Time              `json:"graded_at"`
	PublishedAt      *time.Time              `json:"published_at"`
	Answers          []StudentAnswerResponse `json:"answers,omitempty"`
	Assignment       AssignmentLite          `json:"assignment"`
	Student          StudentLite             `json:"student"`
}

// SubmitResponse wraps the created submission plus any answers that were
// skipped because their question id did not belong to the assignment.
type SubmitResponse struct {
	Submission         SubmissionResponse `json:"submission"`
	SkippedQuestionIDs []uint             `json:"skipped_question_ids,omitempty"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	DueDate     time.Time `json:"due_date"`
	AllowRetake bool      `json:"allow_retake"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Class    string `json:"class,omitempty"`
}

// NewStudentAnswerResponse converts a StudentAnswer model into a DTO.
func NewStudentAnswerResponse(model models.StudentAnswer) StudentAnswerResponse {
	return StudentAnswerResponse{
		ID:             model.ID,
		QuestionID:     model.QuestionID,
		QuestionType:   model.QuestionType,
		SelectedAnswer: model.SelectedAnswer,
		EssayText:      model.EssayText,
		Score:          model.Score,
		Feedback:       model.Feedback,
		Graded:         model.Graded,
		GradedAt:       model.GradedAt,
	}
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:               model.ID,
		AssignmentID:     model.AssignmentID,
		StudentID:        model.StudentID,
		Attempt:          model.Attempt,
		Score:            model.Score,
		MaxScore:         model.MaxScore,
		CorrectCount:     model.CorrectCount,
		TimeTakenSeconds: model.TimeTakenSeconds,
		Status:           model.Status,
		McScore:          model.McScore,
		EssayScore:       model.EssayScore,
		PendingGrading:   model.PendingGrading,
		SubmittedAt:      model.SubmittedAt,
		GradedAt:         model.GradedAt,
		PublishedAt:      model.PublishedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:          model.Assignment.ID,
			Title:       model.Assignment.Title,
			DueDate:     model.Assignment.DueDate,
			AllowRetake: model.Assignment.AllowRetake,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:       model.Student.ID,
			FullName: model.Student.FullName,
			Class:    model.Student.Class,
		}
	}

	if len(model.Answers) > 0 {
		answers := make([]StudentAnswerResponse, 0, len(model.Answers))
		for _, answer := range model.Answers {
			answers = append(answers, NewStudentAnswerResponse(answer))
		}
		response.Answers = answers
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
