package dto

import (
	"time"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// AssignmentCreateRequest creates an assignment.
type AssignmentCreateRequest struct {
	Title           string `json:"title" validate:"required,max=255"`
	Description     string `json:"description"`
	QuestionSetID   *uint  `json:"question_set_id" validate:"omitempty,gt=0"`
	DueDate         string `json:"due_date" validate:"required"`
	AllowRetake     bool   `json:"allow_retake"`
	CustomQuestions bool   `json:"custom_questions"`
}

// AssignmentUpdateRequest patches an assignment.
type AssignmentUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	AllowRetake *bool   `json:"allow_retake"`
}

// RosterRequest replaces the set of students assigned to an assignment.
type RosterRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,dive,gt=0"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID              uint                         `json:"id"`
	Title           string                       `json:"title"`
	Description     string                       `json:"description"`
	TeacherID       uint                         `json:"teacher_id"`
	QuestionSetID   *uint                        `json:"question_set_id"`
	DueDate         time.Time                    `json:"due_date"`
	AllowRetake     bool                         `json:"allow_retake"`
	CustomQuestions bool                         `json:"custom_questions"`
	Questions       []AssignmentQuestionResponse `json:"questions,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

// StudentAssignmentResponse pairs an assignment with the student's latest
// submission state.
type StudentAssignmentResponse struct {
	Assignment     AssignmentResponse `json:"assignment"`
	Submitted      bool               `json:"submitted"`
	Attempts       int                `json:"attempts"`
	LatestScore    *float64           `json:"latest_score,omitempty"`
	PendingGrading bool               `json:"pending_grading"`
	Overdue        bool               `json:"overdue"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:              model.ID,
		Title:           model.Title,
		Description:     model.Description,
		TeacherID:       model.TeacherID,
		QuestionSetID:   model.QuestionSetID,
		DueDate:         model.DueDate,
		AllowRetake:     model.AllowRetake,
		CustomQuestions: model.CustomQuestions,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if len(model.Questions) > 0 {
		response.Questions = NewAssignmentQuestionResponseSlice(model.Questions)
	}

	return response
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
