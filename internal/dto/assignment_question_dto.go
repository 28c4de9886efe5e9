package dto

import (
	"time"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// AssignmentQuestionCreateRequest adds a question to an assignment.
type AssignmentQuestionCreateRequest struct {
	Type             string  `json:"type" validate:"required,oneof=multiple_choice essay"`
	Prompt           string  `json:"prompt" validate:"required"`
	Position         int     `json:"position" validate:"gte=0"`
	Points           float64 `json:"points" validate:"gt=0"`
	ChoiceA          string  `json:"choice_a"`
	ChoiceB          string  `json:"choice_b"`
	ChoiceC          string  `json:"choice_c"`
	ChoiceD          string  `json:"choice_d"`
	CorrectAnswer    string  `json:"correct_answer"`
	FileRequired     bool    `json:"file_required"`
	AllowedFileTypes string  `json:"allowed_file_types"`
	Explanation      string  `json:"explanation"`
}

// AssignmentQuestionUpdateRequest patches an assignment question.
type AssignmentQuestionUpdateRequest struct {
	Prompt           *string  `json:"prompt"`
	Position         *int     `json:"position" validate:"omitempty,gte=0"`
	Points           *float64 `json:"points" validate:"omitempty,gt=0"`
	ChoiceA          *string  `json:"choice_a"`
	ChoiceB          *string  `json:"choice_b"`
	ChoiceC          *string  `json:"choice_c"`
	ChoiceD          *string  `json:"choice_d"`
	CorrectAnswer    *string  `json:"correct_answer"`
	FileRequired     *bool    `json:"file_required"`
	AllowedFileTypes *string  `json:"allowed_file_types"`
	Explanation      *string  `json:"explanation"`
}

// AssignmentQuestionResponse is the client view of an assignment question.
// The correct answer is omitted so the student payload never leaks it; the
// grading detail endpoint exposes it separately.
type AssignmentQuestionResponse struct {
	ID               uint      `json:"id"`
	AssignmentID     uint      `json:"assignment_id"`
	Type             string    `json:"type"`
	Prompt           string    `json:"prompt"`
	Position         int       `json:"position"`
	Points           float64   `json:"points"`
	ChoiceA          string    `json:"choice_a,omitempty"`
	ChoiceB          string    `json:"choice_b,omitempty"`
	ChoiceC          string    `json:"choice_c,omitempty"`
	ChoiceD          string    `json:"choice_d,omitempty"`
	FileRequired     bool      `json:"file_required"`
	AllowedFileTypes string    `json:"allowed_file_types,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewAssignmentQuestionResponse converts an AssignmentQuestion model into a DTO.
func NewAssignmentQuestionResponse(model models.AssignmentQuestion) AssignmentQuestionResponse {
	return AssignmentQuestionResponse{
		ID:               model.ID,
		AssignmentID:     model.AssignmentID,
		Type:             model.Type,
		Prompt:           model.Prompt,
		Position:         model.Position,
		Points:           model.Points,
		ChoiceA:          model.ChoiceA,
		ChoiceB:          model.ChoiceB,
		ChoiceC:          model.ChoiceC,
		ChoiceD:          model.ChoiceD,
		FileRequired:     model.FileRequired,
		AllowedFileTypes: model.AllowedFileTypes,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewAssignmentQuestionResponseSlice converts assignment question models into DTOs.
func NewAssignmentQuestionResponseSlice(questions []models.AssignmentQuestion) []AssignmentQuestionResponse {
	responses := make([]AssignmentQuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewAssignmentQuestionResponse(question))
	}

	return responses
}
