package dto

import (
	"time"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// QuestionSetCreateRequest creates a question bank.
type QuestionSetCreateRequest struct {
	Name             string `json:"name" validate:"required,max=255"`
	Description      string `json:"description"`
	InstantFeedback  bool   `json:"instant_feedback"`
	PresentationMode bool   `json:"presentation_mode"`
	ShuffleQuestions bool   `json:"shuffle_questions"`
	ShuffleChoices   bool   `json:"shuffle_choices"`
	AllowSkip        bool   `json:"allow_skip"`
	ShowScore        *bool  `json:"show_score"`
	TimeLimitSeconds int    `json:"time_limit_seconds" validate:"gte=0"`
}

// QuestionSetUpdateRequest patches a question bank.
type QuestionSetUpdateRequest struct {
	Name             *string `json:"name" validate:"omitempty,max=255"`
	Description      *string `json:"description"`
	InstantFeedback  *bool   `json:"instant_feedback"`
	PresentationMode *bool   `json:"presentation_mode"`
	ShuffleQuestions *bool   `json:"shuffle_questions"`
	ShuffleChoices   *bool   `json:"shuffle_choices"`
	AllowSkip        *bool   `json:"allow_skip"`
	ShowScore        *bool   `json:"show_score"`
	TimeLimitSeconds *int    `json:"time_limit_seconds" validate:"omitempty,gte=0"`
}

// QuestionSetResponse is returned to API clients when viewing question banks.
type QuestionSetResponse struct {
	ID               uint               `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	InstantFeedback  bool               `json:"instant_feedback"`
	PresentationMode bool               `json:"presentation_mode"`
	ShuffleQuestions bool               `json:"shuffle_questions"`
	ShuffleChoices   bool               `json:"shuffle_choices"`
	AllowSkip        bool               `json:"allow_skip"`
	ShowScore        bool               `json:"show_score"`
	TimeLimitSeconds int                `json:"time_limit_seconds"`
	QuestionCount    int                `json:"question_count"`
	Questions        []QuestionResponse `json:"questions,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// QuestionCreateRequest adds a question to a set.
type QuestionCreateRequest struct {
	Prompt       string `json:"prompt" validate:"required"`
	ChoiceA      string `json:"choice_a" validate:"required"`
	ChoiceB      string `json:"choice_b" validate:"required"`
	ChoiceC      string `json:"choice_c" validate:"required"`
	ChoiceD      string `json:"choice_d" validate:"required"`
	CorrectIndex int    `json:"correct_index" validate:"gte=0,lte=3"`
	Explanation  string `json:"explanation"`
}

// QuestionUpdateRequest patches a question.
type QuestionUpdateRequest struct {
	Prompt       *string `json:"prompt"`
	ChoiceA      *string `json:"choice_a"`
	ChoiceB      *string `json:"choice_b"`
	ChoiceC      *string `json:"choice_c"`
	ChoiceD      *string `json:"choice_d"`
	CorrectIndex *int    `json:"correct_index" validate:"omitempty,gte=0,lte=3"`
	Explanation  *string `json:"explanation"`
}

// QuestionResponse is the client view of a question.
type QuestionResponse struct {
	ID            uint      `json:"id"`
	QuestionSetID uint      `json:"question_set_id"`
	Prompt        string    `json:"prompt"`
	ChoiceA       string    `json:"choice_a"`
	ChoiceB       string    `json:"choice_b"`
	ChoiceC       string    `json:"choice_c"`
	ChoiceD       string    `json:"choice_d"`
	CorrectIndex  int       `json:"correct_index"`
	Explanation   string    `json:"explanation"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// QuestionSetImportDocument is the JSON import payload for a whole set,
// validated against a schema before decoding.
type QuestionSetImportDocument struct {
	Name             string                   `json:"name"`
	Description      string                   `json:"description"`
	TimeLimitSeconds int                      `json:"time_limit_seconds"`
	Questions        []QuestionImportDocument `json:"questions"`
}

// QuestionImportDocument is one question inside an import payload. Correct
// accepts a letter A-D or a 0-based digit.
type QuestionImportDocument struct {
	Prompt      string `json:"prompt"`
	ChoiceA     string `json:"choice_a"`
	ChoiceB     string `json:"choice_b"`
	ChoiceC     string `json:"choice_c"`
	ChoiceD     string `json:"choice_d"`
	Correct     string `json:"correct"`
	Explanation string `json:"explanation"`
}

// QuestionImportResult reports the outcome of a CSV or JSON import.
type QuestionImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// NewQuestionResponse converts a Question model into a DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:            model.ID,
		QuestionSetID: model.QuestionSetID,
		Prompt:        model.Prompt,
		ChoiceA:       model.ChoiceA,
		ChoiceB:       model.ChoiceB,
		ChoiceC:       model.ChoiceC,
		ChoiceD:       model.ChoiceD,
		CorrectIndex:  model.CorrectIndex,
		Explanation:   model.Explanation,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewQuestionResponseSlice converts question models into DTOs.
func NewQuestionResponseSlice(questions []models.Question) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewQuestionResponse(question))
	}

	return responses
}

// NewQuestionSetResponse converts a QuestionSet model into a DTO.
func NewQuestionSetResponse(model models.QuestionSet) QuestionSetResponse {
	response := QuestionSetResponse{
		ID:               model.ID,
		Name:             model.Name,
		Description:      model.Description,
		InstantFeedback:  model.InstantFeedback,
		PresentationMode: model.PresentationMode,
		ShuffleQuestions: model.ShuffleQuestions,
		ShuffleChoices:   model.ShuffleChoices,
		AllowSkip:        model.AllowSkip,
		ShowScore:        model.ShowScore,
		TimeLimitSeconds: model.TimeLimitSeconds,
		QuestionCount:    len(model.Questions),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	if len(model.Questions) > 0 {
		response.Questions = NewQuestionResponseSlice(model.Questions)
	}

	return response
}

// NewQuestionSetResponseSlice converts question set models into DTOs.
func NewQuestionSetResponseSlice(sets []models.QuestionSet) []QuestionSetResponse {
	responses := make([]QuestionSetResponse, 0, len(sets))
	for _, set := range sets {
		responses = append(responses, NewQuestionSetResponse(set))
	}

	return responses
}
