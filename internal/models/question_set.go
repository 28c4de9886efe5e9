package models

import "time"

// QuestionSet groups reusable multiple-choice questions authored by a teacher.
type QuestionSet struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:255;not null" json:"name"`
	Description      string     `gorm:"type:text" json:"description"`
	CreatedBy        uint       `gorm:"not null" json:"created_by"`
	InstantFeedback  bool       `gorm:"not null;default:false" json:"instant_feedback"`
	PresentationMode bool       `gorm:"not null;default:false" json:"presentation_mode"`
	ShuffleQuestions bool       `gorm:"not null;default:false" json:"shuffle_questions"`
	ShuffleChoices   bool       `gorm:"not null;default:false" json:"shuffle_choices"`
	AllowSkip        bool       `gorm:"not null;default:false" json:"allow_skip"`
	ShowScore        bool       `gorm:"not null;default:true" json:"show_score"`
	TimeLimitSeconds int        `gorm:"not null;default:0" json:"time_limit_seconds"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Questions        []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// Question is a single four-choice item inside a question set.
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	QuestionSetID uint      `gorm:"not null;index" json:"question_set_id"`
	Prompt        string    `gorm:"type:text;not null" json:"prompt"`
	ChoiceA       string    `gorm:"type:text;not null" json:"choice_a"`
	ChoiceB       string    `gorm:"type:text;not null" json:"choice_b"`
	ChoiceC       string    `gorm:"type:text;not null" json:"choice_c"`
	ChoiceD       string    `gorm:"type:text;not null" json:"choice_d"`
	CorrectIndex  int       `gorm:"not null" json:"correct_index"`
	Explanation   string    `gorm:"type:text" json:"explanation"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Choices returns the four options in display order.
func (q Question) Choices() [4]string {
	return [4]string{q.ChoiceA, q.ChoiceB, q.ChoiceC, q.ChoiceD}
}
