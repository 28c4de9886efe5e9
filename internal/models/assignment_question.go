package models

import (
	"strconv"
	"strings"
	"time"
)

// Question types supported inside an assignment.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeEssay          = "essay"
)

// AssignmentQuestion is a per-assignment item, either auto-graded
// multiple-choice or a manually graded essay.
type AssignmentQuestion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;index" json:"assignment_id"`
	Type         string    `gorm:"size:32;not null" json:"type"`
	Prompt       string    `gorm:"type:text;not null" json:"prompt"`
	Position     int       `gorm:"not null;default:0" json:"position"`
	Points       float64   `gorm:"not null;default:0" json:"points"`
	ChoiceA      string    `gorm:"type:text" json:"choice_a"`
	ChoiceB      string    `gorm:"type:text" json:"choice_b"`
	ChoiceC      string    `gorm:"type:text" json:"choice_c"`
	ChoiceD      string    `gorm:"type:text" json:"choice_d"`
	// CorrectAnswer holds either a letter A-D or a 0-based digit.
	CorrectAnswer    string    `gorm:"size:8" json:"correct_answer,omitempty"`
	FileRequired     bool      `gorm:"not null;default:false" json:"file_required"`
	AllowedFileTypes string    `gorm:"size:255" json:"allowed_file_types"`
	Explanation      string    `gorm:"type:text" json:"explanation"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsEssay reports whether the item requires manual grading.
func (q AssignmentQuestion) IsEssay() bool {
	return q.Type == QuestionTypeEssay
}

// CorrectChoiceIndex normalizes the stored correct answer to a 0-based index.
// The second return value is false when the stored value is unusable.
func (q AssignmentQuestion) CorrectChoiceIndex() (int, bool) {
	return NormalizeChoice(q.CorrectAnswer)
}

// NormalizeChoice converts a letter A-D or digit 0-3 into a 0-based index.
func NormalizeChoice(value string) (int, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return 0, false
	}

	if len(trimmed) == 1 && trimmed[0] >= 'A' && trimmed[0] <= 'D' {
		return int(trimmed[0] - 'A'), true
	}

	index, err := strconv.Atoi(trimmed)
	if err != nil || index < 0 || index > 3 {
		return 0, false
	}

	return index, true
}
