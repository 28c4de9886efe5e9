package models

import "time"

// Assignment binds a question set or custom question list to a roster of
// students with a due date and retake policy.
type Assignment struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	Title           string               `gorm:"size:255;not null" json:"title"`
	Description     string               `gorm:"type:text" json:"description"`
	TeacherID       uint                 `gorm:"not null;index" json:"teacher_id"`
	QuestionSetID   *uint                `json:"question_set_id"`
	DueDate         time.Time            `gorm:"not null" json:"due_date"`
	AllowRetake     bool                 `gorm:"not null;default:false" json:"allow_retake"`
	CustomQuestions bool                 `gorm:"not null;default:false" json:"custom_questions"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Students        []AssignmentStudent  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"students,omitempty"`
	Questions       []AssignmentQuestion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// AssignmentStudent is the roster edge deciding who may submit.
type AssignmentStudent struct {
	AssignmentID uint      `gorm:"primaryKey;autoIncrement:false" json:"assignment_id"`
	StudentID    uint      `gorm:"primaryKey;autoIncrement:false" json:"student_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
