package models

import "time"

// SubmissionStatusSubmitted indicates a recorded attempt.
const SubmissionStatusSubmitted = "submitted"

// Submission is one student attempt at an assignment. The unique index on
// (assignment, student, attempt) backstops the serialized attempt counter.
type Submission struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	AssignmentID     uint            `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"assignment_id"`
	StudentID        uint            `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"student_id"`
	Attempt          int             `gorm:"not null;default:1;uniqueIndex:idx_submission_attempt" json:"attempt"`
	Score            float64         `gorm:"not null;default:0" json:"score"`
	MaxScore         float64         `gorm:"not null;default:0" json:"max_score"`
	CorrectCount     int             `gorm:"not null;default:0" json:"correct_count"`
	TimeTakenSeconds int             `gorm:"not null;default:0" json:"time_taken_seconds"`
	Status           string          `gorm:"size:32;not null" json:"status"`
	McScore          float64         `gorm:"not null;default:0" json:"mc_score"`
	EssayScore       *float64        `json:"essay_score"`
	PendingGrading   bool            `gorm:"not null;default:false" json:"pending_grading"`
	SubmittedAt      time.Time       `json:"submitted_at"`
	GradedAt         *time.Time      `json:"graded_at"`
	PublishedAt      *time.Time      `json:"published_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Assignment       Assignment      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student          User            `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Answers          []StudentAnswer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers,omitempty"`
}

// IsPublished reports whether grading results are visible to the student.
func (s Submission) IsPublished() bool {
	return s.PublishedAt != nil && !s.PendingGrading
}

// StudentAnswer is one answered question within a submission. MC answers are
// graded at submit time; essay answers stay ungraded until a teacher scores
// them.
type StudentAnswer struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	SubmissionID   uint       `gorm:"not null;index" json:"submission_id"`
	QuestionID     uint       `gorm:"not null" json:"question_id"`
	QuestionType   string     `gorm:"size:32;not null" json:"question_type"`
	SelectedAnswer *int       `json:"selected_answer"`
	EssayText      string     `gorm:"type:text" json:"essay_text"`
	Score          *float64   `json:"score"`
	Feedback       string     `gorm:"type:text" json:"feedback"`
	Graded         bool       `gorm:"not null;default:false" json:"graded"`
	GradedAt       *time.Time `json:"graded_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
