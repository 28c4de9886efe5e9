package dto

import (
	"time"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

// GradeEssayRequest scores one essay answer of a submission.
type GradeEssayRequest struct {
	QuestionID uint     `json:"question_id" validate:"required,gt=0"`
	Score      *float64 `json:"score" validate:"required,gte=0"`
	Feedback   string   `json:"feedback"`
}

// GradeEssayResponse reports the grading progress after a score is recorded.
type GradeEssayResponse struct {
	QuestionID      uint     `json:"question_id"`
	Score           float64  `json:"score"`
	Feedback        string   `json:"feedback,omitempty"`
	FinalScore      *float64 `json:"final_score,omitempty"`
	GradedQuestions int      `json:"graded_questions"`
	TotalQuestions  int      `json:"total_questions"`
}

// PendingGradingEntry summarizes one submission in the teacher grading queue.
type PendingGradingEntry struct {
	SubmissionID     uint                    `json:"submission_id"`
	Student          StudentLite             `json:"student"`
	Attempt          int                     `json:"attempt"`
	SubmittedAt      time.Time               `json:"submitted_at"`
	TotalQuestions   int                     `json:"total_questions"`
	GradedQuestions  int                     `json:"graded_questions"`
	PendingQuestions int                     `json:"pending_questions"`
	PendingGrading   bool                    `json:"pending_grading"`
	EssayAnswers     []StudentAnswerResponse `json:"essay_answers"`
}

// GradingQuestionDetail pairs a question with the student's answer and files.
type GradingQuestionDetail struct {
	Question      AssignmentQuestionResponse `json:"question"`
	CorrectAnswer string                     `json:"correct_answer,omitempty"`
	Explanation   string                     `json:"explanation,omitempty"`
	Answer        *StudentAnswerResponse     `json:"answer"`
	Files         []UploadResponse           `json:"files,omitempty"`
}

// GradingDetailResponse is the full teacher view of a submission.
type GradingDetailResponse struct {
	Submission SubmissionResponse      `json:"submission"`
	Questions  []GradingQuestionDetail `json:"questions"`
}

// AutoGradeResponse reports how many answers a batch auto-grade touched.
type AutoGradeResponse struct {
	GradedCount int `json:"graded_count"`
}

// ResultRow is one line of the per-assignment results export.
type ResultRow struct {
	StudentName string
	Class       string
	Attempt     int
	Score       float64
	MaxScore    float64
	McScore     float64
	Status      string
	SubmittedAt time.Time
}

// NewGradingQuestionDetail builds the teacher-side question view, including
// the correct answer that student payloads omit.
func NewGradingQuestionDetail(question models.AssignmentQuestion, answer *models.StudentAnswer, files []models.AttachmentFile) GradingQuestionDetail {
	detail := GradingQuestionDetail{
		Question:      NewAssignmentQuestionResponse(question),
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
	}

	if answer != nil {
		converted := NewStudentAnswerResponse(*answer)
		detail.Answer = &converted
	}

	if len(files) > 0 {
		uploads := make([]UploadResponse, 0, len(files))
		for _, file := range files {
			uploads = append(uploads, NewUploadResponse(file))
		}
		detail.Files = uploads
	}

	return detail
}
