package dto

import "time"

// ProgressSummary aggregates a student's standing across assignments.
type ProgressSummary struct {
	TotalAssignments int      `json:"total_assignments"`
	Submitted        int      `json:"submitted"`
	Graded           int      `json:"graded"`
	Pending          int      `json:"pending"`
	Overdue          int      `json:"overdue"`
	AverageScore     *float64 `json:"average_score,omitempty"`
}

// AssignmentProgress reports one assignment's state for the dashboard.
type AssignmentProgress struct {
	AssignmentID   uint      `json:"assignment_id"`
	Title          string    `json:"title"`
	DueDate        time.Time `json:"due_date"`
	Status         string    `json:"status"`
	Attempts       int       `json:"attempts"`
	LatestScore    *float64  `json:"latest_score,omitempty"`
	MaxScore       *float64  `json:"max_score,omitempty"`
	PendingGrading bool      `json:"pending_grading"`
	Overdue        bool      `json:"overdue"`
}

// StudentDashboardResponse is the aggregated student progress view.
type StudentDashboardResponse struct {
	Summary     ProgressSummary      `json:"summary"`
	Assignments []AssignmentProgress `json:"assignments"`
}
