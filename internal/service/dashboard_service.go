package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/repository"
)

// DashboardService aggregates a student's progress across assignments.
type DashboardService interface {
	StudentDashboard(ctx context.Context, principal Principal) (dto.StudentDashboardResponse, error)
}

type dashboardService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDashboardService constructs the dashboard service. The Redis client is
// optional; without it every call recomputes the aggregate.
func NewDashboardService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *dashboardService) StudentDashboard(ctx context.Context, principal Principal) (dto.StudentDashboardResponse, error) {
	if !principal.IsStudent() {
		return dto.StudentDashboardResponse{}, ErrStudentOnly
	}

	cacheKey := dashboardKey(principal.UserID)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("dashboard cache read failed")
		}
	}

	assignments, err := s.assignments.ListForStudent(ctx, principal.UserID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	now := s.now()
	response := dto.StudentDashboardResponse{
		Summary: dto.ProgressSummary{TotalAssignments: len(assignments)},
	}

	var scoreSum float64
	var scoredCount int
	for _, assignment := range assignments {
		assignmentID := assignment.ID
		studentID := principal.UserID
		submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
			AssignmentID: &assignmentID,
			StudentID:    &studentID,
		})
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}

		progress := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
			Attempts:     len(submissions),
			Status:       "assigned",
			Overdue:      assignment.IsPastDue(now) && len(submissions) == 0,
		}

		if len(submissions) > 0 {
			response.Summary.Submitted++
			latest := submissions[0]
			progress.Status = "submitted"
			progress.PendingGrading = latest.PendingGrading

			maxScore := latest.MaxScore
			progress.MaxScore = &maxScore

			if latest.IsPublished() {
				progress.Status = "graded"
				response.Summary.Graded++
				score := latest.Score
				progress.LatestScore = &score
				scoreSum += score
				scoredCount++
			} else if latest.PendingGrading {
				response.Summary.Pending++
			}
		} else if assignment.IsPastDue(now) {
			response.Summary.Overdue++
		}

		response.Assignments = append(response.Assignments, progress)
	}

	if scoredCount > 0 {
		average := scoreSum / float64(scoredCount)
		response.Summary.AverageScore = &average
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("dashboard cache write failed")
			}
		}
	}

	return response, nil
}

func dashboardKey(studentID uint) string {
	return fmt.Sprintf("dashboard:student:%d", studentID)
}
