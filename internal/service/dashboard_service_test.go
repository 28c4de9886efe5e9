package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

func TestStudentDashboardRejectsTeachers(t *testing.T) {
	svc := NewDashboardService(newFakeAssignmentRepo(), &fakeSubmissionRepo{}, nil, time.Minute, testLogger())

	_, err := svc.StudentDashboard(context.Background(), teacher())
	require.ErrorIs(t, err, ErrStudentOnly)
}

func TestStudentDashboardAggregatesProgress(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	submissions := &fakeSubmissionRepo{}
	svc := NewDashboardService(assignments, submissions, nil, time.Minute, testLogger())

	published := time.Now()
	assignments.assignments[1] = models.Assignment{ID: 1, Title: "Graded quiz", DueDate: time.Now().Add(time.Hour)}
	assignments.assignments[2] = models.Assignment{ID: 2, Title: "Pending essay", DueDate: time.Now().Add(time.Hour)}
	assignments.assignments[3] = models.Assignment{ID: 3, Title: "Missed quiz", DueDate: time.Now().Add(-time.Hour)}
	assignments.roster[1] = []uint{7}
	assignments.roster[2] = []uint{7}
	assignments.roster[3] = []uint{7}

	submissions.submissions = []models.Submission{
		{ID: 1, AssignmentID: 1, StudentID: 7, Score: 80, MaxScore: 100, PublishedAt: &published},
		{ID: 2, AssignmentID: 2, StudentID: 7, Score: 40, MaxScore: 100, PendingGrading: true},
	}

	response, err := svc.StudentDashboard(context.Background(), Principal{UserID: 7, Role: models.RoleStudent})
	require.NoError(t, err)

	summary := response.Summary
	require.Equal(t, 3, summary.TotalAssignments)
	require.Equal(t, 2, summary.Submitted)
	require.Equal(t, 1, summary.Graded)
	require.Equal(t, 1, summary.Pending)
	require.Equal(t, 1, summary.Overdue)
	require.NotNil(t, summary.AverageScore)
	// Only published scores count toward the average.
	require.Equal(t, float64(80), *summary.AverageScore)

	require.Len(t, response.Assignments, 3)
	require.Equal(t, "graded", response.Assignments[0].Status)
	require.Equal(t, "submitted", response.Assignments[1].Status)
	require.True(t, response.Assignments[1].PendingGrading)
	require.Equal(t, "assigned", response.Assignments[2].Status)
	require.True(t, response.Assignments[2].Overdue)
}

func TestStudentDashboardUsesCache(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	assignments := newFakeAssignmentRepo()
	submissions := &fakeSubmissionRepo{}
	svc := NewDashboardService(assignments, submissions, client, time.Minute, testLogger())

	assignments.assignments[1] = models.Assignment{ID: 1, Title: "Quiz", DueDate: time.Now().Add(time.Hour)}
	assignments.roster[1] = []uint{7}

	first, err := svc.StudentDashboard(context.Background(), Principal{UserID: 7, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Equal(t, 1, first.Summary.TotalAssignments)

	// A roster change is invisible until the cached aggregate expires.
	assignments.assignments[2] = models.Assignment{ID: 2, Title: "Another", DueDate: time.Now().Add(time.Hour)}
	assignments.roster[2] = []uint{7}

	second, err := svc.StudentDashboard(context.Background(), Principal{UserID: 7, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Equal(t, 1, second.Summary.TotalAssignments)

	server.FastForward(2 * time.Minute)

	third, err := svc.StudentDashboard(context.Background(), Principal{UserID: 7, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Equal(t, 2, third.Summary.TotalAssignments)
}
