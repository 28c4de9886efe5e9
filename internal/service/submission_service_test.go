package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/models"
)

func submissionFixture(t *testing.T) (*fakeSubmissionRepo, *fakeAssignmentRepo, *fakeQuestionRepo, SubmissionService) {
	t.Helper()

	submissions := &fakeSubmissionRepo{}
	assignments := newFakeAssignmentRepo()
	questions := &fakeQuestionRepo{}
	svc := NewSubmissionService(submissions, assignments, questions, newValidate(), &fakeEvents{}, testLogger())

	return submissions, assignments, questions, svc
}

func openAssignment(assignments *fakeAssignmentRepo, teacherID uint, allowRetake bool, studentIDs ...uint) models.Assignment {
	assignment := models.Assignment{
		ID:          1,
		Title:       "Weekly quiz",
		TeacherID:   teacherID,
		DueDate:     time.Now().Add(time.Hour),
		AllowRetake: allowRetake,
	}
	assignments.assignments[assignment.ID] = assignment
	assignments.roster[assignment.ID] = studentIDs
	return assignment
}

func mcAnswer(questionID uint, selected int) dto.AnswerSubmission {
	return dto.AnswerSubmission{
		QuestionID:     questionID,
		QuestionType:   models.QuestionTypeMultipleChoice,
		SelectedAnswer: intPtr(selected),
	}
}

func TestSubmitRejectsNonStudent(t *testing.T) {
	_, _, _, svc := submissionFixture(t)

	_, err := svc.Submit(context.Background(), Principal{UserID: 1, Role: models.RoleTeacher}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{mcAnswer(1, 0)},
	})
	require.ErrorIs(t, err, ErrStudentOnly)
}

func TestSubmitUnknownAssignment(t *testing.T) {
	_, _, _, svc := submissionFixture(t)

	_, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 99, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{mcAnswer(1, 0)},
	})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmitRequiresRoster(t *testing.T) {
	_, assignments, _, svc := submissionFixture(t)
	openAssignment(assignments, 1, false, 5)

	_, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{mcAnswer(1, 0)},
	})
	require.ErrorIs(t, err, ErrNotOnRoster)
}

func TestSubmitRejectsPastDue(t *testing.T) {
	_, assignments, _, svc := submissionFixture(t)
	assignment := openAssignment(assignments, 1, false, 7)
	assignment.DueDate = time.Now().Add(-time.Minute)
	assignments.assignments[assignment.ID] = assignment

	_, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{mcAnswer(1, 0)},
	})
	require.ErrorIs(t, err, ErrAssignmentPastDue)
}

func TestSubmitRejectsRetakeWhenDisallowed(t *testing.T) {
	submissions, assignments, questions, svc := submissionFixture(t)
	openAssignment(assignments, 1, false, 7)
	questions.questions = []models.AssignmentQuestion{
		{ID: 1, AssignmentID: 1, Type: models.QuestionTypeMultipleChoice, Points: 10, CorrectAnswer: "A"},
	}
	submissions.submissions = []models.Submission{{ID: 1, AssignmentID: 1, StudentID: 7, Attempt: 1}}
	submissions.nextID = 1

	_, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{mcAnswer(1, 0)},
	})
	require.ErrorIs(t, err, ErrRetakeNotAllowed)
}

func TestSubmitNumbersRetakeAttempts(t *testing.T) {
	submissions, assignments, questions, svc := submissionFixture(t)
	openAssignment(assignments, 1, true, 7)
	questions.questions = []models.AssignmentQuestion{
		{ID: 1, AssignmentID: 1, Type: models.QuestionTypeMultipleChoice, Points: 10, CorrectAnswer: "A"},
	}
	submissions.submissions = []models.Submission{{ID: 1, AssignmentID: 1, StudentID: 7, Attempt: 1}}
	submissions.nextID = 1

	response, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{mcAnswer(1, 0)},
	})
	require.NoError(t, err)
	require.Equal(t, 2, response.Submission.Attempt)
}

func TestSubmitGradesMultipleChoice(t *testing.T) {
	submissions, assignments, questions, svc := submissionFixture(t)
	openAssignment(assignments, 1, false, 7)
	questions.questions = []models.AssignmentQuestion{
		{ID: 1, AssignmentID: 1, Type: models.QuestionTypeMultipleChoice, Points: 10, CorrectAnswer: "B"},
		{ID: 2, AssignmentID: 1, Type: models.QuestionTypeMultipleChoice, Points: 10, CorrectAnswer: "2"},
	}

	response, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{mcAnswer(1, 1), mcAnswer(2, 0)},
	})
	require.NoError(t, err)

	submission := response.Submission
	require.Equal(t, 1, submission.CorrectCount)
	require.Equal(t, float64(10), submission.McScore)
	require.Equal(t, float64(10), submission.Score)
	require.Equal(t, float64(20), submission.MaxScore)
	require.False(t, submission.PendingGrading)
	// No essays, so results publish immediately.
	require.NotNil(t, submission.GradedAt)
	require.NotNil(t, submission.PublishedAt)

	require.Len(t, submissions.answers, 2)
	require.NotNil(t, submissions.answers[0].Score)
	require.Equal(t, float64(10), *submissions.answers[0].Score)
	require.NotNil(t, submissions.answers[1].Score)
	require.Zero(t, *submissions.answers[1].Score)
	require.True(t, submissions.answers[0].Graded)
}

func TestSubmitReportsSkippedQuestionIDs(t *testing.T) {
	submissions, assignments, questions, svc := submissionFixture(t)
	openAssignment(assignments, 1, false, 7)
	questions.questions = []models.AssignmentQuestion{
		{ID: 1, AssignmentID: 1, Type: models.QuestionTypeMultipleChoice, Points: 10, CorrectAnswer: "A"},
	}

	response, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{mcAnswer(1, 0), mcAnswer(42, 0)},
	})
	require.NoError(t, err)
	require.Equal(t, []uint{42}, response.SkippedQuestionIDs)
	require.Len(t, submissions.answers, 1)
}

func TestSubmitEssayRequiresFile(t *testing.T) {
	_, assignments, questions, svc := submissionFixture(t)
	openAssignment(assignments, 1, false, 7)
	questions.questions = []models.AssignmentQuestion{
		{ID: 1, AssignmentID: 1, Type: models.QuestionTypeEssay, Points: 50, FileRequired: true},
	}

	_, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{{
			QuestionID:   1,
			QuestionType: models.QuestionTypeEssay,
			EssayText:    "see attachment",
		}},
	})
	require.ErrorIs(t, err, ErrFileRequired)
}

func TestSubmitEssayMarksPendingGrading(t *testing.T) {
	submissions, assignments, questions, svc := submissionFixture(t)
	openAssignment(assignments, 1, false, 7)
	questions.questions = []models.AssignmentQuestion{
		{ID: 1, AssignmentID: 1, Type: models.QuestionTypeMultipleChoice, Points: 50, CorrectAnswer: "A"},
		{ID: 2, AssignmentID: 1, Type: models.QuestionTypeEssay, Points: 50},
	}

	response, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{
			mcAnswer(1, 0),
			{
				QuestionID:   2,
				QuestionType: models.QuestionTypeEssay,
				EssayText:    "<script>alert(1)</script>my answer",
				FileIDs:      []uint{3},
			},
		},
	})
	require.NoError(t, err)

	submission := response.Submission
	require.True(t, submission.PendingGrading)
	require.Nil(t, submission.PublishedAt)
	require.Equal(t, float64(50), submission.McScore)
	require.Equal(t, float64(100), submission.MaxScore)

	// The essay text is sanitized and the attachment re-pointed inside the
	// submit transaction.
	require.Equal(t, "my answer", submissions.answers[1].EssayText)
	require.Len(t, submissions.repointed, 1)
	require.Equal(t, []uint{3}, submissions.repointed[0].fileIDs)
	require.Equal(t, uint(7), submissions.repointed[0].uploaderID)
	require.Equal(t, submission.ID, submissions.repointed[0].submissionID)
	require.Equal(t, uint(2), submissions.repointed[0].questionID)
}

func TestSubmitTreatsLostRosterRowAsConflict(t *testing.T) {
	submissions, assignments, questions, svc := submissionFixture(t)
	openAssignment(assignments, 1, false, 7)
	questions.questions = []models.AssignmentQuestion{
		{ID: 1, AssignmentID: 1, Type: models.QuestionTypeMultipleChoice, Points: 10, CorrectAnswer: "A"},
	}
	submissions.lockErr = gorm.ErrRecordNotFound

	_, err := svc.Submit(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{mcAnswer(1, 0)},
	})
	require.ErrorIs(t, err, ErrNotOnRoster)
}

func TestListHidesUnpublishedFromStudents(t *testing.T) {
	submissions, _, _, svc := submissionFixture(t)
	published := time.Now()
	submissions.submissions = []models.Submission{
		{ID: 1, AssignmentID: 1, StudentID: 7, PendingGrading: true},
		{ID: 2, AssignmentID: 1, StudentID: 7, PublishedAt: &published},
		{ID: 3, AssignmentID: 1, StudentID: 8, PublishedAt: &published},
	}

	results, err := svc.List(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint(2), results[0].ID)
}

func TestGetRejectsUnpublishedForStudent(t *testing.T) {
	submissions, _, _, svc := submissionFixture(t)
	submissions.submissions = []models.Submission{
		{ID: 1, AssignmentID: 1, StudentID: 7, PendingGrading: true},
	}

	_, err := svc.Get(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1)
	require.ErrorIs(t, err, ErrResultsNotPublished)

	_, err = svc.Get(context.Background(), Principal{UserID: 8, Role: models.RoleStudent}, 1)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
