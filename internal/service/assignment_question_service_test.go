package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/models"
)

func assignmentQuestionFixture(t *testing.T) (*fakeAssignmentRepo, *fakeQuestionRepo, AssignmentQuestionService) {
	t.Helper()

	assignments := newFakeAssignmentRepo()
	assignments.assignments[1] = models.Assignment{ID: 1, Title: "Quiz", TeacherID: 1, DueDate: time.Now().Add(time.Hour)}
	questions := &fakeQuestionRepo{}
	svc := NewAssignmentQuestionService(questions, assignments, newValidate(), testLogger())
	return assignments, questions, svc
}

func mcCreateRequest() dto.AssignmentQuestionCreateRequest {
	return dto.AssignmentQuestionCreateRequest{
		Type:          models.QuestionTypeMultipleChoice,
		Prompt:        "What is 2+2?",
		Points:        10,
		ChoiceA:       "3",
		ChoiceB:       "4",
		ChoiceC:       "5",
		ChoiceD:       "6",
		CorrectAnswer: "B",
	}
}

func TestAssignmentQuestionCreateRequiresOwnership(t *testing.T) {
	_, _, svc := assignmentQuestionFixture(t)

	_, err := svc.Create(context.Background(), Principal{UserID: 2, Role: models.RoleTeacher}, 1, mcCreateRequest())
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.Create(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1, mcCreateRequest())
	require.ErrorIs(t, err, ErrTeacherOnly)

	_, err = svc.Create(context.Background(), teacher(), 42, mcCreateRequest())
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentQuestionCreateValidatesChoices(t *testing.T) {
	_, _, svc := assignmentQuestionFixture(t)

	missing := mcCreateRequest()
	missing.ChoiceC = ""
	_, err := svc.Create(context.Background(), teacher(), 1, missing)
	require.ErrorIs(t, err, ErrChoicesRequired)

	badAnswer := mcCreateRequest()
	badAnswer.CorrectAnswer = "E"
	_, err = svc.Create(context.Background(), teacher(), 1, badAnswer)
	require.ErrorIs(t, err, ErrChoicesRequired)
}

func TestAssignmentQuestionCreateAcceptsEssayWithoutChoices(t *testing.T) {
	_, questions, svc := assignmentQuestionFixture(t)

	response, err := svc.Create(context.Background(), teacher(), 1, dto.AssignmentQuestionCreateRequest{
		Type:         models.QuestionTypeEssay,
		Prompt:       "  Explain your reasoning. ",
		Points:       20,
		FileRequired: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Explain your reasoning.", response.Prompt)
	require.True(t, response.FileRequired)
	require.Len(t, questions.questions, 1)
}

func TestAssignmentQuestionListAllowsRosterStudents(t *testing.T) {
	assignments, questions, svc := assignmentQuestionFixture(t)
	assignments.roster[1] = []uint{7}
	questions.questions = []models.AssignmentQuestion{
		{ID: 1, AssignmentID: 1, Type: models.QuestionTypeMultipleChoice, Prompt: "Q1"},
	}

	listed, err := svc.List(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = svc.List(context.Background(), Principal{UserID: 8, Role: models.RoleStudent}, 1)
	require.ErrorIs(t, err, ErrNotOnRoster)
}

func TestAssignmentQuestionUpdatePatchesAndRevalidates(t *testing.T) {
	_, questions, svc := assignmentQuestionFixture(t)
	questions.questions = []models.AssignmentQuestion{
		{
			ID:            1,
			AssignmentID:  1,
			Type:          models.QuestionTypeMultipleChoice,
			Prompt:        "Q1",
			Points:        10,
			ChoiceA:       "a",
			ChoiceB:       "b",
			ChoiceC:       "c",
			ChoiceD:       "d",
			CorrectAnswer: "A",
		},
	}

	prompt := " Updated prompt "
	response, err := svc.Update(context.Background(), teacher(), 1, 1, dto.AssignmentQuestionUpdateRequest{
		Prompt: &prompt,
		Points: floatPtr(15),
	})
	require.NoError(t, err)
	require.Equal(t, "Updated prompt", response.Prompt)
	require.Equal(t, float64(15), response.Points)

	// Patching a choice away from a valid state must fail.
	empty := ""
	_, err = svc.Update(context.Background(), teacher(), 1, 1, dto.AssignmentQuestionUpdateRequest{
		ChoiceB: &empty,
	})
	require.ErrorIs(t, err, ErrChoicesRequired)

	_, err = svc.Update(context.Background(), teacher(), 1, 42, dto.AssignmentQuestionUpdateRequest{Prompt: &prompt})
	require.ErrorIs(t, err, ErrAssignmentQuestionNotFound)
}

func TestAssignmentQuestionDelete(t *testing.T) {
	_, questions, svc := assignmentQuestionFixture(t)
	questions.questions = []models.AssignmentQuestion{
		{ID: 1, AssignmentID: 1, Type: models.QuestionTypeEssay, Prompt: "Q1"},
	}

	require.NoError(t, svc.Delete(context.Background(), teacher(), 1, 1))
	require.Empty(t, questions.questions)

	err := svc.Delete(context.Background(), teacher(), 1, 1)
	require.ErrorIs(t, err, ErrAssignmentQuestionNotFound)
}
