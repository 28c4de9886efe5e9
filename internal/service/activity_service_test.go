package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/models"
)

func TestActivityRecordPersistsEntry(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := NewActivityService(repo, newValidate(), testLogger())

	err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  models.RoleTeacher,
		Action:     "submission.published",
		EntityType: "submission",
		EntityID:   uintPtr(5),
		Metadata: map[string]interface{}{
			"assignment_id": 3,
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)
	require.Equal(t, "submission.published", repo.entries[0].Action)
	require.Equal(t, uint(5), *repo.entries[0].EntityID)
	require.NotEmpty(t, repo.entries[0].Metadata)
}

func TestActivityListIsTeacherOnly(t *testing.T) {
	svc := NewActivityService(&fakeActivityRepo{}, newValidate(), testLogger())

	_, err := svc.List(context.Background(), Principal{UserID: 7, Role: models.RoleStudent}, dto.ActivityListRequest{})
	require.ErrorIs(t, err, ErrTeacherOnly)
}

func TestActivityListDefaultsPaging(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := NewActivityService(repo, newValidate(), testLogger())

	require.NoError(t, svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  models.RoleTeacher,
		Action:     "submission.essay_graded",
		EntityType: "submission",
	}))

	response, err := svc.List(context.Background(), teacher(), dto.ActivityListRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, response.Page)
	require.Equal(t, defaultActivityPageSize, response.PageSize)
	require.Equal(t, int64(1), response.Total)
	require.Len(t, response.Items, 1)
}
