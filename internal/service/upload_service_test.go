package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quizdesk-api/internal/models"
)

type storageStub struct {
	uploaded bytes.Buffer
	name     string
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	s.uploaded.Reset()
	s.name = name
	if _, err := s.uploaded.ReadFrom(reader); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

func studentPrincipal() Principal {
	return Principal{UserID: 7, Role: models.RoleStudent}
}

func TestUploadRejectsNonStudent(t *testing.T) {
	svc := NewUploadService(&storageStub{}, &fakeAttachmentRepo{}, 5, testLogger())

	file := buildFileHeader(t, "notes.pdf", []byte("%PDF-1.4 data"))
	_, err := svc.Upload(context.Background(), teacher(), file)
	require.ErrorIs(t, err, ErrStudentOnly)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc := NewUploadService(&storageStub{}, &fakeAttachmentRepo{}, 1, testLogger())

	file := buildFileHeader(t, "big.pdf", bytes.Repeat([]byte("a"), 2*1024*1024))
	_, err := svc.Upload(context.Background(), studentPrincipal(), file)
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	svc := NewUploadService(&storageStub{}, &fakeAttachmentRepo{}, 5, testLogger())

	// ELF magic bytes resolve to an executable MIME type.
	file := buildFileHeader(t, "tool.bin", []byte{0x7F, 'E', 'L', 'F', 2, 1, 1, 0, 0, 0})
	_, err := svc.Upload(context.Background(), studentPrincipal(), file)
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}

func TestUploadStoresAttachment(t *testing.T) {
	storage := &storageStub{}
	repo := &fakeAttachmentRepo{}
	svc := NewUploadService(storage, repo, 5, testLogger())

	pngBytes := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	file := buildFileHeader(t, "diagram (final).png", pngBytes)

	response, err := svc.Upload(context.Background(), studentPrincipal(), file)
	require.NoError(t, err)
	require.Contains(t, response.URL, "https://cdn.example.com/")
	require.Equal(t, "image/png", response.MimeType)
	require.Equal(t, int64(len(pngBytes)), response.SizeBytes)

	require.Len(t, repo.files, 1)
	stored := repo.files[0]
	require.Equal(t, uint(7), stored.UploaderID)
	require.Nil(t, stored.SubmissionID)
	require.NotEmpty(t, stored.StorageKey)
	// Original name is sanitized before persisting.
	require.Equal(t, "diagram--final-.png", stored.FileName)
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}
