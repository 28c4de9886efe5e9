package service

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newValidate() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func uintPtr(v uint) *uint {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

type fakeEvents struct {
	published []string
}

func (f *fakeEvents) Publish(ctx context.Context, event string, assignmentID, submissionID, studentID uint) {
	f.published = append(f.published, event)
}

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
	roster      map[uint][]uint
	rosterUsers []models.User
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		assignments: make(map[uint]models.Assignment),
		roster:      make(map[uint][]uint),
	}
}

func (f *fakeAssignmentRepo) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range f.assignments {
		if assignment.TeacherID == teacherID {
			out = append(out, assignment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAssignmentRepo) ListForStudent(ctx context.Context, studentID uint) ([]models.Assignment, error) {
	var out []models.Assignment
	for assignmentID, students := range f.roster {
		for _, id := range students {
			if id == studentID {
				out = append(out, f.assignments[assignmentID])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) GetWithQuestions(ctx context.Context, id uint) (models.Assignment, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == 0 {
		assignment.ID = uint(len(f.assignments) + 1)
	}
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.assignments, id)
	return nil
}

func (f *fakeAssignmentRepo) ReplaceRoster(ctx context.Context, assignmentID uint, studentIDs []uint) error {
	f.roster[assignmentID] = append([]uint(nil), studentIDs...)
	return nil
}

func (f *fakeAssignmentRepo) ListRoster(ctx context.Context, assignmentID uint) ([]models.User, error) {
	return f.rosterUsers, nil
}

func (f *fakeAssignmentRepo) IsOnRoster(ctx context.Context, assignmentID, studentID uint) (bool, error) {
	for _, id := range f.roster[assignmentID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

type repointCall struct {
	fileIDs      []uint
	uploaderID   uint
	submissionID uint
	questionID   uint
}

type fakeSubmissionRepo struct {
	submissions []models.Submission
	answers     []models.StudentAnswer
	repointed   []repointCall
	lockErr     error
	nextID      uint
	nextAnswer  uint
}

func (f *fakeSubmissionRepo) Transaction(ctx context.Context, fn func(repo repository.SubmissionRepository) error) error {
	return fn(f)
}

func (f *fakeSubmissionRepo) LockRosterEntry(ctx context.Context, assignmentID, studentID uint) error {
	return f.lockErr
}

func (f *fakeSubmissionRepo) CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	var count int64
	for _, submission := range f.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	var out []models.Submission
	for _, submission := range f.submissions {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		out = append(out, submission)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var out []models.Submission
	for _, submission := range f.submissions {
		if submission.AssignmentID != assignmentID {
			continue
		}
		answers, _ := f.ListAnswers(ctx, submission.ID)
		submission.Answers = answers
		out = append(out, submission)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	for _, submission := range f.submissions {
		if submission.ID == id {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) GetDetail(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := f.GetByID(ctx, id)
	if err != nil {
		return models.Submission{}, err
	}
	answers, _ := f.ListAnswers(ctx, id)
	submission.Answers = answers
	return submission, nil
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	f.nextID++
	submission.ID = f.nextID
	f.submissions = append(f.submissions, *submission)
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	for i := range f.submissions {
		if f.submissions[i].ID == submission.ID {
			f.submissions[i] = *submission
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) RepointFiles(ctx context.Context, fileIDs []uint, uploaderID, submissionID, questionID uint) error {
	if len(fileIDs) == 0 {
		return nil
	}
	f.repointed = append(f.repointed, repointCall{
		fileIDs:      append([]uint(nil), fileIDs...),
		uploaderID:   uploaderID,
		submissionID: submissionID,
		questionID:   questionID,
	})
	return nil
}

func (f *fakeSubmissionRepo) CreateAnswer(ctx context.Context, answer *models.StudentAnswer) error {
	f.nextAnswer++
	answer.ID = f.nextAnswer
	f.answers = append(f.answers, *answer)
	return nil
}

func (f *fakeSubmissionRepo) UpdateAnswer(ctx context.Context, answer *models.StudentAnswer) error {
	for i := range f.answers {
		if f.answers[i].ID == answer.ID {
			f.answers[i] = *answer
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) GetAnswer(ctx context.Context, submissionID, questionID uint) (models.StudentAnswer, error) {
	for _, answer := range f.answers {
		if answer.SubmissionID == submissionID && answer.QuestionID == questionID {
			return answer, nil
		}
	}
	return models.StudentAnswer{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) ListAnswers(ctx context.Context, submissionID uint) ([]models.StudentAnswer, error) {
	var out []models.StudentAnswer
	for _, answer := range f.answers {
		if answer.SubmissionID == submissionID {
			out = append(out, answer)
		}
	}
	return out, nil
}

type fakeQuestionRepo struct {
	questions []models.AssignmentQuestion
}

func (f *fakeQuestionRepo) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.AssignmentQuestion, error) {
	var out []models.AssignmentQuestion
	for _, question := range f.questions {
		if question.AssignmentID == assignmentID {
			out = append(out, question)
		}
	}
	return out, nil
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, assignmentID, questionID uint) (models.AssignmentQuestion, error) {
	for _, question := range f.questions {
		if question.AssignmentID == assignmentID && question.ID == questionID {
			return question, nil
		}
	}
	return models.AssignmentQuestion{}, gorm.ErrRecordNotFound
}

func (f *fakeQuestionRepo) Create(ctx context.Context, question *models.AssignmentQuestion) error {
	if question.ID == 0 {
		question.ID = uint(len(f.questions) + 1)
	}
	f.questions = append(f.questions, *question)
	return nil
}

func (f *fakeQuestionRepo) Update(ctx context.Context, question *models.AssignmentQuestion) error {
	for i := range f.questions {
		if f.questions[i].ID == question.ID {
			f.questions[i] = *question
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeQuestionRepo) Delete(ctx context.Context, assignmentID, questionID uint) error {
	for i := range f.questions {
		if f.questions[i].AssignmentID == assignmentID && f.questions[i].ID == questionID {
			f.questions = append(f.questions[:i], f.questions[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeUserRepo struct {
	users map[uint]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uint]models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		user.ID = uint(len(f.users) + 1)
	}
	user.CreatedAt = time.Now()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) ListStudents(ctx context.Context, class string) ([]models.User, error) {
	var out []models.User
	for _, user := range f.users {
		if user.Role != models.RoleStudent {
			continue
		}
		if class != "" && user.Class != class {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeQuestionSetRepo struct {
	sets      map[uint]models.QuestionSet
	questions []models.Question
	nextID    uint
}

func newFakeQuestionSetRepo() *fakeQuestionSetRepo {
	return &fakeQuestionSetRepo{sets: make(map[uint]models.QuestionSet)}
}

func (f *fakeQuestionSetRepo) List(ctx context.Context, createdBy *uint) ([]models.QuestionSet, error) {
	var out []models.QuestionSet
	for _, set := range f.sets {
		if createdBy != nil && set.CreatedBy != *createdBy {
			continue
		}
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeQuestionSetRepo) GetByID(ctx context.Context, id uint) (models.QuestionSet, error) {
	set, ok := f.sets[id]
	if !ok {
		return models.QuestionSet{}, gorm.ErrRecordNotFound
	}
	return set, nil
}

func (f *fakeQuestionSetRepo) Create(ctx context.Context, set *models.QuestionSet) error {
	f.nextID++
	set.ID = f.nextID
	for i := range set.Questions {
		set.Questions[i].ID = uint(len(f.questions) + 1)
		set.Questions[i].QuestionSetID = set.ID
		f.questions = append(f.questions, set.Questions[i])
	}
	f.sets[set.ID] = *set
	return nil
}

func (f *fakeQuestionSetRepo) Update(ctx context.Context, set *models.QuestionSet) error {
	if _, ok := f.sets[set.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.sets[set.ID] = *set
	return nil
}

func (f *fakeQuestionSetRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.sets[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.sets, id)
	return nil
}

func (f *fakeQuestionSetRepo) ListQuestions(ctx context.Context, setID uint) ([]models.Question, error) {
	var out []models.Question
	for _, question := range f.questions {
		if question.QuestionSetID == setID {
			out = append(out, question)
		}
	}
	return out, nil
}

func (f *fakeQuestionSetRepo) GetQuestion(ctx context.Context, setID, questionID uint) (models.Question, error) {
	for _, question := range f.questions {
		if question.QuestionSetID == setID && question.ID == questionID {
			return question, nil
		}
	}
	return models.Question{}, gorm.ErrRecordNotFound
}

func (f *fakeQuestionSetRepo) CreateQuestion(ctx context.Context, question *models.Question) error {
	question.ID = uint(len(f.questions) + 1)
	f.questions = append(f.questions, *question)
	return nil
}

func (f *fakeQuestionSetRepo) CreateQuestions(ctx context.Context, questions []models.Question) error {
	for i := range questions {
		questions[i].ID = uint(len(f.questions) + 1)
		f.questions = append(f.questions, questions[i])
	}
	return nil
}

func (f *fakeQuestionSetRepo) UpdateQuestion(ctx context.Context, question *models.Question) error {
	for i := range f.questions {
		if f.questions[i].ID == question.ID {
			f.questions[i] = *question
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeQuestionSetRepo) DeleteQuestion(ctx context.Context, setID, questionID uint) error {
	for i := range f.questions {
		if f.questions[i].QuestionSetID == setID && f.questions[i].ID == questionID {
			f.questions = append(f.questions[:i], f.questions[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeAttachmentRepo struct {
	files []models.AttachmentFile
}

func (f *fakeAttachmentRepo) Create(ctx context.Context, file *models.AttachmentFile) error {
	file.ID = uint(len(f.files) + 1)
	f.files = append(f.files, *file)
	return nil
}

func (f *fakeAttachmentRepo) GetByID(ctx context.Context, id uint) (models.AttachmentFile, error) {
	for _, file := range f.files {
		if file.ID == id {
			return file, nil
		}
	}
	return models.AttachmentFile{}, gorm.ErrRecordNotFound
}

func (f *fakeAttachmentRepo) ListBySubmission(ctx context.Context, submissionID uint) ([]models.AttachmentFile, error) {
	var out []models.AttachmentFile
	for _, file := range f.files {
		if file.SubmissionID != nil && *file.SubmissionID == submissionID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeAttachmentRepo) Repoint(ctx context.Context, fileIDs []uint, uploaderID, submissionID, questionID uint) error {
	for i := range f.files {
		for _, id := range fileIDs {
			if f.files[i].ID == id && f.files[i].UploaderID == uploaderID {
				f.files[i].SubmissionID = &submissionID
				f.files[i].QuestionID = &questionID
			}
		}
	}
	return nil
}

type fakeActivityRepo struct {
	entries []models.ActivityLog
}

func (f *fakeActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(f.entries) + 1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), f.entries...), int64(len(f.entries)), nil
}
