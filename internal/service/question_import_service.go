package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/repository"
)

var (
	// ErrImportEmpty indicates the import payload contains no usable questions.
	ErrImportEmpty = errors.New("import contains no questions")
	// ErrImportInvalid indicates the import payload failed structural validation.
	ErrImportInvalid = errors.New("import payload is invalid")
)

// questionSetSchema validates JSON question-set imports before decoding.
const questionSetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "questions"],
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 255},
    "description": {"type": "string"},
    "time_limit_seconds": {"type": "integer", "minimum": 0},
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["prompt", "choice_a", "choice_b", "choice_c", "choice_d", "correct"],
        "properties": {
          "prompt": {"type": "string", "minLength": 1},
          "choice_a": {"type": "string"},
          "choice_b": {"type": "string"},
          "choice_c": {"type": "string"},
          "choice_d": {"type": "string"},
          "correct": {"type": "string", "pattern": "^[A-Da-d0-3]$"},
          "explanation": {"type": "string"}
        }
      }
    }
  }
}`

// csvHeader is the canonical column order for question bank CSV files.
var csvHeader = []string{"prompt", "choice_a", "choice_b", "choice_c", "choice_d", "correct", "explanation"}

// QuestionImportService moves question banks in and out as CSV or JSON.
type QuestionImportService interface {
	ImportCSV(ctx context.Context, principal Principal, setID uint, reader io.Reader) (dto.QuestionImportResult, error)
	ImportJSON(ctx context.Context, principal Principal, payload []byte) (dto.QuestionSetResponse, dto.QuestionImportResult, error)
	ExportCSV(ctx context.Context, principal Principal, setID uint, writer io.Writer) error
}

type questionImportService struct {
	sets   repository.QuestionSetRepository
	schema *jsonschema.Schema
	logger zerolog.Logger
}

// NewQuestionImportService constructs the import/export service. It panics if
// the embedded schema does not compile, which is a programming error.
func NewQuestionImportService(sets repository.QuestionSetRepository, logger zerolog.Logger) QuestionImportService {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("question_set.json", strings.NewReader(questionSetSchema)); err != nil {
		panic(err)
	}
	schema := compiler.MustCompile("question_set.json")

	return &questionImportService{
		sets:   sets,
		schema: schema,
		logger: logger.With().Str("component", "question_import_service").Logger(),
	}
}

func (s *questionImportService) ImportCSV(ctx context.Context, principal Principal, setID uint, reader io.Reader) (dto.QuestionImportResult, error) {
	if !principal.IsTeacher() {
		return dto.QuestionImportResult{}, ErrTeacherOnly
	}

	if _, err := s.sets.GetByID(ctx, setID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionImportResult{}, ErrQuestionSetNotFound
		}
		return dto.QuestionImportResult{}, err
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	var (
		result    dto.QuestionImportResult
		questions []models.Question
		line      int
	)

	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return dto.QuestionImportResult{}, fmt.Errorf("%w: %v", ErrImportInvalid, err)
		}

		line++
		if line == 1 && isHeaderRow(record) {
			continue
		}

		question, rowErr := parseCSVQuestion(record, setID)
		if rowErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, rowErr))
			continue
		}

		questions = append(questions, question)
	}

	if len(questions) == 0 {
		if result.Skipped > 0 {
			return result, nil
		}
		return dto.QuestionImportResult{}, ErrImportEmpty
	}

	if err := s.sets.CreateQuestions(ctx, questions); err != nil {
		return dto.QuestionImportResult{}, err
	}

	result.Imported = len(questions)
	s.logger.Info().
		Uint("question_set_id", setID).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("csv import complete")

	return result, nil
}

func (s *questionImportService) ImportJSON(ctx context.Context, principal Principal, payload []byte) (dto.QuestionSetResponse, dto.QuestionImportResult, error) {
	if !principal.IsTeacher() {
		return dto.QuestionSetResponse{}, dto.QuestionImportResult{}, ErrTeacherOnly
	}

	var raw interface{}
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return dto.QuestionSetResponse{}, dto.QuestionImportResult{}, fmt.Errorf("%w: %v", ErrImportInvalid, err)
	}

	if err := s.schema.Validate(raw); err != nil {
		return dto.QuestionSetResponse{}, dto.QuestionImportResult{}, fmt.Errorf("%w: %v", ErrImportInvalid, err)
	}

	var document dto.QuestionSetImportDocument
	if err := json.Unmarshal(payload, &document); err != nil {
		return dto.QuestionSetResponse{}, dto.QuestionImportResult{}, fmt.Errorf("%w: %v", ErrImportInvalid, err)
	}

	set := models.QuestionSet{
		Name:             strings.TrimSpace(document.Name),
		Description:      document.Description,
		CreatedBy:        principal.UserID,
		ShowScore:        true,
		TimeLimitSeconds: document.TimeLimitSeconds,
	}

	var result dto.QuestionImportResult
	for i, item := range document.Questions {
		correct, ok := models.NormalizeChoice(item.Correct)
		if !ok {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("question %d: unrecognized correct answer %q", i+1, item.Correct))
			continue
		}

		set.Questions = append(set.Questions, models.Question{
			Prompt:       strings.TrimSpace(item.Prompt),
			ChoiceA:      item.ChoiceA,
			ChoiceB:      item.ChoiceB,
			ChoiceC:      item.ChoiceC,
			ChoiceD:      item.ChoiceD,
			CorrectIndex: correct,
			Explanation:  item.Explanation,
		})
	}

	if len(set.Questions) == 0 {
		return dto.QuestionSetResponse{}, dto.QuestionImportResult{}, ErrImportEmpty
	}

	if err := s.sets.Create(ctx, &set); err != nil {
		return dto.QuestionSetResponse{}, dto.QuestionImportResult{}, err
	}

	result.Imported = len(set.Questions)
	s.logger.Info().
		Uint("question_set_id", set.ID).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("json import complete")

	return dto.NewQuestionSetResponse(set), result, nil
}

func (s *questionImportService) ExportCSV(ctx context.Context, principal Principal, setID uint, writer io.Writer) error {
	if !principal.IsTeacher() {
		return ErrTeacherOnly
	}

	questions, err := s.sets.ListQuestions(ctx, setID)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		if _, err := s.sets.GetByID(ctx, setID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestionSetNotFound
			}
			return err
		}
	}

	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(csvHeader); err != nil {
		return err
	}

	for _, question := range questions {
		record := []string{
			question.Prompt,
			question.ChoiceA,
			question.ChoiceB,
			question.ChoiceC,
			question.ChoiceD,
			string(rune('A' + question.CorrectIndex)),
			question.Explanation,
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()

	return csvWriter.Error()
}

func isHeaderRow(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "prompt")
}

func parseCSVQuestion(record []string, setID uint) (models.Question, error) {
	if len(record) < 6 {
		return models.Question{}, fmt.Errorf("expected at least 6 columns, got %d", len(record))
	}

	prompt := strings.TrimSpace(record[0])
	if prompt == "" {
		return models.Question{}, errors.New("prompt is empty")
	}

	correct, ok := models.NormalizeChoice(record[5])
	if !ok {
		return models.Question{}, fmt.Errorf("unrecognized correct answer %q", record[5])
	}

	question := models.Question{
		QuestionSetID: setID,
		Prompt:        prompt,
		ChoiceA:       record[1],
		ChoiceB:       record[2],
		ChoiceC:       record[3],
		ChoiceD:       record[4],
		CorrectIndex:  correct,
	}
	if len(record) > 6 {
		question.Explanation = record[6]
	}

	return question, nil
}
