package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/quizdesk-api/internal/config"
	"github.com/noah-isme/quizdesk-api/internal/dto"
	"github.com/noah-isme/quizdesk-api/internal/handler"
	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/repository"
	"github.com/noah-isme/quizdesk-api/internal/router"
	"github.com/noah-isme/quizdesk-api/internal/service"
)

func setupQuestionSetApp(t *testing.T, role string) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.QuestionSet{}, &models.Question{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	setRepo := repository.NewQuestionSetRepository(db)
	setService := service.NewQuestionSetService(setRepo, validate, logger)
	importService := service.NewQuestionImportService(setRepo, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "quizdesk-test"}, router.Dependencies{
		QuestionSetHandler: handler.NewQuestionSetHandler(setService, importService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, body)
	request.Header.Set("Content-Type", "application/json")
	response, err := app.Test(request)
	require.NoError(t, err)
	return response
}

func decodeResponse(t *testing.T, response *http.Response, target interface{}) {
	t.Helper()

	defer response.Body.Close()
	require.NoError(t, json.NewDecoder(response.Body).Decode(target))
}

func TestQuestionSetHandlerLifecycle(t *testing.T) {
	app := setupQuestionSetApp(t, models.RoleTeacher)

	response := doJSON(t, app, "POST", "/api/v1/question-sets", dto.QuestionSetCreateRequest{
		Name:             "Algebra basics",
		Description:      "First semester review",
		TimeLimitSeconds: 600,
	})
	require.Equal(t, fiber.StatusCreated, response.StatusCode)

	var created struct {
		Success bool                    `json:"success"`
		Data    dto.QuestionSetResponse `json:"data"`
		Message string                  `json:"message"`
	}
	decodeResponse(t, response, &created)
	require.True(t, created.Success)
	require.Equal(t, "question set created", created.Message)
	require.NotZero(t, created.Data.ID)
	require.True(t, created.Data.ShowScore)

	setPath := "/api/v1/question-sets/" + strconv.FormatUint(uint64(created.Data.ID), 10)

	response = doJSON(t, app, "POST", setPath+"/questions", dto.QuestionCreateRequest{
		Prompt:       "What is 2+2?",
		ChoiceA:      "3",
		ChoiceB:      "4",
		ChoiceC:      "5",
		ChoiceD:      "6",
		CorrectIndex: 1,
	})
	require.Equal(t, fiber.StatusCreated, response.StatusCode)

	response = doJSON(t, app, "GET", setPath, nil)
	require.Equal(t, fiber.StatusOK, response.StatusCode)

	var fetched struct {
		Data dto.QuestionSetResponse `json:"data"`
	}
	decodeResponse(t, response, &fetched)
	require.Equal(t, "Algebra basics", fetched.Data.Name)
	require.Equal(t, 1, fetched.Data.QuestionCount)
	require.Len(t, fetched.Data.Questions, 1)

	name := "Algebra review"
	response = doJSON(t, app, "PUT", setPath, dto.QuestionSetUpdateRequest{Name: &name})
	require.Equal(t, fiber.StatusOK, response.StatusCode)

	response = doJSON(t, app, "GET", "/api/v1/question-sets", nil)
	require.Equal(t, fiber.StatusOK, response.StatusCode)

	var listed struct {
		Data []dto.QuestionSetResponse `json:"data"`
	}
	decodeResponse(t, response, &listed)
	require.Len(t, listed.Data, 1)
	require.Equal(t, "Algebra review", listed.Data[0].Name)

	response = doJSON(t, app, "DELETE", setPath, nil)
	require.Equal(t, fiber.StatusOK, response.StatusCode)

	response = doJSON(t, app, "GET", setPath, nil)
	require.Equal(t, fiber.StatusNotFound, response.StatusCode)
}

func TestQuestionSetHandlerExportCSV(t *testing.T) {
	app := setupQuestionSetApp(t, models.RoleTeacher)

	response := doJSON(t, app, "POST", "/api/v1/question-sets", dto.QuestionSetCreateRequest{Name: "Geography"})
	require.Equal(t, fiber.StatusCreated, response.StatusCode)

	var created struct {
		Data dto.QuestionSetResponse `json:"data"`
	}
	decodeResponse(t, response, &created)

	setPath := "/api/v1/question-sets/" + strconv.FormatUint(uint64(created.Data.ID), 10)
	response = doJSON(t, app, "POST", setPath+"/questions", dto.QuestionCreateRequest{
		Prompt:       "Capital of France?",
		ChoiceA:      "Berlin",
		ChoiceB:      "Paris",
		ChoiceC:      "Madrid",
		ChoiceD:      "Rome",
		CorrectIndex: 1,
	})
	require.Equal(t, fiber.StatusCreated, response.StatusCode)

	response = doJSON(t, app, "GET", setPath+"/questions/export", nil)
	require.Equal(t, fiber.StatusOK, response.StatusCode)
	require.Contains(t, response.Header.Get(fiber.HeaderContentType), "text/csv")

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Capital of France?")
	require.Contains(t, string(body), ",B,")
}

func TestQuestionSetHandlerRejectsStudents(t *testing.T) {
	app := setupQuestionSetApp(t, models.RoleStudent)

	response := doJSON(t, app, "GET", "/api/v1/question-sets", nil)
	require.Equal(t, fiber.StatusForbidden, response.StatusCode)
}

func TestQuestionSetHandlerValidatesID(t *testing.T) {
	app := setupQuestionSetApp(t, models.RoleTeacher)

	response := doJSON(t, app, "GET", "/api/v1/question-sets/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, response.StatusCode)
}
