package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/backend"
	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/quiz"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) view(args mock.Arguments) (*services.SessionView, error) {
	view, _ := args.Get(0).(*services.SessionView)
	return view, args.Error(1)
}

func (m *MockSessionService) Start(ctx context.Context, req *models.StartSessionRequest) (*services.SessionView, error) {
	return m.view(m.Called(ctx, req))
}

func (m *MockSessionService) Get(ctx context.Context, id string) (*services.SessionView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockSessionService) Edit(ctx context.Context, id string, req *models.EditAnswerRequest) (*services.SessionView, error) {
	return m.view(m.Called(ctx, id, req))
}

func (m *MockSessionService) Submit(ctx context.Context, id string) (*services.SessionView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockSessionService) Next(ctx context.Context, id string) (*services.SessionView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockSessionService) Continue(ctx context.Context, id string) (*services.SessionView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockSessionService) Retry(ctx context.Context, id string) (*services.SessionView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockSessionService) Close(ctx context.Context, id string) (*services.SessionView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockSessionService) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockAuthoringService struct {
	mock.Mock
}

func (m *MockAuthoringService) ValidateQuestions(ctx context.Context, records []models.QuizQuestion) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockAuthoringService) Publish(ctx context.Context, req *models.PublishQuizRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	reply, _ := args.Get(0).(json.RawMessage)
	return reply, args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) ExportSessions(ctx context.Context, req *models.ExportRequest) (*services.Report, error) {
	args := m.Called(ctx, req)
	report, _ := args.Get(0).(*services.Report)
	return report, args.Error(1)
}

type testServer struct {
	router    *gin.Engine
	sessions  *MockSessionService
	authoring *MockAuthoringService
	reports   *MockReportService
}

func newTestServer(t *testing.T, config RouterConfig) *testServer {
	gin.SetMode(gin.TestMode)
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	config.Done = done

	s := &testServer{
		router:    gin.New(),
		sessions:  new(MockSessionService),
		authoring: new(MockAuthoringService),
		reports:   new(MockReportService),
	}
	NewHandlerManager(s.sessions, s.authoring, s.reports, nil, utils.NewDefaultLogger(), config).SetupRoutes(s.router)
	return s
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestSessionHandler_StartSession(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	req := &models.StartSessionRequest{QuizID: "12", ContentID: "34"}
	s.sessions.On("Start", mock.Anything, req).
		Return(&services.SessionView{ID: "abc", Phase: quiz.PhaseAnswering, QuestionCount: 3}, nil)

	w := s.do(http.MethodPost, "/api/v1/sessions", req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var view services.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "abc", view.ID)
	assert.Equal(t, quiz.PhaseAnswering, view.Phase)
}

func TestSessionHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", services.ErrSessionNotFound, http.StatusNotFound, ""},
		{"business rule", services.NewBusinessRuleError("answer_incomplete", "answer is incomplete", nil), http.StatusConflict, "answer_incomplete"},
		{"closed", services.ErrSessionClosed, http.StatusConflict, ""},
		{"validation", apperrors.ValidationErrors{*apperrors.NewValidationError("op", "is required", "")}, http.StatusBadRequest, ""},
		{"upstream", &backend.APIError{StatusCode: 500, Message: "HTTP error: 500"}, http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, RouterConfig{})
			s.sessions.On("Submit", mock.Anything, "abc").Return(nil, tt.err)

			w := s.do(http.MethodPost, "/api/v1/sessions/abc/submit", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestSessionHandler_EditAnswer(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	edit := &models.EditAnswerRequest{Op: models.OpMoveItem, From: 2, To: 0}
	s.sessions.On("Edit", mock.Anything, "abc", edit).Return(&services.SessionView{ID: "abc"}, nil)

	w := s.do(http.MethodPut, "/api/v1/sessions/abc/answer", edit)

	assert.Equal(t, http.StatusOK, w.Code)
	s.sessions.AssertExpectations(t)
}

func TestSessionHandler_CloseSession(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	s.sessions.On("Close", mock.Anything, "abc").Return(&services.SessionView{ID: "abc", Phase: quiz.PhaseClosed}, nil)

	w := s.do(http.MethodDelete, "/api/v1/sessions/abc", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phase":"closed"`)
}

func TestRateLimiter_LimitsSessionCreation(t *testing.T) {
	s := newTestServer(t, RouterConfig{SessionRateLimit: 0.001, SessionRateBurst: 1})
	s.sessions.On("Start", mock.Anything, mock.Anything).Return(&services.SessionView{ID: "abc"}, nil)
	req := &models.StartSessionRequest{QuizID: "12", ContentID: "34"}

	first := s.do(http.MethodPost, "/api/v1/sessions", req)
	second := s.do(http.MethodPost, "/api/v1/sessions", req)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	s.sessions.AssertNumberOfCalls(t, "Start", 1)
}

func TestSessionHandler_ExportSessions(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	s.reports.On("ExportSessions", mock.Anything, &models.ExportRequest{Format: "csv", QuizID: "12"}).
		Return(&services.Report{Filename: "quiz_sessions.csv", ContentType: services.ContentTypeCSV, Data: []byte("a,b\n")}, nil)

	w := s.do(http.MethodGet, "/api/v1/sessions/reports/export?format=csv&quiz_id=12", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.ContentTypeCSV, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "quiz_sessions.csv")
	assert.Equal(t, "a,b\n", w.Body.String())

	s.reports.On("ExportSessions", mock.Anything, &models.ExportRequest{Format: "pdf"}).
		Return(nil, apperrors.ValidationErrors{*apperrors.NewValidationError("format", "must be one of: xlsx csv", "pdf")})

	bad := s.do(http.MethodGet, "/api/v1/sessions/reports/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestQuizHandler_PublishQuiz(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	s.authoring.On("Publish", mock.Anything, mock.Anything).Return(json.RawMessage(`{"quiz_id":5}`), nil)

	w := s.do(http.MethodPost, "/api/v1/quizzes/publish", map[string]interface{}{
		"content_id": "34",
		"quiz":       map[string]string{"title": "Quiz"},
		"questions":  []interface{}{},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"quiz_id":5`)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	w := s.do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quiz-service")
}
