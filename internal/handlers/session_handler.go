package handlers

import (
	"context"
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.QuizSessionService
	reportService  services.ReportService
}

func NewSessionHandler(
	sessionService services.QuizSessionService,
	reportService services.ReportService,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		reportService:  reportService,
	}
}

// StartSession opens a quiz session and loads its questions
// @Summary Start quiz session
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body models.StartSessionRequest true "Quiz to play"
// @Success 201 {object} services.SessionView
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting quiz session", "quiz_id", req.QuizID)

	view, err := h.sessionService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSession returns the current view of a session
// @Summary Get quiz session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// EditAnswer applies one edit to the answer of the current question
// @Summary Edit answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param edit body models.EditAnswerRequest true "Answer edit"
// @Success 200 {object} services.SessionView
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/answer [put]
func (h *SessionHandler) EditAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req models.EditAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	view, err := h.sessionService.Edit(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitAnswer grades the current question
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	h.transition(c, h.sessionService.Submit)
}

// NextQuestion moves past a graded question
// @Router /sessions/{id}/next [post]
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	h.transition(c, h.sessionService.Next)
}

// ContinueSession finishes the completion countdown early
// @Router /sessions/{id}/continue [post]
func (h *SessionHandler) ContinueSession(c *gin.Context) {
	h.transition(c, h.sessionService.Continue)
}

// RetrySession fetches the questions again after a failed load
// @Router /sessions/{id}/retry [post]
func (h *SessionHandler) RetrySession(c *gin.Context) {
	h.transition(c, h.sessionService.Retry)
}

// CloseSession stops a session's timers and forgets it
// @Router /sessions/{id} [delete]
func (h *SessionHandler) CloseSession(c *gin.Context) {
	h.transition(c, h.sessionService.Close)
}

// ExportSessions downloads completed session records
// @Summary Export session report
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "xlsx or csv"
// @Param quiz_id query string false "Quiz ID"
// @Router /sessions/reports/export [get]
func (h *SessionHandler) ExportSessions(c *gin.Context) {
	var req models.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}
	report, err := h.reportService.ExportSessions(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, report.ContentType, report.Data)
}

func (h *SessionHandler) transition(c *gin.Context, fn func(ctx context.Context, id string) (*services.SessionView, error)) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := fn(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
