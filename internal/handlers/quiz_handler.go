package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	BaseHandler
	authoringService services.AuthoringService
}

func NewQuizHandler(authoringService services.AuthoringService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler:      NewBaseHandler(logger),
		authoringService: authoringService,
	}
}

type ValidateQuestionsRequest struct {
	Questions []models.QuizQuestion `json:"questions"`
}

// ValidateQuestions checks question records against the authoring rules
// @Summary Validate questions
// @Tags quizzes
// @Accept json
// @Produce json
// @Param questions body ValidateQuestionsRequest true "Questions"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /questions/validate [post]
func (h *QuizHandler) ValidateQuestions(c *gin.Context) {
	var req ValidateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.authoringService.ValidateQuestions(c.Request.Context(), req.Questions); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Questions are valid"})
}

// PublishQuiz validates a quiz and hands it to the platform
// @Summary Publish quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body models.PublishQuizRequest true "Quiz with questions"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /quizzes/publish [post]
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	var req models.PublishQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Publishing quiz", "content_id", req.ContentID, "questions", len(req.Questions))

	reply, err := h.authoringService.Publish(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Message: "Quiz published", Data: reply})
}
