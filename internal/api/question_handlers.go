package api

import (
	"net/http"

	"engage-service/internal/models"
	"engage-service/internal/service"
	"engage-service/pkg/constants"

	"github.com/gin-gonic/gin"
)

type QuestionHandlers struct {
	questionService service.QuestionService
}

func NewQuestionHandlers(questionService service.QuestionService) *QuestionHandlers {
	return &QuestionHandlers{
		questionService: questionService,
	}
}

func (h *QuestionHandlers) SubmitQuestion(c *gin.Context) {

	var req models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	question, err := h.questionService.SubmitQuestion(c, c.GetString(constants.UserID), &req)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusCreated, "Question submitted successfully", question)
}

func (h *QuestionHandlers) GetEventQuestions(c *gin.Context) {

	questions, err := h.questionService.GetEventQuestions(c, c.Param("event_id"))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Get questions successfully", questions)
}

func (h *QuestionHandlers) ToggleUpvote(c *gin.Context) {

	question, err := h.questionService.ToggleUpvote(c, c.Param("question_id"),
		c.GetString(constants.UserID))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Vote toggled successfully", question)
}

func (h *QuestionHandlers) AnswerQuestion(c *gin.Context) {

	var req models.AnswerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	question, err := h.questionService.AnswerQuestion(c, c.Param("question_id"),
		c.GetString(constants.UserID), c.GetString(constants.Role), &req)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Question answered successfully", question)
}

func (h *QuestionHandlers) StarQuestion(c *gin.Context) {

	question, err := h.questionService.StarQuestion(c, c.Param("question_id"),
		c.GetString(constants.UserID), c.GetString(constants.Role))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Question starred successfully", question)
}

func (h *QuestionHandlers) DeleteQuestion(c *gin.Context) {

	err := h.questionService.DeleteQuestion(c, c.Param("question_id"),
		c.GetString(constants.UserID), c.GetString(constants.Role))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Question deleted successfully", nil)
}
