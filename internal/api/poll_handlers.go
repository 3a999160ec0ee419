package api

import (
	"net/http"

	"engage-service/internal/models"
	"engage-service/internal/service"
	"engage-service/pkg/constants"

	"github.com/gin-gonic/gin"
)

type PollHandlers struct {
	pollService service.PollService
}

func NewPollHandlers(pollService service.PollService) *PollHandlers {
	return &PollHandlers{
		pollService: pollService,
	}
}

func (h *PollHandlers) CreatePoll(c *gin.Context) {

	var req models.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	poll, err := h.pollService.CreatePoll(c, c.GetString(constants.UserID), &req)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusCreated, "Poll created successfully", poll)
}

func (h *PollHandlers) GetEventPolls(c *gin.Context) {

	polls, err := h.pollService.GetEventPolls(c, c.Param("event_id"))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Get polls successfully", polls)
}

func (h *PollHandlers) ActivatePoll(c *gin.Context) {

	poll, err := h.pollService.ActivatePoll(c, c.Param("poll_id"),
		c.GetString(constants.UserID), c.GetString(constants.Role))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Poll activated successfully", poll)
}

func (h *PollHandlers) DeactivatePoll(c *gin.Context) {

	poll, err := h.pollService.DeactivatePoll(c, c.Param("poll_id"),
		c.GetString(constants.UserID), c.GetString(constants.Role))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Poll deactivated successfully", poll)
}

func (h *PollHandlers) SubmitVote(c *gin.Context) {

	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	payload := models.ResponsePayload{
		SelectedOptions: req.SelectedOptions,
		Rating:          req.Rating,
		TextResponse:    req.TextResponse,
	}

	poll, response, err := h.pollService.SubmitVote(c, c.Param("poll_id"),
		c.GetString(constants.UserID), payload)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Vote submitted successfully", gin.H{
		"poll":     poll,
		"response": response,
	})
}

func (h *PollHandlers) DeletePoll(c *gin.Context) {

	err := h.pollService.DeletePoll(c, c.Param("poll_id"),
		c.GetString(constants.UserID), c.GetString(constants.Role))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Poll deleted successfully", nil)
}

func (h *PollHandlers) GetPollAnalytics(c *gin.Context) {

	analytics, err := h.pollService.GetPollAnalytics(c, c.Param("poll_id"))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Get poll analytics successfully", analytics)
}

func (h *PollHandlers) GetTextResponses(c *gin.Context) {

	responses, err := h.pollService.GetTextResponses(c, c.Param("poll_id"))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Get text responses successfully", responses)
}
