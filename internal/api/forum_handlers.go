package api

import (
	"net/http"
	"strconv"

	"engage-service/internal/models"
	"engage-service/internal/service"
	"engage-service/pkg/constants"

	"github.com/gin-gonic/gin"
)

type ForumHandlers struct {
	forumService service.ForumService
}

func NewForumHandlers(forumService service.ForumService) *ForumHandlers {
	return &ForumHandlers{
		forumService: forumService,
	}
}

func (h *ForumHandlers) CreateDiscussion(c *gin.Context) {

	var req models.CreateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	discussion, err := h.forumService.CreateDiscussion(c, c.GetString(constants.UserID), &req)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusCreated, "Discussion created successfully", discussion)
}

func (h *ForumHandlers) GetEventDiscussions(c *gin.Context) {

	pagination := paginationFromQuery(c)

	discussions, total, err := h.forumService.GetEventDiscussions(c, c.Param("event_id"), pagination)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Get discussions successfully", gin.H{
		"discussions": discussions,
		"total_items": total,
	})
}

func (h *ForumHandlers) UpdateDiscussion(c *gin.Context) {

	var req models.UpdateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	discussion, err := h.forumService.UpdateDiscussion(c, c.Param("discussion_id"),
		c.GetString(constants.UserID), c.GetString(constants.Role), &req)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Discussion updated successfully", discussion)
}

func (h *ForumHandlers) DeleteDiscussion(c *gin.Context) {

	err := h.forumService.DeleteDiscussion(c, c.Param("discussion_id"),
		c.GetString(constants.UserID), c.GetString(constants.Role))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Discussion deleted successfully", nil)
}

func (h *ForumHandlers) CreateReply(c *gin.Context) {

	var req models.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	reply, err := h.forumService.CreateReply(c, c.Param("discussion_id"),
		c.GetString(constants.UserID), &req)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusCreated, "Reply created successfully", reply)
}

func (h *ForumHandlers) GetReplies(c *gin.Context) {

	replies, err := h.forumService.GetReplies(c, c.Param("discussion_id"))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Get replies successfully", replies)
}

func (h *ForumHandlers) UpdateReply(c *gin.Context) {

	var req models.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	reply, err := h.forumService.UpdateReply(c, c.Param("reply_id"),
		c.GetString(constants.UserID), req.Content)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Reply updated successfully", reply)
}

func (h *ForumHandlers) DeleteReply(c *gin.Context) {

	err := h.forumService.DeleteReply(c, c.Param("reply_id"),
		c.GetString(constants.UserID), c.GetString(constants.Role))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Reply deleted successfully", nil)
}

func (h *ForumHandlers) ToggleReaction(c *gin.Context) {

	var req models.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	summary, err := h.forumService.ToggleReaction(c, c.GetString(constants.UserID), &req)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Reaction toggled successfully", summary)
}

func paginationFromQuery(c *gin.Context) *models.Pagination {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return &models.Pagination{Page: page, Limit: limit}
}
