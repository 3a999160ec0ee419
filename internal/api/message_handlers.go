package api

import (
	"net/http"

	"engage-service/internal/models"
	"engage-service/internal/service"
	"engage-service/pkg/constants"

	"github.com/gin-gonic/gin"
)

type MessageHandlers struct {
	messageService service.MessageService
	presence       *service.PresenceService
}

func NewMessageHandlers(messageService service.MessageService, presence *service.PresenceService) *MessageHandlers {
	return &MessageHandlers{
		messageService: messageService,
		presence:       presence,
	}
}

func (h *MessageHandlers) SendMessage(c *gin.Context) {

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	message, err := h.messageService.SendMessage(c, c.GetString(constants.UserID), &req)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusCreated, "Message sent successfully", message)
}

func (h *MessageHandlers) GetChatMessages(c *gin.Context) {

	pagination := paginationFromQuery(c)

	messages, err := h.messageService.GetChatMessages(c, c.GetString(constants.UserID),
		c.Param("user_id"), pagination)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Get messages successfully", messages)
}

func (h *MessageHandlers) EditMessage(c *gin.Context) {

	var req models.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	message, err := h.messageService.EditMessage(c, c.Param("message_id"),
		c.GetString(constants.UserID), req.Content)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Message edited successfully", message)
}

func (h *MessageHandlers) DeleteMessage(c *gin.Context) {

	err := h.messageService.DeleteMessage(c, c.Param("message_id"), c.GetString(constants.UserID))
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Message deleted successfully", nil)
}

func (h *MessageHandlers) ToggleMessageReaction(c *gin.Context) {

	var req models.MessageReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	reactions, err := h.messageService.ToggleMessageReaction(c, c.Param("message_id"),
		c.GetString(constants.UserID), req.React)
	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, "Reaction toggled successfully", gin.H{
		"reactions": reactions,
	})
}

func (h *MessageHandlers) GetOnlineStatus(c *gin.Context) {

	userID := c.Param("user_id")

	status := models.UserOnline{
		UserID:   userID,
		IsOnline: h.presence.IsOnline(userID),
	}
	if !status.IsOnline {
		lastOnline, err := h.presence.LastOnline(c, userID)
		if err != nil {
			SendError(c, http.StatusInternalServerError, err, models.ErrInvalidOperation)
			return
		}
		status.LastOnline = lastOnline
	}

	SendSuccess(c, http.StatusOK, "Get online status successfully", status)
}

func (h *MessageHandlers) RegisterDeviceToken(c *gin.Context) {

	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	if err := h.presence.SetDeviceToken(c, c.GetString(constants.UserID), req.Token); err != nil {
		SendError(c, http.StatusInternalServerError, err, models.ErrInvalidOperation)
		return
	}

	SendSuccess(c, http.StatusOK, "Device token registered successfully", nil)
}
