package api

import (
	"net/http"
	"time"

	"engage-service/internal/models"
	"engage-service/internal/repository"
	"engage-service/pkg/constants"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegistrationHandlers struct {
	registrationRepo repository.RegistrationRepository
}

func NewRegistrationHandlers(registrationRepo repository.RegistrationRepository) *RegistrationHandlers {
	return &RegistrationHandlers{
		registrationRepo: registrationRepo,
	}
}

// RegisterForEvent records the caller as an attendee of the event. A repeat
// registration is treated as success, the unique index keeps one row per
// (event, user) pair.
func (h *RegistrationHandlers) RegisterForEvent(c *gin.Context) {

	eventID, err := primitive.ObjectIDFromHex(c.Param("event_id"))
	if err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	role := c.GetString(constants.Role)
	if role == "" {
		role = constants.RoleParticipant
	}

	registration := &models.Registration{
		EventID:   eventID,
		UserID:    c.GetString(constants.UserID),
		Role:      role,
		CreatedAt: time.Now(),
	}

	if err := h.registrationRepo.InsertRegistration(c, registration); err != nil {
		if !repository.IsDuplicateKey(err) {
			SendError(c, http.StatusInternalServerError, err, models.ErrInvalidOperation)
			return
		}
		existing, err := h.registrationRepo.GetRegistration(c, eventID, registration.UserID)
		if err != nil {
			SendError(c, http.StatusInternalServerError, err, models.ErrInvalidOperation)
			return
		}
		SendSuccess(c, http.StatusOK, "Already registered", existing)
		return
	}

	SendSuccess(c, http.StatusCreated, "Registered successfully", registration)
}

func (h *RegistrationHandlers) GetMyRegistration(c *gin.Context) {

	eventID, err := primitive.ObjectIDFromHex(c.Param("event_id"))
	if err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	registration, err := h.registrationRepo.GetRegistration(c, eventID, c.GetString(constants.UserID))
	if err != nil {
		SendError(c, http.StatusInternalServerError, err, models.ErrInvalidOperation)
		return
	}
	if registration == nil {
		SendFailure(c, models.NotFound("registration not found"))
		return
	}

	SendSuccess(c, http.StatusOK, "Get registration successfully", registration)
}

func (h *RegistrationHandlers) GetAttendeeCount(c *gin.Context) {

	eventID, err := primitive.ObjectIDFromHex(c.Param("event_id"))
	if err != nil {
		SendError(c, http.StatusBadRequest, err, models.ErrInvalidRequest)
		return
	}

	count, err := h.registrationRepo.CountEventRegistrations(c, eventID)
	if err != nil {
		SendError(c, http.StatusInternalServerError, err, models.ErrInvalidOperation)
		return
	}

	SendSuccess(c, http.StatusOK, "Get attendee count successfully", gin.H{
		"event_id":       c.Param("event_id"),
		"attendee_count": count,
	})
}
