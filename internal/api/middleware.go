package api

import (
	"fmt"
	"net/http"
	"strings"

	"engage-service/internal/models"
	"engage-service/internal/repository"
	"engage-service/pkg/constants"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Secured extracts the authenticated principal from the bearer token.
// Signature verification happens upstream at the gateway; here the claims
// are read to attach user id and role to the request context.
func Secured() gin.HandlerFunc {
	return func(context *gin.Context) {
		authorizationHeader := context.GetHeader("Authorization")

		if len(authorizationHeader) == 0 {
			context.AbortWithStatus(http.StatusForbidden)
			return
		}

		if !strings.HasPrefix(authorizationHeader, "Bearer ") {
			context.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		tokenString := strings.Split(authorizationHeader, " ")[1]

		token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
		if err != nil {
			context.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			context.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		userID, ok := claims[constants.UserID].(string)
		if !ok || userID == "" {
			context.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		context.Set(constants.UserID, userID)

		role := constants.RoleParticipant
		if r, ok := claims[constants.Role].(string); ok && r != "" {
			role = r
		}
		context.Set(constants.Role, role)

		context.Set(constants.Token, tokenString)
		context.Next()
	}
}

// WebsocketSecured reads the token from the query string, since browsers
// cannot set headers on websocket upgrade requests.
func WebsocketSecured() gin.HandlerFunc {
	return func(c *gin.Context) {

		token := c.Query(constants.Token)

		if len(token) == 0 {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		t, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
		if err != nil {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		claims, ok := t.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		userID, ok := claims[constants.UserID].(string)
		if !ok || userID == "" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Set(constants.UserID, userID)

		role := constants.RoleParticipant
		if r, ok := claims[constants.Role].(string); ok && r != "" {
			role = r
		}
		c.Set(constants.Role, role)

		c.Set(constants.Token, token)
		c.Next()
	}
}

// EventMemberMiddleware rejects requests from users not registered to the
// event named in the route.
func EventMemberMiddleware(registrationRepo repository.RegistrationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := c.Param("event_id")
		userID := c.GetString(constants.UserID)
		if eventID == "" || userID == "" {
			SendError(c, http.StatusBadRequest, fmt.Errorf("event ID or user ID must not be empty"), models.ErrInvalidRequest)
			return
		}

		objectEventID, err := primitive.ObjectIDFromHex(eventID)
		if err != nil {
			SendError(c, http.StatusBadRequest, fmt.Errorf("invalid event ID"), models.ErrInvalidRequest)
			return
		}

		check, err := registrationRepo.IsUserInEvent(c, userID, objectEventID)
		if err != nil {
			SendError(c, http.StatusInternalServerError, err, models.ErrInvalidOperation)
			return
		}

		if !check {
			SendError(c, http.StatusForbidden, fmt.Errorf("user is not registered to event"), models.ErrInvalidRequest)
			return
		}
		c.Next()
	}
}
