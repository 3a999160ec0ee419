package api

import (
	"net/http"

	"engage-service/internal/models"

	"github.com/gin-gonic/gin"
)

func SendSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, models.APIResponse{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	})
}

func SendError(c *gin.Context, statusCode int, err error, errorCode string) {
	response := models.APIResponse{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
	if err != nil {
		response.Error = err.Error()
	}
	c.AbortWithStatusJSON(statusCode, response)
}

// SendFailure maps a service error onto an HTTP status by its kind. No
// partial state ever rides along with a failure.
func SendFailure(c *gin.Context, err error) {
	kind := models.KindOf(err)

	status := http.StatusInternalServerError
	errorCode := models.ErrInvalidOperation
	switch kind {
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindForbidden:
		status = http.StatusForbidden
	case models.KindInvalidState:
		status = http.StatusConflict
	case models.KindInvalidInput:
		status = http.StatusBadRequest
		errorCode = models.ErrInvalidRequest
	}

	c.AbortWithStatusJSON(status, models.APIResponse{
		StatusCode: status,
		Error:      err.Error(),
		ErrorCode:  errorCode,
	})
}
