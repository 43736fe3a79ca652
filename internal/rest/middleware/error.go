package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// AppError represents a custom application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

var (
	ErrUnauthorized = NewAppError(http.StatusUnauthorized, "unauthorized")
	ErrNotFound     = NewAppError(http.StatusNotFound, "resource not found")
	ErrBadRequest   = NewAppError(http.StatusBadRequest, "bad request")
)

// ErrorMiddleware renders the last error attached to the context. Game errors keep their
// code so REST and websocket clients see the same taxonomy.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.Code, models.ApiResponse[any]{Status: appErr.Code, Message: appErr.Message})
			return
		}

		var gameErr *models.GameError
		if errors.As(err, &gameErr) {
			status := statusOf(gameErr.Code)
			c.JSON(status, models.ApiResponse[models.ErrorMessage]{
				Status:  status,
				Message: gameErr.Message,
				Data:    models.ErrorMessage{Code: gameErr.Code, Message: gameErr.Message},
			})
			return
		}

		c.JSON(http.StatusInternalServerError, models.ApiResponse[any]{
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
		})
	}
}

func statusOf(code models.ErrorCode) int {
	switch code {
	case models.CodeLobbyNotFound, models.CodePlayerNotSeated, models.CodeTableClosed:
		return http.StatusNotFound
	case models.CodeUnauthorized:
		return http.StatusUnauthorized
	case models.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
