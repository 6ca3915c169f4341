package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func respondFailure(c *gin.Context, status int, code, message string, data any) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Data: data, Error: code})
}

// respondError maps err onto the envelope. Domain errors keep their code;
// anything else is logged and reported under the operation's code.
func respondError(c *gin.Context, logger *zap.Logger, err error, opCode, opMessage string) {
	if derr, ok := models.AsError(err); ok {
		status := http.StatusBadRequest
		if derr.Kind == models.KindNotFound {
			status = http.StatusNotFound
		}
		respondFailure(c, status, derr.Code, derr.Message, nil)
		return
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Error(opMessage, zap.String("code", opCode), zap.Error(err))
	respondFailure(c, http.StatusInternalServerError, opCode, opMessage, nil)
}
