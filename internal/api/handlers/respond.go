// internal/api/handlers/respond.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Status       string      `json:"status"`
	Data         interface{} `json:"data,omitempty"`
	ErrorDetails interface{} `json:"error_details,omitempty"`
	Message      string      `json:"message"`
}

func respondOK(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, Response{
		Status:  "success",
		Data:    data,
		Message: message,
	})
}

func respondError(c *gin.Context, statusCode int, details interface{}, message string) {
	log.Error().Int("status", statusCode).Interface("details", details).Msg(message)
	c.JSON(statusCode, Response{
		Status:       "error",
		ErrorDetails: details,
		Message:      message,
	})
}
