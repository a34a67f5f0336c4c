package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// sendError is a helper function that combines logging and error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// sendDomainError maps a domain error to its HTTP status. A declined
// wallet prompt is logged at info level only; it is an outcome, not a
// fault.
func sendDomainError(c *gin.Context, err error) {
	kind := business.KindOf(err)

	if kind == business.ErrUserRejected || business.IsUserRejected(err) {
		logger.Info("request aborted by user",
			zap.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusConflict, ErrorResponse{Error: "request declined in wallet", Kind: string(business.ErrUserRejected)})
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case business.ErrInvalidConfig, business.ErrInvalidAddress, business.ErrInvalidAmount, business.ErrUnsignedDelegation:
		status = http.StatusBadRequest
	case business.ErrUnauthorizedCaller:
		status = http.StatusForbidden
	case business.ErrEventNotFound:
		status = http.StatusBadGateway
	case business.ErrTransactionTimeout:
		status = http.StatusGatewayTimeout
	}

	logger.Error("request failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(status, ErrorResponse{Error: err.Error(), Kind: string(kind)})
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// sendList is a helper function that sends a list response
func sendList(c *gin.Context, items interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   items,
	})
}
