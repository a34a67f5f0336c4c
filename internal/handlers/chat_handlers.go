package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semihdurgun/monadagent/internal/services"
)

// ChatHandler exposes the conversational agent
type ChatHandler struct {
	agent *services.AgentService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(agent *services.AgentService) *ChatHandler {
	return &ChatHandler{agent: agent}
}

// ChatRequest is one user message
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// HandleMessage interprets and executes a chat message
func (h *ChatHandler) HandleMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "message is required", err)
		return
	}

	reply, err := h.agent.HandleMessage(c.Request.Context(), req.Message)
	if err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, reply)
}
