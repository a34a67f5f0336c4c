package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semihdurgun/monadagent/internal/registry"
)

// HealthHandler reports process and contract health
type HealthHandler struct {
	registry *registry.Client // nil when the on-chain path is not configured
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registryClient *registry.Client) *HealthHandler {
	return &HealthHandler{registry: registryClient}
}

// Health is the liveness probe
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ContractStatus reports whether the registry contract is reachable and
// deployed; used by clients as a pre-flight guard before offering
// on-chain delegation creation.
func (h *HealthHandler) ContractStatus(c *gin.Context) {
	if h.registry == nil {
		c.JSON(http.StatusOK, gin.H{"configured": false, "deployed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"configured": true,
		"deployed":   h.registry.IsContractDeployed(c.Request.Context()),
		"address":    h.registry.Address().Hex(),
	})
}
