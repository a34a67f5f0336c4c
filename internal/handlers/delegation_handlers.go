package handlers

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/semihdurgun/monadagent/internal/backend"
	"github.com/semihdurgun/monadagent/internal/helpers"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// DelegationHandler exposes the raw delegation backend for programmatic
// callers (the chat surface goes through the agent instead).
type DelegationHandler struct {
	backend backend.DelegationBackend
}

// NewDelegationHandler creates a new delegation handler
func NewDelegationHandler(b backend.DelegationBackend) *DelegationHandler {
	return &DelegationHandler{backend: b}
}

// CreateDelegationRequest is the wire form of a delegation request.
// Amount is a human-readable decimal string.
type CreateDelegationRequest struct {
	To              string `json:"to" binding:"required"`
	Amount          string `json:"amount" binding:"required"`
	Token           string `json:"token,omitempty"`
	Recurring       bool   `json:"recurring"`
	Interval        string `json:"interval,omitempty"`
	MaxUses         *int   `json:"max_uses,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
}

// CreateDelegation builds, signs (or escrows) and returns a new grant
func (h *DelegationHandler) CreateDelegation(c *gin.Context) {
	var req CreateDelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "invalid delegation request", err)
		return
	}
	if !helpers.IsAddressValid(req.To) {
		sendDomainError(c, business.NewError(business.ErrInvalidAddress, "invalid recipient address "+req.To))
		return
	}
	amount, err := helpers.ParseUnits(req.Amount, helpers.NativeDecimals)
	if err != nil {
		sendDomainError(c, err)
		return
	}

	createReq := backend.CreateRequest{
		To:              common.HexToAddress(req.To),
		Amount:          amount,
		Recurring:       req.Recurring,
		Interval:        business.Interval(req.Interval),
		MaxUses:         req.MaxUses,
		DurationSeconds: req.DurationSeconds,
	}
	if req.Token != "" {
		if !helpers.IsAddressValid(req.Token) {
			sendDomainError(c, business.NewError(business.ErrInvalidAddress, "invalid token address "+req.Token))
			return
		}
		createReq.Token = common.HexToAddress(req.Token)
	}

	grant, err := h.backend.Create(c.Request.Context(), createReq)
	if err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{
		"id":               grant.ID,
		"mechanism":        grant.Mechanism,
		"delegation":       grant.Delegation,
		"transaction_hash": grant.TransactionHash,
	})
}

// UseDelegationRequest is one spend against an existing grant
type UseDelegationRequest struct {
	Amount    string `json:"amount" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
}

// UseDelegation redeems a spend from the delegation
func (h *DelegationHandler) UseDelegation(c *gin.Context) {
	var req UseDelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "invalid use request", err)
		return
	}
	if !helpers.IsAddressValid(req.Recipient) {
		sendDomainError(c, business.NewError(business.ErrInvalidAddress, "invalid recipient address "+req.Recipient))
		return
	}
	amount, err := helpers.ParseUnits(req.Amount, helpers.NativeDecimals)
	if err != nil {
		sendDomainError(c, err)
		return
	}

	txHash, err := h.backend.Use(c.Request.Context(), c.Param("delegation_id"), amount, common.HexToAddress(req.Recipient))
	if err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"transaction_hash": txHash})
}

// RevokeDelegation deactivates the delegation
func (h *DelegationHandler) RevokeDelegation(c *gin.Context) {
	txHash, err := h.backend.Revoke(c.Request.Context(), c.Param("delegation_id"))
	if err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"transaction_hash": txHash})
}

// GetDelegation returns the backend's view of the delegation for a user
func (h *DelegationHandler) GetDelegation(c *gin.Context) {
	user := c.Query("user")
	var userAddr common.Address
	if user != "" {
		if !helpers.IsAddressValid(user) {
			sendDomainError(c, business.NewError(business.ErrInvalidAddress, "invalid user address "+user))
			return
		}
		userAddr = common.HexToAddress(user)
	}

	status := h.backend.Query(c.Request.Context(), c.Param("delegation_id"), userAddr)
	if status == nil {
		sendError(c, http.StatusNotFound, "delegation not found", nil)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{
		"amount":           helpers.FormatUnits(status.Amount, helpers.NativeDecimals),
		"remaining_amount": helpers.FormatUnits(status.RemainingAmount, helpers.NativeDecimals),
		"expires_at":       status.ExpiresAt,
		"max_uses":         status.MaxUses,
		"used_count":       status.UsedCount,
		"is_active":        status.IsActive,
	})
}
