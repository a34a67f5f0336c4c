package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semihdurgun/monadagent/internal/services"
)

// RecordHandler exposes the lifecycle records the agent tracks
type RecordHandler struct {
	subscriptions *services.SubscriptionService
	payments      *services.PaymentService
	virtualCards  *services.VirtualCardService
	wills         *services.WillService
	scheduler     *services.SchedulerService
	pots          *services.PotService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(
	subscriptions *services.SubscriptionService,
	payments *services.PaymentService,
	virtualCards *services.VirtualCardService,
	wills *services.WillService,
	scheduler *services.SchedulerService,
	pots *services.PotService,
) *RecordHandler {
	return &RecordHandler{
		subscriptions: subscriptions,
		payments:      payments,
		virtualCards:  virtualCards,
		wills:         wills,
		scheduler:     scheduler,
		pots:          pots,
	}
}

// ListSubscriptions returns every subscription record
func (h *RecordHandler) ListSubscriptions(c *gin.Context) {
	sendList(c, h.subscriptions.ListSubscriptions())
}

// CancelSubscription revokes the subscription's delegation
func (h *RecordHandler) CancelSubscription(c *gin.Context) {
	if err := h.subscriptions.CancelSubscription(c.Request.Context(), c.Param("id")); err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, SuccessResponse{Message: "subscription cancelled"})
}

// ListPaymentCards returns every payment card record
func (h *RecordHandler) ListPaymentCards(c *gin.Context) {
	sendList(c, h.payments.ListCards())
}

// CancelPaymentCard revokes an unused payment card
func (h *RecordHandler) CancelPaymentCard(c *gin.Context) {
	if err := h.payments.CancelCard(c.Request.Context(), c.Param("id")); err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, SuccessResponse{Message: "payment card cancelled"})
}

// ListVirtualCards returns every virtual card record
func (h *RecordHandler) ListVirtualCards(c *gin.Context) {
	sendList(c, h.virtualCards.ListCards())
}

// UseVirtualCardRequest is one simulated spend
type UseVirtualCardRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// UseVirtualCard spends from a simulated card
func (h *RecordHandler) UseVirtualCard(c *gin.Context) {
	var req UseVirtualCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "amount is required", err)
		return
	}
	card, err := h.virtualCards.UseCard(c.Param("id"), req.Amount)
	if err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, card)
}

// RevokeVirtualCard deactivates a simulated card
func (h *RecordHandler) RevokeVirtualCard(c *gin.Context) {
	if err := h.virtualCards.RevokeCard(c.Param("id")); err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, SuccessResponse{Message: "virtual card revoked"})
}

// ListWills returns every digital will record
func (h *RecordHandler) ListWills(c *gin.Context) {
	sendList(c, h.wills.ListWills())
}

// RecordWillActivity resets a will's inactivity clock
func (h *RecordHandler) RecordWillActivity(c *gin.Context) {
	if err := h.wills.RecordActivity(c.Param("id")); err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, SuccessResponse{Message: "activity recorded"})
}

// RevokeWill deactivates the will
func (h *RecordHandler) RevokeWill(c *gin.Context) {
	if err := h.wills.RevokeWill(c.Param("id")); err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, SuccessResponse{Message: "will revoked"})
}

// ListScheduledPayments returns every standing order record
func (h *RecordHandler) ListScheduledPayments(c *gin.Context) {
	sendList(c, h.scheduler.ListScheduledPayments())
}

// CancelScheduledPayment revokes the standing order's delegation
func (h *RecordHandler) CancelScheduledPayment(c *gin.Context) {
	if err := h.scheduler.CancelScheduledPayment(c.Request.Context(), c.Param("id")); err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, SuccessResponse{Message: "scheduled payment cancelled"})
}

// ListSharedPots returns every shared pot record
func (h *RecordHandler) ListSharedPots(c *gin.Context) {
	sendList(c, h.pots.ListPots())
}

// AddPotFundsRequest is one deposit into a pot
type AddPotFundsRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// AddPotFunds credits a shared pot's tracked balance
func (h *RecordHandler) AddPotFunds(c *gin.Context) {
	var req AddPotFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "amount is required", err)
		return
	}
	if err := h.pots.AddFunds(c.Param("id"), req.Amount); err != nil {
		sendDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, SuccessResponse{Message: "funds added"})
}
