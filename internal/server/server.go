// Package server wires the HTTP surface: routes, CORS, and request
// logging around the agent's handlers.
package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/semihdurgun/monadagent/internal/handlers"
)

// Handlers bundles every handler the router mounts
type Handlers struct {
	Health     *handlers.HealthHandler
	Chat       *handlers.ChatHandler
	Delegation *handlers.DelegationHandler
	Records    *handlers.RecordHandler
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestID())
	router.Use(configureCORS())

	// Log request bodies outside of release mode
	if os.Getenv("GIN_MODE") != "release" {
		router.Use(handlers.LogRequest())
	}

	router.GET("/health", h.Health.Health)
	router.GET("/contract-status", h.Health.ContractStatus)

	v1 := router.Group("/api/v1")
	{
		// Chat surface: natural-language commands routed to the agent
		v1.POST("/chat", h.Chat.HandleMessage)

		// Raw delegation surface for programmatic callers
		delegations := v1.Group("/delegations")
		{
			delegations.POST("", h.Delegation.CreateDelegation)
			delegations.GET("/:delegation_id", h.Delegation.GetDelegation)
			delegations.POST("/:delegation_id/use", h.Delegation.UseDelegation)
			delegations.POST("/:delegation_id/revoke", h.Delegation.RevokeDelegation)
		}

		// Lifecycle records
		subscriptions := v1.Group("/subscriptions")
		{
			subscriptions.GET("", h.Records.ListSubscriptions)
			subscriptions.POST("/:id/cancel", h.Records.CancelSubscription)
		}

		paymentCards := v1.Group("/payment-cards")
		{
			paymentCards.GET("", h.Records.ListPaymentCards)
			paymentCards.POST("/:id/cancel", h.Records.CancelPaymentCard)
		}

		virtualCards := v1.Group("/virtual-cards")
		{
			virtualCards.GET("", h.Records.ListVirtualCards)
			virtualCards.POST("/:id/use", h.Records.UseVirtualCard)
			virtualCards.POST("/:id/revoke", h.Records.RevokeVirtualCard)
		}

		wills := v1.Group("/wills")
		{
			wills.GET("", h.Records.ListWills)
			wills.POST("/:id/activity", h.Records.RecordWillActivity)
			wills.POST("/:id/revoke", h.Records.RevokeWill)
		}

		scheduledPayments := v1.Group("/scheduled-payments")
		{
			scheduledPayments.GET("", h.Records.ListScheduledPayments)
			scheduledPayments.POST("/:id/cancel", h.Records.CancelScheduledPayment)
		}

		pots := v1.Group("/shared-pots")
		{
			pots.GET("", h.Records.ListSharedPots)
			pots.POST("/:id/funds", h.Records.AddPotFunds)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

// configureCORS returns a configured CORS middleware
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		corsConfig.AllowOrigins = splitTrimmed(originsEnv)
	}

	methodsEnv := os.Getenv("CORS_ALLOWED_METHODS")
	if methodsEnv == "" {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	} else {
		corsConfig.AllowMethods = splitTrimmed(methodsEnv)
	}

	headersEnv := os.Getenv("CORS_ALLOWED_HEADERS")
	if headersEnv == "" {
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	} else {
		corsConfig.AllowHeaders = splitTrimmed(headersEnv)
	}

	if exposedEnv := os.Getenv("CORS_EXPOSED_HEADERS"); exposedEnv != "" {
		corsConfig.ExposeHeaders = splitTrimmed(exposedEnv)
	}

	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}

func splitTrimmed(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
