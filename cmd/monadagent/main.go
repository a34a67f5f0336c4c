package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/backend"
	"github.com/semihdurgun/monadagent/internal/client/assistant"
	"github.com/semihdurgun/monadagent/internal/client/wallet"
	"github.com/semihdurgun/monadagent/internal/config"
	"github.com/semihdurgun/monadagent/internal/delegation"
	"github.com/semihdurgun/monadagent/internal/handlers"
	"github.com/semihdurgun/monadagent/internal/helpers"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/registry"
	"github.com/semihdurgun/monadagent/internal/server"
	"github.com/semihdurgun/monadagent/internal/services"
	"github.com/semihdurgun/monadagent/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger.InitLogger(cfg.Stage)
	defer logger.Sync() //nolint:errcheck

	if cfg.Stage == helpers.StageProd {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ethClient, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		logger.Fatal("failed to connect to chain RPC", zap.Error(err))
	}
	defer ethClient.Close()

	w, err := wallet.DialRPCWallet(ctx, cfg.WalletRPCURL)
	if err != nil {
		logger.Fatal("failed to connect to wallet provider", zap.Error(err))
	}

	// The factory signs delegations locally; only available when a signer
	// key is configured.
	var factory *delegation.Factory
	if cfg.SignerKey != "" {
		signer, err := wallet.NewLocalSigner(cfg.SignerKey, cfg.Environment())
		if err != nil {
			logger.Fatal("invalid signer key", zap.Error(err))
		}
		factory = delegation.NewFactory(signer)
	}

	// The registry client serves the on-chain mechanism and the
	// contract-status probe; skipped when no registry is configured.
	var registryClient *registry.Client
	if cfg.RegistryAddress != (common.Address{}) {
		registryClient, err = registry.NewClient(cfg.RegistryAddress, ethClient, w)
		if err != nil {
			logger.Fatal("failed to create registry client", zap.Error(err))
		}
	}

	var delegationBackend backend.DelegationBackend
	switch cfg.Mechanism {
	case "onchain":
		delegationBackend = backend.NewOnchain(registryClient)
	default:
		if factory == nil {
			logger.Fatal("the offchain mechanism requires SIGNER_PRIVATE_KEY")
		}
		delegationBackend, err = backend.NewOffchain(factory, w, ethClient)
		if err != nil {
			logger.Fatal("failed to create offchain backend", zap.Error(err))
		}
	}

	recordStore, err := openStore(cfg.StoreDir)
	if err != nil {
		logger.Fatal("failed to open record store", zap.Error(err))
	}
	defer recordStore.Close() //nolint:errcheck

	var assistantClient *assistant.Client
	if cfg.AssistantURL != "" {
		assistantClient, err = assistant.NewClient(assistant.Config{
			BaseURL: cfg.AssistantURL,
			APIKey:  cfg.AssistantAPIKey,
			Model:   cfg.AssistantModel,
		})
		if err != nil {
			logger.Fatal("failed to create assistant client", zap.Error(err))
		}
	}

	subscriptionService := services.NewSubscriptionService(delegationBackend, recordStore)
	paymentService := services.NewPaymentService(delegationBackend, recordStore)
	virtualCardService := services.NewVirtualCardService(recordStore)
	willService := services.NewWillService(factory, recordStore)
	schedulerService := services.NewSchedulerService(delegationBackend, recordStore)
	potService := services.NewPotService(recordStore)
	merchantService := services.NewMerchantService(cfg.Merchants)

	agentService := services.NewAgentService(
		subscriptionService,
		paymentService,
		virtualCardService,
		willService,
		schedulerService,
		potService,
		merchantService,
		assistantClient,
	)

	router := server.NewRouter(server.Handlers{
		Health:     handlers.NewHealthHandler(registryClient),
		Chat:       handlers.NewChatHandler(agentService),
		Delegation: handlers.NewDelegationHandler(delegationBackend),
		Records: handlers.NewRecordHandler(
			subscriptionService,
			paymentService,
			virtualCardService,
			willService,
			schedulerService,
			potService,
		),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("mechanism", cfg.Mechanism),
			zap.String("stage", cfg.Stage),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

// openStore selects a persistent store when a directory is configured and
// an in-memory store otherwise.
func openStore(dir string) (*store.Store, error) {
	if dir == "" {
		logger.Warn("STORE_DIR not set, records will not survive restarts")
		return store.OpenInMemory()
	}
	return store.Open(dir)
}
