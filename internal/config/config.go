// Package config loads the agent's runtime configuration from the
// environment, with a .env file for local development.
package config

import (
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/semihdurgun/monadagent/internal/delegation"
	"github.com/semihdurgun/monadagent/internal/helpers"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// Config is the full runtime configuration
type Config struct {
	Stage string
	Port  string

	// Chain access
	RPCURL       string
	WalletRPCURL string

	// Delegation mechanism: "offchain" (signed objects) or "onchain"
	// (registry contract)
	Mechanism string

	// Off-chain path contract addresses
	DelegationManager common.Address
	Enforcers         map[business.CaveatType]common.Address
	NativeEnforcer    common.Address
	ERC20Enforcer     common.Address

	// On-chain path registry contract
	RegistryAddress common.Address

	// Local signer key for non-interactive signing; empty in wallet mode
	SignerKey string

	// Record store directory; empty selects an in-memory store
	StoreDir string

	// Assistant API
	AssistantURL    string
	AssistantAPIKey string
	AssistantModel  string

	// Seed merchant directory, parsed from "name=0x...,name2=0x..."
	Merchants map[string]common.Address
}

// Load reads configuration from the environment. A missing .env file is
// not an error; unset optional values fall back to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Stage:        getEnv("STAGE", helpers.StageDev),
		Port:         getEnv("PORT", "8080"),
		RPCURL:       os.Getenv("RPC_URL"),
		WalletRPCURL: getEnv("WALLET_RPC_URL", os.Getenv("RPC_URL")),
		Mechanism:    getEnv("DELEGATION_MECHANISM", "offchain"),
		SignerKey:    os.Getenv("SIGNER_PRIVATE_KEY"),
		StoreDir:     os.Getenv("STORE_DIR"),

		AssistantURL:    os.Getenv("ASSISTANT_URL"),
		AssistantAPIKey: os.Getenv("ASSISTANT_API_KEY"),
		AssistantModel:  getEnv("ASSISTANT_MODEL", "default"),

		DelegationManager: common.HexToAddress(os.Getenv("DELEGATION_MANAGER_ADDRESS")),
		RegistryAddress:   common.HexToAddress(os.Getenv("REGISTRY_CONTRACT_ADDRESS")),
		NativeEnforcer:    common.HexToAddress(os.Getenv("NATIVE_TRANSFER_ENFORCER_ADDRESS")),
		ERC20Enforcer:     common.HexToAddress(os.Getenv("ERC20_TRANSFER_ENFORCER_ADDRESS")),
	}

	if !helpers.IsValidStage(cfg.Stage) {
		return nil, business.NewError(business.ErrInvalidConfig,
			"STAGE must be prod, dev or local, got "+cfg.Stage)
	}
	if cfg.RPCURL == "" {
		return nil, business.NewError(business.ErrInvalidConfig, "RPC_URL is required")
	}
	switch cfg.Mechanism {
	case "offchain":
		if cfg.DelegationManager == (common.Address{}) {
			return nil, business.NewError(business.ErrInvalidConfig,
				"DELEGATION_MANAGER_ADDRESS is required for the offchain mechanism")
		}
	case "onchain":
		if cfg.RegistryAddress == (common.Address{}) {
			return nil, business.NewError(business.ErrInvalidConfig,
				"REGISTRY_CONTRACT_ADDRESS is required for the onchain mechanism")
		}
	default:
		return nil, business.NewError(business.ErrInvalidConfig,
			"DELEGATION_MECHANISM must be offchain or onchain, got "+cfg.Mechanism)
	}

	cfg.Enforcers = map[business.CaveatType]common.Address{
		business.CaveatSpendLimit:        common.HexToAddress(os.Getenv("SPEND_LIMIT_ENFORCER_ADDRESS")),
		business.CaveatMaxUses:           common.HexToAddress(os.Getenv("MAX_USES_ENFORCER_ADDRESS")),
		business.CaveatExpiration:        common.HexToAddress(os.Getenv("EXPIRATION_ENFORCER_ADDRESS")),
		business.CaveatAllowedMethods:    common.HexToAddress(os.Getenv("ALLOWED_METHODS_ENFORCER_ADDRESS")),
		business.CaveatAllowedRecipients: common.HexToAddress(os.Getenv("ALLOWED_RECIPIENTS_ENFORCER_ADDRESS")),
		business.CaveatInactivityPeriod:  common.HexToAddress(os.Getenv("INACTIVITY_ENFORCER_ADDRESS")),
		business.CaveatRequiredExecutors: common.HexToAddress(os.Getenv("EXECUTORS_ENFORCER_ADDRESS")),
	}

	cfg.Merchants = parseMerchants(os.Getenv("MERCHANT_DIRECTORY"))
	return cfg, nil
}

// Environment assembles the deployment environment for the off-chain path
func (c *Config) Environment() delegation.Environment {
	return delegation.Environment{
		DelegationManager:                 c.DelegationManager,
		Enforcers:                         c.Enforcers,
		NativeTokenTransferAmountEnforcer: c.NativeEnforcer,
		ERC20TransferAmountEnforcer:       c.ERC20Enforcer,
	}
}

// parseMerchants reads "name=0xaddr,name2=0xaddr" pairs
func parseMerchants(raw string) map[string]common.Address {
	merchants := make(map[string]common.Address)
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 || parts[0] == "" || !common.IsHexAddress(parts[1]) {
			continue
		}
		merchants[strings.ToLower(parts[0])] = common.HexToAddress(parts[1])
	}
	return merchants
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
