package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Chain     ChainConfig
	Contracts ContractsConfig
	Ledger    LedgerConfig
	Store     StoreConfig
	AI        AIConfig
	Pinning   PinningConfig
	Server    ServerConfig
	Log       LogConfig
}

// ChainConfig describes the target network. The descriptor fields are handed
// to the wallet endpoint verbatim when a chain switch-or-add is requested.
type ChainConfig struct {
	RPCURL       string
	WalletRPCURL string
	ChainID      int64
	Name         string
	NativeSymbol string
	ExplorerURL  string
}

type ContractsConfig struct {
	VowAddress         string
	CertificateAddress string
	AssetAddress       string
}

type LedgerConfig struct {
	RPCTimeout          time.Duration
	ReceiptPollInterval time.Duration
	ReceiptTimeout      time.Duration
	RateRPS             float64
	RateBurst           int
}

type StoreConfig struct {
	Path string
}

type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type PinningConfig struct {
	Endpoint   string
	Token      string
	GatewayURL string
	Timeout    time.Duration
}

type ServerConfig struct {
	Port int
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Chain: ChainConfig{
			RPCURL:       getEnv("CHAIN_RPC_URL", "https://rpc.sepolia-api.lisk.com"),
			WalletRPCURL: getEnv("WALLET_RPC_URL", "http://localhost:8545"),
			ChainID:      int64(getEnvInt("CHAIN_ID", 4202)),
			Name:         getEnv("CHAIN_NAME", "Lisk Sepolia Testnet"),
			NativeSymbol: getEnv("CHAIN_NATIVE_SYMBOL", "ETH"),
			ExplorerURL:  getEnv("CHAIN_EXPLORER_URL", "https://sepolia-blockscout.lisk.com"),
		},
		Contracts: ContractsConfig{
			VowAddress:         getEnv("VOW_CONTRACT_ADDRESS", ""),
			CertificateAddress: getEnv("CERTIFICATE_CONTRACT_ADDRESS", ""),
			AssetAddress:       getEnv("ASSET_CONTRACT_ADDRESS", ""),
		},
		Ledger: LedgerConfig{
			RPCTimeout:          time.Duration(getEnvInt("RPC_TIMEOUT_SEC", 30)) * time.Second,
			ReceiptPollInterval: time.Duration(getEnvInt("RECEIPT_POLL_INTERVAL_MS", 2000)) * time.Millisecond,
			ReceiptTimeout:      time.Duration(getEnvInt("RECEIPT_TIMEOUT_SEC", 180)) * time.Second,
			RateRPS:             getEnvFloat("RPC_RATE_RPS", 20),
			RateBurst:           getEnvInt("RPC_RATE_BURST", 40),
		},
		Store: StoreConfig{
			Path: getEnv("STATE_FILE", "smartvow-state.json"),
		},
		AI: AIConfig{
			APIKey:  getEnv("AI_API_KEY", ""),
			BaseURL: getEnv("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   getEnv("AI_MODEL", "gemini-2.0-flash"),
			Timeout: time.Duration(getEnvInt("AI_TIMEOUT_SEC", 30)) * time.Second,
		},
		Pinning: PinningConfig{
			Endpoint:   getEnv("PINNING_ENDPOINT", "https://api.pinata.cloud"),
			Token:      getEnv("PINNING_TOKEN", ""),
			GatewayURL: getEnv("PINNING_GATEWAY_URL", "https://gateway.pinata.cloud"),
			Timeout:    time.Duration(getEnvInt("PINNING_TIMEOUT_SEC", 30)) * time.Second,
		},
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL is required")
	}
	if c.Chain.WalletRPCURL == "" {
		return fmt.Errorf("WALLET_RPC_URL is required")
	}
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("CHAIN_ID must be positive")
	}
	if c.Contracts.VowAddress == "" {
		return fmt.Errorf("VOW_CONTRACT_ADDRESS is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("STATE_FILE is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
