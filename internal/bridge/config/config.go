// Package config loads the relayer's environment configuration, grounded
// on universalClient/config.go's defaulting and validation style and
// loaded the way cmd/puniversald bootstraps via godotenv + viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ChainConfig holds the per-chain connection details for one side of one
// direction (SOURCE_CHAIN__* or TARGET_CHAIN__* in spec.md §6).
type ChainConfig struct {
	RPCURLs       []string // supports a comma-separated pool for rpcpool failover
	ContractHex   string
	ChainID       uint64
	Confirmations uint64
}

// RelayerConfig holds one relayer's key material for both signing schemes;
// a single relayer process typically only populates the scheme relevant to
// its direction's destination chain.
type RelayerConfig struct {
	ECDSAPrivateKey   string
	Ed25519PrivateKey string
}

// QueueConfig configures the durable event queue (spec.md §4.2).
type QueueConfig struct {
	Path       string
	MaxSize    int
	RetryLimit int
}

// GasConfig configures the minimum-balance monitoring described in
// SPEC_FULL.md's "Supplemented features" section.
type GasConfig struct {
	MinSourceBalance uint64
	MinTargetBalance uint64
}

// DirectionConfig is the full configuration for one direction (E2S or
// S2E) of the bridge.
type DirectionConfig struct {
	Name             string
	Source           ChainConfig
	Target           ChainConfig
	Relayer          RelayerConfig
	Queue            QueueConfig
	Gas              GasConfig
	PollInterval     time.Duration
	WatcherWindow    uint64
}

// Config is the relayer process's full configuration: the gateway-facing
// settings from spec.md §6 plus one DirectionConfig per active direction.
type Config struct {
	RPCURL               string
	PrivateKey            string
	BridgeContractAddress string
	USDCContractAddress   string
	ChainID               uint64
	Port                  int
	CORSAllowOrigin       string

	LogLevel  int
	LogFormat string

	Directions map[string]DirectionConfig
}

const (
	defaultPollInterval  = 5 * time.Second
	defaultWatcherWindow = 1000
	defaultQueueMaxSize  = 0 // unbounded
	defaultRetryLimit    = 10
)

// Load reads configuration from the environment (optionally seeded from a
// .env file via godotenv, matching cmd/puniversald) using viper for layered
// binding, validates it, and applies this package's defaults (port 8080,
// the default* constants above, and a per-direction queue path).
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load env file: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	cfg := &Config{
		RPCURL:                v.GetString("RPC_URL"),
		PrivateKey:            v.GetString("PRIVATE_KEY"),
		BridgeContractAddress: v.GetString("BRIDGE_CONTRACT_ADDRESS"),
		USDCContractAddress:   v.GetString("USDC_CONTRACT_ADDRESS"),
		Port:                  v.GetInt("PORT"),
		CORSAllowOrigin:       v.GetString("CORS_ALLOW_ORIGIN"),
		LogLevel:              intOrDefault(v.GetString("LOG_LEVEL"), 1),
		LogFormat:             stringOrDefault(v.GetString("LOG_FORMAT"), "json"),
		Directions:            make(map[string]DirectionConfig),
	}

	if chainID := v.GetString("CHAIN_ID"); chainID != "" {
		id, err := strconv.ParseUint(chainID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid CHAIN_ID %q: %w", chainID, err)
		}
		cfg.ChainID = id
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	for _, name := range []string{"e2s", "s2e"} {
		dc, present, err := loadDirection(v, name)
		if err != nil {
			return nil, err
		}
		if present {
			cfg.Directions[name] = dc
		}
	}

	return cfg, nil
}

func loadDirection(v *viper.Viper, name string) (DirectionConfig, bool, error) {
	prefix := strings.ToUpper(name) + "__"
	sourceURLs := v.GetString(prefix + "SOURCE_CHAIN__RPC_URLS")
	if sourceURLs == "" {
		return DirectionConfig{}, false, nil
	}

	dc := DirectionConfig{
		Name: name,
		Source: ChainConfig{
			RPCURLs:     splitCSV(sourceURLs),
			ContractHex: v.GetString(prefix + "SOURCE_CHAIN__CONTRACT"),
		},
		Target: ChainConfig{
			RPCURLs:     splitCSV(v.GetString(prefix + "TARGET_CHAIN__RPC_URLS")),
			ContractHex: v.GetString(prefix + "TARGET_CHAIN__CONTRACT"),
		},
		Relayer: RelayerConfig{
			ECDSAPrivateKey:   v.GetString(prefix + "RELAYER__ECDSA_PRIVATE_KEY"),
			Ed25519PrivateKey: v.GetString(prefix + "RELAYER__ED25519_PRIVATE_KEY"),
		},
		Queue: QueueConfig{
			Path:       stringOrDefault(v.GetString(prefix+"QUEUE__PATH"), "./data/"+name+"/queue"),
			MaxSize:    intOrDefault(v.GetString(prefix+"QUEUE__MAX_SIZE"), defaultQueueMaxSize),
			RetryLimit: intOrDefault(v.GetString(prefix+"QUEUE__RETRY_LIMIT"), defaultRetryLimit),
		},
		PollInterval:  defaultPollInterval,
		WatcherWindow: defaultWatcherWindow,
	}

	var err error
	dc.Source.ChainID, err = parseU64OrZero(v.GetString(prefix + "SOURCE_CHAIN__CHAIN_ID"))
	if err != nil {
		return dc, false, fmt.Errorf("config: %s: %w", name, err)
	}
	dc.Target.ChainID, err = parseU64OrZero(v.GetString(prefix + "TARGET_CHAIN__CHAIN_ID"))
	if err != nil {
		return dc, false, fmt.Errorf("config: %s: %w", name, err)
	}
	dc.Gas.MinSourceBalance, err = parseU64OrZero(v.GetString(prefix + "GAS__MIN_SOURCE_BALANCE"))
	if err != nil {
		return dc, false, err
	}
	dc.Gas.MinTargetBalance, err = parseU64OrZero(v.GetString(prefix + "GAS__MIN_TARGET_BALANCE"))
	if err != nil {
		return dc, false, err
	}

	if err := validateDirection(dc); err != nil {
		return dc, false, fmt.Errorf("config: %s: %w", name, err)
	}

	return dc, true, nil
}

func validateDirection(dc DirectionConfig) error {
	if len(dc.Source.RPCURLs) == 0 {
		return fmt.Errorf("source chain RPC URLs required")
	}
	if len(dc.Target.RPCURLs) == 0 {
		return fmt.Errorf("target chain RPC URLs required")
	}
	if dc.Relayer.ECDSAPrivateKey == "" && dc.Relayer.Ed25519PrivateKey == "" {
		return fmt.Errorf("at least one relayer key (ECDSA or Ed25519) required")
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func stringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func parseU64OrZero(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid unsigned integer %q: %w", s, err)
	}
	return n, nil
}
