package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chainms/internal/chain"
	"gopkg.in/yaml.v3"
)

// Contract backends.
const (
	BackendRPC   = "rpc"
	BackendLocal = "local"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr           string          `yaml:"listen_addr"`
	Port                 string          `yaml:"port"`
	DatabasePath         string          `yaml:"database_path"`
	SessionSecret        string          `yaml:"session_secret"`
	GinMode              string          `yaml:"gin_mode"`
	SiteBaseURL          string          `yaml:"site_base_url"`
	RPCURL               string          `yaml:"rpc_url"`
	ENSRPCURL            string          `yaml:"ens_rpc_url"`
	ENSRegistry          string          `yaml:"ens_registry"`
	ENSSuffixes          []string        `yaml:"ens_suffixes"`
	ChainID              uint64          `yaml:"chain_id"`
	ContractAddress      string          `yaml:"contract_address"`
	ContractBackend      string          `yaml:"contract_backend"`
	KeystoreDir          string          `yaml:"keystore_dir"`
	SupportedChains      []chain.Network `yaml:"supported_chains"`
	MegoAPIURL           string          `yaml:"mego_api_url"`
	PublishRedirectDelay time.Duration   `yaml:"publish_redirect_delay"`
	EditorSessionTTL     time.Duration   `yaml:"editor_session_ttl"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() AppConfig {
	return AppConfig{
		Port:                 "8080",
		DatabasePath:         "chainms.db",
		SessionSecret:        "chainms-dev-secret",
		GinMode:              "release",
		SiteBaseURL:          "http://localhost:8080",
		RPCURL:               "https://mainnet.optimism.io",
		ENSRPCURL:            "https://ethereum-rpc.publicnode.com",
		ENSRegistry:          chain.DefaultENSRegistry,
		ENSSuffixes:          append([]string(nil), chain.DefaultNameSuffixes...),
		ChainID:              chain.DefaultChainID,
		ContractAddress:      chain.DefaultContractAddress,
		ContractBackend:      BackendRPC,
		KeystoreDir:          "keystore",
		SupportedChains:      append([]chain.Network(nil), chain.DefaultNetworks...),
		MegoAPIURL:           "https://tickets-api.mego.tools",
		PublishRedirectDelay: 2 * time.Second,
		EditorSessionTTL:     time.Hour,
	}
}

// Load 从 CONFIG_FILE 指向的 YAML 文件和环境变量读取应用配置，环境变量优先，
// 并为缺失项提供安全的默认值。
func Load() (AppConfig, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	return cfg, cfg.Validate()
}

func (c *AppConfig) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Port)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("DATABASE_PATH", &c.DatabasePath)
	str("SESSION_SECRET", &c.SessionSecret)
	str("GIN_MODE", &c.GinMode)
	str("SITE_BASE_URL", &c.SiteBaseURL)
	str("RPC_URL", &c.RPCURL)
	str("ENS_RPC_URL", &c.ENSRPCURL)
	str("ENS_REGISTRY", &c.ENSRegistry)
	str("CONTRACT_ADDRESS", &c.ContractAddress)
	str("CONTRACT_BACKEND", &c.ContractBackend)
	str("KEYSTORE_DIR", &c.KeystoreDir)
	str("MEGO_API_URL", &c.MegoAPIURL)

	if v := strings.TrimSpace(getenv("ENS_SUFFIXES")); v != "" {
		c.ENSSuffixes = splitList(v)
	}
	if v := strings.TrimSpace(getenv("CHAIN_ID")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CHAIN_ID %q: %w", v, err)
		}
		c.ChainID = id
	}
	if v := strings.TrimSpace(getenv("SUPPORTED_CHAINS")); v != "" {
		networks, err := ParseNetworks(v)
		if err != nil {
			return err
		}
		c.SupportedChains = networks
	}
	if v := strings.TrimSpace(getenv("PUBLISH_REDIRECT_DELAY")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PUBLISH_REDIRECT_DELAY %q: %w", v, err)
		}
		c.PublishRedirectDelay = d
	}
	if v := strings.TrimSpace(getenv("EDITOR_SESSION_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid EDITOR_SESSION_TTL %q: %w", v, err)
		}
		c.EditorSessionTTL = d
	}
	return nil
}

// ParseNetworks parses "10:Optimism,1:Ethereum".
func ParseNetworks(raw string) ([]chain.Network, error) {
	var out []chain.Network
	for _, item := range splitList(raw) {
		idPart, name, ok := strings.Cut(item, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid chain %q, want id:name", item)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(idPart), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id in %q: %w", item, err)
		}
		out = append(out, chain.Network{ID: id, Name: strings.TrimSpace(name)})
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects settings the server cannot start with.
func (c AppConfig) Validate() error {
	var errs []error
	if _, ok := chain.ParseAddress(c.ContractAddress); !ok {
		errs = append(errs, fmt.Errorf("invalid contract address %q", c.ContractAddress))
	}
	if c.ChainID == 0 {
		errs = append(errs, errors.New("chain id must not be zero"))
	}
	switch c.ContractBackend {
	case BackendRPC, BackendLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown contract backend %q", c.ContractBackend))
	}
	if c.ENSRegistry != "" {
		if _, ok := chain.ParseAddress(c.ENSRegistry); !ok {
			errs = append(errs, fmt.Errorf("invalid ENS registry %q", c.ENSRegistry))
		}
	}
	return errors.Join(errs...)
}

// NetworkName returns the display name of the target chain.
func (c AppConfig) NetworkName() string {
	return chain.NetworkName(c.SupportedChains, c.ChainID)
}
