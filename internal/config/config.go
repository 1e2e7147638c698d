// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

type Config struct {
	RPCEndpoint string `mapstructure:"rpc_endpoint"`
	RPCTimeout  int    `mapstructure:"rpc_timeout"` // milliseconds
	Retries     int    `mapstructure:"retries"`

	IdlCacheDir     string   `mapstructure:"idl_cache_dir"`
	IdlRepositories []string `mapstructure:"idl_repositories"`
	IdlTimeout      int      `mapstructure:"idl_timeout"` // milliseconds

	WalletPubkey  string `mapstructure:"wallet_pubkey"`
	WalletKeyfile string `mapstructure:"wallet_keyfile"`

	LogFile       string `mapstructure:"log_file"`
	LogLevel      string `mapstructure:"log_level"`
	LogMaxSize    int    `mapstructure:"log_max_size"` // megabytes
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAge     int    `mapstructure:"log_max_age"` // days
	Development   bool   `mapstructure:"development"`
}

const (
	DefaultRPCEndpoint = "https://api.mainnet-beta.solana.com"
	DefaultRPCTimeout  = 15000
	DefaultIdlTimeout  = 10000
	DefaultIdlCacheDir = "configs/idl"
	DefaultRetries     = 3
)

// LoadConfig reads configuration from the given file, applies defaults
// and CONNECTORKIT_* environment overrides, and validates the result.
// An empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"rpc_endpoint":    DefaultRPCEndpoint,
		"rpc_timeout":     DefaultRPCTimeout,
		"retries":         DefaultRetries,
		"idl_cache_dir":   DefaultIdlCacheDir,
		"idl_timeout":     DefaultIdlTimeout,
		"log_file":        "logs/connectorkit.log",
		"log_level":       "info",
		"log_max_size":    100,
		"log_max_backups": 3,
		"log_max_age":     7,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RPCEndpoint == "" {
		return errors.New("missing rpc_endpoint in configuration")
	}
	if err := validateURL(cfg.RPCEndpoint, "http"); err != nil {
		return fmt.Errorf("invalid rpc_endpoint: %w", err)
	}
	for _, tmpl := range cfg.IdlRepositories {
		if !strings.Contains(tmpl, "%s") {
			return fmt.Errorf("idl repository %q has no %%s program placeholder", tmpl)
		}
		if err := validateURL(fmt.Sprintf(tmpl, "x"), "http"); err != nil {
			return fmt.Errorf("invalid idl repository %q: %w", tmpl, err)
		}
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.WalletPubkey != "" && cfg.WalletKeyfile != "" {
		return errors.New("wallet_pubkey and wallet_keyfile are mutually exclusive")
	}
	if cfg.WalletPubkey != "" {
		if _, err := solana.ParseAddress(cfg.WalletPubkey); err != nil {
			return fmt.Errorf("invalid wallet_pubkey: %w", err)
		}
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.RPCTimeout <= 0 {
		return errors.New("invalid rpc_timeout")
	}
	if cfg.IdlTimeout <= 0 {
		return errors.New("invalid idl_timeout")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.LogMaxSize <= 0 || cfg.LogMaxBackups < 0 || cfg.LogMaxAge < 0 {
		return errors.New("invalid log rotation parameters")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("CONNECTORKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if endpoint := v.GetString("RPC_ENDPOINT"); endpoint != "" {
		cfg.RPCEndpoint = endpoint
	}
	if pubkey := v.GetString("WALLET_PUBKEY"); pubkey != "" {
		cfg.WalletPubkey = pubkey
	}
	if keyfile := v.GetString("WALLET_KEYFILE"); keyfile != "" {
		cfg.WalletKeyfile = keyfile
	}
	if level := v.GetString("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	return nil
}
