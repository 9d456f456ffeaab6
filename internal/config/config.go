package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/insightdelivered/payout-ledger/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig `mapstructure:"server"`
	Log      LogConfig    `mapstructure:"log"`
	Accounts models.Chart `mapstructure:"accounts"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"` // built SPA, served at /
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when no file or env overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Accounts: models.Chart{
			Sales: "4000 Sales",
			Fees:  "6100 Delivery Platform Fees",
			Tax:   "2200 Sales Tax Payable",
			Bank:  "1000 Checking",
		},
	}
}

// Load reads payout-ledger.yml from path, or from the working directory or
// /etc/payout-ledger when path is empty. A missing file is only an error
// when path was given explicitly. PAYOUT_LEDGER_* environment variables
// override file values (PAYOUT_LEDGER_ACCOUNTS_BANK, ...).
func Load(path string) (Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("payout-ledger")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/payout-ledger")
	}

	v.SetEnvPrefix("PAYOUT_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.static_dir", d.Server.StaticDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("accounts.sales", d.Accounts.Sales)
	v.SetDefault("accounts.fees", d.Accounts.Fees)
	v.SetDefault("accounts.tax", d.Accounts.Tax)
	v.SetDefault("accounts.bank", d.Accounts.Bank)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level))
	}
	if err := c.Accounts.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
