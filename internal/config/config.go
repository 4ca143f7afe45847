// Package config loads and validates the service configuration from
// defaults, an optional config file, and VINTED_-prefixed environment
// variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Gmail      GmailConfig
	Sheets     SheetsConfig
	Processing ProcessingConfig
	Server     ServerConfig
}

// GmailConfig holds the OAuth2 credentials and mailbox request limits.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
	MaxResults   int64
}

// SheetsConfig maps each category to its target spreadsheet. An empty ID
// disables the category for this deployment.
type SheetsConfig struct {
	PurchasesID  string
	PromotionsID string
	TransfersID  string
	RefundsID    string
	SalesID      string

	// CommaDecimals selects the decimal separator written into computed
	// monetary cells (net shipping). Historical tabs hold comma-separated
	// values; new deployments may prefer dots. Never changed silently.
	CommaDecimals bool
}

// ProcessingConfig bounds one pipeline run.
type ProcessingConfig struct {
	BatchSize      int
	RateLimitDelay time.Duration
	DryRun         bool
}

// ServerConfig configures the HTTP trigger server.
type ServerConfig struct {
	Addr string
}

// Load reads configuration with a fresh viper instance. configFile may be
// empty, in which case only defaults, auto-discovered files and environment
// variables apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	return LoadWithViper(v)
}

// LoadWithViper loads configuration using the supplied viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	bindEnv(v)

	if err := readConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := &Config{}
	if err := unmarshal(v, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gmail.max_results", 100)

	v.SetDefault("sheets.comma_decimals", true)

	v.SetDefault("processing.batch_size", 100)
	v.SetDefault("processing.rate_limit_delay", "100ms")
	v.SetDefault("processing.dry_run", false)

	v.SetDefault("server.addr", ":8080")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("VINTED")
	v.AutomaticEnv()

	bindings := map[string]string{
		"gmail.client_id":     "VINTED_GMAIL_CLIENT_ID",
		"gmail.client_secret": "VINTED_GMAIL_CLIENT_SECRET",
		"gmail.refresh_token": "VINTED_GMAIL_REFRESH_TOKEN",
		"gmail.access_token":  "VINTED_GMAIL_ACCESS_TOKEN",
		"gmail.max_results":   "VINTED_GMAIL_MAX_RESULTS",

		"sheets.purchases_id":   "VINTED_SHEETS_PURCHASES_ID",
		"sheets.promotions_id":  "VINTED_SHEETS_PROMOTIONS_ID",
		"sheets.transfers_id":   "VINTED_SHEETS_TRANSFERS_ID",
		"sheets.refunds_id":     "VINTED_SHEETS_REFUNDS_ID",
		"sheets.sales_id":       "VINTED_SHEETS_SALES_ID",
		"sheets.comma_decimals": "VINTED_SHEETS_COMMA_DECIMALS",

		"processing.batch_size":       "VINTED_PROCESSING_BATCH_SIZE",
		"processing.rate_limit_delay": "VINTED_PROCESSING_RATE_LIMIT_DELAY",
		"processing.dry_run":          "VINTED_PROCESSING_DRY_RUN",

		"server.addr": "VINTED_SERVER_ADDR",
	}
	for key, env := range bindings {
		v.BindEnv(key, env)
	}
}

func readConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.SetConfigName("vinted-ledger")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func unmarshal(v *viper.Viper, cfg *Config) error {
	cfg.Gmail.ClientID = v.GetString("gmail.client_id")
	cfg.Gmail.ClientSecret = v.GetString("gmail.client_secret")
	cfg.Gmail.RefreshToken = v.GetString("gmail.refresh_token")
	cfg.Gmail.AccessToken = v.GetString("gmail.access_token")
	cfg.Gmail.MaxResults = v.GetInt64("gmail.max_results")

	cfg.Sheets.PurchasesID = v.GetString("sheets.purchases_id")
	cfg.Sheets.PromotionsID = v.GetString("sheets.promotions_id")
	cfg.Sheets.TransfersID = v.GetString("sheets.transfers_id")
	cfg.Sheets.RefundsID = v.GetString("sheets.refunds_id")
	cfg.Sheets.SalesID = v.GetString("sheets.sales_id")
	cfg.Sheets.CommaDecimals = v.GetBool("sheets.comma_decimals")

	cfg.Processing.BatchSize = v.GetInt("processing.batch_size")
	cfg.Processing.DryRun = v.GetBool("processing.dry_run")

	var err error
	cfg.Processing.RateLimitDelay, err = time.ParseDuration(v.GetString("processing.rate_limit_delay"))
	if err != nil {
		return fmt.Errorf("invalid rate limit delay: %w", err)
	}

	cfg.Server.Addr = v.GetString("server.addr")
	return nil
}

func (c *Config) validate() error {
	if c.Gmail.ClientID == "" || c.Gmail.ClientSecret == "" || c.Gmail.RefreshToken == "" {
		return fmt.Errorf("gmail client_id, client_secret and refresh_token are required")
	}
	if c.Processing.BatchSize <= 0 {
		return fmt.Errorf("processing batch_size must be positive, got %d", c.Processing.BatchSize)
	}
	if c.Sheets.PurchasesID == "" && c.Sheets.PromotionsID == "" && c.Sheets.TransfersID == "" &&
		c.Sheets.RefundsID == "" && c.Sheets.SalesID == "" {
		return fmt.Errorf("at least one spreadsheet ID must be configured")
	}
	return nil
}
