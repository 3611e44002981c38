package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	JWTSecret     string
	JWTExpiry     time.Duration
	SyncToken     string // subject stamped on scheduler-triggered writes
	SyncInterval  time.Duration
	SyncOnStartup bool

	// Provider API OAuth application credentials. Company-level credentials
	// (login, password, company UUID) live on the company record.
	ProviderOAuthID     string
	ProviderOAuthSecret string
	ProviderAPIBaseURL  string
	ProviderTokenURL    string

	// Vendor-name matching behaviour, "contain" or "equal".
	PartnerMatchMode domain.PartnerMatchMode

	// Rate limit applied to import and sync trigger endpoints, in limiter
	// notation, e.g. "10-M" for ten per minute.
	TriggerRateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("SYNC_ACTOR", "provider-sync")
	viper.SetDefault("SYNC_INTERVAL", "6h")
	viper.SetDefault("SYNC_ON_STARTUP", false)
	viper.SetDefault("PROVIDER_OAUTH_ID", "")
	viper.SetDefault("PROVIDER_OAUTH_SECRET", "")
	viper.SetDefault("PROVIDER_API_BASE_URL", "")
	viper.SetDefault("PROVIDER_TOKEN_URL", "")
	viper.SetDefault("PARTNER_MATCH_MODE", string(domain.MatchContain))
	viper.SetDefault("TRIGGER_RATE_LIMIT", "30-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiry = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiry)
	}
	cfg.JWTExpiry = jwtExpiry

	cfg.SyncToken = viper.GetString("SYNC_ACTOR")

	syncIntervalStr := viper.GetString("SYNC_INTERVAL")
	syncInterval, err := time.ParseDuration(syncIntervalStr)
	if err != nil {
		syncInterval = 6 * time.Hour
		log.Printf("Warning: Invalid value for SYNC_INTERVAL ('%s'). Defaulting to %s.\n", syncIntervalStr, syncInterval)
	}
	cfg.SyncInterval = syncInterval
	cfg.SyncOnStartup = viper.GetBool("SYNC_ON_STARTUP")

	cfg.ProviderOAuthID = viper.GetString("PROVIDER_OAUTH_ID")
	cfg.ProviderOAuthSecret = viper.GetString("PROVIDER_OAUTH_SECRET")
	cfg.ProviderAPIBaseURL = viper.GetString("PROVIDER_API_BASE_URL")
	cfg.ProviderTokenURL = viper.GetString("PROVIDER_TOKEN_URL")
	if cfg.ProviderOAuthID == "" || cfg.ProviderOAuthSecret == "" {
		log.Println("Warning: PROVIDER_OAUTH_ID / PROVIDER_OAUTH_SECRET not set. API sync will not function.")
	}
	if cfg.ProviderAPIBaseURL == "" || cfg.ProviderTokenURL == "" {
		log.Println("Warning: PROVIDER_API_BASE_URL / PROVIDER_TOKEN_URL not set. API sync will not function.")
	}

	matchMode := domain.PartnerMatchMode(viper.GetString("PARTNER_MATCH_MODE"))
	if matchMode != domain.MatchContain && matchMode != domain.MatchEqual {
		log.Printf("Warning: Invalid value for PARTNER_MATCH_MODE ('%s'). Defaulting to %s.\n", matchMode, domain.MatchContain)
		matchMode = domain.MatchContain
	}
	cfg.PartnerMatchMode = matchMode

	cfg.TriggerRateLimit = viper.GetString("TRIGGER_RATE_LIMIT")

	return cfg, nil
}
