package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App        App        `mapstructure:",squash"`
	Google     Google     `mapstructure:",squash"`
	Report     Report     `mapstructure:",squash"`
	Sheet      Sheet      `mapstructure:",squash"`
	Database   Database   `mapstructure:",squash"`
	ReportSync ReportSync `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Google struct {
	CredentialsFile string `mapstructure:"google_credentials_file"`
	TokenCacheFile  string `mapstructure:"token_cache_file"`
	CallbackPort    int    `mapstructure:"oauth_callback_port"`
}

type Report struct {
	AdvertiserID         string `mapstructure:"advertiser_id"`
	CampaignID           string `mapstructure:"campaign_id"`
	ResumeJobID          string `mapstructure:"resume_job_id"`
	LocalCopyFile        string `mapstructure:"report_copy_file"`
	PollMaxAttempts      int    `mapstructure:"poll_max_attempts"`
	PollIntervalSeconds  int    `mapstructure:"poll_interval_seconds"`
	FetchMaxRetries      int    `mapstructure:"fetch_max_retries"`
	FetchIntervalSeconds int    `mapstructure:"fetch_interval_seconds"`
}

type Sheet struct {
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	SheetName     string `mapstructure:"sheet_name"`
}

type Database struct {
	File string `mapstructure:"database_file"`
}

type ReportSync struct {
	CronSchedule string `mapstructure:"report_sync_cron"`
	Enabled      bool   `mapstructure:"report_sync_enabled"`
}

func SetDefaults() {
	viper.SetDefault("LOG_LEVEL", "info")

	// Required values default to empty so viper binds them from the
	// environment; validate() rejects the empty values afterwards.
	viper.SetDefault("GOOGLE_CREDENTIALS_FILE", "")
	viper.SetDefault("SPREADSHEET_ID", "")
	viper.SetDefault("ADVERTISER_ID", "")
	viper.SetDefault("SHEET_NAME", "")

	viper.SetDefault("TOKEN_CACHE_FILE", "")
	viper.SetDefault("OAUTH_CALLBACK_PORT", 8080)

	viper.SetDefault("CAMPAIGN_ID", "")
	viper.SetDefault("RESUME_JOB_ID", "")
	viper.SetDefault("REPORT_COPY_FILE", "")
	viper.SetDefault("POLL_MAX_ATTEMPTS", 10)
	viper.SetDefault("POLL_INTERVAL_SECONDS", 30)
	viper.SetDefault("FETCH_MAX_RETRIES", 5)
	viper.SetDefault("FETCH_INTERVAL_SECONDS", 30)

	viper.SetDefault("DATABASE_FILE", "dv360-sync.db")

	viper.SetDefault("REPORT_SYNC_CRON", "0 6 * * *")
	viper.SetDefault("REPORT_SYNC_ENABLED", false)
}

func NewConfig() (*Config, error) {
	loadEnvFile()

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Debug("no .env file read by viper, relying on the environment: ", err)
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	if config.Google.TokenCacheFile == "" {
		config.Google.TokenCacheFile = defaultTokenCacheFile(config.Google.CredentialsFile)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate fails at startup when a required value is absent, rather than
// letting a later remote call surface it.
func (c *Config) validate() error {
	missing := []string{}

	if strings.TrimSpace(c.Google.CredentialsFile) == "" {
		missing = append(missing, "GOOGLE_CREDENTIALS_FILE")
	}
	if strings.TrimSpace(c.Sheet.SpreadsheetID) == "" {
		missing = append(missing, "SPREADSHEET_ID")
	}
	if strings.TrimSpace(c.Report.AdvertiserID) == "" {
		missing = append(missing, "ADVERTISER_ID")
	}
	if strings.TrimSpace(c.Sheet.SheetName) == "" {
		missing = append(missing, "SHEET_NAME")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// defaultTokenCacheFile derives the cache location from the client secret
// file name, so distinct credentials never collide on a shared token file.
func defaultTokenCacheFile(credentialsFile string) string {
	if credentialsFile == "" {
		return ""
	}

	dir, file := filepath.Split(credentialsFile)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	return filepath.Join(dir, fmt.Sprintf("%s.token.json", name))
}

func loadEnvFile() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on the environment")
	}
}
