package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/arcms/internal/flagx"
	"github.com/dmitrijs2005/arcms/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Durations use
// timex.Duration, so "15m", "7d" and integer nanoseconds are accepted.
type JsonConfig struct {
	Environment string `json:"environment"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	LogLevel    string `json:"log_level"`

	DatabaseDSN string `json:"database_dsn"`

	JWTSecret                    string         `json:"jwt_secret"`
	JWTRefreshSecret             string         `json:"jwt_refresh_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`

	AllowedOrigins []string `json:"allowed_origins"`
	AdminURL       string   `json:"admin_url"`
	ViewerURL      string   `json:"viewer_url"`

	MaxFileSizeMB         int `json:"max_file_size_mb"`
	MaxTriggerImageSizeMB int `json:"max_trigger_image_size_mb"`
	MaxAudioSizeMB        int `json:"max_audio_size_mb"`

	R2AccountID       string `json:"r2_account_id"`
	R2AccessKeyID     string `json:"r2_access_key_id"`
	R2SecretAccessKey string `json:"r2_secret_access_key"`
	R2Bucket          string `json:"r2_bucket_name"`
	R2PublicURL       string `json:"r2_public_url"`
	R2Endpoint        string `json:"r2_endpoint"`
	R2Region          string `json:"r2_region"`

	RateLimitMax    int            `json:"rate_limit_max"`
	RateLimitWindow timex.Duration `json:"rate_limit_window"`
}

// parseJson overlays values from the file named by -c/-config. Keys absent
// from the file keep their current value. Without the flag nothing happens.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.applyTo(config)
	return nil
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.Environment, c.Environment)
	setString(&config.Host, c.Host)
	setInt(&config.Port, c.Port)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.JWTRefreshSecret, c.JWTRefreshSecret)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration.Duration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration.Duration)
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setString(&config.AdminURL, c.AdminURL)
	setString(&config.ViewerURL, c.ViewerURL)
	setInt(&config.MaxFileSizeMB, c.MaxFileSizeMB)
	setInt(&config.MaxTriggerImageSizeMB, c.MaxTriggerImageSizeMB)
	setInt(&config.MaxAudioSizeMB, c.MaxAudioSizeMB)
	setString(&config.R2AccountID, c.R2AccountID)
	setString(&config.R2AccessKeyID, c.R2AccessKeyID)
	setString(&config.R2SecretAccessKey, c.R2SecretAccessKey)
	setString(&config.R2Bucket, c.R2Bucket)
	setString(&config.R2PublicURL, c.R2PublicURL)
	setString(&config.R2Endpoint, c.R2Endpoint)
	setString(&config.R2Region, c.R2Region)
	setInt(&config.RateLimitMax, c.RateLimitMax)
	setDuration(&config.RateLimitWindow, c.RateLimitWindow.Duration)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
