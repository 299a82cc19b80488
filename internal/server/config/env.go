package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/arcms/internal/flagx"
	"github.com/dmitrijs2005/arcms/internal/timex"
)

const defaultEnvFile = ".env"

// envConfig maps environment variables onto config fields. Variables that are
// not set leave the corresponding field untouched.
type envConfig struct {
	Environment string `env:"NODE_ENV"`
	Host        string `env:"API_HOST"`
	Port        int    `env:"API_PORT"`
	LogLevel    string `env:"LOG_LEVEL"`

	DatabaseDSN string `env:"DATABASE_URL"`

	JWTSecret        string         `env:"JWT_SECRET"`
	JWTRefreshSecret string         `env:"JWT_REFRESH_SECRET"`
	AccessTTL        timex.Duration `env:"JWT_ACCESS_EXPIRATION"`
	RefreshTTL       timex.Duration `env:"JWT_REFRESH_EXPIRATION"`

	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	AdminURL       string `env:"ADMIN_URL"`
	ViewerURL      string `env:"VIEWER_URL"`

	MaxFileSizeMB         int `env:"MAX_FILE_SIZE_MB"`
	MaxTriggerImageSizeMB int `env:"MAX_TRIGGER_IMAGE_SIZE_MB"`
	MaxAudioSizeMB        int `env:"MAX_AUDIO_SIZE_MB"`

	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2Bucket          string `env:"R2_BUCKET_NAME"`
	R2PublicURL       string `env:"R2_PUBLIC_URL"`
	R2Endpoint        string `env:"R2_ENDPOINT"`
	R2Region          string `env:"R2_REGION"`

	RateLimitMax    int            `env:"RATE_LIMIT_MAX"`
	RateLimitWindow timex.Duration `env:"RATE_LIMIT_WINDOW"`
}

// parseEnv loads the dotenv file (the -env-file flag, else ./.env when it
// exists) without overriding variables already present in the process
// environment, then overlays every set variable onto config.
func parseEnv(config *Config) error {
	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	e := &envConfig{}
	if err := envdecode.Decode(e); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return err
	}

	e.applyTo(config)
	return nil
}

func (e *envConfig) applyTo(config *Config) {
	setString(&config.Environment, e.Environment)
	setString(&config.Host, e.Host)
	setInt(&config.Port, e.Port)
	setString(&config.LogLevel, e.LogLevel)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.JWTSecret, e.JWTSecret)
	setString(&config.JWTRefreshSecret, e.JWTRefreshSecret)
	setDuration(&config.AccessTokenValidityDuration, e.AccessTTL.Duration)
	setDuration(&config.RefreshTokenValidityDuration, e.RefreshTTL.Duration)
	if origins := splitList(e.AllowedOrigins); len(origins) > 0 {
		config.AllowedOrigins = origins
	}
	setString(&config.AdminURL, e.AdminURL)
	setString(&config.ViewerURL, e.ViewerURL)
	setInt(&config.MaxFileSizeMB, e.MaxFileSizeMB)
	setInt(&config.MaxTriggerImageSizeMB, e.MaxTriggerImageSizeMB)
	setInt(&config.MaxAudioSizeMB, e.MaxAudioSizeMB)
	setString(&config.R2AccountID, e.R2AccountID)
	setString(&config.R2AccessKeyID, e.R2AccessKeyID)
	setString(&config.R2SecretAccessKey, e.R2SecretAccessKey)
	setString(&config.R2Bucket, e.R2Bucket)
	setString(&config.R2PublicURL, e.R2PublicURL)
	setString(&config.R2Endpoint, e.R2Endpoint)
	setString(&config.R2Region, e.R2Region)
	setInt(&config.RateLimitMax, e.RateLimitMax)
	setDuration(&config.RateLimitWindow, e.RateLimitWindow.Duration)
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
