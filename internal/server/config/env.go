package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/mybudget/internal/flagx"
)

// Environment variable names recognised by parseEnv.
const (
	EnvHTTPAddr              = "HTTP_ADDR"
	EnvDatabaseDSN           = "DATABASE_DSN"
	EnvJWTIssuer             = "JWT_ISSUER"
	EnvJWTAudience           = "JWT_AUDIENCE"
	EnvJWTKey                = "JWT_KEY"
	EnvJWTTokenValidityMins  = "JWT_TOKEN_VALIDITY_MINS"
	EnvRefreshTokenValidity  = "REFRESH_TOKEN_VALIDITY"
	EnvRequireConfirmedEmail = "REQUIRE_CONFIRMED_EMAIL"
	EnvAPIBaseURL            = "API_BASE_URL"
	EnvSMTPHost              = "SMTP_HOST"
	EnvSMTPPort              = "SMTP_PORT"
	EnvSMTPUser              = "SMTP_USER"
	EnvSMTPPassword          = "SMTP_PASSWORD"
	EnvSMTPSender            = "SMTP_SENDER"
	EnvS3RootUser            = "S3_ROOT_USER"
	EnvS3RootPassword        = "S3_ROOT_PASSWORD"
	EnvS3Bucket              = "S3_BUCKET"
	EnvLogLevel              = "LOG_LEVEL"
)

const defaultEnvFile = ".env"

// parseEnv loads an optional dotenv file (the -env flag, else ./.env when it
// exists) into the process environment and overlays recognised variables.
// Variables already set in the environment win over the file.
func parseEnv(config *Config) error {
	file := flagx.EnvFileFlags()
	if file == "" {
		if _, err := os.Stat(defaultEnvFile); err == nil {
			file = defaultEnvFile
		}
	}
	if file != "" {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	lookupString(EnvHTTPAddr, &config.HTTPAddr)
	lookupString(EnvDatabaseDSN, &config.DatabaseDSN)
	lookupString(EnvJWTIssuer, &config.JWT.Issuer)
	lookupString(EnvJWTAudience, &config.JWT.Audience)
	lookupString(EnvJWTKey, &config.JWT.Key)

	// An unparsable validity falls back to the issuer default.
	if v, ok := os.LookupEnv(EnvJWTTokenValidityMins); ok {
		mins, err := strconv.Atoi(v)
		if err != nil {
			mins = 0
		}
		config.JWT.TokenValidityMins = mins
	}

	if v, ok := os.LookupEnv(EnvRefreshTokenValidity); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		config.RefreshTokenValidity = d
	}
	if v, ok := os.LookupEnv(EnvRequireConfirmedEmail); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		config.RequireConfirmedEmail = b
	}
	lookupString(EnvAPIBaseURL, &config.APIBaseURL)

	lookupString(EnvSMTPHost, &config.SMTP.Host)
	if v, ok := os.LookupEnv(EnvSMTPPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		config.SMTP.Port = port
	}
	lookupString(EnvSMTPUser, &config.SMTP.User)
	lookupString(EnvSMTPPassword, &config.SMTP.Password)
	lookupString(EnvSMTPSender, &config.SMTP.Sender)

	lookupString(EnvS3RootUser, &config.S3.RootUser)
	lookupString(EnvS3RootPassword, &config.S3.RootPassword)
	lookupString(EnvS3Bucket, &config.S3.Bucket)

	lookupString(EnvLogLevel, &config.LogLevel)
	return nil
}

func lookupString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}
