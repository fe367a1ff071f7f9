package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/mybudget/internal/flagx"
	"github.com/dmitrijs2005/mybudget/internal/timex"
)

type jsonJWT struct {
	Issuer            string `json:"issuer"`
	Audience          string `json:"audience"`
	Key               string `json:"key"`
	TokenValidityMins int    `json:"token_validity_mins"`
}

type jsonSMTP struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Sender   string `json:"sender"`
}

type jsonS3 struct {
	RootUser     string `json:"root_user"`
	RootPassword string `json:"root_password"`
	Bucket       string `json:"bucket"`
	Region       string `json:"region"`
	BaseEndpoint string `json:"base_endpoint"`
}

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "168h" and integer nanoseconds are accepted.
// Fields left out of the file keep their previous value.
type JsonConfig struct {
	HTTPAddr               string         `json:"http_addr"`
	DatabaseDSN            string         `json:"database_dsn"`
	JWT                    jsonJWT        `json:"jwt"`
	RefreshTokenValidity   timex.Duration `json:"refresh_token_validity"`
	MaxActiveRefreshTokens int            `json:"max_active_refresh_tokens"`
	RequireConfirmedEmail  *bool          `json:"require_confirmed_email"`
	APIBaseURL             string         `json:"api_base_url"`
	CookieSecure           *bool          `json:"cookie_secure"`
	SMTP                   jsonSMTP       `json:"smtp"`
	S3                     jsonS3         `json:"s3"`
	LogLevel               string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config, if any, into config.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)

	setString(&config.JWT.Issuer, c.JWT.Issuer)
	setString(&config.JWT.Audience, c.JWT.Audience)
	setString(&config.JWT.Key, c.JWT.Key)
	if c.JWT.TokenValidityMins != 0 {
		config.JWT.TokenValidityMins = c.JWT.TokenValidityMins
	}

	if c.RefreshTokenValidity.Duration != 0 {
		config.RefreshTokenValidity = time.Duration(c.RefreshTokenValidity.Duration)
	}
	if c.MaxActiveRefreshTokens != 0 {
		config.MaxActiveRefreshTokens = c.MaxActiveRefreshTokens
	}
	if c.RequireConfirmedEmail != nil {
		config.RequireConfirmedEmail = *c.RequireConfirmedEmail
	}
	setString(&config.APIBaseURL, c.APIBaseURL)
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}

	setString(&config.SMTP.Host, c.SMTP.Host)
	if c.SMTP.Port != 0 {
		config.SMTP.Port = c.SMTP.Port
	}
	setString(&config.SMTP.User, c.SMTP.User)
	setString(&config.SMTP.Password, c.SMTP.Password)
	setString(&config.SMTP.Sender, c.SMTP.Sender)

	setString(&config.S3.RootUser, c.S3.RootUser)
	setString(&config.S3.RootPassword, c.S3.RootPassword)
	setString(&config.S3.Bucket, c.S3.Bucket)
	setString(&config.S3.Region, c.S3.Region)
	setString(&config.S3.BaseEndpoint, c.S3.BaseEndpoint)

	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
