package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mybudget/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-k string     JWT signing key
//	-t int        access token validity, minutes
//	-r int        refresh token validity, minutes
//	-m int        max active refresh tokens per user
//	-confirm bool require a confirmed email to log in (use -confirm=false)
//	-l string     log level
//
// os.Args is first filtered with flagx.FilterArgs so flags owned by other
// loaders (-c, -env) do not make parsing fail.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-k", "-t", "-r", "-m", "-confirm", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWT.Key, "k", config.JWT.Key, "JWT signing key")
	fs.IntVar(&config.JWT.TokenValidityMins, "t", config.JWT.TokenValidityMins, "access token validity (in minutes)")
	refresh := fs.Int("r", int(config.RefreshTokenValidity.Minutes()), "refresh token validity (in minutes)")
	fs.IntVar(&config.MaxActiveRefreshTokens, "m", config.MaxActiveRefreshTokens, "max active refresh tokens per user")
	fs.BoolVar(&config.RequireConfirmedEmail, "confirm", config.RequireConfirmedEmail, "require confirmed email to log in")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.RefreshTokenValidity = time.Duration(*refresh) * time.Minute
	return nil
}
