// Command createadmin creates a confirmed administrator account. It reads
// the database settings the same way the server does and prompts for the
// password without echo.
//
//	createadmin -u admin01 -e admin@example.com -d postgres://...
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mybudget/internal/flagx"
	"github.com/dmitrijs2005/mybudget/internal/logging"
	"github.com/dmitrijs2005/mybudget/internal/prompt"
	"github.com/dmitrijs2005/mybudget/internal/server"
	"github.com/dmitrijs2005/mybudget/internal/server/auth"
	"github.com/dmitrijs2005/mybudget/internal/server/config"
	"github.com/dmitrijs2005/mybudget/internal/server/identity"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mybudget/internal/server/services"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	userName := fs.String("u", "", "admin user name")
	email := fs.String("e", "", "admin email")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-u", "-e"})); err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	if *userName == "" {
		if *userName, err = prompt.Line(reader, "User name", os.Stdout); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = prompt.Line(reader, "Email", os.Stdout); err != nil {
			return err
		}
	}
	password, err := prompt.ConfirmedPassword(os.Stdout)
	if err != nil {
		return err
	}
	if len(*userName) < 6 || len(password) < 6 {
		return fmt.Errorf("user name and password must be at least 6 characters")
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	m := repomanager.NewPostgresRepositoryManager()
	db, err := server.OpenDatabase(ctx, cfg.DatabaseDSN, m)
	if err != nil {
		return err
	}
	defer db.Close()

	store := identity.NewStore(db, m)
	users := services.NewUserService(db, m, store, auth.NewRefreshTokenManager(cfg.RefreshTokenValidity), logger)

	u, err := users.CreateAdmin(ctx, services.UserInput{UserName: *userName, Email: *email, Password: password})
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	fmt.Printf("Admin %s created with id %s\n", u.UserName, u.ID)
	return nil
}
