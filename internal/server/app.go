// Package server initializes and runs the MyBudget API server.
// It opens the database, applies migrations, wires services and handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/mybudget/internal/logging"
	"github.com/dmitrijs2005/mybudget/internal/server/auth"
	"github.com/dmitrijs2005/mybudget/internal/server/config"
	"github.com/dmitrijs2005/mybudget/internal/server/email"
	"github.com/dmitrijs2005/mybudget/internal/server/httpapi"
	"github.com/dmitrijs2005/mybudget/internal/server/identity"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mybudget/internal/server/services"
	"github.com/dmitrijs2005/mybudget/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// OpenDatabase connects to PostgreSQL and applies pending migrations.
func OpenDatabase(ctx context.Context, dsn string, m repomanager.RepositoryManager) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	m := repomanager.NewPostgresRepositoryManager()
	db, err := OpenDatabase(ctx, c.DatabaseDSN, m)
	if err != nil {
		return nil, err
	}

	store := identity.NewStore(db, m)
	issuer := auth.NewIssuer(c.JWT)
	tokens := auth.NewRefreshTokenManager(c.RefreshTokenValidity)
	mailer := email.New(c.SMTP, logger)
	receipts := storage.NewS3Storage(c.S3)

	as := services.NewAuthService(store, issuer, tokens, mailer, services.AuthOptions{
		RequireConfirmedEmail:  c.RequireConfirmedEmail,
		MaxActiveRefreshTokens: c.MaxActiveRefreshTokens,
		APIBaseURL:             c.APIBaseURL,
	}, logger)

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:         as,
		Categories:   services.NewCategoryService(db, m, logger),
		Expenses:     services.NewExpenseService(db, m, receipts, logger),
		Users:        services.NewUserService(db, m, store, tokens, logger),
		Tokens:       issuer,
		Logger:       logger,
		CookieSecure: c.CookieSecure,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewServer(c.HTTPAddr, router, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "closing database", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
