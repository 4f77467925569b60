// Package server initializes and runs the Secure SMS application server.
// It opens the database, runs migrations, wires the login flow, services and
// HTTP endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/savelyev/securesms/internal/logging"
	"github.com/savelyev/securesms/internal/server/audit"
	"github.com/savelyev/securesms/internal/server/backup"
	"github.com/savelyev/securesms/internal/server/cipher"
	"github.com/savelyev/securesms/internal/server/config"
	"github.com/savelyev/securesms/internal/server/httpapi"
	"github.com/savelyev/securesms/internal/server/mailer"
	"github.com/savelyev/securesms/internal/server/mfa"
	"github.com/savelyev/securesms/internal/server/otp"
	"github.com/savelyev/securesms/internal/server/repositories/repomanager"
	"github.com/savelyev/securesms/internal/server/services"
	"github.com/savelyev/securesms/internal/server/sessions"
)

type App struct {
	config *config.Config
	logger logging.Logger
	http   *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout)

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	cipherService, err := cipher.New(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}
	if !cipherService.Enabled() {
		logger.Warn(ctx, "no encryption key configured: addresses will not be stored and backups are unavailable")
	}

	var mail mailer.Mailer
	if cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		logger.Warn(ctx, "no smtp address configured, passcodes go to the log")
		mail = mailer.NewLogMailer(logger)
	}

	sink := audit.NewLogSink(logger)
	flow := mfa.NewFlow(repos.Users(db), otp.NewGenerator(cfg.OTPValidityDuration), mail, sink, logger)

	snapshotter := backup.NewSnapshotter(db, repos)
	codec := backup.NewCodec(cipherService, sink)

	httpServer := httpapi.NewServer(
		cfg,
		logger,
		flow,
		sessions.NewStore(cfg.SessionTTL),
		services.NewUserService(db, repos, cfg),
		services.NewStudentService(db, repos, cipherService, logger),
		services.NewTeacherService(db, repos),
		services.NewBackupService(snapshotter, codec, backup.NewS3Store(cfg)),
	)

	return &App{config: cfg, logger: logger, http: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server error", "error", err.Error())
			cancelFunc()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.http.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err.Error())
	}

	wg.Wait()
	app.logger.Info(ctx, "app stopped")
}
