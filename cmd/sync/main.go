package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/doubleclickbidmanager/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/vfg2006/dv360-sheets-sync/infrastructure/database/sqlite"
	"github.com/vfg2006/dv360-sheets-sync/infrastructure/googleauth"
	"github.com/vfg2006/dv360-sheets-sync/infrastructure/integrator/bidmanager"
	"github.com/vfg2006/dv360-sheets-sync/infrastructure/integrator/spreadsheet"
	"github.com/vfg2006/dv360-sheets-sync/infrastructure/repository"
	"github.com/vfg2006/dv360-sheets-sync/internal/config"
	"github.com/vfg2006/dv360-sheets-sync/internal/scheduler"
	"github.com/vfg2006/dv360-sheets-sync/internal/usecases/syncing"
)

func main() {
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("invalid log level %q, using 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := sqlite.NewConnection(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open run history database")
	}
	defer conn.Close()

	runRepo := repository.NewRunRepository(conn)

	authenticator, err := googleauth.New(
		cfg.Google.CredentialsFile,
		cfg.Google.TokenCacheFile,
		cfg.Google.CallbackPort,
	)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load OAuth client configuration")
	}

	tokenSource, err := authenticator.Authenticate(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("authentication failed")
	}
	logrus.Info("authenticated against Google APIs")

	dbmService, err := doubleclickbidmanager.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		logrus.WithError(err).Fatal("failed to create Bid Manager client")
	}

	sheetsService, err := sheets.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		logrus.WithError(err).Fatal("failed to create Sheets client")
	}

	client := bidmanager.NewClient(dbmService)
	publisher := spreadsheet.NewPublisher(sheetsService)
	syncService := syncing.NewService(cfg, client, publisher, runRepo)

	if cfg.ReportSync.Enabled {
		syncScheduler := scheduler.NewReportSyncService(syncService, cfg)
		if err := syncScheduler.Start(ctx); err != nil {
			logrus.WithError(err).Fatal("failed to start report sync scheduler")
		}

		<-ctx.Done()
		logrus.Info("shutting down")
		return
	}

	if err := syncService.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("report sync failed")
	}
}

func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}
