package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nwidmer/stempel/internal/config"
	"github.com/nwidmer/stempel/internal/db"
	"github.com/nwidmer/stempel/internal/httpapi"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	sessionRepo := repository.NewSQLiteWorkSessionRepo(database)
	allocationRepo := repository.NewSQLiteAllocationRepo(database)
	attemptRepo := repository.NewSQLiteLoginAttemptRepo(database)
	clientRepo := repository.NewSQLiteClientRepo(database)
	projectRepo := repository.NewSQLiteProjectRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	observer := service.NewLogUseCaseObserver(os.Stderr)

	handler := httpapi.NewHandler(httpapi.Options{
		Timesheet:     service.NewTimesheetService(sessionRepo, uow, observer),
		Allocations:   service.NewAllocationService(allocationRepo, sessionRepo, projectRepo, uow, observer),
		Auth:          service.NewAuthService(attemptRepo, uow, cfg.PasswordHash, observer),
		Clients:       service.NewClientService(clientRepo, projectRepo, allocationRepo),
		Projects:      service.NewProjectService(projectRepo, clientRepo, allocationRepo),
		Reports:       service.NewReportService(sessionRepo, allocationRepo, clientRepo, projectRepo),
		SessionSecret: []byte(cfg.SessionSecret),
		StaticDir:     cfg.StaticDir,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "db", cfg.DBPath)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
