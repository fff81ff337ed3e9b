package delivery

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tentens-tech/user-service/internal/application"
	"github.com/tentens-tech/user-service/internal/bootstrap"
	"github.com/tentens-tech/user-service/internal/config"
	deliveryhttp "github.com/tentens-tech/user-service/internal/delivery/http"
)

// AppFactory builds the application a command runs against.
type AppFactory func(ctx context.Context) (*application.Application, error)

func DefaultAppFactory(ctx context.Context) (*application.Application, error) {
	cfg := config.NewConfig()
	bootstrap.SetupLogging(cfg)
	return bootstrap.NewApplication(ctx, cfg)
}

func NewServe(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return userServiceProcess(ctx, newApp)
		},
	}
}

func userServiceProcess(ctx context.Context, newApp AppFactory) error {
	app, err := newApp(ctx)
	if err != nil {
		return errors.Annotate(err, "failed to create application")
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Errorf("Failed to release resources: %v", err)
		}
	}()

	server := deliveryhttp.New(app, app.Config.ListenAddr())
	errGroup, errGroupCtx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		log.Infof("Server is starting on %v", server.Server.Addr)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Annotate(err, "server failed")
		}
		return nil
	})

	errGroup.Go(func() error {
		<-errGroupCtx.Done()

		ctxWithTimeout, cancel := context.WithTimeout(context.Background(), app.Config.Server.Timeout.Shutdown)
		defer cancel()

		log.Info("Server is shutting down")
		if err := server.Shutdown(ctxWithTimeout); err != nil {
			return errors.Annotate(err, "server was unable to gracefully shutdown")
		}
		return nil
	})

	return errGroup.Wait()
}
