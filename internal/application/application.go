package application

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/tentens-tech/user-service/internal/config"
	"github.com/tentens-tech/user-service/internal/user"
)

type Application struct {
	Ctx     context.Context
	Config  *config.Config
	Users   *user.Service
	closers []io.Closer
}

// New wires an application around users. closers are released by Close in
// reverse order.
func New(ctx context.Context, cfg *config.Config, users *user.Service, closers ...io.Closer) *Application {
	return &Application{
		Ctx:     ctx,
		Config:  cfg,
		Users:   users,
		closers: closers,
	}
}

func (a *Application) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Errorf("Failed to close resource: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	a.closers = nil
	return firstErr
}
