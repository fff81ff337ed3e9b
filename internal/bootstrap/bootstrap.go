package bootstrap

import (
	"context"
	"io"
	"os"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tentens-tech/user-service/internal/application"
	"github.com/tentens-tech/user-service/internal/config"
	"github.com/tentens-tech/user-service/internal/infrastructure/cache"
	"github.com/tentens-tech/user-service/internal/infrastructure/storage"
	"github.com/tentens-tech/user-service/internal/infrastructure/storage/etcd"
	"github.com/tentens-tech/user-service/internal/infrastructure/storage/gormstore"
	"github.com/tentens-tech/user-service/internal/infrastructure/storage/memory"
	"github.com/tentens-tech/user-service/internal/infrastructure/storage/mysql"
	"github.com/tentens-tech/user-service/internal/infrastructure/storage/redis"
	"github.com/tentens-tech/user-service/internal/infrastructure/transport"
	"github.com/tentens-tech/user-service/internal/user"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func SetupLogging(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func newStorageConnection(ctx context.Context, cfg *config.Config) (storage.Storage, io.Closer, error) {
	switch cfg.Storage.Type {
	case storage.TypeMemory:
		return memory.New(cfg.Storage.Prefix), nil, nil
	case storage.TypeEtcd:
		conn, err := etcd.New(cfg)
		if err != nil {
			return nil, nil, errors.Annotate(err, "creating etcd storage")
		}
		return conn, conn, nil
	case storage.TypeRedis:
		store := redis.New(redis.NewClient(cfg.Storage.Redis), cfg.Storage.Prefix)
		return store, store, nil
	case storage.TypeSQLite:
		db, err := gormstore.OpenSQLite(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		store, err := gormstore.New(db, cfg.Storage.Prefix)
		if err != nil {
			return nil, nil, errors.Annotate(err, "creating sqlite storage")
		}
		return store, store, nil
	case storage.TypeMySQL:
		db, err := mysql.Open(cfg.Storage.MySQL.DSN)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		store, err := mysql.New(ctx, db, cfg.Storage.Prefix)
		if err != nil {
			_ = db.Close()
			return nil, nil, errors.Annotate(err, "creating mysql storage")
		}
		return store, store, nil
	}

	return nil, nil, errors.WithType(errors.Errorf("unsupported storage type: %v", cfg.Storage.Type), storage.ErrUnsupportedType)
}

func newCache(cfg *config.Config) *cache.Cache {
	if cfg.Cache.Enabled {
		log.Info("Cache is enabled")
		return cache.New(cfg.Cache.Size)
	}

	log.Info("Cache is disabled")
	return nil
}

// NewStorage builds the configured backend, instrumented and, when enabled,
// fronted by the in-memory cache. Closers are returned in the order the
// resources were created.
func NewStorage(ctx context.Context, cfg *config.Config) (storage.Storage, []io.Closer, error) {
	var closers []io.Closer

	backend, closer, err := newStorageConnection(ctx, cfg)
	if err != nil {
		return nil, nil, errors.Annotate(err, "failed to create storage connection")
	}
	if closer != nil {
		closers = append(closers, closer)
	}
	log.Infof("Using %v storage", cfg.Storage.Type)

	store := storage.WithMetrics(cfg.Storage.Type, backend)

	if addressCache := newCache(cfg); addressCache != nil {
		store = cache.NewStorage(store, addressCache, cfg.Cache.TTL)
		closers = append(closers, closerFunc(func() error {
			addressCache.Close()
			return nil
		}))
	}

	return store, closers, nil
}

func NewApplication(ctx context.Context, cfg *config.Config) (*application.Application, error) {
	store, closers, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	users := user.New(store, cfg, transport.New(cfg.Shop.Timeout))

	return application.New(ctx, cfg, users, closers...), nil
}
