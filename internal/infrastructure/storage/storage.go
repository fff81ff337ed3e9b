package storage

import (
	"context"

	"github.com/juju/errors"
)

const (
	TypeMemory = "memory"
	TypeEtcd   = "etcd"
	TypeRedis  = "redis"
	TypeSQLite = "sqlite"
	TypeMySQL  = "mysql"
)

const ErrUnsupportedType = errors.ConstError("unsupported storage type")

// Storage is a key-value store. A missing key is reported with found=false,
// never as an error.
type Storage interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
