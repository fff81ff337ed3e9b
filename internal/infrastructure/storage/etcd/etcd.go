package etcd

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.etcd.io/etcd/client/pkg/v3/transport"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/tentens-tech/user-service/internal/config"
)

const (
	DefaultRequestTimeout = 5 * time.Second
)

type Connection struct {
	Cli    *clientv3.Client
	prefix string
}

func New(cfg *config.Config) (*Connection, error) {
	var tlsConfig *tls.Config
	var err error

	if cfg.Storage.Etcd.TLSEnabled {
		tlsInfo := transport.TLSInfo{
			TrustedCAFile: cfg.Storage.Etcd.ServerCACertPath,
			CertFile:      cfg.Storage.Etcd.ServerClientCertPath,
			KeyFile:       cfg.Storage.Etcd.ServerClientKeyPath,
		}

		tlsConfig, err = tlsInfo.ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration for etcd endpoints: %w", err)
		}
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Storage.Etcd.EtcdAddrList,
		DialTimeout: cfg.Storage.Etcd.DialTimeout,
		TLS:         tlsConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return NewWithClient(cli, cfg.Storage.Prefix), nil
}

func NewWithClient(cli *clientv3.Client, prefix string) *Connection {
	return &Connection{Cli: cli, prefix: prefix}
}

func (con *Connection) Get(ctx context.Context, key string) ([]byte, bool, error) {
	getCtx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	defer cancel()

	resp, err := con.Cli.Get(getCtx, con.prefix+key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key from etcd: %w", err)
	}
	if len(resp.Kvs) == 0 {
		log.Debugf("Key %v does not exist", con.prefix+key)
		return nil, false, nil
	}

	return resp.Kvs[0].Value, true, nil
}

func (con *Connection) Set(ctx context.Context, key string, value []byte) error {
	putCtx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	defer cancel()

	_, err := con.Cli.Put(putCtx, con.prefix+key, string(value))
	if err != nil {
		return fmt.Errorf("failed to put key to etcd: %w", err)
	}

	log.Debugf("Key %v stored", con.prefix+key)
	return nil
}

func (con *Connection) Remove(ctx context.Context, key string) error {
	deleteCtx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	defer cancel()

	_, err := con.Cli.Delete(deleteCtx, con.prefix+key)
	if err != nil {
		return fmt.Errorf("failed to delete key from etcd: %w", err)
	}

	return nil
}

// Clear deletes every key under the configured prefix. An empty prefix
// is refused.
func (con *Connection) Clear(ctx context.Context) error {
	if con.prefix == "" {
		return fmt.Errorf("refusing to clear etcd without a key prefix")
	}

	deleteCtx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	defer cancel()

	resp, err := con.Cli.Delete(deleteCtx, con.prefix, clientv3.WithPrefix())
	if err != nil {
		return fmt.Errorf("failed to clear prefix %v in etcd: %w", con.prefix, err)
	}

	log.Debugf("Cleared %v keys under %v", resp.Deleted, con.prefix)
	return nil
}

func (con *Connection) Close() error {
	return con.Cli.Close()
}
