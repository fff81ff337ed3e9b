package etcd

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// newTestConnection connects to the etcd cluster named by
// USER_SERVICE_TEST_ETCD, skipping the test when it is unset.
func newTestConnection(t *testing.T, prefix string) *Connection {
	t.Helper()

	endpoints := os.Getenv("USER_SERVICE_TEST_ETCD")
	if endpoints == "" {
		t.Skip("USER_SERVICE_TEST_ETCD is not set")
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(endpoints, ","),
		DialTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	con := NewWithClient(cli, prefix)
	t.Cleanup(func() {
		_ = con.Clear(context.Background())
		_ = con.Close()
	})
	return con
}

func TestConnection(t *testing.T) {
	ctx := context.Background()
	con := newTestConnection(t, "/user-service-test/")

	_, found, err := con.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, con.Set(ctx, "key", []byte("value")))
	value, found, err := con.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), value)

	require.NoError(t, con.Remove(ctx, "key"))
	_, found, err = con.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestConnectionClear(t *testing.T) {
	ctx := context.Background()
	con := newTestConnection(t, "/user-service-test/")

	require.NoError(t, con.Set(ctx, "one", []byte("1")))
	require.NoError(t, con.Set(ctx, "two", []byte("2")))
	require.NoError(t, con.Clear(ctx))

	for _, key := range []string{"one", "two"} {
		_, found, err := con.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
}

func TestConnectionClearRequiresPrefix(t *testing.T) {
	con := NewWithClient(nil, "")

	err := con.Clear(context.Background())
	assert.EqualError(t, err, "refusing to clear etcd without a key prefix")
}
