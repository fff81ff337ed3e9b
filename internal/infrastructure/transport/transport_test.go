package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDoPostsForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/customers/login", r.URL.Path)
		assert.Equal(t, ContentTypeForm, r.Header.Get(HeaderContentType))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "main", r.PostForm.Get("storeCode"))
		assert.Equal(t, "foo", r.PostForm.Get("user"))
		assert.Equal(t, "bar", r.PostForm.Get("password"))

		_, _ = w.Write([]byte(`{"token":"token"}`))
	}))
	defer server.Close()

	client := New(time.Second)
	resp, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    server.URL + "/customers/login",
		Header: http.Header{"X-Test": {"yes"}},
		Form:   url.Values{"storeCode": {"main"}, "user": {"foo"}, "password": {"bar"}},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"token":"token"}`, string(resp.Body))
}

func TestClientDoStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "wrong credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(time.Second)
	_, err := client.Do(context.Background(), Request{Method: http.MethodPost, URL: server.URL})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "wrong credentials")
}

func TestClientDoTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New(time.Second)
	_, err := client.Do(context.Background(), Request{Method: http.MethodPost, URL: server.URL})

	assert.Error(t, err)
}

func TestClientDoCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New(time.Second)
	_, err := client.Do(ctx, Request{Method: http.MethodGet, URL: server.URL})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientDoResponseSize(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		expectError bool
	}{
		{name: "At the limit", size: maxResponseBytes},
		{name: "Over the limit", size: maxResponseBytes + 1, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("a", tt.size)))
			}))
			defer server.Close()

			client := New(5 * time.Second)
			resp, err := client.Do(context.Background(), Request{Method: http.MethodPost, URL: server.URL})

			if tt.expectError {
				assert.ErrorIs(t, err, ErrResponseTooLarge)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.Body, tt.size)
		})
	}
}
