// Package user keeps the logged-in customer's session and their invoice and
// shipping addresses in a key-value store.
//
// Addresses are stored leased: each write records when it happened, and
// readers may ask for data no older than a number of minutes. Stale or
// missing addresses read back as an empty Address, never nil.
package user

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/go-querystring/query"
	"github.com/juju/clock"
	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tentens-tech/user-service/internal/infrastructure/metrics"
	"github.com/tentens-tech/user-service/internal/infrastructure/storage"
	"github.com/tentens-tech/user-service/internal/infrastructure/transport"
	"github.com/tentens-tech/user-service/internal/leased"
)

const (
	ConfigAPIEndpoint = "apiEndpoint"
	ConfigStoreCode   = "storeCode"

	loginPath = "customers/login"
)

// ConfigProvider supplies named shop settings and the default country.
type ConfigProvider interface {
	Get(name string) string
	DefaultCountry() string
}

type Transport interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

type loginForm struct {
	StoreCode string `url:"storeCode"`
	User      string `url:"user"`
	Password  string `url:"password"`
}

type Option func(*Service)

func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		s.clock = clk
	}
}

func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.log = logger
	}
}

type Service struct {
	store     storage.Storage
	config    ConfigProvider
	transport Transport
	clock     clock.Clock
	log       *log.Entry

	mu      sync.RWMutex
	session *Session
}

func New(store storage.Storage, config ConfigProvider, transport Transport, opts ...Option) *Service {
	s := &Service{
		store:     store,
		config:    config,
		transport: transport,
		clock:     clock.WallClock,
		log:       log.WithField("component", "user"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InvoiceAddress returns the stored invoice address if it is no older than
// maxAge. When none is stored, a default address in the configured country
// is stored and returned.
func (s *Service) InvoiceAddress(ctx context.Context, maxAge leased.MaxAge) (Address, error) {
	return s.address(ctx, "invoice", InvoiceAddressKey, maxAge)
}

func (s *Service) UpdateInvoiceAddress(ctx context.Context, address Address) error {
	return s.updateAddress(ctx, InvoiceAddressKey, address)
}

// ShippingAddress behaves like InvoiceAddress for the shipping address.
func (s *Service) ShippingAddress(ctx context.Context, maxAge leased.MaxAge) (Address, error) {
	return s.address(ctx, "shipping", ShippingAddressKey, maxAge)
}

func (s *Service) UpdateShippingAddress(ctx context.Context, address Address) error {
	return s.updateAddress(ctx, ShippingAddressKey, address)
}

// HasExistingAddress reports whether anything is stored under key. Storage
// errors are logged and reported as absent.
func (s *Service) HasExistingAddress(ctx context.Context, key string) bool {
	_, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warnf("Failed to check address %v: %v", key, err)
		return false
	}
	return found
}

func (s *Service) HasExistingShippingAddress(ctx context.Context) bool {
	return s.HasExistingAddress(ctx, ShippingAddressKey)
}

func (s *Service) HasExistingInvoiceAddress(ctx context.Context) bool {
	return s.HasExistingAddress(ctx, InvoiceAddressKey)
}

// HasExistingBillingAddress is HasExistingInvoiceAddress; billing and
// invoice address share a key.
func (s *Service) HasExistingBillingAddress(ctx context.Context) bool {
	return s.HasExistingInvoiceAddress(ctx)
}

func (s *Service) address(ctx context.Context, name, key string, maxAge leased.MaxAge) (Address, error) {
	data, found, err := s.store.Get(ctx, key)
	if err != nil {
		return Address{}, errors.Annotatef(err, "reading %s address", name)
	}

	if !found {
		address := NewAddress(s.config.DefaultCountry())
		if err := s.updateAddress(ctx, key, address); err != nil {
			return Address{}, err
		}
		metrics.AddressReads.WithLabelValues(name, "default").Inc()
		s.log.Debugf("No %v address stored, using default country %v", name, address.Country())
		return address, nil
	}

	value, err := leased.Unmarshal[Address](s.clock, data)
	if err != nil {
		return Address{}, errors.Annotatef(err, "decoding %s address", name)
	}

	address, fresh := value.Unwrap(maxAge)
	if !fresh {
		metrics.AddressReads.WithLabelValues(name, "expired").Inc()
		s.log.Debugf("Stored %v address is older than %v", name, maxAge)
		return Address{}, nil
	}

	metrics.AddressReads.WithLabelValues(name, "fresh").Inc()
	if address == nil {
		return Address{}, nil
	}
	return address, nil
}

func (s *Service) updateAddress(ctx context.Context, key string, address Address) error {
	data, err := leased.Marshal(leased.New(s.clock, address))
	if err != nil {
		return errors.Trace(err)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return errors.Annotatef(err, "storing %s", key)
	}
	return nil
}

// Login posts the credentials to the shop and keeps the returned session.
// On any failure the current session is dropped and the error is of kind
// ErrLoginFailed.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	start := s.clock.Now()
	defer func() {
		metrics.LoginDuration.Observe(s.clock.Now().Sub(start).Seconds())
	}()

	session, err := s.login(ctx, username, password)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		s.log.Warnf("Login failed for user %v: %v", username, err)
		if logoutErr := s.Logout(ctx); logoutErr != nil {
			s.log.Errorf("Failed to clear session after failed login: %v", logoutErr)
		}
		return nil, errors.WithType(fmt.Errorf("login as %q: %w", username, err), ErrLoginFailed)
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.log.Debugf("User %v logged in", username)
	return session, nil
}

func (s *Service) login(ctx context.Context, username, password string) (*Session, error) {
	form, err := query.Values(loginForm{
		StoreCode: s.config.Get(ConfigStoreCode),
		User:      username,
		Password:  password,
	})
	if err != nil {
		return nil, errors.Annotate(err, "encoding login form")
	}

	resp, err := s.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    s.loginURL(),
		Header: http.Header{transport.HeaderContentType: {transport.ContentTypeForm}},
		Form:   form,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	session, err := parseSession(resp.Body)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if err := s.store.Set(ctx, LoggedInUserKey, session.Raw); err != nil {
		return nil, errors.Annotate(err, "storing session")
	}
	return session, nil
}

func (s *Service) loginURL() string {
	endpoint := s.config.Get(ConfigAPIEndpoint)
	if endpoint != "" && !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return endpoint + loginPath
}

// IsLoggedIn reports whether a session is held in memory or can be loaded
// from storage.
func (s *Service) IsLoggedIn(ctx context.Context) bool {
	_, ok := s.currentSession(ctx)
	return ok
}

// Logout forgets the session. Calling it while logged out is not an error.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if err := s.store.Remove(ctx, LoggedInUserKey); err != nil {
		return errors.Annotate(err, "removing session")
	}
	return nil
}

// Reset forgets the session and clears every value the store holds under
// its prefix.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return errors.Annotate(err, "clearing storage")
	}
	s.log.Debug("Storage cleared")
	return nil
}

func (s *Service) Session(ctx context.Context) (*Session, error) {
	session, ok := s.currentSession(ctx)
	if !ok {
		return nil, errors.WithType(errors.New("can't access session, user is not logged in"), ErrNotAuthenticated)
	}
	return session, nil
}

func (s *Service) Email(ctx context.Context) (string, error) {
	session, ok := s.currentSession(ctx)
	if !ok {
		return "", errors.WithType(errors.New("can't access email address, user is not logged in"), ErrNotAuthenticated)
	}
	return session.Customer.Email, nil
}

func (s *Service) Addresses(ctx context.Context) ([]Address, error) {
	session, ok := s.currentSession(ctx)
	if !ok {
		return nil, errors.WithType(errors.New("can't access addresses, user is not logged in"), ErrNotAuthenticated)
	}
	if session.Customer.Addresses == nil {
		return []Address{}, nil
	}
	return session.Customer.Addresses, nil
}

func (s *Service) currentSession(ctx context.Context) (*Session, bool) {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()
	if session != nil {
		return session, true
	}

	data, found, err := s.store.Get(ctx, LoggedInUserKey)
	if err != nil {
		s.log.Warnf("Failed to load session: %v", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	session, err = parseSession(data)
	if err != nil {
		s.log.Warnf("Ignoring stored session: %v", err)
		return nil, false
	}

	s.mu.Lock()
	if s.session == nil {
		s.session = session
	}
	session = s.session
	s.mu.Unlock()

	return session, true
}
