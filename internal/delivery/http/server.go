package http

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tentens-tech/user-service/internal/application"
	"github.com/tentens-tech/user-service/internal/infrastructure/metrics"
)

type Server struct {
	app    *application.Application
	Server *http.Server
}

// New prepares a server for addr. Start and Shutdown may be called in any
// order.
func New(app *application.Application, addr string) *Server {
	s := &Server{app: app}
	cfg := app.Config.Server
	s.Server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Timeout.Read,
		WriteTimeout: cfg.Timeout.Write,
		IdleTimeout:  cfg.Timeout.Idle,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "GET /health", "health", s.handleHealth)
	s.handle(mux, "POST /login", "login", s.handleLogin)
	s.handle(mux, "POST /logout", "logout", s.handleLogout)
	s.handle(mux, "GET /me/email", "email", s.handleEmail)
	s.handle(mux, "GET /me/addresses", "addresses", s.handleAddresses)
	s.handle(mux, "GET /addresses/{kind}", "get_address", s.handleGetAddress)
	s.handle(mux, "PUT /addresses/{kind}", "put_address", s.handlePutAddress)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Start() error {
	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

func (s *Server) handle(mux *http.ServeMux, pattern, name string, handler http.HandlerFunc) {
	observer := metrics.HTTPRequestDuration.MustCurryWith(prometheus.Labels{"handler": name})
	mux.Handle(pattern, promhttp.InstrumentHandlerDuration(observer, handler))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	application.HealthHandler()(w, r)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	application.LoginHandler(s.app.Users)(w, r)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	application.LogoutHandler(s.app.Users)(w, r)
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	application.EmailHandler(s.app.Users)(w, r)
}

func (s *Server) handleAddresses(w http.ResponseWriter, r *http.Request) {
	application.AddressesHandler(s.app.Users)(w, r)
}

func (s *Server) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	application.GetAddressHandler(s.app.Users)(w, r)
}

func (s *Server) handlePutAddress(w http.ResponseWriter, r *http.Request) {
	application.PutAddressHandler(s.app.Users)(w, r)
}
