package application

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tentens-tech/user-service/internal/leased"
	"github.com/tentens-tech/user-service/internal/user"
)

const (
	AddressInvoice  = "invoice"
	AddressShipping = "shipping"

	MaxAgeParam = "maxAge"

	maxBodyBytes = 1 << 16
)

type credentials struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func HealthHandler() http.HandlerFunc {
	return func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}
}

// LoginHandler accepts credentials as a form or as JSON and answers with the
// session returned by the shop.
func LoginHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := readCredentials(w, r)
		if err != nil {
			log.Debugf("Rejecting login request: %v", err)
			http.Error(w, "Failed to read credentials", http.StatusBadRequest)
			return
		}
		if creds.User == "" {
			http.Error(w, "Missing user", http.StatusBadRequest)
			return
		}

		session, err := users.Login(r.Context(), creds.User, creds.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, session)
	}
}

func LogoutHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := users.Logout(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func EmailHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := users.Email(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"email": email})
	}
}

func AddressesHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addresses, err := users.Addresses(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, addresses)
	}
}

// GetAddressHandler returns the invoice or shipping address named by the
// "kind" path value, honouring the maxAge query parameter in minutes.
func GetAddressHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxAge, err := ParseMaxAge(r.URL.Query().Get(MaxAgeParam))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var address user.Address
		switch r.PathValue("kind") {
		case AddressInvoice:
			address, err = users.InvoiceAddress(r.Context(), maxAge)
		case AddressShipping:
			address, err = users.ShippingAddress(r.Context(), maxAge)
		default:
			http.NotFound(w, r)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, address)
	}
}

func PutAddressHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update func(context.Context, user.Address) error
		switch r.PathValue("kind") {
		case AddressInvoice:
			update = users.UpdateInvoiceAddress
		case AddressShipping:
			update = users.UpdateShippingAddress
		default:
			http.NotFound(w, r)
			return
		}

		var address user.Address
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&address); err != nil {
			log.Debugf("Failed to decode address: %v", err)
			http.Error(w, "Failed to decode address", http.StatusBadRequest)
			return
		}

		if err := update(r.Context(), address); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ParseMaxAge reads a number of minutes. An empty value means unlimited.
func ParseMaxAge(value string) (leased.MaxAge, error) {
	if value == "" {
		return leased.Unlimited, nil
	}
	minutes, err := strconv.ParseInt(value, 10, 64)
	if err != nil || minutes < 0 {
		return leased.Unlimited, errors.NotValidf("max age %q", value)
	}
	return leased.Minutes(minutes), nil
}

func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var creds credentials
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return creds, errors.Annotate(err, "decoding credentials")
		}
		return creds, nil
	}

	if err := r.ParseForm(); err != nil {
		return creds, errors.Annotate(err, "parsing form")
	}
	creds.User = r.PostForm.Get("user")
	creds.Password = r.PostForm.Get("password")
	return creds, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNotAuthenticated), errors.Is(err, user.ErrLoginFailed):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		log.Errorf("Request failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Errorf("Failed to encode response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Errorf("Failed to write response: %v", err)
	}
}
