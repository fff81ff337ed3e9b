package user

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
)

const (
	storePrefix = "basketService_"

	InvoiceAddressKey  = storePrefix + "invoiceAddress"
	ShippingAddressKey = storePrefix + "shippingAddress"
	LoggedInUserKey    = storePrefix + "loggedInUser"
)

const (
	ErrNotAuthenticated = errors.ConstError("user is not logged in")
	ErrLoginFailed      = errors.ConstError("login failed")
)

// Address is a caller-defined record. Only "country" is ever read.
type Address map[string]any

func NewAddress(country string) Address {
	return Address{"country": country}
}

func (a Address) Country() string {
	country, _ := a["country"].(string)
	return country
}

// Session is the login response. Raw holds the response body exactly as
// received and is what gets persisted.
type Session struct {
	Token    string          `json:"token"`
	Customer Customer        `json:"customer"`
	Raw      json.RawMessage `json:"-"`
}

type Customer struct {
	ID        json.Number `json:"id"`
	Active    bool        `json:"active"`
	Email     string      `json:"email"`
	Addresses []Address   `json:"addresses"`
}

// parseSession accepts only an object carrying a customer object. A null
// body or a missing customer is not a session.
func parseSession(data []byte) (*Session, error) {
	var shape struct {
		Customer json.RawMessage `json:"customer"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if customer := bytes.TrimSpace(shape.Customer); len(customer) == 0 || customer[0] != '{' {
		return nil, fmt.Errorf("response holds no customer")
	}

	session := &Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	session.Raw = append(json.RawMessage{}, data...)
	return session, nil
}

// MarshalJSON returns the session as it was received.
func (s *Session) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	type plain Session
	return json.Marshal((*plain)(s))
}
