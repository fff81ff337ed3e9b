// Package leased wraps a value with its creation time so readers can refuse
// data older than a given number of minutes.
package leased

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/juju/clock"
)

const millisPerMinute = int64(time.Minute / time.Millisecond)

// MaxAge bounds how old a leased value may be when it is read.
// The zero value is Unlimited.
type MaxAge struct {
	minutes int64
	bounded bool
}

// Unlimited never expires.
var Unlimited = MaxAge{}

// Minutes bounds the lease to n whole minutes.
func Minutes(n int64) MaxAge {
	return MaxAge{minutes: n, bounded: true}
}

func (m MaxAge) Bounded() bool {
	return m.bounded
}

func (m MaxAge) String() string {
	if !m.bounded {
		return "unlimited"
	}
	return fmt.Sprintf("%dm", m.minutes)
}

// Envelope is the storable form of a Value.
type Envelope[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// Value pairs a payload with the time it was created, in milliseconds
// since the epoch.
type Value[T any] struct {
	payload   T
	createdAt int64
	clock     clock.Clock
}

// New leases payload from the current time of clk.
func New[T any](clk clock.Clock, payload T) Value[T] {
	return NewAt(clk, payload, 0)
}

// NewAt leases payload from timestamp. A zero timestamp means now.
func NewAt[T any](clk clock.Clock, payload T, timestamp int64) Value[T] {
	if clk == nil {
		clk = clock.WallClock
	}
	if timestamp == 0 {
		timestamp = clk.Now().UnixMilli()
	}

	return Value[T]{
		payload:   payload,
		createdAt: timestamp,
		clock:     clk,
	}
}

func (v Value[T]) Timestamp() int64 {
	return v.createdAt
}

func (v Value[T]) CreatedAt() time.Time {
	return time.UnixMilli(v.createdAt)
}

// Unwrap returns the payload if it is no older than maxAge. Age is measured
// in whole minutes, truncating both the creation time and now to the minute
// before subtracting.
func (v Value[T]) Unwrap(maxAge MaxAge) (T, bool) {
	if !maxAge.bounded {
		return v.payload, true
	}

	if toMinutes(v.clock.Now().UnixMilli())-toMinutes(v.createdAt) <= maxAge.minutes {
		return v.payload, true
	}

	var zero T
	return zero, false
}

func (v Value[T]) Serialize() Envelope[T] {
	return Envelope[T]{
		Data:      v.payload,
		Timestamp: v.createdAt,
	}
}

// Deserialize restores a Value from its envelope.
func Deserialize[T any](clk clock.Clock, envelope Envelope[T]) Value[T] {
	return NewAt(clk, envelope.Data, envelope.Timestamp)
}

// Marshal encodes the envelope of v as JSON.
func Marshal[T any](v Value[T]) ([]byte, error) {
	data, err := json.Marshal(v.Serialize())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal leased value: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON envelope produced by Marshal.
func Unmarshal[T any](clk clock.Clock, data []byte) (Value[T], error) {
	var envelope Envelope[T]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Value[T]{}, fmt.Errorf("failed to unmarshal leased value: %w", err)
	}
	return Deserialize(clk, envelope), nil
}

func toMinutes(millis int64) int64 {
	minutes := millis / millisPerMinute
	if millis%millisPerMinute < 0 {
		minutes--
	}
	return minutes
}
