package leased

import (
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	SomeProperty int `json:"someProperty"`
}

func TestUnwrapUnlimited(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	value := New(clk, payload{SomeProperty: 5})

	clk.Advance(24 * 365 * time.Hour)

	got, ok := value.Unwrap(Unlimited)
	assert.True(t, ok)
	assert.Equal(t, payload{SomeProperty: 5}, got)
}

func TestUnwrapMaxAge(t *testing.T) {
	now := time.Now()
	clk := testclock.NewClock(now)
	fiveMinutesOld := now.Add(-5 * time.Minute).UnixMilli()
	value := NewAt(clk, map[string]any{}, fiveMinutesOld)

	tests := []struct {
		name     string
		maxAge   MaxAge
		expectOK bool
	}{
		{name: "Unlimited", maxAge: Unlimited, expectOK: true},
		{name: "Older than three minutes", maxAge: Minutes(3), expectOK: false},
		{name: "Older than four minutes", maxAge: Minutes(4), expectOK: false},
		{name: "Exactly five minutes", maxAge: Minutes(5), expectOK: true},
		{name: "Within ten minutes", maxAge: Minutes(10), expectOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := value.Unwrap(tt.maxAge)
			assert.Equal(t, tt.expectOK, ok)
			if tt.expectOK {
				assert.Equal(t, map[string]any{}, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestUnwrapTruncatesToWholeMinutes(t *testing.T) {
	minute := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		createdAt time.Time
		now       time.Time
		maxAge    MaxAge
		expectOK  bool
	}{
		{
			name:      "Same minute bucket",
			createdAt: minute,
			now:       minute.Add(59 * time.Second),
			maxAge:    Minutes(0),
			expectOK:  true,
		},
		{
			name:      "One millisecond across a bucket boundary",
			createdAt: minute.Add(-time.Millisecond),
			now:       minute,
			maxAge:    Minutes(0),
			expectOK:  false,
		},
		{
			name:      "Almost two minutes counts as one",
			createdAt: minute,
			now:       minute.Add(time.Minute + 59*time.Second),
			maxAge:    Minutes(1),
			expectOK:  true,
		},
		{
			name:      "Negative bound rejects fresh data",
			createdAt: minute,
			now:       minute,
			maxAge:    Minutes(-1),
			expectOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := testclock.NewClock(tt.now)
			value := NewAt(clk, "payload", tt.createdAt.UnixMilli())

			_, ok := value.Unwrap(tt.maxAge)
			assert.Equal(t, tt.expectOK, ok)
		})
	}
}

func TestUnwrapDoesNotMutate(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	value := New(clk, "payload")
	timestamp := value.Timestamp()

	clk.Advance(10 * time.Minute)
	_, ok := value.Unwrap(Minutes(1))
	assert.False(t, ok)

	got, ok := value.Unwrap(Unlimited)
	assert.True(t, ok)
	assert.Equal(t, "payload", got)
	assert.Equal(t, timestamp, value.Timestamp())
}

func TestNewDefaultsTimestampToNow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 15, 0, time.UTC)
	clk := testclock.NewClock(now)

	assert.Equal(t, now.UnixMilli(), New(clk, 1).Timestamp())
	assert.Equal(t, now.UnixMilli(), NewAt(clk, 1, 0).Timestamp())
	assert.Equal(t, now, NewAt(clk, 1, 0).CreatedAt().UTC())
}

func TestSerializeDeserialize(t *testing.T) {
	now := time.Now()
	clk := testclock.NewClock(now)
	fiveMinutesOld := now.Add(-5 * time.Minute).UnixMilli()
	value := NewAt(clk, payload{SomeProperty: 5}, fiveMinutesOld)

	envelope := value.Serialize()
	assert.Equal(t, fiveMinutesOld, envelope.Timestamp)
	assert.Equal(t, payload{SomeProperty: 5}, envelope.Data)

	restored := Deserialize(clk, envelope)
	assert.Equal(t, value.Timestamp(), restored.Timestamp())

	for _, maxAge := range []MaxAge{Unlimited, Minutes(3), Minutes(5), Minutes(10)} {
		want, wantOK := value.Unwrap(maxAge)
		got, gotOK := restored.Unwrap(maxAge)
		assert.Equal(t, wantOK, gotOK, maxAge.String())
		assert.Equal(t, want, got, maxAge.String())
	}

	got, ok := restored.Unwrap(Minutes(10))
	require.True(t, ok)
	assert.Equal(t, 5, got.SomeProperty)
}

func TestMarshalUnmarshal(t *testing.T) {
	clk := testclock.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	value := New(clk, map[string]any{"country": "DE"})

	data, err := Marshal(value)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"country":"DE"},"timestamp":1709294400000}`, string(data))

	restored, err := Unmarshal[map[string]any](clk, data)
	require.NoError(t, err)
	got, ok := restored.Unwrap(Minutes(0))
	assert.True(t, ok)
	assert.Equal(t, "DE", got["country"])

	_, err = Unmarshal[map[string]any](clk, []byte("not-json"))
	assert.Error(t, err)
}

func TestMaxAgeString(t *testing.T) {
	assert.Equal(t, "unlimited", Unlimited.String())
	assert.Equal(t, "15m", Minutes(15).String())
	assert.False(t, Unlimited.Bounded())
	assert.True(t, Minutes(0).Bounded())
}
