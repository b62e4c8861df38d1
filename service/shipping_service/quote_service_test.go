package shipping_service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCooldownReportsRemainingWait(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	gate := NewLocalCooldown(5 * time.Minute)
	gate.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, gate.Take(ctx))

	now = start.Add(90 * time.Second)
	err := gate.Take(ctx)
	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.InDelta(t, float64(210*time.Second), float64(cooldown.Remaining), float64(time.Millisecond))

	// A rejected call does not push the window further out
	now = start.Add(4 * time.Minute)
	require.ErrorAs(t, gate.Take(ctx), &cooldown)
	assert.InDelta(t, float64(time.Minute), float64(cooldown.Remaining), float64(time.Millisecond))

	now = start.Add(5*time.Minute + time.Second)
	assert.NoError(t, gate.Take(ctx))
}

func TestCooldownErrorRoundsUp(t *testing.T) {
	err := &CooldownError{Remaining: 209500 * time.Millisecond}
	assert.Equal(t, 210, err.RetryAfterSeconds())
	assert.Contains(t, err.Error(), "210s")
}

func carrier(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var q QuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func parcel() *QuoteRequest {
	return &QuoteRequest{
		OriginPostalCode:      "60601",
		DestinationPostalCode: "94105",
		Weight:                decimal.RequireFromString("12.5"),
	}
}

func TestQuoteForwardsOncePerWindow(t *testing.T) {
	srv, hits := carrier(t, http.StatusOK, `{"data":{"total":"18.40"},"currency":"USD","service":"ground"}`)
	svc := NewQuoteService(NewLocalCooldown(5*time.Minute), QuoteOptions{Url: srv.URL, RatePath: "data.total", Timeout: time.Second})
	ctx := context.Background()

	quote, err := svc.Quote(ctx, parcel())
	require.NoError(t, err)
	assert.Equal(t, "18.4", quote.Rate.String())
	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, "ground", quote.Service)

	_, err = svc.Quote(ctx, parcel())
	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Greater(t, cooldown.Remaining, 4*time.Minute)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestQuoteCarrierFailures(t *testing.T) {
	ctx := context.Background()

	srv, _ := carrier(t, http.StatusBadGateway, `upstream down`)
	svc := NewQuoteService(NewLocalCooldown(time.Minute), QuoteOptions{Url: srv.URL})
	_, err := svc.Quote(ctx, parcel())
	var carrierErr *CarrierError
	require.ErrorAs(t, err, &carrierErr)
	assert.Equal(t, http.StatusBadGateway, carrierErr.StatusCode)

	srv, _ = carrier(t, http.StatusOK, `{"price":3}`)
	svc = NewQuoteService(NewLocalCooldown(time.Minute), QuoteOptions{Url: srv.URL})
	_, err = svc.Quote(ctx, parcel())
	assert.ErrorIs(t, err, ErrRateMissing)
}

func TestQuoteRejectsLocally(t *testing.T) {
	ctx := context.Background()
	srv, hits := carrier(t, http.StatusOK, `{"rate":1}`)

	_, err := NewQuoteService(NewLocalCooldown(time.Minute), QuoteOptions{}).Quote(ctx, parcel())
	assert.ErrorIs(t, err, ErrQuoteNotConfigured)

	svc := NewQuoteService(NewLocalCooldown(time.Minute), QuoteOptions{Url: srv.URL})
	q := parcel()
	q.Weight = decimal.Zero
	_, err = svc.Quote(ctx, q)
	assert.ErrorIs(t, err, ErrInvalidParcel)
	assert.Zero(t, atomic.LoadInt32(hits))

	// Invalid requests leave the window unused
	_, err = svc.Quote(ctx, parcel())
	assert.NoError(t, err)
}
