package shipping_service

import (
	"context"
	"net/http"
	"time"

	"github.com/imroc/req"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"vendor-inventory-import/conf"
)

var quotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "inventory_import",
	Name:      "shipping_quotes_total",
	Help:      "Shipping quote requests, by outcome.",
}, []string{"outcome"})

// QuoteRequest parcel and lanes sent to the carrier
type QuoteRequest struct {
	OriginPostalCode      string          `json:"originPostalCode" binding:"required"`
	DestinationPostalCode string          `json:"destinationPostalCode" binding:"required"`
	Weight                decimal.Decimal `json:"weight"`
	Length                decimal.Decimal `json:"length"`
	Width                 decimal.Decimal `json:"width"`
	Height                decimal.Decimal `json:"height"`
	Service               string          `json:"service"`
}

// Quote carrier answer reduced to the rate
type Quote struct {
	Rate     decimal.Decimal `json:"rate"`
	Currency string          `json:"currency"`
	Service  string          `json:"service,omitempty"`
	QuotedAt time.Time       `json:"quotedAt"`
}

// QuoteOptions carrier endpoint settings
type QuoteOptions struct {
	Url      string
	RatePath string
	Timeout  time.Duration
}

// QuoteService forwards at most one quote per cooldown window to the carrier
type QuoteService struct {
	gate     Cooldown
	client   *req.Req
	url      string
	ratePath string
	now      func() time.Time
}

// NewQuoteService create quote service instance
func NewQuoteService(gate Cooldown, opts QuoteOptions) *QuoteService {
	client := req.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.RatePath == "" {
		opts.RatePath = "rate"
	}
	return &QuoteService{
		gate:     gate,
		client:   client,
		url:      opts.Url,
		ratePath: opts.RatePath,
		now:      time.Now,
	}
}

// Quote asks the carrier for a rate. Requests inside the cooldown window are
// rejected here with *CooldownError and never reach the carrier.
func (s *QuoteService) Quote(ctx context.Context, q *QuoteRequest) (*Quote, error) {
	if s.url == "" {
		return nil, ErrQuoteNotConfigured
	}
	if !q.Weight.IsPositive() {
		return nil, ErrInvalidParcel
	}
	if err := s.gate.Take(ctx); err != nil {
		var cooldown *CooldownError
		if errors.As(err, &cooldown) {
			quotesTotal.WithLabelValues("cooldown").Inc()
			return nil, err
		}
		quotesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	resp, err := s.client.Post(s.url, req.BodyJSON(q), req.Header{"Accept": "application/json"}, ctx)
	if err != nil {
		quotesTotal.WithLabelValues("error").Inc()
		conf.LogError("shipping_service", "Quote", "post", logrus.Fields{"url": s.url}, err)
		return nil, errors.Wrap(err, "carrier request")
	}
	body := resp.Bytes()
	if code := resp.Response().StatusCode; code < http.StatusOK || code >= http.StatusMultipleChoices {
		quotesTotal.WithLabelValues("error").Inc()
		return nil, &CarrierError{StatusCode: code, Body: truncate(string(body), 256)}
	}

	quote, err := s.parse(body, q)
	if err != nil {
		quotesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	quotesTotal.WithLabelValues("forwarded").Inc()
	conf.Log.WithFields(logrus.Fields{
		"destination": q.DestinationPostalCode,
		"rate":        quote.Rate.String(),
	}).Info("Shipping quote received")
	return quote, nil
}

func (s *QuoteService) parse(body []byte, q *QuoteRequest) (*Quote, error) {
	result := gjson.GetBytes(body, s.ratePath)
	if !result.Exists() {
		return nil, ErrRateMissing
	}
	rate, err := decimal.NewFromString(result.String())
	if err != nil {
		return nil, errors.Wrapf(ErrRateMissing, "rate %q", result.String())
	}

	currency := gjson.GetBytes(body, "currency").String()
	if currency == "" {
		currency = "USD"
	}
	service := gjson.GetBytes(body, "service").String()
	if service == "" {
		service = q.Service
	}
	return &Quote{Rate: rate, Currency: currency, Service: service, QuotedAt: s.now()}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
