package shipping_service

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrQuoteNotConfigured = errors.New("shipping quote endpoint is not configured")
	ErrRateMissing        = errors.New("carrier response has no rate")
	ErrInvalidParcel      = errors.New("parcel weight must be positive")
)

// CooldownError a quote request arrived before the cooldown window expired
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("shipping quotes are rate limited, retry in %ds", e.RetryAfterSeconds())
}

// RetryAfterSeconds remaining wait rounded up to whole seconds
func (e *CooldownError) RetryAfterSeconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

// CarrierError non-2xx answer from the carrier
type CarrierError struct {
	StatusCode int
	Body       string
}

func (e *CarrierError) Error() string {
	return fmt.Sprintf("carrier returned status %d: %s", e.StatusCode, e.Body)
}
