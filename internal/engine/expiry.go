package engine

import (
	"math"
	"time"
)

// ExpiryResult is the classification of a single batch expiry date.
type ExpiryResult struct {
	Kind            Kind
	Severity        Severity
	DaysUntilExpiry int
}

// DaysUntil returns the number of whole days from asOf to expiryDate,
// rounding fractional days up. A batch expiring in 6.1 days reports 7.
func DaysUntil(expiryDate, asOf time.Time) int {
	return int(math.Ceil(expiryDate.Sub(asOf).Hours() / 24))
}

// EvaluateExpiry classifies a batch expiry date relative to asOf. Rules in
// order:
//
//  1. already past expiry            -> expired / critical
//  2. within criticalExpiryDays      -> expiring / critical
//  3. within expiryWarningDays       -> expiring / high
//  4. otherwise no alert (nil)
//
// Rules 2 and 3 share kind "expiring"; only severity differs.
func EvaluateExpiry(expiryDate, asOf time.Time, cfg ThresholdConfig) *ExpiryResult {
	days := DaysUntil(expiryDate, asOf)
	switch {
	case days < 0:
		return &ExpiryResult{Kind: KindExpired, Severity: SeverityCritical, DaysUntilExpiry: days}
	case days <= cfg.CriticalExpiryDays:
		return &ExpiryResult{Kind: KindExpiring, Severity: SeverityCritical, DaysUntilExpiry: days}
	case days <= cfg.ExpiryWarningDays:
		return &ExpiryResult{Kind: KindExpiring, Severity: SeverityHigh, DaysUntilExpiry: days}
	default:
		return nil
	}
}
