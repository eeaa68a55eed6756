// Package engine implements the alert classification and aggregation core:
// threshold configuration, stock and expiry evaluation, aggregation into a
// ranked alert list with severity counts, and the notification lifecycle
// state machine. Everything here is pure - the current time is always an
// explicit parameter and no function reads external state.
package engine

// Default severity boundaries applied when a branch has no saved settings.
const (
	DefaultLowStockThreshold      = 10
	DefaultCriticalStockThreshold = 3
	DefaultExpiryWarningDays      = 7
	DefaultCriticalExpiryDays     = 3
)

// ThresholdConfig holds the severity boundaries for one branch.
type ThresholdConfig struct {
	LowStockThreshold      int `json:"lowStockThreshold"`
	CriticalStockThreshold int `json:"criticalStockThreshold"`
	ExpiryWarningDays      int `json:"expiryWarningDays"`
	CriticalExpiryDays     int `json:"criticalExpiryDays"`
}

// DefaultThresholds returns the hardcoded fallback configuration.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		LowStockThreshold:      DefaultLowStockThreshold,
		CriticalStockThreshold: DefaultCriticalStockThreshold,
		ExpiryWarningDays:      DefaultExpiryWarningDays,
		CriticalExpiryDays:     DefaultCriticalExpiryDays,
	}
}

// Validate rejects configurations that would corrupt downstream
// classification. Invariants: all boundaries positive, critical stock below
// low stock, critical expiry below warning.
func (c ThresholdConfig) Validate() error {
	if c.LowStockThreshold <= 0 {
		return &ValidationError{Field: "lowStockThreshold", Message: "must be greater than zero"}
	}
	if c.CriticalStockThreshold <= 0 {
		return &ValidationError{Field: "criticalStockThreshold", Message: "must be greater than zero"}
	}
	if c.ExpiryWarningDays <= 0 {
		return &ValidationError{Field: "expiryWarningDays", Message: "must be greater than zero"}
	}
	if c.CriticalExpiryDays <= 0 {
		return &ValidationError{Field: "criticalExpiryDays", Message: "must be greater than zero"}
	}
	if c.CriticalStockThreshold >= c.LowStockThreshold {
		return &ValidationError{Field: "criticalStockThreshold", Message: "must be below lowStockThreshold"}
	}
	if c.CriticalExpiryDays >= c.ExpiryWarningDays {
		return &ValidationError{Field: "criticalExpiryDays", Message: "must be below expiryWarningDays"}
	}
	return nil
}
