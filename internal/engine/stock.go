package engine

// Kind is the alert category.
type Kind string

const (
	KindLowStock      Kind = "low_stock"
	KindCriticalStock Kind = "critical_stock"
	KindExpiring      Kind = "expiring"
	KindExpired       Kind = "expired"
)

// Severity is the ordinal urgency attached to an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// StockResult is the classification of a single stock level.
type StockResult struct {
	Kind     Kind
	Severity Severity
}

// EvaluateStock classifies an available quantity against the effective
// low-stock threshold and the branch config. Rules are checked in order,
// first match wins:
//
//  1. available <= criticalStockThreshold -> critical_stock / critical
//  2. available <= effectiveThreshold     -> low_stock / medium
//  3. otherwise no alert (nil)
//
// effectiveThreshold is the per-item override when set, else the branch-wide
// lowStockThreshold. Zero stock always lands in rule 1.
func EvaluateStock(available, effectiveThreshold int, cfg ThresholdConfig) *StockResult {
	if available <= cfg.CriticalStockThreshold {
		return &StockResult{Kind: KindCriticalStock, Severity: SeverityCritical}
	}
	if available <= effectiveThreshold {
		return &StockResult{Kind: KindLowStock, Severity: SeverityMedium}
	}
	return nil
}
