package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InventoryRecord is a read-only stock snapshot for one product at a branch.
type InventoryRecord struct {
	ID                uuid.UUID
	ProductID         uuid.UUID
	ProductName       string
	ProductSKU        string
	AvailableQuantity int
	// LowStockThreshold overrides the branch-wide low-stock boundary when set.
	LowStockThreshold *int
}

// BatchRecord is a read-only dated stock batch belonging to an inventory
// record. Only active batches with positive quantity participate in expiry
// evaluation.
type BatchRecord struct {
	ID          uuid.UUID
	InventoryID uuid.UUID
	ExpiryDate  time.Time
	Quantity    int
	IsActive    bool
}

// Alert is a derived alert entity. Its ID is a pure function of the subject
// (and expiry date for expiry alerts), so re-running aggregation over the
// same inputs always yields the same identities.
type Alert struct {
	ID              string     `json:"id"`
	Kind            Kind       `json:"kind"`
	Severity        Severity   `json:"severity"`
	SubjectID       uuid.UUID  `json:"subjectId"`
	ProductID       uuid.UUID  `json:"productId"`
	SubjectLabel    string     `json:"subjectLabel"`
	Quantity        int        `json:"quantity"`
	ThresholdUsed   int        `json:"thresholdUsed"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`
	DaysUntilExpiry *int       `json:"daysUntilExpiry,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// SeverityCount tallies severities over an alert set. Always derived by
// counting, never tracked independently.
type SeverityCount struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// StockAlertID returns the deterministic identity for a stock alert.
func StockAlertID(inventoryID uuid.UUID) string {
	return fmt.Sprintf("stock-%s", inventoryID)
}

// ExpiryAlertID returns the deterministic identity for an expiry alert.
func ExpiryAlertID(inventoryID uuid.UUID, expiryDate time.Time) string {
	return fmt.Sprintf("expiry-%s-%s", inventoryID, expiryDate.Format("2006-01-02"))
}

// EffectiveThreshold resolves the low-stock boundary applied to a record:
// its own override when present, else the branch-wide default.
func EffectiveThreshold(rec InventoryRecord, cfg ThresholdConfig) int {
	if rec.LowStockThreshold != nil {
		return *rec.LowStockThreshold
	}
	return cfg.LowStockThreshold
}

// Aggregate evaluates every inventory record and its qualifying batches and
// emits the derived alert list plus severity counts. It is a pure function
// of its inputs and asOf; callers inject the clock so classification stays
// deterministic. A record may emit zero or one stock alert and zero to many
// expiry alerts, one per qualifying batch.
func Aggregate(inventory []InventoryRecord, batches []BatchRecord, cfg ThresholdConfig, asOf time.Time) ([]Alert, SeverityCount) {
	batchesByInventory := make(map[uuid.UUID][]BatchRecord, len(inventory))
	for _, b := range batches {
		if !b.IsActive || b.Quantity <= 0 {
			continue
		}
		batchesByInventory[b.InventoryID] = append(batchesByInventory[b.InventoryID], b)
	}

	var alerts []Alert
	for _, rec := range inventory {
		threshold := EffectiveThreshold(rec, cfg)
		if res := EvaluateStock(rec.AvailableQuantity, threshold, cfg); res != nil {
			alerts = append(alerts, Alert{
				ID:            StockAlertID(rec.ID),
				Kind:          res.Kind,
				Severity:      res.Severity,
				SubjectID:     rec.ID,
				ProductID:     rec.ProductID,
				SubjectLabel:  subjectLabel(rec),
				Quantity:      rec.AvailableQuantity,
				ThresholdUsed: threshold,
				CreatedAt:     asOf,
			})
		}

		for _, b := range batchesByInventory[rec.ID] {
			res := EvaluateExpiry(b.ExpiryDate, asOf, cfg)
			if res == nil {
				continue
			}
			expiry := b.ExpiryDate
			days := res.DaysUntilExpiry
			alerts = append(alerts, Alert{
				ID:              ExpiryAlertID(rec.ID, b.ExpiryDate),
				Kind:            res.Kind,
				Severity:        res.Severity,
				SubjectID:       rec.ID,
				ProductID:       rec.ProductID,
				SubjectLabel:    subjectLabel(rec),
				Quantity:        b.Quantity,
				ThresholdUsed:   thresholdForExpiry(res.Kind, res.Severity, cfg),
				ExpiryDate:      &expiry,
				DaysUntilExpiry: &days,
				CreatedAt:       asOf,
			})
		}
	}

	return alerts, CountBySeverity(alerts)
}

// CountBySeverity tallies severity over an alert set.
func CountBySeverity(alerts []Alert) SeverityCount {
	counts := SeverityCount{Total: len(alerts)}
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			counts.Critical++
		case SeverityHigh:
			counts.High++
		case SeverityMedium:
			counts.Medium++
		case SeverityLow:
			counts.Low++
		}
	}
	return counts
}

func subjectLabel(rec InventoryRecord) string {
	if rec.ProductSKU != "" {
		return fmt.Sprintf("%s (%s)", rec.ProductName, rec.ProductSKU)
	}
	return rec.ProductName
}

func thresholdForExpiry(kind Kind, severity Severity, cfg ThresholdConfig) int {
	if kind == KindExpired || severity == SeverityCritical {
		return cfg.CriticalExpiryDays
	}
	return cfg.ExpiryWarningDays
}
