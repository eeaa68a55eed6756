package engine_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alerts-service/internal/engine"
)

func intPtr(i int) *int { return &i }

func TestAggregate_Scenario(t *testing.T) {
	cfg := testConfig()
	invID := uuid.New()
	inventory := []engine.InventoryRecord{
		{
			ID:                invID,
			ProductID:         uuid.New(),
			ProductName:       "Espresso Beans",
			ProductSKU:        "SKU-001",
			AvailableQuantity: 2,
		},
	}
	batches := []engine.BatchRecord{
		{
			ID:          uuid.New(),
			InventoryID: invID,
			ExpiryDate:  asOf.Add(5 * 24 * time.Hour),
			Quantity:    12,
			IsActive:    true,
		},
	}

	alerts, counts := engine.Aggregate(inventory, batches, cfg, asOf)
	require.Len(t, alerts, 2)

	ranked := engine.Rank(alerts)
	assert.Equal(t, engine.KindCriticalStock, ranked[0].Kind)
	assert.Equal(t, engine.SeverityCritical, ranked[0].Severity)
	assert.Equal(t, engine.KindExpiring, ranked[1].Kind)
	assert.Equal(t, engine.SeverityHigh, ranked[1].Severity)

	assert.Equal(t, engine.SeverityCount{Total: 2, Critical: 1, High: 1}, counts)
}

func TestAggregate_Deterministic(t *testing.T) {
	cfg := testConfig()
	invID := uuid.MustParse("5b1e9d48-6c51-4c32-9d3e-16a5b0a1c111")
	inventory := []engine.InventoryRecord{
		{ID: invID, ProductID: uuid.New(), ProductName: "Milk", AvailableQuantity: 1},
	}
	batches := []engine.BatchRecord{
		{ID: uuid.New(), InventoryID: invID, ExpiryDate: asOf.Add(24 * time.Hour), Quantity: 4, IsActive: true},
	}

	first, firstCounts := engine.Aggregate(inventory, batches, cfg, asOf)
	second, secondCounts := engine.Aggregate(inventory, batches, cfg, asOf)
	assert.Equal(t, first, second)
	assert.Equal(t, firstCounts, secondCounts)

	assert.Equal(t, "stock-5b1e9d48-6c51-4c32-9d3e-16a5b0a1c111", first[0].ID)
	assert.Equal(t, "expiry-5b1e9d48-6c51-4c32-9d3e-16a5b0a1c111-2026-03-16", first[1].ID)
}

func TestAggregate_SkipsInactiveAndEmptyBatches(t *testing.T) {
	cfg := testConfig()
	invID := uuid.New()
	inventory := []engine.InventoryRecord{
		{ID: invID, ProductID: uuid.New(), ProductName: "Yogurt", AvailableQuantity: 50},
	}
	batches := []engine.BatchRecord{
		{ID: uuid.New(), InventoryID: invID, ExpiryDate: asOf.Add(24 * time.Hour), Quantity: 0, IsActive: true},
		{ID: uuid.New(), InventoryID: invID, ExpiryDate: asOf.Add(24 * time.Hour), Quantity: 5, IsActive: false},
	}

	alerts, counts := engine.Aggregate(inventory, batches, cfg, asOf)
	assert.Empty(t, alerts)
	assert.Equal(t, engine.SeverityCount{}, counts)
}

func TestAggregate_PerItemThresholdOverride(t *testing.T) {
	cfg := testConfig()
	inventory := []engine.InventoryRecord{
		{ID: uuid.New(), ProductID: uuid.New(), ProductName: "Flour", AvailableQuantity: 18, LowStockThreshold: intPtr(20)},
		{ID: uuid.New(), ProductID: uuid.New(), ProductName: "Sugar", AvailableQuantity: 18},
	}

	alerts, _ := engine.Aggregate(inventory, nil, cfg, asOf)
	require.Len(t, alerts, 1)
	assert.Equal(t, engine.KindLowStock, alerts[0].Kind)
	assert.Equal(t, 20, alerts[0].ThresholdUsed)
	assert.Equal(t, "Flour", alerts[0].SubjectLabel)
}

func TestAggregate_MultipleExpiryAlertsPerRecord(t *testing.T) {
	cfg := testConfig()
	invID := uuid.New()
	inventory := []engine.InventoryRecord{
		{ID: invID, ProductID: uuid.New(), ProductName: "Cheese", ProductSKU: "CH-9", AvailableQuantity: 40},
	}
	batches := []engine.BatchRecord{
		{ID: uuid.New(), InventoryID: invID, ExpiryDate: asOf.Add(-24 * time.Hour), Quantity: 2, IsActive: true},
		{ID: uuid.New(), InventoryID: invID, ExpiryDate: asOf.Add(2 * 24 * time.Hour), Quantity: 3, IsActive: true},
		{ID: uuid.New(), InventoryID: invID, ExpiryDate: asOf.Add(6 * 24 * time.Hour), Quantity: 4, IsActive: true},
	}

	alerts, counts := engine.Aggregate(inventory, batches, cfg, asOf)
	require.Len(t, alerts, 3)
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 2, counts.Critical)
	assert.Equal(t, 1, counts.High)
	for _, a := range alerts {
		assert.Equal(t, "Cheese (CH-9)", a.SubjectLabel)
		assert.NotNil(t, a.DaysUntilExpiry)
	}
}

func TestCountBySeverity_ConsistentWithAlerts(t *testing.T) {
	alerts := []engine.Alert{
		{Severity: engine.SeverityCritical},
		{Severity: engine.SeverityHigh},
		{Severity: engine.SeverityMedium},
		{Severity: engine.SeverityMedium},
		{Severity: engine.SeverityLow},
	}
	counts := engine.CountBySeverity(alerts)
	assert.Equal(t, len(alerts), counts.Total)
	assert.Equal(t, counts.Total, counts.Critical+counts.High+counts.Medium+counts.Low)
}
