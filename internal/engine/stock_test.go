package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alerts-service/internal/engine"
)

func testConfig() engine.ThresholdConfig {
	return engine.ThresholdConfig{
		LowStockThreshold:      10,
		CriticalStockThreshold: 3,
		ExpiryWarningDays:      7,
		CriticalExpiryDays:     3,
	}
}

func TestEvaluateStock_CriticalBoundary(t *testing.T) {
	cfg := testConfig()

	res := engine.EvaluateStock(3, cfg.LowStockThreshold, cfg)
	require.NotNil(t, res)
	assert.Equal(t, engine.KindCriticalStock, res.Kind)
	assert.Equal(t, engine.SeverityCritical, res.Severity)

	res = engine.EvaluateStock(4, cfg.LowStockThreshold, cfg)
	require.NotNil(t, res)
	assert.Equal(t, engine.KindLowStock, res.Kind)
	assert.Equal(t, engine.SeverityMedium, res.Severity)
}

func TestEvaluateStock_LowBoundary(t *testing.T) {
	cfg := testConfig()

	res := engine.EvaluateStock(10, cfg.LowStockThreshold, cfg)
	require.NotNil(t, res)
	assert.Equal(t, engine.KindLowStock, res.Kind)

	assert.Nil(t, engine.EvaluateStock(11, cfg.LowStockThreshold, cfg))
}

func TestEvaluateStock_ZeroIsAlwaysCritical(t *testing.T) {
	res := engine.EvaluateStock(0, 10, testConfig())
	require.NotNil(t, res)
	assert.Equal(t, engine.KindCriticalStock, res.Kind)
	assert.Equal(t, engine.SeverityCritical, res.Severity)
}

func TestEvaluateStock_PerItemOverride(t *testing.T) {
	cfg := testConfig()

	// Override of 20 pulls quantity 15 into low stock even though the
	// branch default of 10 would not.
	res := engine.EvaluateStock(15, 20, cfg)
	require.NotNil(t, res)
	assert.Equal(t, engine.KindLowStock, res.Kind)

	assert.Nil(t, engine.EvaluateStock(15, cfg.LowStockThreshold, cfg))
}
