package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alerts-service/internal/engine"
)

func TestDefaultThresholds_Valid(t *testing.T) {
	cfg := engine.DefaultThresholds()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, 7, cfg.ExpiryWarningDays)
}

func TestValidate_OrderingInvariants(t *testing.T) {
	cfg := engine.ThresholdConfig{
		LowStockThreshold:      5,
		CriticalStockThreshold: 10,
		ExpiryWarningDays:      7,
		CriticalExpiryDays:     3,
	}
	err := cfg.Validate()
	require.Error(t, err)
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "criticalStockThreshold", verr.Field)

	cfg = engine.ThresholdConfig{
		LowStockThreshold:      10,
		CriticalStockThreshold: 3,
		ExpiryWarningDays:      3,
		CriticalExpiryDays:     7,
	}
	err = cfg.Validate()
	require.Error(t, err)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "criticalExpiryDays", verr.Field)
}

func TestValidate_RejectsNonPositive(t *testing.T) {
	cfg := engine.DefaultThresholds()
	cfg.LowStockThreshold = 0
	assert.Error(t, cfg.Validate())

	cfg = engine.DefaultThresholds()
	cfg.ExpiryWarningDays = -1
	assert.Error(t, cfg.Validate())
}
