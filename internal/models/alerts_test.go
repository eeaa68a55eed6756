package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alerts-service/internal/engine"
	"alerts-service/internal/models"
)

func TestThresholdsDefaultsWhenUnsaved(t *testing.T) {
	var settings *models.BranchAlertSettings

	cfg := settings.Thresholds()

	assert.Equal(t, engine.DefaultThresholds(), cfg)
}

func TestThresholdsPartialOverride(t *testing.T) {
	low := 25
	settings := &models.BranchAlertSettings{
		LowStockThreshold: &low,
	}

	cfg := settings.Thresholds()

	assert.Equal(t, 25, cfg.LowStockThreshold)
	assert.Equal(t, engine.DefaultCriticalStockThreshold, cfg.CriticalStockThreshold)
	assert.Equal(t, engine.DefaultExpiryWarningDays, cfg.ExpiryWarningDays)
	assert.Equal(t, engine.DefaultCriticalExpiryDays, cfg.CriticalExpiryDays)
}

func TestNotificationFlagsRoundTrip(t *testing.T) {
	now := time.Now()
	n := models.AlertNotification{}

	flags, err := engine.Acknowledge(engine.MarkRead(n.Flags()), now)
	require.NoError(t, err)
	n.ApplyFlags(flags)

	assert.True(t, n.IsRead)
	assert.True(t, n.IsAcknowledged)
	require.NotNil(t, n.AcknowledgedAt)
	assert.Equal(t, now, *n.AcknowledgedAt)
	assert.Equal(t, engine.StatusAcknowledged, n.Status())
}

func TestNotificationMarshalExposesAlertIDAndStatus(t *testing.T) {
	n := models.AlertNotification{
		AlertID:  "stock-5b1e9d48-6c51-4c32-9d3e-16a5b0a1c111",
		Kind:     engine.KindLowStock,
		Severity: engine.SeverityMedium,
		IsRead:   true,
	}

	data, err := json.Marshal(n)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "stock-5b1e9d48-6c51-4c32-9d3e-16a5b0a1c111", decoded["id"])
	assert.Equal(t, "read", decoded["status"])
	assert.Equal(t, "low_stock", decoded["kind"])
}
