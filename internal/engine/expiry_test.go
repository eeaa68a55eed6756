package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alerts-service/internal/engine"
)

var asOf = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestDaysUntil_CeilsFractionalDays(t *testing.T) {
	// 6 days and ~2.4 hours out reports as 7 days remaining.
	expiry := asOf.Add(6*24*time.Hour + 145*time.Minute)
	assert.Equal(t, 7, engine.DaysUntil(expiry, asOf))

	assert.Equal(t, 5, engine.DaysUntil(asOf.Add(5*24*time.Hour), asOf))
	assert.Equal(t, 0, engine.DaysUntil(asOf, asOf))
	assert.Equal(t, -1, engine.DaysUntil(asOf.Add(-30*time.Hour), asOf))
}

func TestEvaluateExpiry_Expired(t *testing.T) {
	res := engine.EvaluateExpiry(asOf.Add(-48*time.Hour), asOf, testConfig())
	require.NotNil(t, res)
	assert.Equal(t, engine.KindExpired, res.Kind)
	assert.Equal(t, engine.SeverityCritical, res.Severity)
	assert.Equal(t, -2, res.DaysUntilExpiry)
}

func TestEvaluateExpiry_Boundaries(t *testing.T) {
	cfg := testConfig()

	// Expiring today: zero days, inside the critical window.
	res := engine.EvaluateExpiry(asOf, asOf, cfg)
	require.NotNil(t, res)
	assert.Equal(t, engine.KindExpiring, res.Kind)
	assert.Equal(t, engine.SeverityCritical, res.Severity)

	// Exactly criticalExpiryDays out is still critical.
	res = engine.EvaluateExpiry(asOf.Add(3*24*time.Hour), asOf, cfg)
	require.NotNil(t, res)
	assert.Equal(t, engine.KindExpiring, res.Kind)
	assert.Equal(t, engine.SeverityCritical, res.Severity)

	// One past the critical window drops to the warning tier.
	res = engine.EvaluateExpiry(asOf.Add(4*24*time.Hour), asOf, cfg)
	require.NotNil(t, res)
	assert.Equal(t, engine.KindExpiring, res.Kind)
	assert.Equal(t, engine.SeverityHigh, res.Severity)

	// Warning boundary inclusive, beyond it no alert.
	res = engine.EvaluateExpiry(asOf.Add(7*24*time.Hour), asOf, cfg)
	require.NotNil(t, res)
	assert.Equal(t, engine.SeverityHigh, res.Severity)

	assert.Nil(t, engine.EvaluateExpiry(asOf.Add(8*24*time.Hour), asOf, cfg))
}
