package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alerts-service/internal/engine"
)

func TestStatusOf(t *testing.T) {
	now := time.Now()
	assert.Equal(t, engine.StatusNew, engine.StatusOf(engine.StatusFlags{}))
	assert.Equal(t, engine.StatusRead, engine.StatusOf(engine.StatusFlags{IsRead: true}))
	assert.Equal(t, engine.StatusAcknowledged, engine.StatusOf(engine.StatusFlags{IsRead: true, IsAcknowledged: true}))
	assert.Equal(t, engine.StatusResolved, engine.StatusOf(engine.StatusFlags{IsResolved: true, ResolvedAt: &now}))
}

func TestMarkRead_NeverFails(t *testing.T) {
	now := time.Now()

	f := engine.MarkRead(engine.StatusFlags{})
	assert.True(t, f.IsRead)

	// Still legal after resolution.
	resolved := engine.Resolve(engine.StatusFlags{}, now)
	f = engine.MarkRead(resolved)
	assert.True(t, f.IsRead)
	assert.True(t, f.IsResolved)
}

func TestAcknowledge_SetsReadAndTimestamp(t *testing.T) {
	now := time.Now()

	f, err := engine.Acknowledge(engine.StatusFlags{}, now)
	require.NoError(t, err)
	assert.True(t, f.IsRead)
	assert.True(t, f.IsAcknowledged)
	require.NotNil(t, f.AcknowledgedAt)
	assert.Equal(t, now, *f.AcknowledgedAt)
}

func TestAcknowledge_IdempotentKeepsFirstTimestamp(t *testing.T) {
	first := time.Now()
	later := first.Add(time.Hour)

	f, err := engine.Acknowledge(engine.StatusFlags{}, first)
	require.NoError(t, err)
	f, err = engine.Acknowledge(f, later)
	require.NoError(t, err)
	assert.Equal(t, first, *f.AcknowledgedAt)
}

func TestAcknowledge_AfterResolveFails(t *testing.T) {
	now := time.Now()
	f := engine.Resolve(engine.StatusFlags{}, now)

	_, err := engine.Acknowledge(f, now.Add(time.Minute))
	require.Error(t, err)
	var invalid *engine.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestResolve_TerminalAndIdempotent(t *testing.T) {
	first := time.Now()
	later := first.Add(time.Hour)

	f := engine.Resolve(engine.StatusFlags{IsRead: true}, first)
	assert.True(t, f.IsResolved)
	require.NotNil(t, f.ResolvedAt)

	f = engine.Resolve(f, later)
	assert.Equal(t, first, *f.ResolvedAt)
	assert.Equal(t, engine.StatusResolved, engine.StatusOf(f))
}
