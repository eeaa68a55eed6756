package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alerts-service/internal/engine"
)

func TestRank_KindPriorityThenRecency(t *testing.T) {
	t1 := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	a := engine.Alert{ID: "a", Kind: engine.KindLowStock, CreatedAt: t1}
	b := engine.Alert{ID: "b", Kind: engine.KindExpired, CreatedAt: t1}
	c := engine.Alert{ID: "c", Kind: engine.KindExpired, CreatedAt: t2}

	ranked := engine.Rank([]engine.Alert{a, b, c})
	require.Len(t, ranked, 3)
	assert.Equal(t, "c", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
	assert.Equal(t, "a", ranked[2].ID)
}

func TestRank_StableForEqualKeys(t *testing.T) {
	t1 := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	in := []engine.Alert{
		{ID: "first", Kind: engine.KindExpiring, CreatedAt: t1},
		{ID: "second", Kind: engine.KindExpiring, CreatedAt: t1},
		{ID: "third", Kind: engine.KindExpiring, CreatedAt: t1},
	}

	ranked := engine.Rank(in)
	assert.Equal(t, "first", ranked[0].ID)
	assert.Equal(t, "second", ranked[1].ID)
	assert.Equal(t, "third", ranked[2].ID)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	t1 := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	in := []engine.Alert{
		{ID: "low", Kind: engine.KindLowStock, CreatedAt: t1},
		{ID: "expired", Kind: engine.KindExpired, CreatedAt: t1},
	}

	_ = engine.Rank(in)
	assert.Equal(t, "low", in[0].ID)
}

func TestRank_FullKindOrder(t *testing.T) {
	t1 := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	in := []engine.Alert{
		{ID: "low", Kind: engine.KindLowStock, CreatedAt: t1},
		{ID: "expiring", Kind: engine.KindExpiring, CreatedAt: t1},
		{ID: "critical", Kind: engine.KindCriticalStock, CreatedAt: t1},
		{ID: "expired", Kind: engine.KindExpired, CreatedAt: t1},
	}

	ranked := engine.Rank(in)
	ids := []string{ranked[0].ID, ranked[1].ID, ranked[2].ID, ranked[3].ID}
	assert.Equal(t, []string{"expired", "critical", "expiring", "low"}, ids)
}
