package engine

import "sort"

// Display priority per kind; lower sorts first.
var kindPriority = map[Kind]int{
	KindExpired:       0,
	KindCriticalStock: 1,
	KindExpiring:      2,
	KindLowStock:      3,
}

// Rank returns a new slice ordered for display: kind priority first
// (expired, critical_stock, expiring, low_stock), then most recent first.
// The sort is stable, so equal-priority equal-timestamp alerts keep their
// input order.
func Rank(alerts []Alert) []Alert {
	ranked := make([]Alert, len(alerts))
	copy(ranked, alerts)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := kindPriority[ranked[i].Kind], kindPriority[ranked[j].Kind]
		if pi != pj {
			return pi < pj
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	return ranked
}
