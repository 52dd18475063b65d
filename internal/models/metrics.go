package models

import "time"

// SystemMetrics is a point-in-time digest of the process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	AbsenceTransitions       uint64    `json:"absence_transitions"`
	PeriodsAutoClosed        uint64    `json:"periods_auto_closed"`
	NavigationChanges        uint64    `json:"navigation_changes"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
