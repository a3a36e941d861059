package models

import "time"

// MetricsSnapshot aggregates process counters for the metrics summary endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	StoreOperations          uint64    `json:"store_operations"`
	StoreErrors              uint64    `json:"store_errors"`
	AverageStoreOperationMs  float64   `json:"average_store_operation_ms"`
	GeocodeLookups           uint64    `json:"geocode_lookups"`
	GeocodeFailures          uint64    `json:"geocode_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
