package cache

// Efficiency tiers classify an instance's hit rate.
const (
	EfficiencyExcellent = "excellent"
	EfficiencyGood      = "good"
	EfficiencyAverage   = "average"
	EfficiencyPoor      = "poor"
)

// EfficiencyTier maps a hit rate to its tier.
func EfficiencyTier(hitRate float64) string {
	switch {
	case hitRate > 0.8:
		return EfficiencyExcellent
	case hitRate > 0.6:
		return EfficiencyGood
	case hitRate > 0.4:
		return EfficiencyAverage
	default:
		return EfficiencyPoor
	}
}

// Stats is a point-in-time snapshot of one cache instance.
type Stats struct {
	EntityType       string  `json:"entity_type"`
	Entries          int     `json:"entries"`
	Hits             uint64  `json:"hits"`
	Misses           uint64  `json:"misses"`
	Sets             uint64  `json:"sets"`
	EvictionsLRU     uint64  `json:"evictions_lru"`
	EvictionsExpired uint64  `json:"evictions_expired"`
	Rejections       uint64  `json:"rejections"`
	BytesUsed        int64   `json:"bytes_used"`
	OriginalBytes    int64   `json:"original_bytes"`
	MaxBytes         int64   `json:"max_bytes"`
	HitRate          float64 `json:"hit_rate"`
	CompressionRatio float64 `json:"compression_ratio"`
	Efficiency       string  `json:"efficiency"`
}

// GlobalStats aggregates the stats of every registered instance.
type GlobalStats struct {
	Instances         map[string]Stats `json:"instances"`
	TotalEntries      int              `json:"total_entries"`
	TotalHits         uint64           `json:"total_hits"`
	TotalMisses       uint64           `json:"total_misses"`
	TotalBytesUsed    int64            `json:"total_bytes_used"`
	OverallHitRate    float64          `json:"overall_hit_rate"`
	OverallEfficiency string           `json:"overall_efficiency"`
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func compressionRatio(compressed, original int64) float64 {
	if original == 0 {
		return 1
	}
	return float64(compressed) / float64(original)
}
