package cache

import (
	"strings"
	"time"

	"stocksim-api/internal/config"
)

// Namespace is the Redis key prefix for the application.
const Namespace = "stocksim"

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 30*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Price Keys -------------------------------------------------------------

// PriceLatestKey returns the latest price snapshot key for a symbol.
func PriceLatestKey(symbol string) string {
	return formatKey("price", "latest", symbol)
}

// ActiveSymbolsKey holds the cached active symbol list, by cohort. An empty
// cohort maps to the unfiltered list.
func ActiveSymbolsKey(cohort string) string {
	if strings.TrimSpace(cohort) == "" {
		cohort = "all"
	}
	return formatKey("symbols", "active", cohort)
}

// --- TTL Helpers ------------------------------------------------------------

// PriceTTL returns the TTL for latest price snapshot keys. It is the durable
// fallback layer, so it outlives the in-memory freshness window.
func PriceTTL(ttl TTLSet) time.Duration {
	return ttl.Long
}

// ActiveSymbolsTTL returns the TTL for cached symbol lists.
func ActiveSymbolsTTL(ttl TTLSet) time.Duration {
	return ttl.Medium
}
