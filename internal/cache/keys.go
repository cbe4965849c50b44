// ===============================
// FILE: internal/cache/keys.go
// ===============================

package cache

import "fmt"

// Cache key builders for marketplace aggregations. Keys are
// namespaced so DeletePattern can invalidate a whole family at once.
const (
	marketplaceNamespace = "marketplace"

	// TTL hints; callers may override.
	KeyPatternMarketplace = marketplaceNamespace + ":*"
)

// TrendingTagsKey caches the trending-tags aggregation per limit.
func TrendingTagsKey(limit int) string {
	return fmt.Sprintf("%s:trending_tags:%d", marketplaceNamespace, limit)
}

// CategoryBreakdownKey caches the per-category listing counts.
func CategoryBreakdownKey() string {
	return marketplaceNamespace + ":categories"
}

// MarketplaceStatsKey caches the marketplace-wide totals.
func MarketplaceStatsKey() string {
	return marketplaceNamespace + ":stats"
}
