package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
)

// currentCacheVersion is bumped whenever the cached NetworkResult shape changes.
const currentCacheVersion = 1

// cachedNetworkResult returns the network for subject, reusing a fresh cache entry when one exists.
func cachedNetworkResult(ctx context.Context, cfg *contract.Config, ds *Dataset, subject string, mgr contract.CacheManager) (*schema.NetworkResult, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetNetworkStore()
	}
	if store == nil {
		// Caching disabled; estimate every time
		return computeNetworkResult(ctx, cfg, ds, subject)
	}

	key := generateCacheKey(cfg, ds, subject)

	// Check for cache hit
	if result := checkCacheHit(store, key, cfg.CacheTTL); result != nil {
		contract.LoggerFrom(ctx).Debug("network cache hit", "subject", subject)
		return result, nil
	}

	// Cache miss: estimate the network and store it
	return computeAndStore(ctx, cfg, ds, subject, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached result.
// Entries that are stale, from another version or unreadable are removed.
func checkCacheHit(store contract.CacheStore, key string, ttl time.Duration) *schema.NetworkResult {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	if ttl <= 0 {
		ttl = contract.DefaultCacheTTL
	}

	// Validate version and staleness
	if version == currentCacheVersion && time.Since(time.Unix(ts, 0)) <= ttl {
		var result schema.NetworkResult
		if err := json.Unmarshal(data, &result); err == nil {
			return &result // Cache hit
		}
	}

	_ = store.Delete(key)
	return nil
}

// computeAndStore builds the network and writes it to the cache.
func computeAndStore(ctx context.Context, cfg *contract.Config, ds *Dataset, subject string, store contract.CacheStore, key string) (*schema.NetworkResult, error) {
	result, err := computeNetworkResult(ctx, cfg, ds, subject)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LoggerFrom(ctx).Warn("failed to cache network", "subject", subject, "error", err)
		}
	}

	return result, nil
}

// generateCacheKey creates a unique key from the dataset and every parameter that shapes the network.
func generateCacheKey(cfg *contract.Config, ds *Dataset, subject string) string {
	key := fmt.Sprintf("%s|%s|%s|%g|%t|%s|%s|%d|%d|%d",
		ds.Fingerprint,
		subject,
		strings.Join(symptomsFor(cfg, ds.Table), "\x1f"),
		cfg.Threshold,
		cfg.ExcludeSelf,
		cfg.Dedup,
		cfg.MaxGap,
		cfg.MinObservations,
		cfg.LayoutIterations,
		cfg.LayoutSeed,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
