package core

import (
	"context"

	"github.com/huangsam/symnet/internal/contract"
)

// Context keys for analysis options
type contextKey string

const (
	analysisIDKey   contextKey = "analysisID"
	cacheManagerKey contextKey = "cacheManager"
)

// withAnalysisID stores the active analysis run ID in the context
func withAnalysisID(ctx context.Context, analysisID int64) context.Context {
	return context.WithValue(ctx, analysisIDKey, analysisID)
}

// getAnalysisID returns the active analysis run ID from context
func getAnalysisID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(analysisIDKey).(int64)
	return id, ok
}

// contextWithCacheManager stores the cache manager for use in worker goroutines
func contextWithCacheManager(ctx context.Context, mgr contract.CacheManager) context.Context {
	return context.WithValue(ctx, cacheManagerKey, mgr)
}

// cacheManagerFromContext returns the cache manager from context, or nil
func cacheManagerFromContext(ctx context.Context) contract.CacheManager {
	mgr, _ := ctx.Value(cacheManagerKey).(contract.CacheManager)
	return mgr
}
