// Package iocache is for caching networks and tracking analysis runs.
package iocache

import (
	"sync"

	"github.com/huangsam/symnet/internal/contract"
)

// CacheStoreManager manages the network cache and the analysis store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	network      contract.CacheStore
	analysis     contract.AnalysisStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// NewCacheStoreManager wraps existing stores. Either store may be nil.
func NewCacheStoreManager(network contract.CacheStore, analysis contract.AnalysisStore) *CacheStoreManager {
	return &CacheStoreManager{network: network, analysis: analysis}
}

// GetNetworkStore returns the network CacheStore.
func (mgr *CacheStoreManager) GetNetworkStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.network
}

// GetAnalysisStore returns the analysis AnalysisStore.
func (mgr *CacheStoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}
