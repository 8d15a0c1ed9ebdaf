// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/symnet/schema"
)

// ObservationSource loads the EMA table that every analysis runs against.
// This allows the core analysis logic to be tested without files on disk.
type ObservationSource interface {
	// Load reads the full table of observations.
	Load(ctx context.Context) (*schema.Table, error)

	// Fingerprint returns a stable digest of the underlying data, used for cache keys.
	Fingerprint() (string, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetNetworkStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking analysis runs and storing networks.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis run and returns its unique ID
	BeginAnalysis(runUUID string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the analysis run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalNetworks int) error

	// RecordNetwork stores the summary and edges of one subject's network
	RecordNetwork(analysisID int64, result schema.NetworkResult, analysisTime time.Time) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every recorded run, oldest first
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllNetworkRecords returns every recorded network summary
	GetAllNetworkRecords() ([]schema.NetworkRecord, error)

	// GetAllEdgeRecords returns every recorded edge
	GetAllEdgeRecords() ([]schema.EdgeRecord, error)

	// Close closes the underlying connection
	Close() error
}
