package iocache

import (
	"sync"

	"github.com/huangsam/gitreport/internal/contract"
)

// CacheStoreManager holds the report cache and the run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	report       contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// NewCacheStoreManager wraps already opened stores. Either may be nil.
func NewCacheStoreManager(report contract.CacheStore, runs contract.RunStore) *CacheStoreManager {
	return &CacheStoreManager{report: report, runs: runs}
}

// GetReportStore returns the report CacheStore.
func (mgr *CacheStoreManager) GetReportStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.report
}

// GetRunStore returns the RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
