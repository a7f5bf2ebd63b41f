package iocache

import (
	"sync"

	"github.com/thaafei/domainx/internal/contract"
)

// StoreManager holds the domain store, ranking cache and history store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	store        contract.DomainStore
	ranking      contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// NewStoreManager wraps already opened stores. Any of them may be nil.
func NewStoreManager(store contract.DomainStore, ranking contract.CacheStore, history contract.HistoryStore) *StoreManager {
	return &StoreManager{store: store, ranking: ranking, history: history}
}

// GetDomainStore returns the DomainStore.
func (mgr *StoreManager) GetDomainStore() contract.DomainStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}

// GetRankingCache returns the ranking CacheStore.
func (mgr *StoreManager) GetRankingCache() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.ranking
}

// GetHistoryStore returns the HistoryStore.
func (mgr *StoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

// Close closes every store that was opened.
func (mgr *StoreManager) Close() {
	mgr.Lock()
	defer mgr.Unlock()
	if mgr.store != nil {
		_ = mgr.store.Close()
	}
	if mgr.ranking != nil {
		_ = mgr.ranking.Close()
	}
	if mgr.history != nil {
		_ = mgr.history.Close()
	}
}
