package iocache

import (
	"fmt"
	"sync"

	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// rankingTable is the name of the table for ranking caching.
const rankingTable = "ranking_cache"

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetStoreDBFilePath returns the path to the SQLite DB file for the domain store.
func GetStoreDBFilePath() string {
	return contract.GetStoreDBFilePath()
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the ranking cache.
func GetCacheDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for ranking history.
func GetHistoryDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// StoreOptions selects the backend and connection of each store.
type StoreOptions struct {
	StoreBackend   schema.DatabaseBackend
	StoreConnStr   string
	CacheBackend   schema.DatabaseBackend
	CacheConnStr   string
	HistoryBackend schema.DatabaseBackend
	HistoryConnStr string
}

// InitStores initializes the global manager.
// An empty cache or history backend leaves that store disabled.
func InitStores(opts StoreOptions) error {
	var initErr error

	initOnce.Do(func() {
		store, err := NewDomainStore(opts.StoreBackend, opts.StoreConnStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize domain store: %w", err)
			return
		}

		var ranking contract.CacheStore
		if opts.CacheBackend != "" {
			ranking, err = NewCacheStore(rankingTable, opts.CacheBackend, opts.CacheConnStr)
			if err != nil {
				_ = store.Close()
				initErr = fmt.Errorf("failed to initialize ranking cache: %w", err)
				return
			}
		}

		var history contract.HistoryStore
		if opts.HistoryBackend != "" {
			history, err = NewHistoryStore(opts.HistoryBackend, opts.HistoryConnStr)
			if err != nil {
				_ = store.Close()
				if ranking != nil {
					_ = ranking.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
		}

		Manager.Lock()
		Manager.store = store
		Manager.ranking = ranking
		Manager.history = history
		Manager.Unlock()
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(Manager.Close)
}
