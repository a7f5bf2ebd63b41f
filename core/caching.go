package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL bounds how long a cached ranking is trusted
const cacheTTL = 7 * 24 * time.Hour

// cachedRanking is the cached part of a report.
type cachedRanking struct {
	Result  schema.RankingResult  `json:"result"`
	Skipped []schema.SkippedValue `json:"skipped,omitempty"`
}

// cachedComputeRanking returns the ranking of a snapshot, reusing a cached one for identical inputs.
// The rule catalogue is read once so the cache key and every lookup see the same catalogue
// even when the rules are reloaded mid-ranking.
func cachedComputeRanking(ctx context.Context, cache contract.CacheStore, snap schema.DomainSnapshot, rules contract.RuleProvider, opts algo.Options) *schema.RankingReport {
	lookup, fingerprint := ruleSnapshot(rules)
	if cache == nil {
		// Fallback to direct computation
		report := ComputeRanking(ctx, snap, lookup, opts)
		return &report
	}

	key, err := generateCacheKey(snap, fingerprint, opts)
	if err != nil {
		loggerFrom(ctx).Warn("Ranking cache key generation failed", "domain_id", snap.Domain.ID, "error", err)
		report := ComputeRanking(ctx, snap, lookup, opts)
		return &report
	}

	// Check for cache hit
	if report := checkCacheHit(cache, key); report != nil {
		return report
	}

	// Cache miss: compute and store
	return computeAndStore(ctx, cache, key, snap, lookup, opts)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(cache contract.CacheStore, key string) *schema.RankingReport {
	data, version, ts, err := cache.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}

	var entry cachedRanking
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}
	return &schema.RankingReport{Result: entry.Result, Skipped: entry.Skipped, CacheHit: true}
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(ctx context.Context, cache contract.CacheStore, key string, snap schema.DomainSnapshot, rules algo.RuleLookup, opts algo.Options) *schema.RankingReport {
	report := ComputeRanking(ctx, snap, rules, opts)

	if data, err := json.Marshal(cachedRanking{Result: report.Result, Skipped: report.Skipped}); err == nil {
		if err := cache.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			loggerFrom(ctx).Warn("Failed to store ranking in cache", "domain_id", snap.Domain.ID, "error", err)
		}
	}

	return &report
}

// generateCacheKey hashes every input of a ranking: the snapshot, the rule catalogue and the options.
// Any write to the domain changes the snapshot and therefore the key.
func generateCacheKey(snap schema.DomainSnapshot, fingerprint string, opts algo.Options) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	snapHash := sha256.Sum256(data)

	key := fmt.Sprintf("%s:%x:%s:%s",
		snap.Domain.ID,
		snapHash,
		fingerprint,
		opts.Unranged,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}

// ruleSnapshot reads the catalogue and its fingerprint in one step.
// A nil provider or catalogue yields a nil lookup so the built-in defaults apply.
func ruleSnapshot(rules contract.RuleProvider) (algo.RuleLookup, string) {
	if rules == nil {
		return nil, ""
	}
	set, fingerprint := rules.Snapshot()
	if set == nil {
		return nil, fingerprint
	}
	return set, fingerprint
}
