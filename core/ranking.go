package core

import (
	"context"
	"fmt"
	"time"

	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
	"golang.org/x/sync/errgroup"
)

// ActiveCategories returns the categories that hold at least one scorable metric,
// in the order they first appear among the metrics.
func ActiveCategories(metrics []schema.Metric, opts algo.Options) []string {
	seen := make(map[string]struct{})
	var active []string
	for _, m := range metrics {
		if !isScorable(m, opts) {
			continue
		}
		cat := m.CategoryName()
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		active = append(active, cat)
	}
	return active
}

// isScorable reports whether a metric can contribute a score under the options.
func isScorable(m schema.Metric, opts algo.Options) bool {
	if !m.ValueType.IsScorable() {
		return false
	}
	if m.ValueType.IsNumeric() && !m.HasRange() && opts.Unranged == schema.ExcludeNumeric {
		return false
	}
	return true
}

// ComputeRanking scores and orders every library of a snapshot.
// Values that cannot be normalized are skipped, logged and reported; they never fail the ranking.
func ComputeRanking(ctx context.Context, snap schema.DomainSnapshot, rules algo.RuleLookup, opts algo.Options) schema.RankingReport {
	logger := loggerFrom(ctx).With("domain", snap.Domain.Name, "domain_id", snap.Domain.ID)

	active := ActiveCategories(snap.Metrics, opts)
	weights, source := algo.ResolveWeights(active, snap.Weights)

	result := schema.RankingResult{
		Domain:          snap.Domain.Name,
		DomainID:        snap.Domain.ID,
		GlobalRanking:   make(map[string]float64, len(snap.Libraries)),
		CategoryDetails: make(map[string]map[string]float64, len(active)),
		Weights:         weights,
		WeightSource:    source,
	}
	for _, cat := range active {
		result.CategoryDetails[cat] = make(map[string]float64)
	}

	if source == schema.StoredWeights && (!algo.WeightsBalanced(weights) || !algo.WeightsInRange(weights)) {
		result.WeightsStale = true
		logger.Warn("Stored category weights are not a valid split, using them as stored",
			"sum", algo.SumWeights(weights))
	}

	var scorable []schema.Metric
	for _, m := range snap.Metrics {
		if isScorable(m, opts) {
			scorable = append(scorable, m)
		}
	}

	keys := libraryKeys(snap.Libraries)
	var skipped []schema.SkippedValue
	ranked := make([]schema.RankedLibrary, 0, len(snap.Libraries))
	for i, lib := range snap.Libraries {
		perCategory := make(map[string][]float64, len(active))
		scored := 0

		for _, m := range scorable {
			score, present, err := algo.Normalize(m, lib.Values[m.ID], rules, opts)
			if err != nil {
				reason := SkipReason(err)
				logger.Warn("Skipping metric value",
					"library", lib.Library.Name,
					"metric", m.Name,
					"reason", reason,
					"error", err)
				skipped = append(skipped, schema.SkippedValue{
					LibraryID:   lib.Library.ID,
					LibraryName: lib.Library.Name,
					MetricID:    m.ID,
					MetricName:  m.Name,
					Reason:      reason,
					Detail:      err.Error(),
				})
				continue
			}
			if !present {
				continue
			}
			cat := m.CategoryName()
			perCategory[cat] = append(perCategory[cat], score)
			scored++
		}

		categoryScores := make(map[string]float64, len(perCategory))
		for _, cat := range active {
			if mean, ok := algo.Aggregate(perCategory[cat]); ok {
				categoryScores[cat] = mean
				result.CategoryDetails[cat][keys[i]] = mean
			}
		}

		overall := algo.WeightedSum(active, categoryScores, weights)
		result.GlobalRanking[keys[i]] = overall
		ranked = append(ranked, schema.RankedLibrary{
			LibraryID:      lib.Library.ID,
			LibraryName:    lib.Library.Name,
			Score:          overall,
			CategoryScores: categoryScores,
			ScoredMetrics:  scored,
			TotalMetrics:   len(scorable),
		})
	}

	result.Ranked = algo.RankLibraries(ranked, 0)
	return schema.RankingReport{Result: result, Skipped: skipped}
}

// libraryKeys returns the map key of each library: its name, or "name (id)"
// when another library of the domain shares the name.
func libraryKeys(libs []schema.LibraryValues) []string {
	counts := make(map[string]int, len(libs))
	for _, lib := range libs {
		counts[lib.Library.Name]++
	}
	keys := make([]string, len(libs))
	for i, lib := range libs {
		keys[i] = lib.Library.Name
		if counts[lib.Library.Name] > 1 {
			keys[i] = fmt.Sprintf("%s (%s)", lib.Library.Name, lib.Library.ID)
		}
	}
	return keys
}

// GetDomainRanking loads a domain and returns its ranking, using the ranking cache when present.
// Fresh computations are recorded in the history store when one is configured.
func GetDomainRanking(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, rules contract.RuleProvider) (*schema.RankingReport, error) {
	start := time.Now()

	snap, err := mgr.GetDomainStore().LoadDomainSnapshot(ctx, cfg.DomainID)
	if err != nil {
		return nil, err
	}

	opts := algo.Options{Unranged: cfg.NumericUnranged}
	report := cachedComputeRanking(ctx, mgr.GetRankingCache(), snap, rules, opts)

	if !report.CacheHit && !shouldSkipHistory(ctx) {
		recordRanking(ctx, cfg, mgr.GetHistoryStore(), snap.Domain, report, start)
	}

	// The limit only trims the ordered list; maps stay complete.
	if cfg.ResultLimit > 0 && len(report.Result.Ranked) > cfg.ResultLimit {
		report.Result.Ranked = report.Result.Ranked[:cfg.ResultLimit]
	}
	report.Duration = time.Since(start)

	reasons := make([]string, len(report.Skipped))
	for i, s := range report.Skipped {
		reasons[i] = s.Reason
	}
	metricsFrom(ctx).observe(report.CacheHit, reasons, report.Duration.Seconds())

	return report, nil
}

// GetAllDomainRankings ranks every domain with at most cfg.Workers rankings in flight.
// Results follow the order of ListDomains.
func GetAllDomainRankings(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, rules contract.RuleProvider) ([]*schema.RankingReport, error) {
	domains, err := mgr.GetDomainStore().ListDomains(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*schema.RankingReport, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, d := range domains {
		g.Go(func() error {
			domainCfg := cfg.Clone()
			domainCfg.DomainID = d.Domain.ID
			report, err := GetDomainRanking(gctx, domainCfg, mgr, rules)
			if err != nil {
				return fmt.Errorf("ranking domain %s: %w", d.Domain.Name, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// recordRanking writes a finished run and its library scores to the history store.
// Tracking failures are logged and never fail the ranking.
func recordRanking(ctx context.Context, cfg *contract.Config, history contract.HistoryStore, domain schema.Domain, report *schema.RankingReport, start time.Time) {
	if history == nil {
		return
	}

	params := map[string]any{
		"result_limit":     cfg.ResultLimit,
		"numeric_unranged": string(cfg.NumericUnranged),
		"weight_source":    string(report.Result.WeightSource),
		"weights_stale":    report.Result.WeightsStale,
	}
	logger := loggerFrom(ctx).With("domain", domain.Name, "domain_id", domain.ID)
	runID, err := history.BeginRun(start, domain, params)
	if err != nil {
		logger.Warn("Ranking history initialization failed", "error", err)
		return
	}

	for _, lib := range report.Result.Ranked {
		if err := history.RecordLibraryScore(runID, lib); err != nil {
			logger.Warn("Ranking history failed for library", "library", lib.LibraryName, "library_id", lib.LibraryID, "error", err)
		}
	}

	if err := history.EndRun(runID, time.Now(), len(report.Result.Ranked), len(report.Skipped)); err != nil {
		logger.Warn("Failed to finalize ranking history", "run_id", runID, "error", err)
	}
}
