// Package core has core logic for ranking domains and maintaining their data.
package core

import (
	"context"
	"time"

	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/internal/outwriter"
	"github.com/thaafei/domainx/schema"
)

// ExecutorFunc defines the function signature for the CLI entry points.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, rules contract.RuleProvider) error

// ExecuteRanking ranks one domain, or every domain when cfg.AllDomains is set, and writes the results.
func ExecuteRanking(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, rules contract.RuleProvider) error {
	start := time.Now()

	var reports []*schema.RankingReport
	if cfg.AllDomains {
		all, err := GetAllDomainRankings(ctx, cfg, mgr, rules)
		if err != nil {
			return err
		}
		reports = all
	} else {
		report, err := GetDomainRanking(ctx, cfg, mgr, rules)
		if err != nil {
			return err
		}
		reports = []*schema.RankingReport{report}
	}

	return outwriter.NewOutWriter().WriteRankings(reports, cfg, time.Since(start))
}

// ExecuteDomains lists every domain with its library and metric counts.
func ExecuteDomains(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, _ contract.RuleProvider) error {
	domains, err := mgr.GetDomainStore().ListDomains(ctx)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteDomains(domains, cfg)
}

// ExecuteDomainDetail prints one domain with its metrics and categories.
func ExecuteDomainDetail(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, _ contract.RuleProvider) error {
	detail, err := GetDomainDetail(ctx, mgr.GetDomainStore(), cfg.DomainID, algo.Options{Unranged: cfg.NumericUnranged})
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteDomainDetail(detail, cfg)
}

// ExecuteValuesTable prints the raw metric values of a domain as a library by metric grid.
func ExecuteValuesTable(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, _ contract.RuleProvider) error {
	snap, err := mgr.GetDomainStore().LoadDomainSnapshot(ctx, cfg.DomainID)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteValues(snap, cfg)
}

// ExecuteWeights prints the weights a ranking of the domain would use.
func ExecuteWeights(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, _ contract.RuleProvider) error {
	store := mgr.GetDomainStore()
	domain, err := store.GetDomain(ctx, cfg.DomainID)
	if err != nil {
		return err
	}
	weights, source, err := GetEffectiveWeights(ctx, store, cfg.DomainID, algo.Options{Unranged: cfg.NumericUnranged})
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteWeights(domain, weights, source, cfg)
}

// ExecuteRules prints the loaded rules catalogue.
func ExecuteRules(_ context.Context, cfg *contract.Config, _ contract.StoreManager, rules contract.RuleProvider) error {
	return outwriter.NewOutWriter().WriteRules(rules.RuleSet(), cfg)
}
