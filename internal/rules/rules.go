// Package rules loads the scoring rule catalogue and keeps it current.
package rules

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"

	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// Provider serves rule lookups from the current catalogue.
// It is safe for concurrent use and can be reloaded in place.
type Provider struct {
	mu          sync.RWMutex
	set         *schema.RuleSet
	fingerprint string
	path        string
}

var _ contract.RuleProvider = &Provider{} // Compile-time check

// NewProvider wraps an already built catalogue.
func NewProvider(set *schema.RuleSet) *Provider {
	p := &Provider{}
	p.swap(set)
	return p
}

// Load reads a rules file. An empty path yields the built-in catalogue.
func Load(path string) (*Provider, error) {
	if path == "" {
		return NewProvider(DefaultRuleSet()), nil
	}
	set, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := NewProvider(set)
	p.path = path
	return p, nil
}

// ReadFile parses a rules file in the format its extension names.
func ReadFile(path string) (*schema.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data, FormatFromPath(path))
}

// Path returns the file the catalogue was loaded from, if any.
func (p *Provider) Path() string {
	return p.path
}

// Reload re-reads the rules file. On error the current catalogue is kept.
func (p *Provider) Reload() error {
	if p.path == "" {
		return nil
	}
	set, err := ReadFile(p.path)
	if err != nil {
		return err
	}
	p.swap(set)
	return nil
}

// Lookup finds a template by kind and key.
func (p *Provider) Lookup(kind schema.RuleKind, key schema.RuleKey) (schema.Rule, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.set.Lookup(kind, key)
}

// GetScoringRuleTemplate finds a template by option category and rule key,
// looking in the bool section first.
func (p *Provider) GetScoringRuleTemplate(optionCategory, ruleKey string) (schema.Rule, bool) {
	key := schema.RuleKey{OptionCategory: optionCategory, Rule: ruleKey}
	if r, ok := p.Lookup(schema.BooleanRuleKind, key); ok {
		return r, true
	}
	return p.Lookup(schema.BucketRuleKind, key)
}

// RuleSet returns the current catalogue. Callers must not modify it.
func (p *Provider) RuleSet() *schema.RuleSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.set
}

// Fingerprint returns a hash of the current catalogue.
func (p *Provider) Fingerprint() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fingerprint
}

// Snapshot returns the current catalogue and its fingerprint as one consistent pair.
func (p *Provider) Snapshot() (*schema.RuleSet, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.set, p.fingerprint
}

func (p *Provider) swap(set *schema.RuleSet) {
	fp := fingerprint(set)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set = set
	p.fingerprint = fp
}

// fingerprint hashes the canonical JSON encoding; map keys are sorted by encoding/json.
func fingerprint(set *schema.RuleSet) string {
	data, err := Marshal(set, JSONFormat)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
