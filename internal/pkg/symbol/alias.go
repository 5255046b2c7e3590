// Package symbol normalises instrument identifiers between signal providers
// and the execution venue.
package symbol

import "strings"

// SuffixRule rewrites a quote-currency suffix (e.g. USDT -> USD). The rewrite
// only fires on an exact suffix, so an already-rewritten symbol passes
// through untouched.
type SuffixRule struct {
	From string `mapstructure:"from" yaml:"from"`
	To   string `mapstructure:"to" yaml:"to"`
}

// AliasTable maps signal-side symbols to venue-qualified ones. The table is
// data, loaded from the policy file, so venue-specific names never leak into
// call sites.
type AliasTable struct {
	StripSuffix SuffixRule        `mapstructure:"strip_suffix" yaml:"strip_suffix"`
	Map         map[string]string `mapstructure:"map" yaml:"map"`
}

// Resolve applies the alias transform. The transform is idempotent:
// Resolve(Resolve(s)) == Resolve(s) for every s.
func (t AliasTable) Resolve(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if from := t.StripSuffix.From; from != "" && strings.HasSuffix(s, from) {
		s = s[:len(s)-len(from)] + t.StripSuffix.To
	}
	if mapped, ok := t.Map[s]; ok && mapped != "" {
		return mapped
	}
	return s
}
