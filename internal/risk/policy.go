// Package risk holds the sizing policy: a configurable partition of symbols
// into instrument classes, each carrying either a risk-proportional or a
// flat-lot sizing rule.
package risk

import (
	"fmt"
	"strings"
	"time"

	"sigbridge/internal/pkg/symbol"
)

// Class is an instrument class name. Classes are disjoint symbol sets;
// classification is a lookup, never inference.
type Class string

const (
	ClassForex        Class = "forex"
	ClassEquity       Class = "equity"
	ClassMetal        Class = "metal"
	ClassBitcoin      Class = "bitcoin"
	ClassEther        Class = "ether"
	ClassAltcoin      Class = "altcoin"
	ClassUnclassified Class = "unclassified"
)

// Sizing modes. Risk-proportional is the default path; flat replaces the
// computed lot count with a fixed one.
const (
	ModeRisk = "risk"
	ModeFlat = "flat"
)

// ClassPolicy is one row of the class -> sizing rule table.
type ClassPolicy struct {
	Symbols []string `mapstructure:"symbols" yaml:"symbols"`
	Mode    string   `mapstructure:"mode" yaml:"mode"`
	Lot     float64  `mapstructure:"lot" yaml:"lot"`
}

// PolicyFile maps the on-disk policy document.
type PolicyFile struct {
	Aliases symbol.AliasTable      `mapstructure:"aliases" yaml:"aliases"`
	Classes map[string]ClassPolicy `mapstructure:"classes" yaml:"classes"`
}

// Snapshot is an immutable view of a loaded policy. Lookups are keyed by
// trimmed, upper-cased symbol.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Aliases  symbol.AliasTable

	classes  map[Class]ClassPolicy
	bySymbol map[string]Class
}

// Classify returns the instrument class for a symbol, or ClassUnclassified.
func (s Snapshot) Classify(sym string) Class {
	key := strings.ToUpper(strings.TrimSpace(sym))
	if class, ok := s.bySymbol[key]; ok {
		return class
	}
	return ClassUnclassified
}

// PolicyFor returns the class and its sizing rule. Unclassified symbols get
// the risk-proportional default.
func (s Snapshot) PolicyFor(sym string) (Class, ClassPolicy) {
	class := s.Classify(sym)
	if pol, ok := s.classes[class]; ok {
		return class, pol
	}
	return ClassUnclassified, ClassPolicy{Mode: ModeRisk}
}

func buildSnapshot(cfg PolicyFile, version int64) (Snapshot, error) {
	snap := Snapshot{
		Version:  version,
		LoadedAt: time.Now(),
		Aliases:  cfg.Aliases,
		classes:  make(map[Class]ClassPolicy, len(cfg.Classes)),
		bySymbol: make(map[string]Class),
	}
	for name, pol := range cfg.Classes {
		class := Class(strings.ToLower(strings.TrimSpace(name)))
		if class == "" || class == ClassUnclassified {
			return Snapshot{}, fmt.Errorf("invalid class name %q", name)
		}
		mode := strings.ToLower(strings.TrimSpace(pol.Mode))
		switch mode {
		case ModeRisk:
		case ModeFlat:
			if pol.Lot <= 0 {
				return Snapshot{}, fmt.Errorf("class %s: flat mode requires lot > 0", class)
			}
		default:
			return Snapshot{}, fmt.Errorf("class %s: unknown mode %q", class, pol.Mode)
		}
		pol.Mode = mode
		for _, raw := range pol.Symbols {
			key := strings.ToUpper(strings.TrimSpace(raw))
			if key == "" {
				continue
			}
			if prev, dup := snap.bySymbol[key]; dup {
				return Snapshot{}, fmt.Errorf("symbol %s assigned to both %s and %s", key, prev, class)
			}
			snap.bySymbol[key] = class
		}
		snap.classes[class] = pol
	}
	return snap, nil
}
