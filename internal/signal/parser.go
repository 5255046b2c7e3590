package signal

import (
	"strconv"
	"strings"
)

// dialect is one recognisable alert format. matches must be cheap; extract is
// only called on the first dialect whose marker matches.
type dialect interface {
	name() string
	matches(text string) bool
	extract(text string) (*TradeIntent, error)
}

// Priority order matters: the markers are mutually exclusive by construction,
// but tpLevels must be probed before the generic Symbol:/Direction: dialects.
var dialects = []dialect{
	tpLevelsDialect{},
	bannerDialect{},
	entryPhraseDialect{},
	embeddedJSONDialect{},
	directionDialect{},
}

// Parse classifies raw alert text into a dialect and extracts a TradeIntent.
// Parsing is total: every input yields either an intent or a *ParseError.
func Parse(raw string) (*TradeIntent, error) {
	for _, d := range dialects {
		if !d.matches(raw) {
			continue
		}
		intent, err := d.extract(raw)
		if err != nil {
			return nil, err
		}
		if err := intent.complete(); err != nil {
			return nil, failure(d.name(), err)
		}
		return intent, nil
	}
	return nil, failure("", ErrUnknownFormat)
}

// complete enforces the all-or-nothing invariant on extracted intents.
func (t *TradeIntent) complete() error {
	if t.Action != ActionBuy && t.Action != ActionSell {
		return ErrIncompleteFields
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return ErrIncompleteFields
	}
	if t.EntryPrice == 0 || t.StopLoss == 0 {
		return ErrIncompleteFields
	}
	return nil
}

// parsePrice converts a regex-captured numeric token. Tokens like "1.2.3"
// slip through the capture class and must be reported, not panicked on.
func parsePrice(token string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
