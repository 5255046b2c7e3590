package signal

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	reAction      = regexp.MustCompile(`(?i)(buy|sell)`)
	reSLColon     = regexp.MustCompile(`SL\s*:\s*([\d.]+)`)
	reSLField     = regexp.MustCompile(`SL:\s*([\d.]+)`)
	reSymbolField = regexp.MustCompile(`Symbol:\s*([A-Z]+)`)

	reTPLevelsMarker = regexp.MustCompile(`(?i)TP-levels`)
	reCommaSymbol    = regexp.MustCompile(`,\s*([A-Z]+[A-Z0-9]*)`)
	rePriceEquals    = regexp.MustCompile(`price\s*=\s*([\d.]+)`)
	reTPLevelValue   = regexp.MustCompile(`TP-levels\s*:\s*([\d.]+)`)

	reBannerMarker = regexp.MustCompile(`(?i)Smart Signal Alert!`)
	reBannerSymbol = regexp.MustCompile(`(BTCUSDT|[A-Z]{6})`)
	reEntryField   = regexp.MustCompile(`Entry:\s*([\d.]+)`)
	reNumberedTP   = regexp.MustCompile(`TP(\d):\s*([\d.]+)`)

	reEntryPhrase = regexp.MustCompile(`(?i)(Long|Short) entry`)
	reEntryPrice  = regexp.MustCompile(`Entry price:\s*([\d.]+)`)
	reAnyTP       = regexp.MustCompile(`TP\d:\s*([\d.]+)`)

	reDirectionMarker = regexp.MustCompile(`(?i)Direction:`)
	reSymbolMarker    = regexp.MustCompile(`(?i)Symbol:`)
	reSymbolAlnum     = regexp.MustCompile(`Symbol:\s*([A-Z0-9]+)`)
	reDirectionValue  = regexp.MustCompile(`(?i)Direction:\s*(Buy|Sell)`)
	reTP1Field        = regexp.MustCompile(`TP1:\s*([\d.]+)`)
	reTP2Field        = regexp.MustCompile(`TP2:\s*([\d.]+)`)
)

func actionFromToken(token string) (Action, bool) {
	switch strings.ToLower(token) {
	case "buy":
		return ActionBuy, true
	case "sell":
		return ActionSell, true
	}
	return "", false
}

func captured(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func capturedPrice(re *regexp.Regexp, text string) (float64, bool) {
	tok, ok := captured(re, text)
	if !ok {
		return 0, false
	}
	return parsePrice(tok)
}

// tpLevelsDialect: comma-separated header with a leading numeric id, entry as
// "price = <num>", any number of "TP-levels: <num>" lines and one "SL: <num>".
type tpLevelsDialect struct{}

func (tpLevelsDialect) name() string { return "tp-levels" }

func (tpLevelsDialect) matches(text string) bool {
	return reTPLevelsMarker.MatchString(text)
}

func (d tpLevelsDialect) extract(text string) (*TradeIntent, error) {
	intent := &TradeIntent{}
	if tok, ok := captured(reAction, text); ok {
		intent.Action, _ = actionFromToken(tok)
	}
	intent.Symbol, _ = captured(reCommaSymbol, text)
	if v, ok := capturedPrice(rePriceEquals, text); ok {
		intent.EntryPrice = v
	}
	for _, m := range reTPLevelValue.FindAllStringSubmatch(text, -1) {
		v, ok := parsePrice(m[1])
		if !ok {
			return nil, failure(d.name(), ErrIncompleteFields)
		}
		intent.TakeProfits = append(intent.TakeProfits, v)
	}
	if v, ok := capturedPrice(reSLColon, text); ok {
		intent.StopLoss = v
	}
	return intent, nil
}

// bannerDialect: "Smart Signal Alert!" banner, symbol is either the fixed
// crypto pair token or a 6-letter forex code, TPs are numbered TP<n> fields.
type bannerDialect struct{}

func (bannerDialect) name() string { return "banner" }

func (bannerDialect) matches(text string) bool {
	return reBannerMarker.MatchString(text)
}

func (d bannerDialect) extract(text string) (*TradeIntent, error) {
	intent := &TradeIntent{}
	if tok, ok := captured(reAction, text); ok {
		intent.Action, _ = actionFromToken(tok)
	}
	intent.Symbol, _ = captured(reBannerSymbol, text)
	if v, ok := capturedPrice(reEntryField, text); ok {
		intent.EntryPrice = v
	}
	// TP numbering may have gaps; order by the numeric suffix, keep values.
	type numberedTP struct {
		n     int
		value float64
	}
	var tps []numberedTP
	for _, m := range reNumberedTP.FindAllStringSubmatch(text, -1) {
		v, ok := parsePrice(m[2])
		if !ok {
			return nil, failure(d.name(), ErrIncompleteFields)
		}
		tps = append(tps, numberedTP{n: int(m[1][0] - '0'), value: v})
	}
	sort.SliceStable(tps, func(i, j int) bool { return tps[i].n < tps[j].n })
	for _, tp := range tps {
		intent.TakeProfits = append(intent.TakeProfits, tp.value)
	}
	if v, ok := capturedPrice(reSLColon, text); ok {
		intent.StopLoss = v
	}
	return intent, nil
}

// entryPhraseDialect: direction comes from a "Long entry"/"Short entry"
// phrase rather than a Buy/Sell token.
type entryPhraseDialect struct{}

func (entryPhraseDialect) name() string { return "entry-phrase" }

func (entryPhraseDialect) matches(text string) bool {
	return reEntryPhrase.MatchString(text)
}

func (d entryPhraseDialect) extract(text string) (*TradeIntent, error) {
	intent := &TradeIntent{}
	if tok, ok := captured(reEntryPhrase, text); ok {
		if strings.EqualFold(tok, "long") {
			intent.Action = ActionBuy
		} else {
			intent.Action = ActionSell
		}
	}
	intent.Symbol, _ = captured(reSymbolField, text)
	if v, ok := capturedPrice(reEntryPrice, text); ok {
		intent.EntryPrice = v
	}
	for _, m := range reAnyTP.FindAllStringSubmatch(text, -1) {
		v, ok := parsePrice(m[1])
		if !ok {
			return nil, failure(d.name(), ErrIncompleteFields)
		}
		intent.TakeProfits = append(intent.TakeProfits, v)
	}
	if v, ok := capturedPrice(reSLField, text); ok {
		intent.StopLoss = v
	}
	return intent, nil
}

// embeddedJSONDialect: a plain-text Symbol: header followed by a JSON object
// carrying side/entry/tp1..tp4/stop. The first "{" in the text starts the
// payload.
type embeddedJSONDialect struct{}

func (embeddedJSONDialect) name() string { return "embedded-json" }

func (embeddedJSONDialect) matches(text string) bool {
	return reSymbolMarker.MatchString(text) &&
		!reDirectionMarker.MatchString(text) &&
		strings.Contains(text, "{")
}

func (d embeddedJSONDialect) extract(text string) (*TradeIntent, error) {
	intent := &TradeIntent{}
	sym, ok := captured(reSymbolField, text)
	if !ok {
		return nil, failure(d.name(), ErrIncompleteFields)
	}
	intent.Symbol = sym

	payload := text[strings.Index(text, "{"):]
	if !gjson.Valid(payload) {
		return nil, failure(d.name(), ErrMalformedPayload)
	}
	doc := gjson.Parse(payload)

	if strings.EqualFold(doc.Get("side").String(), "LONG") {
		intent.Action = ActionBuy
	} else {
		intent.Action = ActionSell
	}
	if entry := doc.Get("entry"); entry.Exists() {
		intent.EntryPrice = entry.Float()
	}
	for _, key := range []string{"tp1", "tp2", "tp3", "tp4"} {
		tp := doc.Get(key)
		if tp.Exists() && tp.Float() != 0 {
			intent.TakeProfits = append(intent.TakeProfits, tp.Float())
		}
	}
	if stop := doc.Get("stop"); stop.Exists() {
		intent.StopLoss = stop.Float()
	}
	return intent, nil
}

// directionDialect: explicit Symbol:/Direction: fields with at most two
// numbered take-profits.
type directionDialect struct{}

func (directionDialect) name() string { return "direction" }

func (directionDialect) matches(text string) bool {
	return reDirectionMarker.MatchString(text)
}

func (d directionDialect) extract(text string) (*TradeIntent, error) {
	intent := &TradeIntent{}
	sym, okSym := captured(reSymbolAlnum, text)
	dir, okDir := captured(reDirectionValue, text)
	if !okSym || !okDir {
		return nil, failure(d.name(), ErrIncompleteFields)
	}
	intent.Symbol = sym
	intent.Action, _ = actionFromToken(dir)
	if v, ok := capturedPrice(reEntryField, text); ok {
		intent.EntryPrice = v
	}
	if v, ok := capturedPrice(reTP1Field, text); ok {
		intent.TakeProfits = append(intent.TakeProfits, v)
	}
	if v, ok := capturedPrice(reTP2Field, text); ok {
		intent.TakeProfits = append(intent.TakeProfits, v)
	}
	if v, ok := capturedPrice(reSLField, text); ok {
		intent.StopLoss = v
	}
	return intent, nil
}
