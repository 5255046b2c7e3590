package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTable() AliasTable {
	return AliasTable{
		StripSuffix: SuffixRule{From: "USDT", To: "USD"},
		Map: map[string]string{
			"US100": "US100.cash",
			"US500": "US500.cash",
		},
	}
}

func TestAliasTable_Resolve(t *testing.T) {
	table := testTable()

	assert.Equal(t, "BTCUSD", table.Resolve("BTCUSDT"))
	assert.Equal(t, "US100.cash", table.Resolve("US100"))
	assert.Equal(t, "US500.cash", table.Resolve(" US500 "))
	assert.Equal(t, "EURUSD", table.Resolve("EURUSD"))
	assert.Equal(t, "", table.Resolve("   "))
}

func TestAliasTable_ResolveIdempotent(t *testing.T) {
	table := testTable()

	for _, raw := range []string{"BTCUSDT", "US100", "US100.cash", "EURUSD", "XAUUSD"} {
		once := table.Resolve(raw)
		assert.Equal(t, once, table.Resolve(once), "resolve must be a no-op on %q", once)
	}
}
