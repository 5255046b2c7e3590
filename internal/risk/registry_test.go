package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodPolicyYAML = `
aliases:
  strip_suffix:
    from: USDT
    to: USD
  map:
    US100: US100.cash
    US500: US500.cash
classes:
  forex:
    symbols: [EURUSD, USDCAD, USDJPY]
    mode: risk
  equity:
    symbols: [AMZN, GOOG]
    mode: flat
    lot: 100
  bitcoin:
    symbols: [BTCUSD]
    mode: flat
    lot: 0.09
`

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewRegistry_LoadsPolicyFile(t *testing.T) {
	reg, err := NewRegistry(writePolicy(t, goodPolicyYAML))
	require.NoError(t, err)

	snap := reg.Snapshot()
	assert.Equal(t, ClassForex, snap.Classify("EURUSD"))
	assert.Equal(t, ClassBitcoin, snap.Classify("BTCUSD"))
	assert.Equal(t, "US100.cash", snap.Aliases.Resolve("US100"))
	assert.Equal(t, "BTCUSD", snap.Aliases.Resolve("BTCUSDT"))
	assert.EqualValues(t, 1, snap.Version)
}

func TestNewRegistry_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing classes": `aliases: {map: {}}`,
		"empty classes":   `classes: {}`,
		"bad mode":        "classes:\n  forex:\n    symbols: [EURUSD]\n    mode: yolo\n",
		"no symbols":      "classes:\n  forex:\n    symbols: []\n    mode: risk\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry(writePolicy(t, content))
			assert.Error(t, err)
		})
	}
}

func TestRegistry_BadEditKeepsPriorSnapshot(t *testing.T) {
	path := writePolicy(t, goodPolicyYAML)
	reg, err := NewRegistry(path)
	require.NoError(t, err)

	// a schema-invalid edit after a good load must not replace the snapshot
	require.NoError(t, os.WriteFile(path, []byte("classes: {}"), 0o644))
	assert.Error(t, reg.reload())

	snap := reg.Snapshot()
	assert.Equal(t, ClassForex, snap.Classify("EURUSD"))
	assert.Equal(t, "BTCUSD", snap.Aliases.Resolve("BTCUSDT"))
	assert.EqualValues(t, 1, snap.Version)
}

func TestNewRegistry_RejectsUnknownFields(t *testing.T) {
	content := goodPolicyYAML + "\nsurprise: true\n"
	_, err := NewRegistry(writePolicy(t, content))
	assert.Error(t, err)
}
