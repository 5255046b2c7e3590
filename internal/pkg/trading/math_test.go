package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sigbridge/internal/signal"
)

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 1.20001, RoundPrice(1.2000149, 5))
	assert.Equal(t, 65000.12, RoundPrice(65000.1234, 2))
	assert.Equal(t, 155.0, RoundPrice(155.4, 0))
}

func TestHalfVolume(t *testing.T) {
	assert.Equal(t, 0.05, HalfVolume(0.1))
	assert.Equal(t, 0.02, HalfVolume(0.03)) // 0.015 rounds half away from zero
	assert.Equal(t, 50.0, HalfVolume(100))
}

func TestPoint(t *testing.T) {
	assert.Equal(t, 0.00001, Point(5))
	assert.Equal(t, 0.01, Point(2))
	assert.Equal(t, 1.0, Point(0))
}

func TestTargetReached(t *testing.T) {
	// buy: fires at or slightly before the level, never only after overshoot
	assert.True(t, TargetReached(signal.ActionBuy, 1.2099, 1.2100, 0.0005))
	assert.True(t, TargetReached(signal.ActionBuy, 1.2100, 1.2100, 0.0005))
	assert.False(t, TargetReached(signal.ActionBuy, 1.2080, 1.2100, 0.0005))

	// sell mirrors the band above the level
	assert.True(t, TargetReached(signal.ActionSell, 1.1903, 1.1900, 0.0005))
	assert.False(t, TargetReached(signal.ActionSell, 1.1920, 1.1900, 0.0005))

	assert.False(t, TargetReached(signal.ActionBuy, 0, 1.21, 0.0005))
}
