package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPForTrade(t *testing.T) {
	t.Parallel()

	r := DefaultProgressionRules()
	tests := []struct {
		name   string
		profit float64
		want   int
	}{
		{"small win gets minimum", 10, 10},
		{"tiny win gets minimum", 0.01, 10},
		{"large win scales", 1234, 123},
		{"floors", 259.99, 25},
		{"breakeven is a loss", 0, 5},
		{"loss", -500, 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.XPForTrade(tt.profit))
		})
	}
}

func TestAwardSingleLevel(t *testing.T) {
	t.Parallel()

	r := DefaultProgressionRules()
	p := NewProgression(r)
	assert.Equal(t, Progression{Level: 1, NextLevelXP: 1000}, p)

	assert.Equal(t, 0, p.Award(999, r))
	assert.Equal(t, 999, p.XP)

	// Remainder is discarded on level up.
	assert.Equal(t, 1, p.Award(50, r))
	assert.Equal(t, Progression{Level: 2, XP: 0, NextLevelXP: 1500}, p)
}

func TestAwardIgnoresNonPositive(t *testing.T) {
	t.Parallel()

	r := DefaultProgressionRules()
	p := NewProgression(r)
	assert.Equal(t, 0, p.Award(0, r))
	assert.Equal(t, 0, p.Award(-10, r))
	assert.Equal(t, 0, p.XP)
}

func TestAwardGuardsZeroThreshold(t *testing.T) {
	t.Parallel()

	r := DefaultProgressionRules()
	p := Progression{Level: 1}
	assert.Equal(t, 0, p.Award(10, r))
	assert.Equal(t, 1, p.Level)
}

func TestLevelingMonotonic(t *testing.T) {
	t.Parallel()

	r := DefaultProgressionRules()
	p := NewProgression(r)
	prevLevel := p.Level
	prevNext := p.NextLevelXP

	for i := 0; i < 500; i++ {
		gained := p.Award(137, r)
		assert.GreaterOrEqual(t, p.Level, prevLevel)
		if gained > 0 {
			assert.InDelta(t, prevNext*1.5, p.NextLevelXP, 1e-6)
			assert.Greater(t, p.NextLevelXP, prevNext)
		} else {
			assert.Equal(t, prevNext, p.NextLevelXP)
		}
		prevLevel = p.Level
		prevNext = p.NextLevelXP
	}
	assert.Greater(t, p.Level, 1)
}
