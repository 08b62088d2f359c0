package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickRegime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		u    float64
		want Regime
	}{
		{0.0, Range},
		{0.3999, Range},
		{0.40, TrendUp},
		{0.6499, TrendUp},
		{0.65, TrendDown},
		{0.8999, TrendDown},
		{0.90, Volatility},
		{0.9999, Volatility},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PickRegime(tt.u), "u=%v", tt.u)
		})
	}
}

func TestPickRegimeDistribution(t *testing.T) {
	t.Parallel()

	const n = 10000
	counts := map[Regime]int{}
	for i := 0; i < n; i++ {
		counts[PickRegime((float64(i)+0.5)/n)]++
	}

	assert.Equal(t, 4000, counts[Range])
	assert.Equal(t, 2500, counts[TrendUp])
	assert.Equal(t, 2500, counts[TrendDown])
	assert.Equal(t, 1000, counts[Volatility])
}

func TestRegimeParams(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.3, Range.Params().Volatility)
	assert.True(t, Range.Params().Anchor)
	assert.Equal(t, 0.5, TrendUp.Params().Volatility)
	assert.Equal(t, 0.5, TrendDown.Params().Volatility)
	assert.Equal(t, 1.5, Volatility.Params().Volatility)
	assert.False(t, Volatility.Params().Anchor)
}

func TestRegimeIncrement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		regime Regime
		state  MarketState
		u      float64
		want   float64
	}{
		{"trend up no noise", TrendUp, MarketState{Price: 100, Volatility: 0.5}, 0.5, 0.1},
		{"trend up max noise", TrendUp, MarketState{Price: 100, Volatility: 0.5}, 1.0, 0.35},
		{"trend down no noise", TrendDown, MarketState{Price: 100, Volatility: 0.5}, 0.5, -0.1},
		{"trend down min noise", TrendDown, MarketState{Price: 100, Volatility: 0.5}, 0.0, -0.35},
		{"range reverts up", Range, MarketState{Price: 90, BaseValue: 100, Volatility: 0.3}, 0.5, 0.5},
		{"range reverts down", Range, MarketState{Price: 110, BaseValue: 100, Volatility: 0.3}, 0.5, -0.5},
		{"range noise", Range, MarketState{Price: 100, BaseValue: 100, Volatility: 0.3}, 0.0, -0.15},
		// Volatility ignores the state's noise scale and swings with ×3.
		{"volatility swing", Volatility, MarketState{Price: 100, Volatility: 1.5}, 1.0, 1.5},
		{"volatility swing down", Volatility, MarketState{Price: 100, Volatility: 1.5}, 0.0, -1.5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.regime.Increment(tt.state, tt.u), 1e-12)
		})
	}
}

func TestParseRegime(t *testing.T) {
	t.Parallel()

	for _, r := range Regimes {
		got, err := ParseRegime(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	got, err := ParseRegime(" trendup ")
	require.NoError(t, err)
	assert.Equal(t, TrendUp, got)

	_, err = ParseRegime("sideways")
	assert.Error(t, err)
}

func TestRegimeText(t *testing.T) {
	t.Parallel()

	b, err := Volatility.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Volatility", string(b))

	var r Regime
	require.NoError(t, r.UnmarshalText([]byte("TrendDown")))
	assert.Equal(t, TrendDown, r)

	_, err = Regime(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "Regime(42)", Regime(42).String())
}
