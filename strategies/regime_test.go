package strategies

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/market"
	"github.com/rustyeddy/tradergame/sim"
)

// mockBroker records calls and holds a single position.
type mockBroker struct {
	pos      broker.Position
	buys     []broker.BuyRequest
	sells    []string
	buyErr   error
	sellErr  error
	acctErr  error
	buyPrice float64
}

func (m *mockBroker) GetAccount(ctx context.Context) (broker.Account, error) {
	return broker.Account{Position: m.pos}, m.acctErr
}

func (m *mockBroker) Buy(ctx context.Context, req broker.BuyRequest) (broker.Position, error) {
	m.buys = append(m.buys, req)
	if m.buyErr != nil {
		return m.pos, m.buyErr
	}
	m.pos = broker.Position{Shares: 1, AvgCost: m.buyPrice}
	return m.pos, nil
}

func (m *mockBroker) Sell(ctx context.Context, reason string) (broker.RealizedTrade, error) {
	m.sells = append(m.sells, reason)
	if m.sellErr != nil {
		return broker.RealizedTrade{}, m.sellErr
	}
	m.pos = broker.Position{}
	return broker.RealizedTrade{Reason: reason}, nil
}

func rising(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRegimeNeedsMinHistory(t *testing.T) {
	ctx := context.Background()
	b := &mockBroker{buyPrice: 100}
	s := NewRegime(DefaultRegimeConfig())

	// 19 samples of a strong dip in Range: would buy with one more sample.
	snap := market.Snapshot{
		Tick:      100,
		Price:     90,
		Regime:    market.Range,
		BaseValue: 100,
		History:   flat(19, 90),
	}
	require.NoError(t, s.OnTick(ctx, b, snap))
	assert.Empty(t, b.buys)

	snap.History = flat(20, 90)
	require.NoError(t, s.OnTick(ctx, b, snap))
	require.Len(t, b.buys, 1)
	assert.Equal(t, "DipEntry", b.buys[0].Reason)
}

func TestRegimeTrendEntry(t *testing.T) {
	ctx := context.Background()
	b := &mockBroker{buyPrice: 149}
	s := NewRegime(DefaultRegimeConfig())

	snap := market.Snapshot{
		Tick:    200,
		Price:   149,
		Regime:  market.TrendUp,
		History: rising(50, 100),
	}
	require.NoError(t, s.OnTick(ctx, b, snap))
	require.Len(t, b.buys, 1)
	assert.Equal(t, "TrendEntry", b.buys[0].Reason)
	assert.Equal(t, 200, s.LastActionTick())
}

func TestRegimeTrendNeedsUptrend(t *testing.T) {
	ctx := context.Background()
	b := &mockBroker{}
	s := NewRegime(DefaultRegimeConfig())

	falling := rising(50, 100)
	for i, j := 0, len(falling)-1; i < j; i, j = i+1, j-1 {
		falling[i], falling[j] = falling[j], falling[i]
	}

	snap := market.Snapshot{Tick: 200, Price: 100, Regime: market.TrendUp, History: falling}
	require.NoError(t, s.OnTick(ctx, b, snap))
	assert.Empty(t, b.buys)

	// Uptrend in TrendDown or Volatility never buys.
	for _, r := range []market.Regime{market.TrendDown, market.Volatility} {
		snap = market.Snapshot{Tick: 200, Price: 149, Regime: r, History: rising(50, 100)}
		require.NoError(t, s.OnTick(ctx, b, snap))
	}
	assert.Empty(t, b.buys)
}

func TestRegimeStrictSlowWindow(t *testing.T) {
	ctx := context.Background()
	snap := market.Snapshot{Tick: 200, Price: 129, Regime: market.TrendUp, History: rising(30, 100)}

	strict := NewRegime(DefaultRegimeConfig())
	b := &mockBroker{}
	require.NoError(t, strict.OnTick(ctx, b, snap))
	assert.Empty(t, b.buys, "strict window must wait for 50 samples")
	assert.False(t, strict.Signal(snap.History).HaveSlow)

	cfg := DefaultRegimeConfig()
	cfg.StrictSlowWindow = false
	tail := NewRegime(cfg)
	b = &mockBroker{}
	require.NoError(t, tail.OnTick(ctx, b, snap))
	assert.Len(t, b.buys, 1)

	sig := tail.Signal(snap.History)
	assert.True(t, sig.HaveSlow)
	assert.InDelta(t, 114.5, sig.Slow, 1e-9)
	assert.InDelta(t, 124.5, sig.Fast, 1e-9)
}

func TestRegimeDipThreshold(t *testing.T) {
	ctx := context.Background()
	s := NewRegime(DefaultRegimeConfig())
	b := &mockBroker{}

	// 99.0 is not strictly below 100*0.99.
	snap := market.Snapshot{Tick: 100, Price: 99.0, Regime: market.Range, BaseValue: 100, History: flat(60, 99)}
	require.NoError(t, s.OnTick(ctx, b, snap))
	assert.Empty(t, b.buys)

	snap.Price = 98.9
	require.NoError(t, s.OnTick(ctx, b, snap))
	assert.Len(t, b.buys, 1)
}

func TestRegimeTakeProfitAndStopLoss(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		price  float64
		reason string
	}{
		{"take profit", 105.01, "TakeProfit"},
		{"exactly five percent holds", 105, ""},
		{"stop loss", 97.99, "StopLoss"},
		{"exactly two percent holds", 98, ""},
		{"inside band holds", 101, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBroker{pos: broker.Position{Shares: 3, AvgCost: 100}}
			s := NewRegime(DefaultRegimeConfig())
			snap := market.Snapshot{Tick: 500, Price: tt.price, Regime: market.Volatility, History: flat(50, tt.price)}

			require.NoError(t, s.OnTick(ctx, b, snap))
			if tt.reason == "" {
				assert.Empty(t, b.sells)
				assert.Equal(t, 0, s.LastActionTick())
				return
			}
			require.Len(t, b.sells, 1)
			assert.Equal(t, tt.reason, b.sells[0])
			assert.Equal(t, 500, s.LastActionTick())
		})
	}
}

func TestRegimeCooldown(t *testing.T) {
	ctx := context.Background()
	s := NewRegime(DefaultRegimeConfig())
	b := &mockBroker{buyPrice: 90}

	dip := func(tick int, price float64) market.Snapshot {
		return market.Snapshot{Tick: tick, Price: price, Regime: market.Range, BaseValue: 100, History: flat(50, price)}
	}

	require.NoError(t, s.OnTick(ctx, b, dip(100, 90)))
	require.Len(t, b.buys, 1)

	// Stop-loss signal fires at 110 and 119 but cooldown holds it.
	require.NoError(t, s.OnTick(ctx, b, dip(110, 80)))
	require.NoError(t, s.OnTick(ctx, b, dip(119, 80)))
	assert.Empty(t, b.sells)

	require.NoError(t, s.OnTick(ctx, b, dip(120, 80)))
	require.Len(t, b.sells, 1)
	assert.Equal(t, "StopLoss", b.sells[0])

	// Re-entry waits again.
	require.NoError(t, s.OnTick(ctx, b, dip(130, 80)))
	assert.Len(t, b.buys, 1)
	require.NoError(t, s.OnTick(ctx, b, dip(140, 80)))
	assert.Len(t, b.buys, 2)
}

func TestRegimeCooldownNeverViolated(t *testing.T) {
	ctx := context.Background()
	s := NewRegime(DefaultRegimeConfig())
	b := &mockBroker{buyPrice: 90}

	var actions []int
	for tick := 20; tick <= 2000; tick += 10 {
		before := len(b.buys) + len(b.sells)
		// Alternate between a deep dip and a big gain so a signal is always present.
		price := 90.0
		if b.pos.Open() {
			price = 200
		}
		snap := market.Snapshot{Tick: tick, Price: price, Regime: market.Range, BaseValue: 100, History: flat(50, price)}
		require.NoError(t, s.OnTick(ctx, b, snap))
		if len(b.buys)+len(b.sells) > before {
			actions = append(actions, tick)
		}
	}

	require.NotEmpty(t, actions)
	for i := 1; i < len(actions); i++ {
		assert.GreaterOrEqual(t, actions[i]-actions[i-1], 20)
	}
}

func TestRegimeBuyFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	snap := market.Snapshot{Tick: 100, Price: 90, Regime: market.Range, BaseValue: 100, History: flat(50, 90)}

	for _, e := range []error{sim.ErrInsufficientFunds, sim.ErrTradingNotPermitted} {
		s := NewRegime(DefaultRegimeConfig())
		b := &mockBroker{buyErr: e}
		assert.NoError(t, s.OnTick(ctx, b, snap))
		assert.Len(t, b.buys, 1)
		// The attempt still starts the cooldown.
		assert.Equal(t, 100, s.LastActionTick())
	}

	s := NewRegime(DefaultRegimeConfig())
	b := &mockBroker{buyErr: errors.New("boom")}
	assert.Error(t, s.OnTick(ctx, b, snap))
}

func TestRegimeAccountError(t *testing.T) {
	s := NewRegime(DefaultRegimeConfig())
	b := &mockBroker{acctErr: errors.New("offline")}
	snap := market.Snapshot{Tick: 100, Price: 90, Regime: market.Range, BaseValue: 100, History: flat(50, 90)}
	assert.Error(t, s.OnTick(context.Background(), b, snap))
}

func TestRegimeFraction(t *testing.T) {
	cfg := DefaultRegimeConfig()
	cfg.Fraction = 0.25
	s := NewRegime(cfg)
	b := &mockBroker{}
	snap := market.Snapshot{Tick: 100, Price: 90, Regime: market.Range, BaseValue: 100, History: flat(50, 90)}

	require.NoError(t, s.OnTick(context.Background(), b, snap))
	require.Len(t, b.buys, 1)
	assert.Equal(t, 0.25, b.buys[0].Fraction)
}

func TestNewRegimeFillsDefaults(t *testing.T) {
	s := NewRegime(RegimeConfig{})
	assert.Equal(t, 10, s.FastPeriod)
	assert.Equal(t, 50, s.SlowPeriod)
	assert.Equal(t, 20, s.MinHistory)
	assert.Equal(t, "regime", s.Name())
}
