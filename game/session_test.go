package game

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/journal"
	"github.com/rustyeddy/tradergame/market"
	"github.com/rustyeddy/tradergame/sim"
	"github.com/rustyeddy/tradergame/strategies"
)

type recordingStrategy struct {
	snaps []market.Snapshot
}

func (r *recordingStrategy) Name() string { return "recording" }

func (r *recordingStrategy) OnTick(ctx context.Context, b broker.Broker, snap market.Snapshot) error {
	r.snaps = append(r.snaps, snap)
	return nil
}

func newTestSession(t *testing.T, cfg Config, src market.Source, strat strategies.TickStrategy) *Session {
	t.Helper()
	s, err := NewSession(cfg, Deps{Source: src, Strategy: strat})
	require.NoError(t, err)
	return s
}

func advance(t *testing.T, s *Session, n int) market.Tick {
	t.Helper()
	var last market.Tick
	for i := 0; i < n; i++ {
		tk, err := s.AdvanceTick(context.Background())
		require.NoError(t, err)
		last = tk
	}
	return last
}

func TestNewSessionRequiresSource(t *testing.T) {
	_, err := NewSession(DefaultConfig(), Deps{})
	assert.Error(t, err)
}

func TestManualRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.StartingBalance = 100
	cfg.InitialPrice = 100

	// Zero noise: Range holds the price at 100 for 200 ticks, then the
	// switch draw of 0.5 lands in TrendUp and price climbs 0.1 per tick.
	s := newTestSession(t, cfg, market.ConstSource(0.5), nil)

	pos, err := s.Buy(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pos.Shares)
	assert.Equal(t, 100.0, pos.AvgCost)
	assert.Equal(t, 0.0, s.Account().Balance)

	tk := advance(t, s, 200)
	assert.Equal(t, market.Range, tk.Regime)
	assert.InDelta(t, 100.0, tk.Price, 1e-9)

	tk = advance(t, s, 100)
	assert.Equal(t, market.TrendUp, tk.Regime)
	assert.InDelta(t, 110.0, tk.Price, 1e-6)

	trade, err := s.Sell(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, trade.Profit, 1e-6)
	assert.InDelta(t, 110.0, s.Account().Balance, 1e-6)
	assert.Equal(t, 10, trade.XP)
	assert.Equal(t, 10, s.Progression().XP)
	assert.Equal(t, "Manual", trade.Reason)

	_, err = s.Sell(ctx)
	assert.ErrorIs(t, err, sim.ErrNoOpenPosition)
}

func TestBuyRejections(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.StartingBalance = 50
	cfg.InitialPrice = 100
	s := newTestSession(t, cfg, market.ConstSource(0.5), nil)

	_, err := s.Buy(ctx, 0)
	assert.ErrorIs(t, err, sim.ErrInsufficientFunds)
	_, err = s.Buy(ctx, 1.5)
	assert.ErrorIs(t, err, sim.ErrInvalidFraction)
	assert.Equal(t, 50.0, s.Account().Balance)
}

func TestHistoryIsBounded(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), market.NewSeededSource(7), nil)
	assert.Empty(t, s.HistorySnapshot())

	tk := advance(t, s, 150)
	h := s.HistorySnapshot()
	require.Len(t, h, market.DefaultHistorySize)
	assert.Equal(t, tk.Price, h[len(h)-1])
	assert.Equal(t, s.Market().Price, tk.Price)
}

func TestStrategyCadence(t *testing.T) {
	rec := &recordingStrategy{}
	s := newTestSession(t, DefaultConfig(), market.NewSeededSource(1), rec)

	advance(t, s, 35)
	assert.Empty(t, rec.snaps, "auto trading is off by default")

	s.SetAutoTradingEnabled(true)
	assert.True(t, s.AutoTradingEnabled())
	advance(t, s, 34)

	require.Len(t, rec.snaps, 3)
	for i, snap := range rec.snaps {
		assert.Equal(t, 40+10*i, snap.Tick)
		assert.Equal(t, snap.Price, snap.History[len(snap.History)-1])
	}
}

func TestAutoTradingTrendCycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartingBalance = 1000
	cfg.InitialPrice = 100
	s := newTestSession(t, cfg, market.ConstSource(0.5), strategies.NewRegime(strategies.DefaultRegimeConfig()))

	var trades []broker.RealizedTrade
	s.SetTradeHandler(func(tr broker.RealizedTrade) { trades = append(trades, tr) })

	s.Force(market.TrendUp)
	s.SetAutoTradingEnabled(true)

	// Tick 50 is the first with a full slow window: trend entry at 105.
	advance(t, s, 50)
	acct := s.Account()
	require.True(t, acct.Position.Open())
	assert.InDelta(t, 105.0, acct.Position.AvgCost, 1e-6)
	assert.Equal(t, 9.0, acct.Position.Shares)
	assert.Equal(t, 50, acct.Position.OpenTick)

	// Take profit needs > 110.25, first reached on the tick-110 check.
	advance(t, s, 59)
	assert.Empty(t, trades)
	advance(t, s, 1)
	require.Len(t, trades, 1)
	assert.Equal(t, "TakeProfit", trades[0].Reason)
	assert.Equal(t, 110, trades[0].CloseTick)
	assert.True(t, trades[0].Win())

	// Cooldown skips tick 120; re-entry at 130.
	advance(t, s, 10)
	assert.False(t, s.Account().Position.Open())
	advance(t, s, 10)
	assert.True(t, s.Account().Position.Open())

	sum := s.Summary()
	assert.Equal(t, 130, sum.Ticks)
	assert.Equal(t, 1, sum.Trades)
	assert.Equal(t, 1, sum.Wins)
	assert.Equal(t, 0, sum.Losses)
	assert.InDelta(t, 1.0, sum.WinRate(), 1e-9)
}

func TestTradesAreJournaled(t *testing.T) {
	ctx := context.Background()
	j := &journal.Memory{}
	cfg := DefaultConfig()
	s, err := NewSession(cfg, Deps{Source: market.ConstSource(0.5), Journal: j})
	require.NoError(t, err)

	_, err = s.Buy(ctx, 0.5)
	require.NoError(t, err)
	advance(t, s, 20)
	_, err = s.Sell(ctx)
	require.NoError(t, err)

	require.Len(t, j.Trades, 1)
	assert.Equal(t, "Range", j.Trades[0].Regime)
	assert.Equal(t, 20, j.Trades[0].CloseTick)
	assert.Len(t, j.Equity, 2)
}

func TestMaxDrawdown(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.StartingBalance = 100
	cfg.InitialPrice = 100
	s := newTestSession(t, cfg, market.ConstSource(0.5), nil)

	_, err := s.Buy(ctx, 0)
	require.NoError(t, err)
	s.Force(market.TrendDown)
	advance(t, s, 100)

	sum := s.Summary()
	assert.InDelta(t, 0.10, sum.MaxDrawdown, 1e-6)
	assert.InDelta(t, 100.0, sum.PeakEquity, 1e-9)
	assert.InDelta(t, 90.0, sum.Equity, 1e-6)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, Summary{Ticks: 42, Trades: 4, Wins: 3, Losses: 1, MaxDrawdown: 0.125, Level: 2, Bankrupt: true})

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "SESSION SUMMARY")
	assert.Contains(t, out, "Win Rate")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "12.50%")
	assert.Contains(t, out, "BANKRUPT")
}
