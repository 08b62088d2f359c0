package strategies

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/indicators"
	"github.com/rustyeddy/tradergame/market"
	"github.com/rustyeddy/tradergame/sim"
)

// RegimeConfig tunes the regime strategy.
type RegimeConfig struct {
	FastPeriod int `json:"fast_period" yaml:"fast_period"` // 10
	SlowPeriod int `json:"slow_period" yaml:"slow_period"` // 50
	// MinHistory is the number of samples required before acting at all.
	MinHistory int `json:"min_history" yaml:"min_history"`
	// Cooldown is the minimum tick gap between two actions.
	Cooldown int `json:"cooldown" yaml:"cooldown"`
	// DipThreshold buys a Range dip when price < base * DipThreshold.
	DipThreshold float64 `json:"dip_threshold" yaml:"dip_threshold"`
	TakeProfit   float64 `json:"take_profit" yaml:"take_profit"`
	StopLoss     float64 `json:"stop_loss" yaml:"stop_loss"`
	// StrictSlowWindow withholds the trend signal until SlowPeriod samples
	// exist instead of averaging over a shorter tail.
	StrictSlowWindow bool `json:"strict_slow_window" yaml:"strict_slow_window"`
	// Fraction of cash deployed per buy; zero means the full balance.
	Fraction float64 `json:"fraction" yaml:"fraction"`
}

func DefaultRegimeConfig() RegimeConfig {
	return RegimeConfig{
		FastPeriod:       10,
		SlowPeriod:       50,
		MinHistory:       20,
		Cooldown:         20,
		DipThreshold:     0.99,
		TakeProfit:       0.05,
		StopLoss:         0.02,
		StrictSlowWindow: true,
	}
}

// Regime buys trends and range dips and exits on a fixed take-profit or
// stop-loss, never acting twice within the cooldown.
type Regime struct {
	RegimeConfig

	lastAction int
	log        *zap.Logger
}

func NewRegime(cfg RegimeConfig) *Regime {
	d := DefaultRegimeConfig()
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = d.FastPeriod
	}
	if cfg.SlowPeriod <= 0 {
		cfg.SlowPeriod = d.SlowPeriod
	}
	if cfg.MinHistory <= 0 {
		cfg.MinHistory = d.MinHistory
	}
	return &Regime{RegimeConfig: cfg, log: zap.NewNop()}
}

// WithLogger sets the logger used for decisions.
func (s *Regime) WithLogger(log *zap.Logger) *Regime {
	if log != nil {
		s.log = log
	}
	return s
}

func (s *Regime) Name() string { return "regime" }

// LastActionTick is the tick of the most recent action, 0 if none.
func (s *Regime) LastActionTick() int { return s.lastAction }

func (s *Regime) SetLastActionTick(tick int) { s.lastAction = tick }

// Signal is the moving-average reading at one tick.
type Signal struct {
	Fast     float64
	Slow     float64
	Uptrend  bool
	HaveSlow bool
}

// Signal computes the fast/slow averages over history.
func (s *Regime) Signal(history []float64) Signal {
	sig := Signal{Fast: indicators.TailMean(history, s.FastPeriod)}
	if s.StrictSlowWindow {
		slow, err := indicators.MA(history, s.SlowPeriod)
		if err == nil {
			sig.Slow = slow
			sig.HaveSlow = true
		}
	} else {
		sig.Slow = indicators.TailMean(history, s.SlowPeriod)
		sig.HaveSlow = len(history) > 0
	}
	sig.Uptrend = sig.HaveSlow && sig.Fast > sig.Slow
	return sig
}

func (s *Regime) OnTick(ctx context.Context, b broker.Broker, snap market.Snapshot) error {
	if len(snap.History) < s.MinHistory {
		return nil
	}

	sig := s.Signal(snap.History)

	if s.lastAction > 0 && snap.Tick-s.lastAction < s.Cooldown {
		return nil
	}

	acct, err := b.GetAccount(ctx)
	if err != nil {
		return err
	}

	if !acct.Position.Open() {
		reason := ""
		switch {
		case snap.Regime == market.TrendUp && sig.Uptrend:
			reason = "TrendEntry"
		case snap.Regime == market.Range && snap.Price < snap.BaseValue*s.DipThreshold:
			reason = "DipEntry"
		}
		if reason == "" {
			return nil
		}

		s.lastAction = snap.Tick
		_, err := b.Buy(ctx, broker.BuyRequest{Fraction: s.Fraction, Reason: reason})
		switch {
		case errors.Is(err, sim.ErrInsufficientFunds), errors.Is(err, sim.ErrTradingNotPermitted):
			s.log.Debug("buy skipped", zap.Int("tick", snap.Tick), zap.String("reason", reason), zap.Error(err))
			return nil
		case err != nil:
			return err
		}
		s.log.Debug("auto buy",
			zap.Int("tick", snap.Tick),
			zap.String("reason", reason),
			zap.Float64("fast", sig.Fast),
			zap.Float64("slow", sig.Slow))
		return nil
	}

	pnl := acct.Position.Return(snap.Price)
	reason := ""
	switch {
	case pnl > s.TakeProfit:
		reason = "TakeProfit"
	case pnl < -s.StopLoss:
		reason = "StopLoss"
	}
	if reason == "" {
		return nil
	}

	s.lastAction = snap.Tick
	if _, err := b.Sell(ctx, reason); err != nil && !errors.Is(err, sim.ErrNoOpenPosition) {
		return err
	}
	s.log.Debug("auto sell", zap.Int("tick", snap.Tick), zap.String("reason", reason), zap.Float64("pnl", pnl))
	return nil
}
