package game

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/journal"
	"github.com/rustyeddy/tradergame/market"
	"github.com/rustyeddy/tradergame/sim"
	"github.com/rustyeddy/tradergame/strategies"
)

// ErrBankrupt is returned once the player has spent too many consecutive
// days with a negative balance. The session does not tick after that.
var ErrBankrupt = errors.New("bankrupt")

// Config is everything a session needs besides its collaborators.
type Config struct {
	StartingBalance float64
	InitialPrice    float64
	HistorySize     int
	// StrategyInterval runs the auto strategy every N ticks.
	StrategyInterval int
	Ledger           sim.Config
	Day              DayConfig
}

func DefaultConfig() Config {
	return Config{
		StartingBalance:  1000,
		InitialPrice:     100,
		HistorySize:      market.DefaultHistorySize,
		StrategyInterval: 10,
		Ledger:           sim.DefaultConfig(),
	}
}

// Deps are the session's collaborators. Source is required; the rest fall
// back to no-op implementations.
type Deps struct {
	Source   market.Source
	Strategy strategies.TickStrategy
	Journal  journal.Journal
	Log      *zap.Logger
}

// cooldownTracker is implemented by strategies whose cooldown survives a
// save and restore.
type cooldownTracker interface {
	LastActionTick() int
	SetLastActionTick(int)
}

// Session drives one game: the price process, its history, the simulated
// account and the optional auto strategy. It is not safe for concurrent use.
type Session struct {
	cfg      Config
	rng      market.Source
	process  *market.Process
	history  *market.History
	engine   *sim.Engine
	strategy strategies.TickStrategy
	auto     bool
	day      DayState
	stats    *tracker
	log      *zap.Logger
}

func NewSession(cfg Config, deps Deps) (*Session, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("game: random source is required")
	}
	if deps.Strategy == nil {
		deps.Strategy = strategies.NoopStrategy{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if cfg.StrategyInterval <= 0 {
		cfg.StrategyInterval = 10
	}
	if cfg.Day.TicksPerDay < 0 {
		return nil, fmt.Errorf("game: ticks per day must be >= 0")
	}

	s := &Session{
		cfg:      cfg,
		rng:      deps.Source,
		process:  market.NewProcess(deps.Source, cfg.InitialPrice, deps.Log.Named("market")),
		history:  market.NewHistory(cfg.HistorySize),
		engine:   sim.NewEngine(cfg.StartingBalance, cfg.Ledger, deps.Journal, deps.Log.Named("ledger")),
		strategy: deps.Strategy,
		day:      newDayState(),
		log:      deps.Log,
	}
	s.mark()
	s.stats = newTracker(s.engine.Equity)
	s.engine.SetTradeClosedListener(s.stats)
	s.syncPermission()
	return s, nil
}

// SetTradeHandler registers fn to receive every realized trade, manual or
// automatic.
func (s *Session) SetTradeHandler(fn func(broker.RealizedTrade)) {
	s.stats.notify = fn
}

// AdvanceTick moves the market one step and runs everything hanging off it:
// history, mark price, the auto strategy on its cadence and the day cycle.
func (s *Session) AdvanceTick(ctx context.Context) (market.Tick, error) {
	if s.day.Failed {
		return market.Tick{}, ErrBankrupt
	}
	if err := ctx.Err(); err != nil {
		return market.Tick{}, err
	}

	t := s.process.Advance()
	s.history.Push(t.Price)
	if err := s.engine.UpdatePrice(t); err != nil {
		s.log.Warn("journal equity", zap.Int("tick", t.Index), zap.Error(err))
	}

	if s.auto && t.Index%s.cfg.StrategyInterval == 0 {
		if err := s.strategy.OnTick(ctx, s.engine, s.snapshot(t)); err != nil {
			return t, fmt.Errorf("strategy %s at tick %d: %w", s.strategy.Name(), t.Index, err)
		}
	}

	s.stats.observe()

	if err := s.advanceDay(); err != nil {
		return t, err
	}
	return t, nil
}

func (s *Session) snapshot(t market.Tick) market.Snapshot {
	st := s.process.State()
	return market.Snapshot{
		Tick:      t.Index,
		Price:     t.Price,
		Regime:    t.Regime,
		BaseValue: st.BaseValue,
		History:   s.history.Snapshot(),
	}
}

// HistorySnapshot returns the recent prices, oldest first.
func (s *Session) HistorySnapshot() []float64 { return s.history.Snapshot() }

func (s *Session) SetAutoTradingEnabled(on bool) {
	if on != s.auto {
		s.log.Info("auto trading", zap.Bool("enabled", on), zap.String("strategy", s.strategy.Name()))
	}
	s.auto = on
}

func (s *Session) AutoTradingEnabled() bool { return s.auto }

// Buy spends fraction of the cash balance at the current price. A zero
// fraction spends all of it.
func (s *Session) Buy(ctx context.Context, fraction float64) (broker.Position, error) {
	if s.day.Failed {
		return broker.Position{}, ErrBankrupt
	}
	return s.engine.Buy(ctx, broker.BuyRequest{Fraction: fraction, Reason: "Manual"})
}

// Sell closes the whole position at the current price.
func (s *Session) Sell(ctx context.Context) (broker.RealizedTrade, error) {
	return s.engine.Sell(ctx, "Manual")
}

func (s *Session) Progression() sim.Progression { return s.engine.Progression() }

// Account reports cash, equity and the open position.
func (s *Session) Account() broker.Account {
	acct, _ := s.engine.GetAccount(context.Background())
	return acct
}

// Market returns the price process state. The regime is hidden from the
// player; callers that render it are debugging.
func (s *Session) Market() market.MarketState { return s.process.State() }

// Force switches the market into r immediately.
func (s *Session) Force(r market.Regime) {
	s.process.Force(r)
	s.mark()
}

func (s *Session) StrategyName() string { return s.strategy.Name() }

// mark points the engine at the process's current price.
func (s *Session) mark() {
	st := s.process.State()
	s.engine.Mark(market.Tick{Index: st.TickCount, Price: st.Price, Regime: st.Regime})
}
