package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/internal/id"
	"github.com/rustyeddy/tradergame/journal"
	"github.com/rustyeddy/tradergame/market"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNoOpenPosition      = errors.New("no open position")
	ErrTradingNotPermitted = errors.New("trading not permitted")
	ErrInvalidFraction     = errors.New("sizing fraction must be in (0,1]")
)

// Config holds the ledger rules.
type Config struct {
	// CommissionRate is charged on the notional of each leg. Zero disables it.
	CommissionRate float64
	// EquityEvery records an equity snapshot every N ticks; zero disables it.
	EquityEvery int
	Progression ProgressionRules
}

func DefaultConfig() Config {
	return Config{
		EquityEvery: 10,
		Progression: DefaultProgressionRules(),
	}
}

// Ledger is the persisted part of the engine.
type Ledger struct {
	Balance     float64
	Position    broker.Position
	Progression Progression
}

// TradeClosedListener is notified after every successful sell.
type TradeClosedListener interface {
	OnTradeClosed(trade broker.RealizedTrade)
}

// Engine is the simulated account: cash, one long position and the
// player's progression. It marks to the last price passed to UpdatePrice.
// It is not safe for concurrent use.
type Engine struct {
	cfg     Config
	ledger  Ledger
	last    market.Tick
	allowed bool

	journal  journal.Journal
	log      *zap.Logger
	listener TradeClosedListener
	now      func() time.Time
}

func NewEngine(balance float64, cfg Config, j journal.Journal, log *zap.Logger) *Engine {
	if j == nil {
		j = journal.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg: cfg,
		ledger: Ledger{
			Balance:     balance,
			Progression: NewProgression(cfg.Progression),
		},
		allowed: true,
		journal: j,
		log:     log,
		now:     time.Now,
	}
}

// SetTradeClosedListener sets an optional listener for realized trades.
func (e *Engine) SetTradeClosedListener(l TradeClosedListener) {
	e.listener = l
}

// SetTradingPermitted gates Buy. Closing a position is always allowed.
func (e *Engine) SetTradingPermitted(ok bool) { e.allowed = ok }

func (e *Engine) TradingPermitted() bool { return e.allowed }

func (e *Engine) Ledger() Ledger { return e.ledger }

// Load replaces the ledger. Callers validate fields first.
func (e *Engine) Load(l Ledger) { e.ledger = l }

func (e *Engine) Progression() Progression { return e.ledger.Progression }

func (e *Engine) Price() float64 { return e.last.Price }

func (e *Engine) Equity() float64 {
	return e.ledger.Balance + e.ledger.Position.Value(e.last.Price)
}

func (e *Engine) GetAccount(ctx context.Context) (broker.Account, error) {
	return broker.Account{
		Balance:  e.ledger.Balance,
		Equity:   e.Equity(),
		Position: e.ledger.Position,
	}, nil
}

// Mark sets the mark price without journaling.
func (e *Engine) Mark(t market.Tick) { e.last = t }

// UpdatePrice marks the account to t and records an equity snapshot on the
// configured cadence.
func (e *Engine) UpdatePrice(t market.Tick) error {
	e.last = t
	if e.cfg.EquityEvery <= 0 || t.Index%e.cfg.EquityEvery != 0 {
		return nil
	}
	return e.journal.RecordEquity(journal.EquitySnapshot{
		Tick:    t.Index,
		Time:    e.now(),
		Price:   t.Price,
		Regime:  t.Regime.String(),
		Balance: e.ledger.Balance,
		Equity:  e.Equity(),
	})
}

// Buy spends floor(balance*fraction / price) shares worth of cash at the
// current price and folds them, with the entry fee, into the average cost.
func (e *Engine) Buy(ctx context.Context, req broker.BuyRequest) (broker.Position, error) {
	_ = ctx

	if !e.allowed {
		return e.ledger.Position, ErrTradingNotPermitted
	}

	fraction := req.Fraction
	if fraction == 0 {
		fraction = 1
	}
	if math.IsNaN(fraction) || fraction <= 0 || fraction > 1 {
		return e.ledger.Position, fmt.Errorf("buy: %w (got %v)", ErrInvalidFraction, req.Fraction)
	}

	price := e.last.Price
	if price <= 0 {
		return e.ledger.Position, fmt.Errorf("buy: no price yet: %w", ErrInsufficientFunds)
	}

	budget := e.ledger.Balance * fraction
	amount := math.Floor(budget / (price * (1 + e.cfg.CommissionRate)))
	if !(amount > 0) {
		return e.ledger.Position, fmt.Errorf("buy: balance %.2f at price %.4f: %w",
			e.ledger.Balance, price, ErrInsufficientFunds)
	}

	cost := amount * price
	fee := cost * e.cfg.CommissionRate

	pos := &e.ledger.Position
	if !pos.Open() {
		pos.OpenTick = e.last.Index
		pos.AvgCost = 0
	}
	// The entry fee is part of the cost basis so Sell nets out both legs.
	pos.AvgCost = (pos.Shares*pos.AvgCost + cost + fee) / (pos.Shares + amount)
	pos.Shares += amount
	e.ledger.Balance -= cost + fee

	e.log.Info("buy",
		zap.Int("tick", e.last.Index),
		zap.Float64("shares", amount),
		zap.Float64("price", price),
		zap.Float64("avg_cost", pos.AvgCost),
		zap.Float64("fee", fee),
		zap.String("reason", req.Reason))

	return *pos, nil
}

// Sell liquidates the whole position at the current price.
func (e *Engine) Sell(ctx context.Context, reason string) (broker.RealizedTrade, error) {
	_ = ctx

	pos := e.ledger.Position
	if !pos.Open() {
		return broker.RealizedTrade{}, ErrNoOpenPosition
	}
	if reason == "" {
		reason = "ManualClose"
	}

	price := e.last.Price
	revenue := pos.Shares * price
	fee := revenue * e.cfg.CommissionRate
	profit := revenue - pos.Shares*pos.AvgCost - fee

	e.ledger.Balance += revenue - fee
	e.ledger.Position = broker.Position{}

	xp := e.cfg.Progression.XPForTrade(profit)
	levels := e.ledger.Progression.Award(xp, e.cfg.Progression)

	closedAt := e.now()
	trade := broker.RealizedTrade{
		TradeID:    id.NewAt(closedAt),
		Shares:     pos.Shares,
		AvgCost:    pos.AvgCost,
		ExitPrice:  price,
		Revenue:    revenue,
		Commission: fee,
		Profit:     profit,
		XP:         xp,
		LevelUps:   levels,
		Regime:     e.last.Regime,
		OpenTick:   pos.OpenTick,
		CloseTick:  e.last.Index,
		Reason:     reason,
		Feedback:   Feedback(e.last.Regime, profit > 0),
	}

	if err := e.journal.RecordTrade(journal.TradeRecord{
		TradeID:   trade.TradeID,
		Regime:    trade.Regime.String(),
		Shares:    trade.Shares,
		AvgCost:   trade.AvgCost,
		ExitPrice: trade.ExitPrice,
		OpenTick:  trade.OpenTick,
		CloseTick: trade.CloseTick,
		Profit:    trade.Profit,
		XP:        trade.XP,
		Reason:    trade.Reason,
		ClosedAt:  closedAt,
	}); err != nil {
		e.log.Warn("journal trade", zap.String("trade_id", trade.TradeID), zap.Error(err))
	}

	e.log.Info("sell",
		zap.String("trade_id", trade.TradeID),
		zap.Int("tick", trade.CloseTick),
		zap.Float64("shares", trade.Shares),
		zap.Float64("price", price),
		zap.Float64("profit", profit),
		zap.Int("xp", xp),
		zap.Int("level", e.ledger.Progression.Level),
		zap.String("reason", reason))
	if levels > 0 {
		e.log.Info("level up", zap.Int("level", e.ledger.Progression.Level), zap.Int("gained", levels))
	}

	if e.listener != nil {
		e.listener.OnTradeClosed(trade)
	}
	return trade, nil
}

// Deposit credits cash outside of trading (wages) and awards xp.
func (e *Engine) Deposit(amount float64, xp int, reason string) int {
	e.ledger.Balance += amount
	levels := e.ledger.Progression.Award(xp, e.cfg.Progression)
	e.log.Info("deposit",
		zap.Float64("amount", amount),
		zap.Int("xp", xp),
		zap.String("reason", reason))
	return levels
}

// Charge debits cash. The balance may go negative.
func (e *Engine) Charge(amount float64, reason string) {
	e.ledger.Balance -= amount
	e.log.Info("charge",
		zap.Float64("amount", amount),
		zap.Float64("balance", e.ledger.Balance),
		zap.String("reason", reason))
}
