package game

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/market"
	"github.com/rustyeddy/tradergame/sim"
)

// ErrCorruptState marks a persisted field that failed validation and was
// replaced by its default.
var ErrCorruptState = errors.New("corrupt persisted state")

// State is the persisted form of a session. Optional parts are omitted
// when absent and rebuilt from defaults on restore.
type State struct {
	Balance            float64             `json:"balance" yaml:"balance"`
	Shares             float64             `json:"shares" yaml:"shares"`
	AvgCost            float64             `json:"avgCost" yaml:"avgCost"`
	OpenTick           int                 `json:"openTick,omitempty" yaml:"openTick,omitempty"`
	Level              int                 `json:"level" yaml:"level"`
	XP                 int                 `json:"xp" yaml:"xp"`
	NextLevelXP        float64             `json:"nextLevelXp" yaml:"nextLevelXp"`
	AutoStrategyActive bool                `json:"autoStrategyActive" yaml:"autoStrategyActive"`
	PriceHistory       []float64           `json:"priceHistory,omitempty" yaml:"priceHistory,omitempty"`
	Market             *market.MarketState `json:"market,omitempty" yaml:"market,omitempty"`
	LastActionTick     int                 `json:"lastActionTick,omitempty" yaml:"lastActionTick,omitempty"`
	Day                *DayState           `json:"day,omitempty" yaml:"day,omitempty"`
}

// FieldIssue reports one field Restore replaced.
type FieldIssue struct {
	Field  string
	Reason string
}

func (f FieldIssue) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCorruptState, f.Field, f.Reason)
}

func (f FieldIssue) Unwrap() error { return ErrCorruptState }

// IssuesErr joins issues into one error, nil when there are none.
func IssuesErr(issues []FieldIssue) error {
	errs := make([]error, len(issues))
	for i, is := range issues {
		errs[i] = is
	}
	return errors.Join(errs...)
}

// State captures everything needed to resume the session.
func (s *Session) State() State {
	l := s.engine.Ledger()
	ms := s.process.State()
	st := State{
		Balance:            l.Balance,
		Shares:             l.Position.Shares,
		AvgCost:            l.Position.AvgCost,
		OpenTick:           l.Position.OpenTick,
		Level:              l.Progression.Level,
		XP:                 l.Progression.XP,
		NextLevelXP:        l.Progression.NextLevelXP,
		AutoStrategyActive: s.auto,
		PriceHistory:       s.history.Snapshot(),
		Market:             &ms,
	}
	if ct, ok := s.strategy.(cooldownTracker); ok {
		st.LastActionTick = ct.LastActionTick()
	}
	if s.cfg.Day.Enabled() {
		d := s.day
		st.Day = &d
	}
	return st
}

// Restore loads st field by field. Fields that are not finite or are out
// of range fall back to their defaults and are reported; the rest of the
// state is still applied.
func (s *Session) Restore(st State) []FieldIssue {
	r := &restorer{}
	rules := s.cfg.Ledger.Progression

	balance := st.Balance
	switch {
	case !finite(balance):
		r.flag("balance", "not finite")
		balance = s.cfg.StartingBalance
	case balance < 0 && !s.cfg.Day.Enabled():
		r.flag("balance", "negative")
		balance = s.cfg.StartingBalance
	}

	pos := broker.Position{
		Shares:  r.nonNegative("shares", st.Shares, 0),
		AvgCost: r.nonNegative("avgCost", st.AvgCost, 0),
	}
	switch {
	case pos.Shares > 0 && pos.AvgCost == 0:
		r.flag("avgCost", "zero with an open position")
		pos = broker.Position{}
	case pos.Shares == 0:
		pos.AvgCost = 0
	}

	prog := sim.Progression{Level: st.Level, XP: st.XP, NextLevelXP: st.NextLevelXP}
	if prog.Level < 1 {
		r.flag("level", "below 1")
		prog.Level = 1
	}
	if prog.XP < 0 {
		r.flag("xp", "negative")
		prog.XP = 0
	}
	if !finite(prog.NextLevelXP) || prog.NextLevelXP <= 0 {
		r.flag("nextLevelXp", "not a positive number")
		prog.NextLevelXP = rules.FirstLevelXP * math.Pow(rules.LevelFactor, float64(prog.Level-1))
	}

	history := st.PriceHistory
	for _, p := range history {
		if !finite(p) || p < market.PriceFloor {
			r.flag("priceHistory", fmt.Sprintf("bad sample %v", p))
			history = nil
			break
		}
	}

	s.history.Reset(history)
	anchor := s.cfg.InitialPrice
	if s.history.Len() > 0 {
		anchor = s.history.Last()
	}
	if !(anchor >= market.PriceFloor) {
		anchor = market.PriceFloor
	}

	var ms market.MarketState
	if st.Market != nil {
		ms = r.market(*st.Market, anchor)
	} else {
		ms = freshMarket(anchor)
	}

	if pos.Open() && (pos.OpenTick < 0 || pos.OpenTick > ms.TickCount) {
		r.flag("openTick", "outside the restored tick range")
		pos.OpenTick = 0
	}
	if !pos.Open() {
		pos.OpenTick = 0
	}

	lastAction := st.LastActionTick
	if lastAction < 0 || lastAction > ms.TickCount {
		r.flag("lastActionTick", "outside the restored tick range")
		lastAction = 0
	}

	day := newDayState()
	if s.cfg.Day.Enabled() && st.Day != nil {
		day = r.day(*st.Day, s.cfg.Day)
	}

	s.engine.Load(sim.Ledger{Balance: balance, Position: pos, Progression: prog})
	s.process.Restore(ms)
	s.auto = st.AutoStrategyActive
	if ct, ok := s.strategy.(cooldownTracker); ok {
		ct.SetLastActionTick(lastAction)
	}
	s.day = day
	s.mark()
	s.syncPermission()
	s.stats = s.stats.reset()
	s.engine.SetTradeClosedListener(s.stats)

	for _, is := range r.issues {
		s.log.Warn("restore", zap.String("field", is.Field), zap.String("reason", is.Reason))
	}
	return r.issues
}

type restorer struct {
	issues []FieldIssue
}

func (r *restorer) flag(field, reason string) {
	r.issues = append(r.issues, FieldIssue{Field: field, Reason: reason})
}

func (r *restorer) nonNegative(field string, v, def float64) float64 {
	switch {
	case !finite(v):
		r.flag(field, "not finite")
		return def
	case v < 0:
		r.flag(field, "negative")
		return def
	}
	return v
}

func (r *restorer) market(m market.MarketState, anchor float64) market.MarketState {
	if !finite(m.Price) || m.Price < market.PriceFloor {
		r.flag("market.price", "below the price floor")
		m.Price = anchor
	}
	if !m.Regime.Valid() {
		r.flag("market.regime", "unknown regime")
		m.Regime = market.Range
	}
	if m.RegimeDuration < market.MinRegimeDuration || m.RegimeDuration >= market.MaxRegimeDuration {
		r.flag("market.regime_duration", "out of range")
		m.RegimeDuration = market.MinRegimeDuration
	}
	if m.RegimeTimer < 0 || m.RegimeTimer > m.RegimeDuration {
		r.flag("market.regime_timer", "out of range")
		m.RegimeTimer = 0
	}
	if !finite(m.BaseValue) || m.BaseValue < market.PriceFloor {
		r.flag("market.base_value", "below the price floor")
		m.BaseValue = m.Price
	}
	if !finite(m.Volatility) || m.Volatility < 0 {
		r.flag("market.volatility", "not a non-negative number")
		m.Volatility = m.Regime.Params().Volatility
	}
	if m.TickCount < 0 {
		r.flag("market.tick_count", "negative")
		m.TickCount = 0
	}
	return m
}

func (r *restorer) day(d DayState, cfg DayConfig) DayState {
	if d.Day < 1 {
		r.flag("day.day", "below 1")
		d.Day = 1
	}
	if d.TickInDay < 0 || d.TickInDay >= cfg.TicksPerDay {
		r.flag("day.tickInDay", "out of range")
		d.TickInDay = 0
	}
	if d.NegativeDays < 0 {
		r.flag("day.negativeDays", "negative")
		d.NegativeDays = 0
	}
	if !d.Choice.Valid() {
		r.flag("day.choice", "unknown choice")
		d.Choice = DayChoiceNone
	}
	return d
}

// freshMarket is a Range regime anchored at price with no ticks behind it.
func freshMarket(price float64) market.MarketState {
	return market.MarketState{
		Price:          price,
		Regime:         market.Range,
		RegimeDuration: market.MinRegimeDuration,
		BaseValue:      price,
		Volatility:     market.Range.Params().Volatility,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
