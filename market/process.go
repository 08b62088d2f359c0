package market

import (
	"math"

	"go.uber.org/zap"
)

const (
	// PriceFloor is the lowest price the process can produce.
	PriceFloor = 1.0

	MinRegimeDuration = 100
	MaxRegimeDuration = 300
)

// MarketState is the mutable state of the price process.
type MarketState struct {
	Price          float64 `json:"price" yaml:"price"`
	Regime         Regime  `json:"regime" yaml:"regime"`
	RegimeTimer    int     `json:"regime_timer" yaml:"regime_timer"`
	RegimeDuration int     `json:"regime_duration" yaml:"regime_duration"`
	BaseValue      float64 `json:"base_value" yaml:"base_value"`
	Volatility     float64 `json:"volatility" yaml:"volatility"`
	TickCount      int     `json:"tick_count" yaml:"tick_count"`
}

// Tick is the observable output of one Advance.
type Tick struct {
	Index    int
	Price    float64
	Regime   Regime
	Switched bool
}

// Process advances a single price through randomly switching regimes.
// It is not safe for concurrent use.
type Process struct {
	state MarketState
	rng   Source
	log   *zap.Logger
}

// NewProcess starts a process at price in the Range regime.
func NewProcess(rng Source, price float64, log *zap.Logger) *Process {
	if log == nil {
		log = zap.NewNop()
	}
	if !(price >= PriceFloor) {
		price = PriceFloor
	}
	p := &Process{rng: rng, log: log}
	p.state.Price = price
	p.enter(Range)
	return p
}

func (p *Process) State() MarketState { return p.state }

// Restore replaces the state verbatim. Callers validate fields first.
func (p *Process) Restore(s MarketState) { p.state = s }

// Force enters regime r immediately, applying its entry resets and drawing a
// fresh duration.
func (p *Process) Force(r Regime) {
	p.enter(r)
}

// Advance runs one tick: counters first, then a possible regime switch, then
// the price move under whichever regime is active after the switch.
func (p *Process) Advance() Tick {
	s := &p.state
	s.TickCount++
	s.RegimeTimer++

	switched := false
	if s.RegimeTimer > s.RegimeDuration {
		from := s.Regime
		p.enter(PickRegime(p.rng.Float64()))
		switched = true
		p.log.Debug("regime switch",
			zap.Int("tick", s.TickCount),
			zap.Stringer("from", from),
			zap.Stringer("to", s.Regime),
			zap.Int("duration", s.RegimeDuration))
	}

	next := s.Price + s.Regime.Increment(*s, p.rng.Float64())
	if !(next >= PriceFloor) || math.IsInf(next, 0) {
		next = PriceFloor
	}
	s.Price = next

	return Tick{
		Index:    s.TickCount,
		Price:    s.Price,
		Regime:   s.Regime,
		Switched: switched,
	}
}

func (p *Process) enter(r Regime) {
	s := &p.state
	params := r.Params()
	s.Regime = r
	s.RegimeTimer = 0
	s.RegimeDuration = drawDuration(p.rng.Float64())
	s.Volatility = params.Volatility
	if params.Anchor {
		s.BaseValue = s.Price
	}
}

func drawDuration(u float64) int {
	d := MinRegimeDuration + int(u*(MaxRegimeDuration-MinRegimeDuration))
	switch {
	case d < MinRegimeDuration:
		return MinRegimeDuration
	case d >= MaxRegimeDuration:
		return MaxRegimeDuration - 1
	}
	return d
}
