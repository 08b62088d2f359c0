package market

import (
	"fmt"
	"strings"
)

// Regime is the hidden market state that drives price increments.
type Regime int

const (
	Range Regime = iota
	TrendUp
	TrendDown
	Volatility
)

var regimeNames = [...]string{
	Range:      "Range",
	TrendUp:    "TrendUp",
	TrendDown:  "TrendDown",
	Volatility: "Volatility",
}

// Regimes lists every regime in declaration order.
var Regimes = []Regime{Range, TrendUp, TrendDown, Volatility}

func (r Regime) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Regime(%d)", int(r))
	}
	return regimeNames[r]
}

func (r Regime) Valid() bool {
	return r >= Range && r <= Volatility
}

// ParseRegime accepts the names returned by String, case-insensitive.
func ParseRegime(s string) (Regime, error) {
	s = strings.TrimSpace(s)
	for _, r := range Regimes {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return Range, fmt.Errorf("unknown regime %q", s)
}

func (r Regime) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid regime %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Regime) UnmarshalText(b []byte) error {
	v, err := ParseRegime(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Params holds the per-regime dynamics.
type Params struct {
	// Drift is the fixed per-tick increment for trending regimes.
	Drift float64
	// Volatility is the noise scale assigned on entry.
	Volatility float64
	// Reversion pulls price toward the anchor, Range only.
	Reversion float64
	// SwingScale replaces the noise scale entirely, Volatility only.
	SwingScale float64
	// Anchor resets the mean-reversion anchor to the current price on entry.
	Anchor bool
}

var regimeParams = [...]Params{
	Range:      {Volatility: 0.3, Reversion: 0.05, Anchor: true},
	TrendUp:    {Drift: 0.1, Volatility: 0.5},
	TrendDown:  {Drift: -0.1, Volatility: 0.5},
	Volatility: {Volatility: 1.5, SwingScale: 3.0},
}

// Params returns the dynamics for r. Unknown regimes behave like Range.
func (r Regime) Params() Params {
	if !r.Valid() {
		return regimeParams[Range]
	}
	return regimeParams[r]
}

// Cumulative switch thresholds: Range 40%, TrendUp 25%, TrendDown 25%,
// Volatility 10%.
var switchThresholds = [...]struct {
	upTo   float64
	regime Regime
}{
	{0.40, Range},
	{0.65, TrendUp},
	{0.90, TrendDown},
}

// PickRegime maps one uniform [0,1) draw onto the switch distribution.
func PickRegime(u float64) Regime {
	for _, th := range switchThresholds {
		if u < th.upTo {
			return th.regime
		}
	}
	return Volatility
}

// Increment computes the price change for one tick in regime r.
// u is the uniform draw for the tick.
func (r Regime) Increment(s MarketState, u float64) float64 {
	p := r.Params()
	if p.SwingScale > 0 {
		return (u - 0.5) * p.SwingScale
	}
	noise := (u - 0.5) * s.Volatility
	if p.Reversion > 0 {
		return (s.BaseValue-s.Price)*p.Reversion + noise
	}
	return p.Drift + noise
}
