package broker

import (
	"context"

	"github.com/rustyeddy/tradergame/market"
)

// Broker is what a strategy trades against.
type Broker interface {
	GetAccount(ctx context.Context) (Account, error)
	Buy(ctx context.Context, req BuyRequest) (Position, error)
	Sell(ctx context.Context, reason string) (RealizedTrade, error)
}

type Account struct {
	Balance  float64
	Equity   float64
	Position Position
}

// BuyRequest sizes an order as a fraction of the cash balance.
// A zero Fraction deploys the full balance.
type BuyRequest struct {
	Fraction float64
	Reason   string
}

// Position is the single open long position, if any. AvgCost is the
// per-share cost basis including entry commission.
type Position struct {
	Shares   float64
	AvgCost  float64
	OpenTick int
}

func (p Position) Open() bool {
	return p.Shares > 0
}

// Return is the unrealized fractional return at price. It is 0 when flat.
func (p Position) Return(price float64) float64 {
	if !p.Open() || p.AvgCost <= 0 {
		return 0
	}
	return (price - p.AvgCost) / p.AvgCost
}

// Value marks the position at price.
func (p Position) Value(price float64) float64 {
	return p.Shares * price
}

// RealizedTrade describes a closed position.
type RealizedTrade struct {
	TradeID    string
	Shares     float64
	AvgCost    float64
	ExitPrice  float64
	Revenue    float64
	Commission float64
	Profit     float64
	XP         int
	LevelUps   int
	Regime     market.Regime
	OpenTick   int
	CloseTick  int
	Reason     string
	Feedback   string
}

func (t RealizedTrade) Win() bool {
	return t.Profit > 0
}
