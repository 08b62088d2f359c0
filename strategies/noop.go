package strategies

import (
	"context"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/market"
)

// NoopStrategy does nothing.
type NoopStrategy struct{}

func (NoopStrategy) Name() string { return "noop" }

func (NoopStrategy) OnTick(ctx context.Context, b broker.Broker, snap market.Snapshot) error {
	_ = ctx
	_ = b
	_ = snap
	return nil
}
