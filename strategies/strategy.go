package strategies

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/market"
)

// TickStrategy is invoked by the session on its strategy cadence.
type TickStrategy interface {
	Name() string
	OnTick(ctx context.Context, b broker.Broker, snap market.Snapshot) error
}

// Factory builds a fresh strategy instance.
type Factory func() TickStrategy

var registry = map[string]Factory{
	"noop":   func() TickStrategy { return NoopStrategy{} },
	"regime": func() TickStrategy { return NewRegime(DefaultRegimeConfig()) },
}

// Register adds or replaces a named strategy.
func Register(name string, f Factory) {
	registry[strings.ToLower(strings.TrimSpace(name))] = f
}

// Names lists the registered strategies in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// StrategyByName builds a registered strategy. "regime" is configured with
// cfg; other strategies ignore it.
func StrategyByName(name string, cfg RegimeConfig) (TickStrategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "regime", "auto":
		return NewRegime(cfg), nil
	case "none":
		return NoopStrategy{}, nil
	}
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(), nil
}
