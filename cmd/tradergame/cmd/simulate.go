package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradergame/game"
	"github.com/rustyeddy/tradergame/internal/logger"
	"github.com/rustyeddy/tradergame/journal"
	"github.com/rustyeddy/tradergame/market"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the auto strategy headless for a number of ticks",
	Long: `Run a seeded market with auto trading on, as fast as possible, and
print a summary. The same seed and config always give the same result.

Examples:
  tradergame simulate --ticks 10000 --seed 42
  tradergame simulate -c game.yaml --ticks 5000 --trades`,
	RunE: runSimulate,
}

var (
	simTicks  int
	simSeed   int64
	simTrades bool
	simLog    bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simTicks, "ticks", 5000, "number of ticks to simulate")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed (0 uses the config seed)")
	simulateCmd.Flags().BoolVar(&simTrades, "trades", false, "print every closed trade as Org")
	simulateCmd.Flags().BoolVar(&simLog, "log", false, "log through the configured logger")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if simTicks <= 0 {
		return fmt.Errorf("--ticks must be positive, got %d", simTicks)
	}

	log := zap.NewNop()
	if simLog {
		if log, err = logger.New(cfg.Log); err != nil {
			return err
		}
		defer log.Sync()
	}

	seed := simSeed
	if seed == 0 {
		seed = cfg.Seed()
	}

	mem := &journal.Memory{}
	s, err := newSession(cfg, seed, mem, log)
	if err != nil {
		return err
	}
	s.SetAutoTradingEnabled(true)

	regimeTicks := make(map[market.Regime]int)
	for i := 0; i < simTicks; i++ {
		t, err := s.AdvanceTick(cmd.Context())
		if errors.Is(err, game.ErrBankrupt) {
			break
		}
		if err != nil {
			return err
		}
		regimeTicks[t.Regime]++
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seed %d, strategy %s\n\n", seed, s.StrategyName())
	game.WriteSummary(out, s.Summary())
	fmt.Fprintln(out)
	writeRegimeTable(out, regimeTicks, mem.Trades)

	if simTrades && len(mem.Trades) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, journal.FormatTradesOrg(mem.Trades))
	}
	return nil
}

func writeRegimeTable(w io.Writer, ticks map[market.Regime]int, trades []journal.TradeRecord) {
	type row struct {
		trades, wins int
		profit       float64
	}
	byRegime := make(map[string]*row)
	for _, tr := range trades {
		r, ok := byRegime[tr.Regime]
		if !ok {
			r = &row{}
			byRegime[tr.Regime] = r
		}
		r.trades++
		r.profit += tr.Profit
		if tr.Profit > 0 {
			r.wins++
		}
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("By Regime (at close)")
	tw.AppendHeader(table.Row{"Regime", "Ticks", "Trades", "Wins", "Profit"})
	for _, reg := range market.Regimes {
		r := byRegime[reg.String()]
		if r == nil {
			r = &row{}
		}
		tw.AppendRow(table.Row{reg.String(), ticks[reg], r.trades, r.wins, fmt.Sprintf("%.2f", r.profit)})
	}
	tw.Render()
}
