package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/game"
	"github.com/rustyeddy/tradergame/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play the game in real time",
	Long: `Run the market in real time and trade it from the keyboard.

Commands (type and press enter):
  b [fraction]  buy with a fraction of cash (default all)
  s             sell the whole position
  a             toggle auto trading
  t | w         choose to trade or work today
  j             work a shift
  q             save and quit

The game is saved every store.autosave_ticks ticks and on exit.

Example:
  tradergame run -c game.yaml`,
	RunE: runRun,
}

var (
	runFresh       bool
	runAuto        bool
	runReveal      bool
	runStatusEvery int
	runMaxTicks    int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFresh, "fresh", false, "ignore any saved game")
	runCmd.Flags().BoolVar(&runAuto, "auto", false, "start with auto trading on")
	runCmd.Flags().BoolVar(&runReveal, "reveal", false, "show the hidden regime in the status line")
	runCmd.Flags().IntVar(&runStatusEvery, "status-every", 10, "print status every N ticks")
	runCmd.Flags().IntVar(&runMaxTicks, "ticks", 0, "stop after N ticks (0 runs until quit)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	interval, _ := cfg.Market.TickInterval()
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	repo, err := openStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if repo != nil {
		defer repo.Close()
	}

	s, err := newSession(cfg, cfg.Seed(), j, log)
	if err != nil {
		return err
	}
	resumed := false
	if !runFresh {
		resumed = resume(s, repo, log)
	}
	if !resumed {
		s.SetAutoTradingEnabled(cfg.Strategy.AutoTrade)
	}
	if runAuto {
		s.SetAutoTradingEnabled(true)
	}

	out := cmd.OutOrStdout()
	s.SetTradeHandler(func(tr broker.RealizedTrade) { fmt.Fprintln(out, tradeLine(tr)) })

	fmt.Fprintln(out, titleStyle.Render("tradergame"))
	if path != "" {
		fmt.Fprintf(out, "config: %s\n", path)
	}
	fmt.Fprintf(out, "tick every %s, strategy %s\n\n", interval, s.StrategyName())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines := readLines(ctx, cmd.InOrStdin())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	save := func() {
		if repo == nil {
			return
		}
		if err := repo.SaveState(s.State()); err != nil {
			log.Error("save", zap.Error(err))
		}
	}
	defer save()

	ticks := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			quit, err := handleCommand(ctx, s, line, out)
			if err != nil {
				fmt.Fprintln(out, lossStyle.Render(err.Error()))
			}
			if quit {
				break loop
			}

		case <-ticker.C:
			t, err := s.AdvanceTick(ctx)
			over, err := gameOver(err, out)
			if err != nil {
				return err
			}
			if over {
				break loop
			}
			ticks++
			if runStatusEvery > 0 && ticks%runStatusEvery == 0 {
				fmt.Fprintln(out, statusLine(s, t, runReveal))
			}
			if cfg.Store.AutosaveTicks > 0 && t.Index%cfg.Store.AutosaveTicks == 0 {
				save()
			}
			if runMaxTicks > 0 && ticks >= runMaxTicks {
				break loop
			}
		}
	}

	fmt.Fprintln(out)
	game.WriteSummary(out, s.Summary())
	return nil
}

// gameOver classifies an AdvanceTick error. Bankruptcy and shutdown end
// the loop normally; anything else aborts the command.
func gameOver(err error, out io.Writer) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, game.ErrBankrupt):
		fmt.Fprintln(out, lossStyle.Render("Bankrupt. Game over."))
		return true, nil
	case errors.Is(err, context.Canceled):
		return true, nil
	}
	return false, err
}

// readLines forwards input lines until r is exhausted or ctx ends.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func handleCommand(ctx context.Context, s *game.Session, line string, out io.Writer) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "b", "buy":
		fraction := 0.0
		if len(fields) > 1 {
			f, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return false, fmt.Errorf("buy: bad fraction %q", fields[1])
			}
			fraction = f
		}
		pos, err := s.Buy(ctx, fraction)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "holding %.0f @ %.2f\n", pos.Shares, pos.AvgCost)

	case "s", "sell":
		if _, err := s.Sell(ctx); err != nil {
			return false, err
		}

	case "a", "auto":
		s.SetAutoTradingEnabled(!s.AutoTradingEnabled())
		fmt.Fprintf(out, "auto trading: %t\n", s.AutoTradingEnabled())

	case "t", "trade":
		return false, s.ChooseDay(game.DayChoiceTrade)

	case "w", "work":
		return false, s.ChooseDay(game.DayChoiceWork)

	case "j", "job", "shift":
		res, err := s.Work(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "earned %.2f and %d xp\n", res.Wage, res.XP)

	case "q", "quit", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
	return false, nil
}
