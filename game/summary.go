package game

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rustyeddy/tradergame/broker"
)

// Summary is a snapshot of how the session is going.
type Summary struct {
	Ticks          int
	Trades         int
	Wins           int
	Losses         int
	RealizedProfit float64
	Balance        float64
	Equity         float64
	PeakEquity     float64
	// MaxDrawdown is the largest peak-to-trough equity drop as a fraction
	// of the peak.
	MaxDrawdown float64
	Level       int
	XP          int
	Day         int
	Bankrupt    bool
}

func (s Summary) WinRate() float64 {
	if s.Trades == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Trades)
}

// tracker accumulates trade and equity statistics.
type tracker struct {
	equity func() float64
	notify func(broker.RealizedTrade)

	trades, wins, losses int
	profit               float64
	peak, maxDD          float64
}

func newTracker(equity func() float64) *tracker {
	return &tracker{equity: equity, peak: equity()}
}

// reset starts a fresh tracker from the current equity.
func (t *tracker) reset() *tracker {
	n := newTracker(t.equity)
	n.notify = t.notify
	return n
}

func (t *tracker) OnTradeClosed(tr broker.RealizedTrade) {
	t.trades++
	if tr.Win() {
		t.wins++
	} else {
		t.losses++
	}
	t.profit += tr.Profit
	if t.notify != nil {
		t.notify(tr)
	}
}

func (t *tracker) observe() {
	eq := t.equity()
	if eq > t.peak {
		t.peak = eq
	}
	if t.peak > 0 {
		if dd := (t.peak - eq) / t.peak; dd > t.maxDD {
			t.maxDD = dd
		}
	}
}

// Summary reports the session so far.
func (s *Session) Summary() Summary {
	ledger := s.engine.Ledger()
	return Summary{
		Ticks:          s.process.State().TickCount,
		Trades:         s.stats.trades,
		Wins:           s.stats.wins,
		Losses:         s.stats.losses,
		RealizedProfit: s.stats.profit,
		Balance:        ledger.Balance,
		Equity:         s.engine.Equity(),
		PeakEquity:     s.stats.peak,
		MaxDrawdown:    s.stats.maxDD,
		Level:          ledger.Progression.Level,
		XP:             ledger.Progression.XP,
		Day:            s.day.Day,
		Bankrupt:       s.day.Failed,
	}
}

// WriteSummary renders s as a two-column table.
func WriteSummary(w io.Writer, s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Session Summary")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Ticks", s.Ticks},
		{"Day", s.Day},
		{"Trades", s.Trades},
		{"Wins", s.Wins},
		{"Losses", s.Losses},
		{"Win Rate", fmt.Sprintf("%.1f%%", s.WinRate()*100)},
		{"Realized P/L", fmt.Sprintf("%.2f", s.RealizedProfit)},
		{"Balance", fmt.Sprintf("%.2f", s.Balance)},
		{"Equity", fmt.Sprintf("%.2f", s.Equity)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", s.MaxDrawdown*100)},
		{"Level", s.Level},
		{"XP", s.XP},
	})
	if s.Bankrupt {
		t.AppendFooter(table.Row{"Status", "BANKRUPT"})
	}
	t.Render()
}
