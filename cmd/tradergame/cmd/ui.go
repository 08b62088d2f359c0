package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/rustyeddy/tradergame/broker"
	"github.com/rustyeddy/tradergame/game"
	"github.com/rustyeddy/tradergame/market"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D1D5DB"))

	gainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

func pnlStyle(v float64) lipgloss.Style {
	if v > 0 {
		return gainStyle
	}
	if v < 0 {
		return lossStyle
	}
	return statusStyle
}

// statusLine renders one line of game state. The regime stays hidden
// unless reveal is set.
func statusLine(s *game.Session, t market.Tick, reveal bool) string {
	acct := s.Account()
	prog := s.Progression()

	line := fmt.Sprintf("tick %-6d price %8.2f  cash %10.2f  equity %10.2f  lvl %d (%d/%.0f xp)",
		t.Index, t.Price, acct.Balance, acct.Equity, prog.Level, prog.XP, prog.NextLevelXP)
	if acct.Position.Open() {
		r := acct.Position.Return(t.Price)
		line += "  " + pnlStyle(r).Render(fmt.Sprintf("%.0f sh @ %.2f (%+.2f%%)", acct.Position.Shares, acct.Position.AvgCost, r*100))
	}
	if s.AutoTradingEnabled() {
		line += "  " + noticeStyle.Render("[auto]")
	}
	if reveal {
		line += "  " + noticeStyle.Render(t.Regime.String())
	}
	return statusStyle.Render(line)
}

func tradeLine(tr broker.RealizedTrade) string {
	msg := fmt.Sprintf("%s: sold %.0f @ %.2f, profit %.2f, +%d xp", tr.Reason, tr.Shares, tr.ExitPrice, tr.Profit, tr.XP)
	out := pnlStyle(tr.Profit).Render(msg)
	if tr.Feedback != "" {
		out += "\n  " + noticeStyle.Render(tr.Feedback)
	}
	if tr.LevelUps > 0 {
		out += "\n  " + titleStyle.Render(fmt.Sprintf("LEVEL UP x%d", tr.LevelUps))
	}
	return out
}
