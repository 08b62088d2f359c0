package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradergame/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade journal records from the SQLite database.

Subcommands:
  trades  - List the most recent trades
  trade   - Get details of a specific trade by ID
  between - List trades closed between two ticks
  stats   - Summarize every recorded trade

Examples:
  tradergame journal trades --limit 20
  tradergame journal trade 01HF3Z...
  tradergame journal between 1000 2000
  tradergame journal stats`,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List the most recent trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalTrades,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalBetweenCmd = &cobra.Command{
	Use:   "between <start-tick> <end-tick>",
	Short: "List trades closed in [start, end)",
	Args:  cobra.ExactArgs(2),
	RunE:  runJournalBetween,
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize every recorded trade",
	Args:  cobra.NoArgs,
	RunE:  runJournalStats,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalBetweenCmd)
	journalCmd.AddCommand(journalStatsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default from config)")
	journalTradesCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of trades to show")
}

func openJournalDB() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.Journal.DBPath
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTrades(journalLimit)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"ID", "Regime", "Shares", "Entry", "Exit", "Ticks", "Profit", "XP", "Reason"})
	for _, r := range recs {
		tw.AppendRow(table.Row{
			r.TradeID, r.Regime, fmt.Sprintf("%.0f", r.Shares),
			fmt.Sprintf("%.2f", r.AvgCost), fmt.Sprintf("%.2f", r.ExitPrice),
			fmt.Sprintf("%d-%d", r.OpenTick, r.CloseTick),
			fmt.Sprintf("%.2f", r.Profit), r.XP, r.Reason,
		})
	}
	tw.Render()
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalBetween(cmd *cobra.Command, args []string) error {
	var start, end int
	if _, err := fmt.Sscan(args[0], &start); err != nil {
		return fmt.Errorf("start tick: %w", err)
	}
	if _, err := fmt.Sscan(args[1], &end); err != nil {
		return fmt.Errorf("end tick: %w", err)
	}

	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalStats(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	st, err := j.TradeStats()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	winRate := 0.0
	if st.Trades > 0 {
		winRate = float64(st.Wins) / float64(st.Trades)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("Journal Stats")
	tw.AppendRows([]table.Row{
		{"Trades", st.Trades},
		{"Wins", st.Wins},
		{"Losses", st.Losses},
		{"Win Rate", fmt.Sprintf("%.1f%%", winRate*100)},
		{"Gross Profit", fmt.Sprintf("%.2f", st.GrossProfit)},
		{"Gross Loss", fmt.Sprintf("%.2f", st.GrossLoss)},
		{"Profit Factor", fmt.Sprintf("%.2f", st.ProfitFactor())},
		{"Total XP", st.TotalXP},
	})
	tw.Render()
	return nil
}
