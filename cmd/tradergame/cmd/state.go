package cmd

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradergame/store"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the saved game",
	Long: `Work with the game saved by run.

Subcommands:
  show  - Print the saved game
  reset - Delete the saved game

Examples:
  tradergame state show
  tradergame state reset`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved game",
	Args:  cobra.NoArgs,
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved game",
	Args:  cobra.NoArgs,
	RunE:  runStateReset,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
}

func openConfiguredStore() (store.StateRepository, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	repo, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if repo == nil {
		return nil, errors.New("saving is disabled (store.type is none)")
	}
	return repo, nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	repo, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer repo.Close()

	snap, err := repo.LoadState()
	if errors.Is(err, store.ErrNoState) {
		fmt.Fprintln(cmd.OutOrStdout(), "no saved game")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	writeState(cmd, snap)
	return nil
}

func writeState(cmd *cobra.Command, snap store.Snapshot) {
	st := snap.State
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("Saved Game")
	tw.AppendRows([]table.Row{
		{"Saved At", snap.SavedAt.Local().Format("2006-01-02 15:04:05")},
		{"Balance", fmt.Sprintf("%.2f", st.Balance)},
		{"Shares", fmt.Sprintf("%.0f", st.Shares)},
		{"Avg Cost", fmt.Sprintf("%.2f", st.AvgCost)},
		{"Level", st.Level},
		{"XP", fmt.Sprintf("%d / %.0f", st.XP, st.NextLevelXP)},
		{"Auto Trading", st.AutoStrategyActive},
		{"History", len(st.PriceHistory)},
	})
	if m := st.Market; m != nil {
		tw.AppendRows([]table.Row{
			{"Tick", m.TickCount},
			{"Price", fmt.Sprintf("%.2f", m.Price)},
		})
	}
	if d := st.Day; d != nil {
		tw.AppendRow(table.Row{"Day", fmt.Sprintf("%d (tick %d, choice %s)", d.Day, d.TickInDay, d.Choice)})
		if d.Failed {
			tw.AppendFooter(table.Row{"", "BANKRUPT"})
		}
	}
	tw.Render()
}

func runStateReset(cmd *cobra.Command, args []string) error {
	repo, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved game deleted")
	return nil
}
