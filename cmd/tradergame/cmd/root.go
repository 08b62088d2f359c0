package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradergame/config"
)

var rootCmd = &cobra.Command{
	Use:   "tradergame",
	Short: "A regime-switching market trading game",
	Long: `Tradergame simulates a single asset whose price moves through hidden
regimes: a mean-reverting range, up and down trends, and bursts of volatility.

It provides tools for:
  - Playing in real time with manual or automatic trading
  - Running seeded headless simulations of the auto strategy
  - Querying the trade journal
  - Inspecting and resetting the saved game`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnv(envFile)
	},
}

var (
	cfgFile string
	envFile string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default $"+config.EnvConfigPath+", else built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading config")
}

// loadEnv reads a dotenv file if present. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadConfig resolves the config from --config, then the environment, then
// defaults, and applies environment overrides.
func loadConfig() (*config.Config, string, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}

	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return nil, path, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, path, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}
