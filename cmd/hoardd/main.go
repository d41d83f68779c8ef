// Command hoardd serves filesystem stores over the remote store protocol.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/hoard-go/config"
)

var (
	dataDir    string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:          "hoardd",
	Short:        "Serve and manage hoard stores",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "datadir", config.DefaultDataDir(), "directory holding the served stores")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default <datadir>/config)")

	rootCmd.AddCommand(newServeCmd(), newCreateCmd(), newKeysCmd())
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist. The --datadir flag always wins over the file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configFile
	if path == "" {
		path = config.ConfigPath(dataDir)
	}

	cfg, err := config.LoadConfig(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg, err = config.DefaultConfig(), nil
	}
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("datadir") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
