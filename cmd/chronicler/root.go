package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chronicler/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagConfig     string
	flagLocations  string
	flagCharacters string
	flagSessions   string
	flagLogLevel   string
	flagLogFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "chronicler",
	Short: "MCP server for a markdown chronicle vault",
	Long: "Chronicler exposes a tabletop chronicle vault (locations, characters,\nsession notes stored as markdown) to MCP clients, plus the victims\nresonance roller for feeding scenes.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLocations, "locations", "", "locations directory (overrides config and env)")
	rootCmd.PersistentFlags().StringVar(&flagCharacters, "characters", "", "characters directory (overrides config and env)")
	rootCmd.PersistentFlags().StringVar(&flagSessions, "sessions", "", "sessions directory (overrides config and env)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(resonanceCmd)
	rootCmd.Version = version
}

// loadConfig resolves configuration with command-line flags applied last.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("locations") {
		cfg.LocationsDir = flagLocations
	}
	if flags.Changed("characters") {
		cfg.CharactersDir = flagCharacters
	}
	if flags.Changed("sessions") {
		cfg.SessionsDir = flagSessions
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
