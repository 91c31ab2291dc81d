package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"chronicler/internal/logging"
	mcpserver "chronicler/internal/mcp"
	"chronicler/internal/resonance"
	"chronicler/internal/vault"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveSeed int64

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout. MCP clients spawn chronicler as
a child process and call the vault and resonance tools directly.

The server monitors for parent process death. When the client disconnects
or restarts, the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int64Var(&serveSeed, "seed", 0, "pin the resonance random seed (0 = crypto-random)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.Init(level, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid vault configuration: %w", err)
	}

	seed := serveSeed
	if !cmd.Flags().Changed("seed") {
		seed, err = resonance.NewSeed()
		if err != nil {
			return err
		}
	}

	srv := mcpserver.NewServer(vault.New(cfg), resonance.NewLockedSource(seed))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("serve").Info("starting chronicler MCP server over stdio",
		"locations", cfg.LocationsDir,
		"characters", cfg.CharactersDir,
		"sessions", cfg.SessionsDir)
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
