package main

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chronicler/internal/config"
	"chronicler/internal/logging"
	"chronicler/internal/vault"
)

// checkParallelism bounds concurrent file reads during a vault check.
const checkParallelism = 8

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the vault and report unreadable or empty entries",
	Long: `Validates the configured directories, then reads every location,
character, and the story summary, reporting files that cannot be read or
are empty. Exits nonzero when any finding is reported.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
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

	findings, counts, err := checkVault(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Checked %d locations, %d characters, story: %s\n",
		counts.locations, counts.characters, counts.story)
	for _, f := range findings {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
	}
	if len(findings) > 0 {
		return fmt.Errorf("%d finding(s)", len(findings))
	}
	return nil
}

type checkCounts struct {
	locations  int
	characters int
	story      string
}

// checkVault reads every entity concurrently and collects findings.
// Only unexpected I/O errors abort the walk; per-file problems become
// findings.
func checkVault(cfg config.Config) ([]string, checkCounts, error) {
	v := vault.New(cfg)

	locations, err := v.ListLocations()
	if err != nil {
		return nil, checkCounts{}, err
	}
	characters, err := v.ListCharacters()
	if err != nil {
		return nil, checkCounts{}, err
	}

	var (
		mu       sync.Mutex
		findings []string
	)
	report := func(f string) {
		mu.Lock()
		defer mu.Unlock()
		findings = append(findings, f)
	}

	var g errgroup.Group
	g.SetLimit(checkParallelism)

	for _, name := range locations {
		g.Go(func() error {
			body, err := v.ReadLocation(name)
			switch {
			case err != nil:
				report(fmt.Sprintf("location %q: %v", name, err))
			case body == "":
				report(fmt.Sprintf("location %q: file is empty", name))
			}
			return nil
		})
	}

	for _, c := range characters {
		g.Go(func() error {
			body, err := v.ReadCharacter(c.Name, c.Organization)
			switch {
			case err != nil:
				report(fmt.Sprintf("character %q (%s): %v", c.Name, c.Organization, err))
			case body == "":
				report(fmt.Sprintf("character %q (%s): file is empty", c.Name, c.Organization))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, checkCounts{}, err
	}

	counts := checkCounts{
		locations:  len(locations),
		characters: len(characters),
		story:      "present",
	}
	if _, err := v.ReadStorySoFar(); err != nil {
		if !errors.Is(err, vault.ErrNotFound) {
			return nil, checkCounts{}, err
		}
		counts.story = "absent"
	}

	sort.Strings(findings)
	return findings, counts, nil
}
