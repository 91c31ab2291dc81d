package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chronicler/internal/resonance"
)

var resonanceSeed int64

var resonanceCmd = &cobra.Command{
	Use:   "resonance <mood>",
	Short: "Roll victims resonance from the command line",
	Long: `Rolls victims resonance for the given mood (Choleric, Melancholic,
Phlegmatic or Sanguine). Pass --seed to pin the outcome.`,
	Args: cobra.ExactArgs(1),
	RunE: runResonance,
}

func init() {
	resonanceCmd.Flags().Int64Var(&resonanceSeed, "seed", 0, "pin the random seed (0 = crypto-random)")
}

func runResonance(cmd *cobra.Command, args []string) error {
	mood, err := resonance.ParseMood(args[0])
	if err != nil {
		return err
	}

	seed := resonanceSeed
	if !cmd.Flags().Changed("seed") {
		seed, err = resonance.NewSeed()
		if err != nil {
			return err
		}
	}

	result := resonance.Resolve(mood, resonance.NewSource(seed))
	dyscrasia := result.Dyscrasia
	if dyscrasia == "" {
		dyscrasia = "None"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Mood: %s\nResonance: %s\nDyscrasia: %s\n", mood, result.Level, dyscrasia)
	return nil
}
