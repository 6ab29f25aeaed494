package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"readsum/internal/pipeline"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <url>",
	Short: "Summarize one article and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var (
	summarizeProvider string
	summarizeJSON     bool
	summarizeHistory  bool
)

func init() {
	summarizeCmd.Flags().StringVar(&summarizeProvider, "provider", "", "openai or gemini (overrides PROVIDER)")
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "Print the final session snapshot as JSON")
	summarizeCmd.Flags().BoolVar(&summarizeHistory, "history", false, "Record the run in the history DB")

	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{
		logOut:      os.Stderr,
		withHistory: summarizeHistory,
		provider:    summarizeProvider,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			a.log.ErrorContext(ctx, "Failed to close resources",
				"error", closeErr)
		}
	}()

	session := pipeline.NewSession(func(snap pipeline.Snapshot) {
		if snap.Status != "" && !summarizeJSON {
			fmt.Fprintln(cmd.ErrOrStderr(), snap.Status)
		}
	})
	session.SetURL(args[0])

	runErr := a.orchestrator.Run(ctx, session)
	snap := session.Snapshot()

	out := cmd.OutOrStdout()

	if summarizeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err = enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
	} else if runErr == nil {
		fmt.Fprintln(out, snap.Summary)
	}

	if runErr != nil {
		return errors.New(snap.Error)
	}

	return nil
}
