package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sitevoice-go/internal/processor"
	"sitevoice-go/internal/types"
)

func processCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "process <voice-note-id> [more ids...]",
		Short: "Run the pipeline for one or more voice notes and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if len(args) == 1 {
				res, err := a.proc.Process(cmd.Context(), processor.TriggerRequest{VoiceNoteID: args[0]})
				if perr := printJSON(cmd, res); perr != nil {
					return perr
				}
				return err
			}
			sum := a.proc.ProcessMany(cmd.Context(), args, concurrency)
			if err := printJSON(cmd, sum); err != nil {
				return err
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d voice notes failed", sum.Failed, sum.Total)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "voice notes processed in parallel")
	return cmd
}

func reprocessCmd() *cobra.Command {
	var (
		status      string
		limit       int
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Re-run the pipeline for voice notes stuck in a status (default: error)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ids, err := a.store.VoiceNoteIDs(cmd.Context(), types.Status(status), limit)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				a.log.WithField("status", status).Info("nothing to reprocess")
				return nil
			}
			return printJSON(cmd, a.proc.ProcessMany(cmd.Context(), ids, concurrency))
		},
	}
	cmd.Flags().StringVar(&status, "status", string(types.StatusError), "status of the voice notes to retry")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum voice notes to retry (0 for all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "voice notes processed in parallel")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("migration complete")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load YAML fixtures and register the default prompts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ctx := cmd.Context()
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open fixtures: %w", err)
				}
				defer f.Close()
				if _, err := st.Seed(ctx, f); err != nil {
					return err
				}
			}
			n, err := st.SeedDefaultPrompts(ctx)
			if err != nil {
				return err
			}
			log.WithField("prompts_created", n).Info("default prompts registered")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixtures file")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
