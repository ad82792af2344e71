package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/storage"
)

// newHealthCommand checks that the ledger and both buckets are reachable.
func newHealthCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check ledger and object storage connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.validConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			db, _, err := ctx.openLedger(cmd.Context(), cfg)
			switch {
			case err != nil:
				return fmt.Errorf("ledger health: FAIL (%w)", err)
			case db == nil:
				fmt.Fprintln(out, "ledger: not configured")
			default:
				defer db.Close()
				if err := db.HealthCheck(cmd.Context(), timeout); err != nil {
					return fmt.Errorf("ledger health: FAIL (%w)", err)
				}
				fmt.Fprintln(out, "ledger: OK")
			}

			store, err := storage.New(cfg.Storage, ctx.logger)
			if err != nil {
				return err
			}
			checks := []struct {
				bucket, prefix, suffix, noun string
			}{
				{cfg.Storage.RawBucket, "", "." + constants.DocumentExt, "documents"},
				{cfg.Storage.ProcessedBucket, storage.RecordPrefix, ".json", "records"},
			}
			for _, c := range checks {
				keys, err := store.List(cmd.Context(), c.bucket, c.prefix, c.suffix)
				if err != nil {
					return fmt.Errorf("storage health (%s): FAIL (%w)", c.bucket, err)
				}
				fmt.Fprintf(out, "storage %s: OK (%d %s)\n", c.bucket, len(keys), c.noun)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Ledger ping timeout")
	return cmd
}
