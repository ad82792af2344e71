package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-extractor/internal/export"
	"github.com/joseph-ayodele/contract-extractor/internal/storage"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var out string
	var prefix string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write processed records to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(out) == "" {
				return errors.New("--out is required")
			}
			cfg, err := ctx.validConfig()
			if err != nil {
				return err
			}
			store, err := storage.New(cfg.Storage, ctx.logger)
			if err != nil {
				return err
			}
			svc := export.NewService(store, cfg.Storage.ProcessedBucket, ctx.logger)
			b, n, err := svc.Export(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d contracts to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output .xlsx path")
	cmd.Flags().StringVar(&prefix, "prefix", storage.RecordPrefix, "Key prefix in the processed bucket")
	return cmd
}
