package main

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		file   string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run extraction on a local PDF and print the record",
		RunE: func(cmd *cobra.Command, args []string) error {
			file = strings.TrimSpace(file)
			if file == "" {
				return errors.New("--file is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			record, err := ctx.parseStage(cfg).Run(cmd.Context(), file, filepath.Base(file))
			if err != nil {
				return err
			}
			b, err := schema.Encode(record)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(b); err != nil {
				return err
			}
			if strict {
				return schema.Check(record)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Local PDF path")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the record fails validation")
	return cmd
}
