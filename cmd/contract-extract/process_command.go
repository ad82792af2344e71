package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process one document from the raw bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(key) == "" {
				return errors.New("--key is required")
			}
			return runProcess(cmd, ctx, strings.TrimSpace(key))
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Object key in the raw bucket")
	return cmd
}

func runProcess(cmd *cobra.Command, ctx *commandContext, key string) error {
	cfg, err := ctx.validConfig()
	if err != nil {
		return err
	}
	proc, closeFn, err := ctx.newProcessor(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	record, err := proc.ProcessKey(cmd.Context(), key)
	if err != nil {
		return fmt.Errorf("process %s: %w", key, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Processed: %s\n", record.ContractID)
	return nil
}
