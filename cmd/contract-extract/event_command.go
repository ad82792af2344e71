package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-extractor/internal/events"
)

func newEventCommand(ctx *commandContext) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Process every document named in an S3 event notification file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(file) == "" {
				return errors.New("--file is required")
			}
			return runEvent(cmd, ctx, strings.TrimSpace(file))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the event JSON file")
	return cmd
}

func runEvent(cmd *cobra.Command, ctx *commandContext, file string) error {
	cfg, err := ctx.validConfig()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read event file: %w", err)
	}
	ev, err := events.Parse(data)
	if err != nil {
		return err
	}

	if lockPath := strings.TrimSpace(cfg.Ledger.LockFile); lockPath != "" {
		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire batch lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another batch run holds %s", lockPath)
		}
		defer func() { _ = lock.Unlock() }()
	}

	proc, closeFn, err := ctx.newProcessor(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	ids := proc.ProcessEvent(cmd.Context(), ev)
	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d contracts\n", len(ids))
	return nil
}
