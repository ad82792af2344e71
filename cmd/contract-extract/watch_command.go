package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-extractor/internal/async"
	"github.com/joseph-ayodele/contract-extractor/internal/events"
	"github.com/joseph-ayodele/contract-extractor/internal/storage"
)

// newWatchCommand treats --dir as the raw bucket of a local store rooted
// at its parent, so records land in a sibling processed directory.
func newWatchCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var initialScan bool
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a local directory and process new PDFs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(dir) == "" {
				return errors.New("--dir is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			store, err := storage.NewFSStore(filepath.Dir(abs), ctx.logger)
			if err != nil {
				return err
			}

			local := *cfg
			local.Storage.Backend = "fs"
			local.Storage.LocalRoot = store.Root()
			local.Storage.RawBucket = filepath.Base(abs)
			if local.Storage.ProcessedBucket == "" || local.Storage.ProcessedBucket == local.Storage.RawBucket {
				local.Storage.ProcessedBucket = "processed"
			}

			proc, closeFn, err := ctx.newProcessor(cmd.Context(), &local, store)
			if err != nil {
				return err
			}
			defer closeFn()

			queue := async.NewProcessorQueue(proc, ctx.logger,
				async.WithWorkers(local.Server.Workers),
				async.WithProcessTimeout(local.ProcessTimeout()),
			)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), local.ProcessTimeout())
				defer cancel()
				queue.Shutdown(shutdownCtx)
			}()

			paths, errs, err := events.Watch(cmd.Context(), events.WatchConfig{
				Roots:       []string{abs},
				InitialScan: initialScan,
				Debounce:    debounce,
				Logger:      ctx.logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (records go to %s)\n", abs, store.BucketDir(local.Storage.ProcessedBucket))

			for {
				select {
				case p, ok := <-paths:
					if !ok {
						return cmd.Context().Err()
					}
					key, err := events.RelativeKey(abs, p)
					if err != nil {
						ctx.logger.Warn("watch.skip", "path", p, "error", err)
						continue
					}
					if err := queue.Enqueue(cmd.Context(), async.Job{Key: key, SubmittedAt: time.Now()}); err != nil {
						return err
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					ctx.logger.Warn("watch.error", "error", err)
				}
			}
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to watch; it acts as the raw bucket")
	cmd.Flags().BoolVar(&initialScan, "initial-scan", false, "Process PDFs already in the directory")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before a new file is processed")
	return cmd
}
