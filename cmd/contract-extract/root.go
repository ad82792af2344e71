package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var errKeyOrFile = errors.New("either --key or --file is required")

func newRootCommand() *cobra.Command {
	var configFlag string
	var keyFlag string
	var fileFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "contract-extract",
		Short:         "Extract structured records from healthcare contract PDFs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(keyFlag)
			file := strings.TrimSpace(fileFlag)
			switch {
			case key != "":
				return runProcess(cmd, ctx, key)
			case file != "":
				return runEvent(cmd, ctx, file)
			default:
				_ = cmd.Usage()
				return errKeyOrFile
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (.yaml or .toml)")
	rootCmd.Flags().StringVar(&keyFlag, "key", "", "Object key in the raw bucket to process")
	rootCmd.Flags().StringVar(&fileFlag, "file", "", "S3 event notification JSON file to process")

	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newEventCommand(ctx))
	rootCmd.AddCommand(newExtractCommand(ctx))
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newHealthCommand(ctx))

	return rootCmd
}
