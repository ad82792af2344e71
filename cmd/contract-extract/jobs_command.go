package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-extractor/internal/entity"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent extraction attempts from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, jobs, err := ctx.openLedger(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if jobs == nil {
				return fmt.Errorf("no ledger configured (set LEDGER_DSN)")
			}
			defer db.Close()

			rows, err := jobs.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isTerminal(out) {
				fmt.Fprintln(out, renderJobs(rows))
				return nil
			}
			return writeJobLines(out, rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of attempts to show")
	return cmd
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeJobLines(w io.Writer, rows []*entity.ExtractionJob) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func renderJobs(rows []*entity.ExtractionJob) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Started", "Status", "Source Key", "Contract", "Confidence", "Parser", "Error"})
	for _, j := range rows {
		confidence := ""
		if j.Confidence != nil {
			confidence = strconv.FormatFloat(*j.Confidence, 'f', 2, 64)
		}
		tw.AppendRow(table.Row{
			j.StartedAt.Format("2006-01-02 15:04:05"),
			string(j.Status),
			j.SourceKey,
			deref(j.ContractID),
			confidence,
			deref(j.ParserMethod),
			deref(j.ErrorMessage),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 7, WidthMax: 60},
	})
	return tw.Render()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
