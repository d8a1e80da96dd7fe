// Package run provides the run command.
package run

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/custlist"
	"github.com/agentstation/custlist/cmd/application"
	"github.com/agentstation/custlist/internal/cmd/alerts"
	"github.com/agentstation/custlist/internal/cmd/output"
	"github.com/agentstation/custlist/pkg/logging"
)

// Flags holds the run command flags.
type Flags struct {
	Overwrite bool
	DryRun    bool
	Report    string
}

// NewCommand creates the run command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}
	cmd := &cobra.Command{
		Use:     "run <input_path>",
		GroupID: "core",
		Short:   "Reconcile an input workbook into the master list",
		Long: `Run extracts every titled table of the input workbook (or CSV grid),
reconciles the rows against the master named in the settings file and writes
the new master and a flat per-URL export.

The previous master is copied to the backup directory first. Nothing is
written when extraction, reconciliation or staging fails; a master held open
by another program is reported as locked.

Do not run custlist twice at once against the same master.`,
		Example: `  custlist run input/Event_2026-03.xlsx
  custlist run input/Event_2026-03.xlsx --dry-run -o yaml
  custlist run input/Event_2026-03.xlsx --overwrite --report run.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			sum, err := custlist.Run(ctx, args[0],
				custlist.WithSettingsFile(app.SettingsFile()),
				custlist.WithOverwrite(flags.Overwrite),
				custlist.WithDryRun(flags.DryRun),
				custlist.WithReport(flags.Report),
				custlist.WithLogConfig(app.LogConfig()),
			)
			if err != nil {
				return err
			}
			warn := alerts.NewWriterTo(cmd.ErrOrStderr())
			for _, w := range sum.Warnings {
				_ = warn.WriteAlert(alerts.NewWarning(w))
			}
			return output.Print(cmd.OutOrStdout(), app.OutputFormat(), view{*sum})
		},
	}

	cmd.Flags().BoolVar(&flags.Overwrite, "overwrite", false, "replace the master instead of merging into it")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "reconcile without writing any file")
	cmd.Flags().StringVar(&flags.Report, "report", "", "write a markdown run report to `FILE`")
	return cmd
}

// view renders a summary as a property table and as the summary itself otherwise.
type view struct {
	custlist.Summary `yaml:",inline"`
}

// Table implements output.Tabular.
func (v view) Table() output.Data {
	s := v.Summary
	rows := [][]string{
		{"Run", s.RunID},
		{"Input", s.Input},
		{"Master", s.Master},
		{"Rows kept", strconv.Itoa(s.Normalize.Kept)},
		{"Duplicates", strconv.Itoa(s.Normalize.Duplicates)},
		{"Created", strconv.Itoa(s.Reconcile.Created)},
		{"Siblings", strconv.Itoa(s.Reconcile.Siblings)},
		{"Merged", strconv.Itoa(s.Reconcile.Merged)},
		{"Warnings", strconv.Itoa(len(s.Warnings))},
		{"Next serial", strconv.Itoa(s.NextSerial)},
	}
	if s.DryRun {
		rows = append(rows, []string{"Dry run", "nothing written"})
	}
	if len(s.Outputs) > 0 {
		rows = append(rows, []string{"Outputs", strings.Join(s.Outputs, "\n")})
	}
	if s.Backup != "" {
		rows = append(rows, []string{"Backup", s.Backup})
	}
	return output.Data{
		Headers:   []string{"Property", "Value"},
		Rows:      rows,
		Alignment: []output.Align{output.AlignLeft, output.AlignLeft},
	}
}
