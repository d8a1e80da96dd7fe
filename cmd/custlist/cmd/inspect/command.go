// Package inspect provides the inspect command.
package inspect

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/custlist"
	"github.com/agentstation/custlist/cmd/application"
	"github.com/agentstation/custlist/internal/audit"
	"github.com/agentstation/custlist/internal/cmd/output"
	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/logging"
)

// NewCommand creates the inspect command and its history subcommand.
func NewCommand(app application.Application) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:     "inspect",
		GroupID: "core",
		Short:   "Show master list statistics",
		Long: `Inspect reads the master named in the settings file and prints its
record count, distinct identities, sibling groups, total occurrences and the
most frequent events. When an audit journal is configured the latest runs
are listed too.`,
		Example: `  custlist inspect
  custlist inspect --top 5 -o json
  custlist inspect history C000042XY`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			stats, err := custlist.Inspect(ctx, top, custlist.WithSettingsFile(app.SettingsFile()))
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), app.OutputFormat(), statsView{*stats})
		},
	}
	cmd.Flags().IntVar(&top, "top", constants.DefaultInspectTop, "number of events and runs to list (0 for all)")

	cmd.AddCommand(newHistoryCommand(app))
	return cmd
}

func newHistoryCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "history <serial>",
		Short: "List journaled decisions for a serial",
		Long: `History lists every journaled decision that created the serial, merged
a batch into it or cited it from a sibling. It requires paths.audit_db and
fails when the journal holds nothing for the serial.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			entries, err := custlist.SerialHistory(ctx, args[0], custlist.WithSettingsFile(app.SettingsFile()))
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), app.OutputFormat(), historyView(entries))
		},
	}
}

type statsView struct {
	custlist.MasterStats `yaml:",inline"`
}

// Table implements output.Tabular.
func (v statsView) Table() output.Data {
	s := v.MasterStats
	rows := [][]string{
		{"Master", s.Master},
		{"Records", strconv.Itoa(s.Records)},
		{"Identities", strconv.Itoa(s.Identities)},
		{"Sibling groups", strconv.Itoa(s.SiblingGroups)},
		{"Occurrences", strconv.Itoa(s.Occurrences)},
		{"Corrupt counts", strconv.Itoa(s.CorruptCounts)},
		{"Next serial", strconv.Itoa(s.NextSerial)},
	}
	for _, e := range s.Events {
		rows = append(rows, []string{"Event " + e.Event, strconv.Itoa(e.Records)})
	}
	for _, r := range s.Runs {
		rows = append(rows, []string{
			"Run " + r.StartedAt.Format(constants.FileStampLayout),
			r.ID + " (+" + strconv.Itoa(r.Created) + " ~" + strconv.Itoa(r.Merged) + " =" + strconv.Itoa(r.Siblings) + ")",
		})
	}
	return output.Data{
		Headers:   []string{"Property", "Value"},
		Rows:      rows,
		Alignment: []output.Align{output.AlignLeft, output.AlignRight},
	}
}

type historyView []audit.Entry

// Table implements output.Tabular.
func (v historyView) Table() output.Data {
	d := output.Data{Headers: []string{"Day", "Run", "Action", "Serial", "Name", "Email", "Related"}}
	for _, e := range v {
		d.Rows = append(d.Rows, []string{
			e.Day, e.RunID, string(e.Action), e.Serial, e.Name, e.Email, strings.Join(e.Related, ", "),
		})
	}
	return d
}
