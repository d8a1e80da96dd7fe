// Package report renders a markdown summary of a run.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/custlist/internal/extract"
	"github.com/agentstation/custlist/internal/utils/atomicfile"
	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/normalize"
	"github.com/agentstation/custlist/pkg/reconcile"
)

// Report is the data rendered for one run.
type Report struct {
	RunID      string
	Input      string
	Master     string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Overwrite  bool
	NextSerial int

	Tables    []extract.Table
	Normalize normalize.Stats
	Reconcile reconcile.Stats
	Warnings  []string
	Decisions []reconcile.Decision
	Outputs   []string
}

// Builder wraps the markdown package with the sections a run report needs.
type Builder struct {
	md *md.Markdown
}

// NewBuilder returns a builder writing to w.
func NewBuilder(w io.Writer) *Builder {
	return &Builder{md: md.NewMarkdown(w)}
}

// Render writes r to w.
func Render(w io.Writer, r *Report) error {
	b := NewBuilder(w)
	b.header(r)
	b.tables(r.Tables)
	b.stats(r)
	b.warnings(r.Warnings)
	b.decisions(r.Decisions)
	return b.md.Build()
}

// WriteFile renders r into path through a temporary file.
func WriteFile(path string, r *Report) error {
	return atomicfile.WriteFile(path, func(w io.Writer) error {
		return Render(w, r)
	})
}

func (b *Builder) header(r *Report) {
	b.md.H1("custlist run " + r.RunID)

	mode := "merge"
	if r.Overwrite {
		mode = "overwrite"
	}
	if r.DryRun {
		mode += " (dry run)"
	}
	items := []string{
		"Input: " + md.Code(r.Input),
		"Master: " + md.Code(r.Master),
		"Mode: " + mode,
		"Started: " + r.StartedAt.Format(time.RFC3339),
		"Duration: " + r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
		"Next serial counter: " + strconv.Itoa(r.NextSerial),
	}
	for _, out := range r.Outputs {
		items = append(items, "Wrote: "+md.Code(out))
	}
	b.md.BulletList(items...)
}

func (b *Builder) tables(tables []extract.Table) {
	b.md.H2("Input tables")
	if len(tables) == 0 {
		b.md.PlainText("No tables located.")
		return
	}
	rows := make([][]string, 0, len(tables))
	for _, t := range tables {
		status := "used"
		if t.Skipped() {
			status = "skipped: " + t.Reason
		}
		rows = append(rows, []string{t.Sheet, t.Title, strconv.Itoa(t.Rows), status})
	}
	b.md.Table(md.TableSet{Header: []string{"Sheet", "Title", "Rows", "Status"}, Rows: rows})
}

func (b *Builder) stats(r *Report) {
	b.md.H2("Summary")
	n, c := r.Normalize, r.Reconcile
	b.md.Table(md.TableSet{
		Header: []string{"Stage", "Metric", "Value"},
		Rows: [][]string{
			{"normalize", "input rows", strconv.Itoa(n.Input)},
			{"normalize", "kept rows", strconv.Itoa(n.Kept)},
			{"normalize", "exact duplicates", strconv.Itoa(n.Duplicates)},
			{"normalize", "missing email", strconv.Itoa(n.MissingEmail)},
			{"normalize", "missing name", strconv.Itoa(n.MissingName)},
			{"reconcile", "existing records", strconv.Itoa(c.Existing)},
			{"reconcile", "created", strconv.Itoa(c.Created)},
			{"reconcile", "siblings", strconv.Itoa(c.Siblings)},
			{"reconcile", "merged", strconv.Itoa(c.Merged)},
			{"reconcile", "corrupt counts", strconv.Itoa(c.Corrupt)},
		},
	})
}

func (b *Builder) warnings(warnings []string) {
	b.md.H2("Warnings")
	if len(warnings) == 0 {
		b.md.PlainText("None.")
		return
	}
	b.md.BulletList(warnings...)
}

func (b *Builder) decisions(decisions []reconcile.Decision) {
	b.md.H2("Decisions")
	if len(decisions) == 0 {
		b.md.PlainText("No persons in this batch.")
		return
	}
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		rows = append(rows, []string{
			string(d.Action),
			escape(d.Key.Name),
			escape(d.Key.Email),
			d.Serial,
			strings.Join(d.Related, constants.SerialSeparator),
		})
	}
	b.md.Table(md.TableSet{Header: []string{"Action", "Name", "Email", "Serial", "Related"}, Rows: rows})
	b.md.PlainText(fmt.Sprintf("%d decisions.", len(decisions)))
}

// escape keeps pipes in names from breaking table rows.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
