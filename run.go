package custlist

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/custlist/internal/audit"
	"github.com/agentstation/custlist/internal/config"
	"github.com/agentstation/custlist/internal/extract"
	"github.com/agentstation/custlist/internal/report"
	"github.com/agentstation/custlist/internal/styling"
	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/logging"
	"github.com/agentstation/custlist/pkg/normalize"
	"github.com/agentstation/custlist/pkg/reconcile"
	"github.com/agentstation/custlist/pkg/records"
	"github.com/agentstation/custlist/pkg/serial"
	"github.com/agentstation/custlist/pkg/store"
)

// Summary describes a finished run.
type Summary struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Input      string    `json:"input" yaml:"input"`
	Master     string    `json:"master" yaml:"master"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	DryRun     bool      `json:"dry_run" yaml:"dry_run"`
	Overwrite  bool      `json:"overwrite" yaml:"overwrite"`
	NextSerial int       `json:"next_serial" yaml:"next_serial"`

	Normalize normalize.Stats `json:"normalize" yaml:"normalize"`
	Reconcile reconcile.Stats `json:"reconcile" yaml:"reconcile"`
	Warnings  []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Outputs lists every file the run wrote, master first.
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Backup  string   `json:"backup,omitempty" yaml:"backup,omitempty"`
	LogFile string   `json:"log_file,omitempty" yaml:"log_file,omitempty"`

	Tables    []extract.Table      `json:"-" yaml:"-"`
	Decisions []reconcile.Decision `json:"-" yaml:"-"`
}

// Run processes one input file against the configured master.
//
// Fatal errors leave every persisted file as it was. Failures of the backup
// copy, the workbook styling, the audit journal and the run report are logged
// and the run still succeeds.
func Run(ctx context.Context, input string, opts ...Option) (*Summary, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	settings := o.settings
	if settings == nil {
		if settings, err = config.Load(o.settingsFile); err != nil {
			return nil, err
		}
	}

	now := o.clock()
	sum := &Summary{
		RunID:     o.runID,
		Input:     input,
		Master:    settings.Paths.OutputExcel,
		StartedAt: now,
		DryRun:    o.dryRun,
		Overwrite: o.overwrite,
	}
	if sum.RunID == "" {
		sum.RunID = uuid.NewString()
	}

	ctx, closeLog := openRunLog(ctx, o, settings, now, sum)
	defer closeLog()
	ctx = logging.WithRunID(ctx, sum.RunID)
	ctx = logging.WithInput(ctx, input)
	logger := logging.FromContext(ctx)

	logger.Info().
		Str("master", sum.Master).
		Bool("overwrite", o.overwrite).
		Bool("dry_run", o.dryRun).
		Msg("run started")

	if err := stage(ctx, "extract"); err != nil {
		return sum, err
	}
	extraction, err := extract.New(settings.Columns).Extract(logging.WithOperation(ctx, "extract"), input)
	if err != nil {
		return sum, err
	}
	sum.Tables = extraction.Tables
	if err := stage(ctx, "normalize"); err != nil {
		return sum, err
	}

	batch := normalize.Normalize(logging.WithOperation(ctx, "normalize"), extraction.Observations)
	sum.Normalize = batch.Stats
	if err := stage(ctx, "load"); err != nil {
		return sum, err
	}

	existing, err := store.Load(settings.Paths.OutputExcel)
	if err != nil {
		return sum, err
	}
	master := existing
	if o.overwrite {
		logger.Info().Int("records", len(existing)).Msg("overwrite mode: previous master replaced")
		master = nil
	}

	issuer, err := serial.NewIssuer(settings.Serial, store.Serials(existing), o.serialOpts...)
	if err != nil {
		return sum, errors.NewConfigError("serial", err.Error(), err)
	}
	rec, err := reconcile.New(reconcile.WithClock(o.clock))
	if err != nil {
		return sum, err
	}
	res, err := rec.Reconcile(logging.WithOperation(ctx, "reconcile"), master, batch.Aggregates, issuer)
	if err != nil {
		return sum, err
	}
	sum.Reconcile = res.Stats
	sum.Warnings = res.Warnings
	sum.Decisions = res.Decisions
	sum.NextSerial = issuer.Next()
	logger.Info().Str("result", res.Summary()).Int("next_serial", sum.NextSerial).Msg("reconciled")

	if o.dryRun {
		logger.Info().Msg("dry run: nothing written")
		return finish(ctx, o, sum), nil
	}
	if err := stage(ctx, "write"); err != nil {
		return sum, err
	}

	if err := commit(logging.WithOperation(ctx, "write"), settings, o, now, batch, res, sum); err != nil {
		return sum, err
	}

	if file := settingsTarget(o, settings); file != "" {
		if err := config.PersistSerialStart(file, sum.NextSerial); err != nil {
			return sum, errors.WrapResource("persist", "serial counter", file, err)
		}
	}

	sum.FinishedAt = o.clock()
	journal(ctx, settings, sum)
	return finish(ctx, o, sum), nil
}

// stage fails when ctx was canceled before the named stage could start.
func stage(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w before %s: %w", errors.ErrCanceled, name, err)
	}
	return nil
}

func openRunLog(ctx context.Context, o *options, s *config.Settings, now time.Time, sum *Summary) (context.Context, func()) {
	if s.Paths.LogsDir == "" {
		return ctx, func() {}
	}
	logger, closer, path, err := logging.AttachFile(o.logConfig, s.Paths.LogsDir, now)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("log file unavailable; logging to console only")
		return ctx, func() {}
	}
	sum.LogFile = path
	return logging.WithLogger(ctx, &logger), func() { _ = closer.Close() }
}

func commit(ctx context.Context, s *config.Settings, o *options, now time.Time,
	batch *normalize.Batch, res *reconcile.Result, sum *Summary) error {
	serialFor := func(key records.PersonKey) string {
		id, _ := res.SerialFor(key)
		return id
	}
	plan := &store.Plan{
		MasterPath: s.Paths.OutputExcel,
		Records:    res.Records,
		Exports:    []store.Table{store.ExportTable(s.ExportPath(now), batch.Rows, serialFor)},
	}
	if removed := s.RemovedPath(now); removed != "" && len(res.Folded) > 0 {
		plan.Exports = append(plan.Exports, store.FoldedTable(removed, res.Folded, serialFor))
	}

	writer, err := store.NewWriter(
		store.WithBackupDir(s.Paths.BakDir),
		store.WithClock(o.clock),
		store.WithStyler(styling.New(s.Excel.FontName)),
		store.WithExportEncoding(s.CSV.Encoding),
	)
	if err != nil {
		return err
	}
	pending, err := writer.Stage(ctx, plan)
	if err != nil {
		return err
	}
	done, err := pending.Commit(ctx)
	if done != nil {
		sum.Backup = done.Backup
		sum.Outputs = append([]string{done.Master}, done.Exports...)
	}
	return err
}

// settingsTarget is the file the serial counter is written back to.
func settingsTarget(o *options, s *config.Settings) string {
	if s.File != "" {
		return s.File
	}
	return o.settingsFile
}

func journal(ctx context.Context, s *config.Settings, sum *Summary) {
	if s.Paths.AuditDB == "" {
		return
	}
	logger := logging.FromContext(ctx)
	j, err := audit.Open(s.Paths.AuditDB)
	if err != nil {
		logger.Warn().Err(err).Msg("audit journal unavailable")
		return
	}
	defer func() { _ = j.Close() }()

	run := audit.Run{
		ID:           sum.RunID,
		StartedAt:    sum.StartedAt,
		FinishedAt:   sum.FinishedAt,
		Input:        sum.Input,
		Master:       sum.Master,
		Overwrite:    sum.Overwrite,
		Observations: sum.Normalize.Kept,
		Created:      sum.Reconcile.Created,
		Siblings:     sum.Reconcile.Siblings,
		Merged:       sum.Reconcile.Merged,
		Warnings:     len(sum.Warnings),
		NextSerial:   sum.NextSerial,
	}
	if err := j.Record(ctx, run, sum.Decisions); err != nil {
		logger.Warn().Err(err).Msg("audit journal not updated")
	}
}

// finish stamps the summary and writes the report, if one was requested.
func finish(ctx context.Context, o *options, sum *Summary) *Summary {
	logger := logging.FromContext(ctx)
	if sum.FinishedAt.IsZero() {
		sum.FinishedAt = o.clock()
	}
	if o.reportPath != "" {
		if err := report.WriteFile(o.reportPath, sum.report()); err != nil {
			logger.Warn().Err(err).Str("report", o.reportPath).Msg("run report not written")
		} else {
			sum.Outputs = append(sum.Outputs, o.reportPath)
		}
	}
	logger.Info().Strs("outputs", sum.Outputs).Msg("run finished")
	return sum
}

func (s *Summary) report() *report.Report {
	return &report.Report{
		RunID:      s.RunID,
		Input:      s.Input,
		Master:     s.Master,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		DryRun:     s.DryRun,
		Overwrite:  s.Overwrite,
		NextSerial: s.NextSerial,
		Tables:     s.Tables,
		Normalize:  s.Normalize,
		Reconcile:  s.Reconcile,
		Warnings:   s.Warnings,
		Decisions:  s.Decisions,
		Outputs:    s.Outputs,
	}
}

// WriteReport renders the summary as markdown to w.
func (s *Summary) WriteReport(w io.Writer) error {
	return report.Render(w, s.report())
}
