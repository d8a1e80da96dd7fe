package store

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/custlist/internal/utils/atomicfile"
	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/logging"
	"github.com/agentstation/custlist/pkg/records"
)

// masterSheet is the sheet name of a workbook master.
const masterSheet = "Sheet1"

// Table is a flat export: a header row followed by data rows.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
}

// Plan is everything one run persists.
type Plan struct {
	MasterPath string
	Records    []*records.MasterRecord

	// Exports are written as CSV in the writer's export encoding.
	Exports []Table
}

// Writer persists plans.
type Writer struct {
	opts *options
}

// NewWriter creates a Writer with options.
func NewWriter(opts ...Option) (*Writer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return &Writer{opts: o}, nil
}

// Pending is a staged plan waiting to be committed or discarded.
type Pending struct {
	w       *Writer
	master  *atomicfile.Staged
	exports []*atomicfile.Staged
}

// Committed reports what a commit wrote.
type Committed struct {
	Master  string
	Exports []string
	Backup  string
	Styled  bool
}

// Stage writes every output of plan to temporary files.
// On error nothing is left staged and no persisted file has changed.
func (w *Writer) Stage(ctx context.Context, plan *Plan) (*Pending, error) {
	logger := logging.FromContext(ctx)

	if err := checkWritable(plan.MasterPath); err != nil {
		return nil, err
	}
	for _, t := range plan.Exports {
		if err := checkWritable(t.Path); err != nil {
			return nil, err
		}
	}

	p := &Pending{w: w}
	var err error
	p.master, err = atomicfile.Stage(plan.MasterPath, func(out io.Writer) error {
		return writeMaster(out, plan.MasterPath, plan.Records)
	})
	if err != nil {
		return nil, errors.WrapResource("stage", "master", plan.MasterPath, err)
	}

	for _, t := range plan.Exports {
		staged, err := atomicfile.Stage(t.Path, func(out io.Writer) error {
			return writeCSV(out, w.opts.encoding, t.Header, t.Rows)
		})
		if err != nil {
			p.Discard()
			return nil, errors.WrapResource("stage", "export", t.Path, err)
		}
		p.exports = append(p.exports, staged)
	}

	logger.Debug().
		Str("master", plan.MasterPath).
		Int("records", len(plan.Records)).
		Int("exports", len(plan.Exports)).
		Msg("staged outputs")
	return p, nil
}

// Discard removes all staged files.
func (p *Pending) Discard() {
	if p == nil {
		return
	}
	p.master.Discard()
	for _, s := range p.exports {
		s.Discard()
	}
}

// Commit swaps the exports into place, backs up the previous master, swaps
// the master last and styles a workbook master. Backup and styling failures
// are logged only.
//
// On error the master is unchanged and exports this commit created are
// removed again. An export that already existed keeps its new content.
func (p *Pending) Commit(ctx context.Context) (*Committed, error) {
	logger := logging.FromContext(ctx)
	done := &Committed{Master: p.master.Path}

	for i, s := range p.exports {
		if err := s.Commit(); err != nil {
			p.rollback(ctx, i)
			return nil, err
		}
		done.Exports = append(done.Exports, s.Path)
	}

	if backup, err := p.w.backup(p.master.Path); err != nil {
		logger.Warn().Err(err).Str("master", p.master.Path).Msg("backup failed; continuing")
	} else if backup != "" {
		done.Backup = backup
		logger.Info().Str("backup", backup).Msg("backed up master")
	}

	if err := p.master.Commit(); err != nil {
		p.rollback(ctx, len(p.exports))
		return nil, err
	}

	if p.w.opts.styler != nil && IsWorkbook(done.Master) {
		if err := p.w.opts.styler.Style(ctx, done.Master); err != nil {
			logger.Warn().Err(err).Str("master", done.Master).Msg("styling failed; workbook left unstyled")
		} else {
			done.Styled = true
		}
	}
	return done, nil
}

// rollback discards everything still staged and reverts the first n exports.
func (p *Pending) rollback(ctx context.Context, n int) {
	logger := logging.FromContext(ctx)
	p.Discard()
	for _, s := range p.exports[:n] {
		if !s.Revert() {
			logger.Warn().Str("export", s.Path).Msg("export replaced before commit failed")
		}
	}
}

// Write stages and commits plan in one step.
func (w *Writer) Write(ctx context.Context, plan *Plan) (*Committed, error) {
	p, err := w.Stage(ctx, plan)
	if err != nil {
		return nil, err
	}
	return p.Commit(ctx)
}

// BackupName returns the backup file name for master at the given stamp.
func BackupName(master, stamp string) string {
	base := filepath.Base(master)
	ext := filepath.Ext(base)
	return "bak_" + strings.TrimSuffix(base, ext) + "_" + stamp + ext
}

func (w *Writer) backup(master string) (string, error) {
	if w.opts.backupDir == "" {
		return "", nil
	}
	if _, err := os.Stat(master); stderrors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	dst := filepath.Join(w.opts.backupDir, BackupName(master, w.opts.clock().Format(constants.FileStampLayout)))
	if err := atomicfile.Copy(master, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// checkWritable fails fast when an existing output cannot be opened for writing,
// which is how a workbook held open by a spreadsheet application shows up.
func checkWritable(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	switch {
	case err == nil:
		return f.Close()
	case stderrors.Is(err, fs.ErrNotExist):
		return nil
	case stderrors.Is(err, fs.ErrPermission):
		return errors.NewLockedError(path, err)
	default:
		return errors.WrapIO("open", path, err)
	}
}

func writeMaster(out io.Writer, path string, recs []*records.MasterRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, m := range recs {
		rows = append(rows, m.Row())
	}
	if IsWorkbook(path) {
		return writeWorkbook(out, records.MasterColumns, rows)
	}
	return writeCSV(out, exportEncoding{EncodingUTF8}, records.MasterColumns, rows)
}

func writeWorkbook(out io.Writer, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	put := func(r int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		return f.SetSheetRow(masterSheet, cell, &values)
	}
	if err := put(1, header); err != nil {
		return errors.WrapResource("write", "sheet", masterSheet, err)
	}
	for i, row := range rows {
		if err := put(i+2, row); err != nil {
			return errors.WrapResource("write", "sheet", masterSheet, err)
		}
	}
	if _, err := f.WriteTo(out); err != nil {
		return errors.WrapIO("write", "workbook", err)
	}
	return nil
}

func writeCSV(out io.Writer, enc exportEncoding, header []string, rows [][]string) error {
	dst, closeEnc, err := enc.wrap(out)
	if err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	cw := csv.NewWriter(dst)
	if err := cw.Write(header); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	if err := closeEnc(); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	return nil
}
