// Package styling applies the house style to committed workbooks: one font
// family, no borders and text number format on every used cell.
package styling

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/custlist/internal/utils/atomicfile"
	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/logging"
)

// textFormat is the built-in number format id for "@".
const textFormat = 49

// Styler restyles a workbook file in place.
type Styler interface {
	Style(ctx context.Context, path string) error
}

// Workbook styles .xlsx files with excelize.
type Workbook struct {
	FontName string
}

// New returns a Workbook styler using font, or the default font when empty.
func New(font string) *Workbook {
	if font == "" {
		font = constants.DefaultFontName
	}
	return &Workbook{FontName: font}
}

// Style rewrites path with the style applied. The rewrite goes through a
// temporary file, so a failure leaves the unstyled workbook in place.
// Non-workbook paths are ignored.
func (w *Workbook) Style(ctx context.Context, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return nil
	}
	logger := logging.FromContext(ctx)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return errors.WrapParse("xlsx", path, err)
	}
	defer func() { _ = f.Close() }()

	style, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Family: w.FontName},
		NumFmt: textFormat,
	})
	if err != nil {
		return errors.WrapResource("create", "style", w.FontName, err)
	}

	cells := 0
	for _, sheet := range f.GetSheetList() {
		n, err := applySheet(f, sheet, style)
		if err != nil {
			return err
		}
		cells += n
	}

	if err := atomicfile.WriteFile(path, func(out io.Writer) error {
		_, err := f.WriteTo(out)
		return err
	}); err != nil {
		return err
	}

	logger.Debug().Str("path", path).Str("font", w.FontName).Int("cells", cells).Msg("styled workbook")
	return nil
}

func applySheet(f *excelize.File, sheet string, style int) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, errors.WrapResource("read", "sheet", sheet, err)
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	if len(rows) == 0 || width == 0 {
		return 0, nil
	}
	end, err := excelize.CoordinatesToCellName(width, len(rows))
	if err != nil {
		return 0, errors.WrapResource("style", "sheet", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", end, style); err != nil {
		return 0, errors.WrapResource("style", "sheet", sheet, err)
	}
	return width * len(rows), nil
}
