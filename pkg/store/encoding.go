package store

import (
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/agentstation/custlist/pkg/errors"
)

// Encoding names accepted for the flat export.
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF8BOM = "utf-8-sig"
	EncodingSJIS    = "shift_jis"
	EncodingCP932   = "cp932"
)

// exportEncoding wraps a writer so CSV text is emitted in the named encoding.
type exportEncoding struct {
	name string
}

func parseEncoding(name string) (exportEncoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "", "utf8", EncodingUTF8:
		return exportEncoding{EncodingUTF8}, nil
	case "utf8-sig", EncodingUTF8BOM, "utf-8-bom":
		return exportEncoding{EncodingUTF8BOM}, nil
	case "shift-jis", "sjis", EncodingCP932, "windows-31j":
		return exportEncoding{EncodingSJIS}, nil
	}
	return exportEncoding{}, errors.NewValidationError("csv.encoding", name,
		"unsupported encoding (use utf-8, utf-8-sig, shift_jis or cp932)")
}

// wrap returns a writer applying the encoding and a closer that flushes it.
func (e exportEncoding) wrap(w io.Writer) (io.Writer, func() error, error) {
	switch e.name {
	case EncodingUTF8BOM:
		if _, err := io.WriteString(w, bom); err != nil {
			return nil, nil, err
		}
		return w, func() error { return nil }, nil
	case EncodingSJIS:
		// Characters outside the code page are replaced rather than failing the export.
		enc := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder())
		tw := transform.NewWriter(w, enc)
		return tw, tw.Close, nil
	default:
		return w, func() error { return nil }, nil
	}
}
