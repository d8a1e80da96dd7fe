package output

import "io"

// Print renders data in the named format, detecting one from the terminal when
// name is empty.
func Print(w io.Writer, name string, data any) error {
	format, err := ParseFormat(name)
	if err != nil {
		return err
	}
	if format == "" {
		format = DetectFormat("")
	}
	return NewFormatter(format).Format(w, data)
}
