// Package constants provides shared constants used throughout the custlist codebase.
// This includes file permissions, field separators, date layouts and default paths
// that must stay consistent between runs so persisted files remain readable.
package constants

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Separator constants for multi-valued text fields
const (
	// ListSeparator joins event titles and history annotations in persisted cells
	ListSeparator = "|"

	// SerialSeparator joins serials cited inside a single history annotation
	SerialSeparator = ", "

	// ListSeparatorSubstitute replaces ListSeparator inside extracted event titles
	ListSeparatorSubstitute = "/"
)

// Date layouts
const (
	// DateLayout stamps history annotations ("2006-01-02:updated")
	DateLayout = "2006-01-02"

	// FileStampLayout is used in backup and export filenames
	FileStampLayout = "2006-01-02_1504"

	// LogStampLayout names per-run log files
	LogStampLayout = "20060102_150405"
)

// Default paths and settings
const (
	// DefaultSettingsFile is the settings document read when --settings is not given
	DefaultSettingsFile = "settings.yaml"

	// DefaultMasterPath is the default location of the persisted master store
	DefaultMasterPath = "output/CustList.xlsx"

	// DefaultBackupDir receives a copy of the master before every overwrite
	DefaultBackupDir = "output/bak"

	// DefaultLogsDir receives per-run log files
	DefaultLogsDir = "logs"

	// DefaultCSVPattern is the flat export path; {yyyymmdd} is replaced with a file stamp
	DefaultCSVPattern = "output/CustList_{yyyymmdd}.csv"

	// DefaultFontName is applied to every cell of a styled workbook
	DefaultFontName = "Meiryo UI"

	// DefaultCSVEncoding is the encoding of the flat export
	DefaultCSVEncoding = "utf-8"

	// StampPlaceholder is replaced in path patterns with a FileStampLayout timestamp
	StampPlaceholder = "{yyyymmdd}"
)

// Serial defaults
const (
	// DefaultSerialPrefix starts every issued serial
	DefaultSerialPrefix = "C"

	// DefaultSerialDigits is the zero-padded width of the counter part
	DefaultSerialDigits = 6

	// DefaultSerialStart is the first counter value of a fresh store
	DefaultSerialStart = 1

	// DefaultSuffixCharset is the alphabet of the random suffix
	DefaultSuffixCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// DefaultSuffixLength is the length of the random suffix
	DefaultSuffixLength = 2
)

// TitleMarker opens the title cell of a table block in an input workbook
const TitleMarker = "【"

// HeaderMarker identifies the header row of a table block
const HeaderMarker = "No."

// CLI defaults
const (
	// DefaultInspectTop is how many events and runs `custlist inspect` lists
	DefaultInspectTop = 10
)
