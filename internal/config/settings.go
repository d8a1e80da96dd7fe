// Package config loads settings.yaml and persists the serial counter back into it.
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/serial"
)

// EnvPrefix prefixes environment overrides, e.g. CUSTLIST_PATHS_OUTPUT_EXCEL.
const EnvPrefix = "CUSTLIST"

// Settings is the content of settings.yaml.
type Settings struct {
	Paths   Paths         `mapstructure:"paths" yaml:"paths" json:"paths"`
	Columns Columns       `mapstructure:"columns" yaml:"columns" json:"columns"`
	Serial  serial.Config `mapstructure:"serial" yaml:"serial" json:"serial"`
	Excel   Excel         `mapstructure:"excel" yaml:"excel" json:"excel"`
	CSV     CSV           `mapstructure:"csv" yaml:"csv" json:"csv"`

	// File is the settings document the values were read from, if any.
	File string `mapstructure:"-" yaml:"-" json:"file,omitempty"`
}

// Paths locates every file a run reads or writes.
type Paths struct {
	OutputExcel string `mapstructure:"output_excel" yaml:"output_excel" json:"output_excel"`
	BakDir      string `mapstructure:"bak_dir" yaml:"bak_dir" json:"bak_dir"`
	LogsDir     string `mapstructure:"logs_dir" yaml:"logs_dir" json:"logs_dir"`
	CSVPattern  string `mapstructure:"csv_pattern" yaml:"csv_pattern" json:"csv_pattern"`

	// RemovedPattern enables the export of records folded into existing ones.
	RemovedPattern string `mapstructure:"removed_pattern" yaml:"removed_pattern" json:"removed_pattern,omitempty"`

	// AuditDB enables the SQLite run journal.
	AuditDB string `mapstructure:"audit_db" yaml:"audit_db" json:"audit_db,omitempty"`
}

// Columns lists, per field, the header names that may carry it in input tables.
// The first candidate present in a table wins.
type Columns struct {
	URL     []string `mapstructure:"url" yaml:"url" json:"url"`
	Name    []string `mapstructure:"name" yaml:"name" json:"name"`
	Email   []string `mapstructure:"email" yaml:"email" json:"email"`
	Tel     []string `mapstructure:"tel" yaml:"tel" json:"tel"`
	Addr    []string `mapstructure:"addr" yaml:"addr" json:"addr"`
	AddrID  []string `mapstructure:"addr_id" yaml:"addr_id" json:"addr_id"`
	Remarks []string `mapstructure:"remarks" yaml:"remarks" json:"remarks"`
}

// Excel configures workbook styling.
type Excel struct {
	FontName string `mapstructure:"font_name" yaml:"font_name" json:"font_name"`
}

// CSV configures the flat exports.
type CSV struct {
	Encoding string `mapstructure:"encoding" yaml:"encoding" json:"encoding"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.output_excel", constants.DefaultMasterPath)
	v.SetDefault("paths.bak_dir", constants.DefaultBackupDir)
	v.SetDefault("paths.logs_dir", constants.DefaultLogsDir)
	v.SetDefault("paths.csv_pattern", constants.DefaultCSVPattern)
	v.SetDefault("paths.removed_pattern", "")
	v.SetDefault("paths.audit_db", "")

	v.SetDefault("columns.url", []string{"閲覧用URL", "URL"})
	v.SetDefault("columns.name", []string{"氏名", "名前"})
	v.SetDefault("columns.email", []string{"メールアドレス", "メール"})
	v.SetDefault("columns.tel", []string{"電話番号", "TEL"})
	v.SetDefault("columns.addr", []string{"登録住所", "住所"})
	v.SetDefault("columns.addr_id", []string{"本人確認登録時住所"})
	v.SetDefault("columns.remarks", []string{"備考"})

	d := serial.DefaultConfig()
	v.SetDefault("serial.prefix", d.Prefix)
	v.SetDefault("serial.digits", d.Digits)
	v.SetDefault("serial.start", d.Start)
	v.SetDefault("serial.random_suffix.charset", d.RandomSuffix.Charset)
	v.SetDefault("serial.random_suffix.length", d.RandomSuffix.Length)

	v.SetDefault("excel.font_name", constants.DefaultFontName)
	v.SetDefault("csv.encoding", constants.DefaultCSVEncoding)
}

// Load reads settings from path, falling back to defaults for absent keys.
// A missing file yields the defaults. Environment variables prefixed with
// CUSTLIST_ override file values.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := ""
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.WrapParse("yaml", path, err)
			}
			file = path
		} else if !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.WrapIO("read", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.NewConfigError("settings", "cannot decode settings", err)
	}
	s.File = file

	if err := s.Validate(); err != nil {
		return nil, errors.NewConfigError("settings", err.Error(), err)
	}
	return &s, nil
}

// Validate checks the settings a run depends on.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Paths.OutputExcel) == "" {
		return errors.NewValidationError("paths.output_excel", s.Paths.OutputExcel, "must not be empty")
	}
	if len(s.Columns.Email) == 0 {
		return errors.NewValidationError("columns.email", s.Columns.Email, "needs at least one candidate")
	}
	return s.Serial.Validate()
}

// ExportPath expands the csv pattern for a run started at t.
func (s *Settings) ExportPath(t time.Time) string {
	return Stamp(s.Paths.CSVPattern, t)
}

// RemovedPath expands the removed-records pattern, or returns "" when disabled.
func (s *Settings) RemovedPath(t time.Time) string {
	if s.Paths.RemovedPattern == "" {
		return ""
	}
	return Stamp(s.Paths.RemovedPattern, t)
}

// Stamp replaces the {yyyymmdd} placeholder in pattern with t.
func Stamp(pattern string, t time.Time) string {
	return strings.ReplaceAll(pattern, constants.StampPlaceholder, t.Format(constants.FileStampLayout))
}
