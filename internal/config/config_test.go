package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custlist/pkg/errors"
)

const sampleSettings = `paths:
  output_excel: out/CustList.xlsx
  bak_dir: out/bak
  logs_dir: logs
  csv_pattern: out/CustList_{yyyymmdd}.csv
columns:
  url: [閲覧用URL]
  name: [氏名]
  email: [メールアドレス, E-mail]
  tel: [電話番号]
  addr: [登録住所]
  addr_id: [本人確認登録時住所]
serial:
  prefix: K
  digits: 5
  start: 120
  random_suffix:
    charset: XYZ
    length: 1
excel:
  font_name: Meiryo UI
csv:
  encoding: cp932
`

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeSettings(t, sampleSettings)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, s.File)
	assert.Equal(t, "out/CustList.xlsx", s.Paths.OutputExcel)
	assert.Equal(t, []string{"メールアドレス", "E-mail"}, s.Columns.Email)
	assert.Equal(t, []string{"備考"}, s.Columns.Remarks, "absent keys fall back to defaults")
	assert.Equal(t, "K", s.Serial.Prefix)
	assert.Equal(t, 5, s.Serial.Digits)
	assert.Equal(t, 120, s.Serial.Start)
	assert.Equal(t, "XYZ", s.Serial.RandomSuffix.Charset)
	assert.Equal(t, 1, s.Serial.RandomSuffix.Length)
	assert.Equal(t, "cp932", s.CSV.Encoding)
	assert.Empty(t, s.Paths.AuditDB)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	assert.Empty(t, s.File)
	assert.Equal(t, "output/CustList.xlsx", s.Paths.OutputExcel)
	assert.Equal(t, "C", s.Serial.Prefix)
	assert.Equal(t, 6, s.Serial.Digits)
	assert.Equal(t, "utf-8", s.CSV.Encoding)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CUSTLIST_PATHS_OUTPUT_EXCEL", "env/Master.csv")
	t.Setenv("CUSTLIST_SERIAL_START", "900")

	s, err := Load(writeSettings(t, sampleSettings))
	require.NoError(t, err)
	assert.Equal(t, "env/Master.csv", s.Paths.OutputExcel)
	assert.Equal(t, 900, s.Serial.Start)
}

func TestLoadRejectsInvalid(t *testing.T) {
	bad := strings.Replace(sampleSettings, "digits: 5", "digits: 0", 1)
	_, err := Load(writeSettings(t, bad))
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.True(t, errors.IsValidationError(err))
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeSettings(t, "paths: [unterminated\n"))
	require.Error(t, err)
}

func TestPersistSerialStart(t *testing.T) {
	path := writeSettings(t, sampleSettings)

	require.NoError(t, PersistSerialStart(path, 131))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 131, s.Serial.Start)
	assert.Equal(t, "K", s.Serial.Prefix)
	assert.Equal(t, []string{"メールアドレス", "E-mail"}, s.Columns.Email)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Less(t, strings.Index(text, "paths:"), strings.Index(text, "columns:"), "key order is kept")
	assert.Less(t, strings.Index(text, "columns:"), strings.Index(text, "serial:"))
	assert.Less(t, strings.Index(text, "serial:"), strings.Index(text, "excel:"))
	assert.Less(t, strings.Index(text, "prefix:"), strings.Index(text, "start:"))
}

func TestPersistSerialStartCreatesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, PersistSerialStart(path, 7))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Serial.Start)
	assert.Equal(t, "C", s.Serial.Prefix)
}

func TestStamp(t *testing.T) {
	at := time.Date(2026, 3, 9, 14, 5, 0, 0, time.UTC)

	s := &Settings{Paths: Paths{CSVPattern: "out/CustList_{yyyymmdd}.csv"}}
	assert.Equal(t, "out/CustList_2026-03-09_1405.csv", s.ExportPath(at))
	assert.Empty(t, s.RemovedPath(at))

	s.Paths.RemovedPattern = "out/CustList_{yyyymmdd}_removed.csv"
	assert.Equal(t, "out/CustList_2026-03-09_1405_removed.csv", s.RemovedPath(at))
}
