package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
)

// AttachFile builds a logger from cfg that additionally writes JSON lines to
// dir/run_<stamp>.log. The returned closer closes the log file; the path of the
// file is returned so it can be reported to the user.
func AttachFile(cfg *Config, dir string, now time.Time) (zerolog.Logger, io.Closer, string, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return build(cfg, nil), nil, "", errors.WrapIO("create", dir, err)
	}

	path := filepath.Join(dir, "run_"+now.Format(constants.LogStampLayout)+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return build(cfg, nil), nil, "", errors.WrapIO("open", path, err)
	}
	return build(cfg, file), file, path, nil
}
