package config

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/custlist/internal/utils/atomicfile"
	"github.com/agentstation/custlist/pkg/errors"
)

// PersistSerialStart rewrites serial.start in the settings document at path.
// Every other key keeps its value and position. A missing document is created
// with just the serial block.
func PersistSerialStart(path string, next int) error {
	data, err := os.ReadFile(path)
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.WrapIO("read", path, err)
	}

	var doc yaml.MapSlice
	if len(data) > 0 {
		if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
			return errors.WrapParse("yaml", path, err)
		}
	}

	doc = setPath(doc, []string{"serial", "start"}, next)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	return atomicfile.WriteFile(path, func(w io.Writer) error {
		_, err := w.Write(out)
		return err
	})
}

// setPath sets value under the nested keys, creating maps as needed.
func setPath(doc yaml.MapSlice, keys []string, value any) yaml.MapSlice {
	key := keys[0]
	for i := range doc {
		if k, ok := doc[i].Key.(string); !ok || k != key {
			continue
		}
		if len(keys) == 1 {
			doc[i].Value = value
			return doc
		}
		child, _ := doc[i].Value.(yaml.MapSlice)
		doc[i].Value = setPath(child, keys[1:], value)
		return doc
	}

	if len(keys) == 1 {
		return append(doc, yaml.MapItem{Key: key, Value: value})
	}
	return append(doc, yaml.MapItem{Key: key, Value: setPath(nil, keys[1:], value)})
}
