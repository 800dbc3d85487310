package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/emotes/common"
	"github.com/nvr-ai/emotes/util"
)

// Extensions of the files LoadDir reads.
var Extensions = []string{".json", ".yaml", ".yml"}

// Parse decodes one pack file over DefaultPack, so omitted fields keep their
// defaults. JSON is accepted since it is valid YAML. The result is not
// validated.
//
// Arguments:
//   - data: The file content.
//   - source: The file path, kept for error messages.
//
// Returns:
//   - The decoded pack.
//   - An error wrapping common.ErrConfiguration for malformed input.
func Parse(data []byte, source string) (Pack, error) {
	p := DefaultPack()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pack{}, errors.Wrapf(common.ErrConfiguration, "%s: %v", source, err)
	}
	p.Source = source
	return p, nil
}

// LoadDir reads and validates every pack file in dir, in file name order.
//
// Returns:
//   - The packs.
//   - An error wrapping common.ErrConfiguration when dir holds no pack files
//     (a missing directory counts as empty) or a pack is invalid.
//
// @example
// packs, err := config.LoadDir(config.DefaultConfigDir)
func LoadDir(dir string) ([]Pack, error) {
	files, err := util.LoadDirectoryFiles(dir, Extensions...)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "reading pack configs in %s", dir)
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(common.ErrConfiguration, "no emote pack configs found in %s", dir)
	}

	packs := make([]Pack, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		p, err := Parse(f.Data, f.Path)
		if err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if prev, ok := seen[p.ID]; ok {
			return nil, errors.Wrapf(common.ErrConfiguration, "pack id %q defined in %s and %s", p.ID, prev, f.Path)
		}
		seen[p.ID] = f.Path
		packs = append(packs, p)
	}
	return packs, nil
}
