// Package manifest describes the generated emote files and persists them.
package manifest

import (
	"bytes"
	"encoding/json"
	"image"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/nvr-ai/emotes/images"
)

// DefaultURLPrefix is the public path the emote files are served under.
const DefaultURLPrefix = "/emotes"

// Item is one emote entry. Field order is the serialized key order.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
	File string `json:"file"`
}

// Pack is one pack entry.
type Pack struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Items []Item `json:"items"`
}

// Manifest is the document the client loads.
type Manifest struct {
	Packs []Pack `json:"packs"`
}

// FileURL returns the public path of an emote file: prefix/pack/item.png.
func FileURL(prefix, packID, itemID string) string {
	if prefix == "" {
		prefix = DefaultURLPrefix
	}
	return path.Join(prefix, packID, itemID+".png")
}

// Marshal encodes m with two-space indentation and a trailing newline.
// Non-ASCII text and HTML characters are written as is.
func (m Manifest) Marshal() ([]byte, error) {
	if m.Packs == nil {
		m.Packs = []Pack{}
	}
	for i := range m.Packs {
		if m.Packs[i].Items == nil {
			m.Packs[i].Items = []Item{}
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, errors.Wrap(err, "encoding manifest")
	}
	return buf.Bytes(), nil
}

// Read loads a manifest file. The builder only writes manifests; Read exists
// so written files can be checked by round trip.
func Read(file string) (Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "reading manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Wrapf(err, "decoding manifest %s", file)
	}
	return m, nil
}

// Write stores m at file atomically.
func Write(file string, m Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return WriteFileAtomic(file, data, 0o644)
}

// WritePNG encodes img with best compression and stores it at file atomically.
func WritePNG(file string, img image.Image) error {
	data, err := images.PNGBytes(img)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", file)
	}
	return WriteFileAtomic(file, data, 0o644)
}

// WriteFileAtomic writes data to a temporary file next to file and renames
// it into place, so readers see either the old or the new content. Missing
// parent directories are created.
func WriteFileAtomic(file string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(file)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", file)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrapf(err, "syncing %s", name)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrapf(err, "closing %s", name)
	}
	if err := os.Chmod(name, perm); err != nil {
		cleanup()
		return errors.Wrapf(err, "chmod %s", name)
	}
	if err := os.Rename(name, file); err != nil {
		cleanup()
		return errors.Wrapf(err, "renaming %s", name)
	}
	return nil
}
