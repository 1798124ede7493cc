package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// FileBackend stores a collection as one JSON object mapping key to
// entry. Writes go to a temporary file in the same directory which is
// then renamed over the target, so readers never see a partial file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for the JSON file at path. The file
// and its directory are created on first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Read parses the file, preserving the order of its keys.
func (b *FileBackend) Read(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read entries file")
	}
	recs, err := DecodeRecords(data)
	if err != nil {
		return nil, errors.Wrap(err, b.path)
	}
	return recs, nil
}

// Write replaces the file with recs.
func (b *FileBackend) Write(ctx context.Context, recs []Record) error {
	data, err := EncodeRecords(recs)
	if err != nil {
		return err
	}
	return writeFileAtomic(b.path, data)
}

// DecodeRecords parses a JSON object of key to entry, keeping key order.
// Empty input yields no records.
func DecodeRecords(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("malformed JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.New("top level is not an object")
	}

	var recs []Record
	root.ForEach(func(key, value gjson.Result) bool {
		recs = append(recs, Record{Key: key.String(), Data: []byte(value.Raw)})
		return true
	})
	return recs, nil
}

// EncodeRecords renders recs as an indented JSON object in order.
func EncodeRecords(recs []Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, r := range recs {
		if i > 0 {
			buf.WriteString(",")
		}
		key, err := json.Marshal(r.Key)
		if err != nil {
			return nil, errors.Wrapf(err, "encode key %q", r.Key)
		}
		buf.WriteString("\n  ")
		buf.Write(key)
		buf.WriteString(": ")
		if err := json.Indent(&buf, r.Data, "  ", "  "); err != nil {
			return nil, errors.Wrapf(err, "encode entry %q", r.Key)
		}
	}
	if len(recs) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Location returns the file path.
func (b *FileBackend) Location() string { return b.path }

// Close is a no-op.
func (b *FileBackend) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create entries dir")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}
