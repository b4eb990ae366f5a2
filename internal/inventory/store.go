package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/logistock/logistock/internal/shared"
)

// Store persists a whole ledger.
type Store interface {
	Save(ctx context.Context, l *Ledger) error
	Load(ctx context.Context, l *Ledger) (LoadResult, error)
}

// FileStore keeps the ledger in a CSV file.
type FileStore struct {
	path     string
	encoding encoding.Encoding
}

// NewFileStore builds a FileStore for path. An empty path selects DefaultFile.
// enc decodes legacy files on load; nil means UTF-8.
func NewFileStore(path string, enc encoding.Encoding) *FileStore {
	if strings.TrimSpace(path) == "" {
		path = DefaultFile
	}
	return &FileStore{path: path, encoding: enc}
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// LookupEncoding resolves a source encoding name. Empty and "utf-8" return nil.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	default:
		return nil, fmt.Errorf("inventory: unsupported csv encoding %q", name)
	}
}

// Save overwrites the file with the ledger contents. The data is written to a
// temporary file in the same directory and renamed into place, keeping the
// permissions of the file it replaces.
func (s *FileStore) Save(ctx context.Context, l *Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".inventory-*.csv")
	if err != nil {
		return ioFailure(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return ioFailure(err)
	}

	if err := l.Save(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return ioFailure(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return ioFailure(err)
	}
	return nil
}

// Load replaces the ledger with the file contents. A missing file empties the
// ledger and is reported through LoadResult.Missing rather than as an error.
func (s *FileStore) Load(ctx context.Context, l *Ledger) (LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return LoadResult{}, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.Reset()
		return LoadResult{
			Missing:  true,
			Warnings: []string{fmt.Sprintf("File '%s' does not exist. Starting with an empty inventory.", s.path)},
		}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("inventory: open %s: %w: %w", s.path, shared.ErrIOFailure, err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.encoding != nil {
		r = transform.NewReader(f, s.encoding.NewDecoder())
	}
	return l.Load(r)
}
