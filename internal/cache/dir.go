package cache

import (
	"crypto/sha1" //nolint:gosec // used for stable file names, not for security
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// recordExt is the file extension of persisted records.
const recordExt = ".json"

// Key returns the storage key of url: the hex-encoded SHA-1 of its UTF-8
// bytes. Collisions are accepted as negligible.
func Key(url string) string {
	sum := sha1.Sum([]byte(url)) //nolint:gosec // see import comment
	return hex.EncodeToString(sum[:])
}

// Dir is a Provider that keeps one JSON record per URL in a directory.
// It holds no state besides the root path.
type Dir struct {
	// root is the directory holding the records.
	root string

	// prepared is set once root has been created.
	prepared bool
}

// NewDir returns a Dir rooted at root. The directory is created on the
// first call to Entry, not here.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the cache directory.
func (d *Dir) Root() string {
	return d.root
}

// Path returns the record file used for url.
func (d *Dir) Path(url string) string {
	return filepath.Join(d.root, Key(url)+recordExt)
}

// Entry returns the entry for url, creating the cache directory if needed.
// The record itself is read by Entry.Load.
func (d *Dir) Entry(url string) (Entry, error) {
	if !d.prepared {
		if err := os.MkdirAll(d.root, 0750); err != nil {
			return nil, &StorageError{Op: "mkdir", Path: d.root, Err: err}
		}
		d.prepared = true
	}
	return NewFileEntry(d.Path(url), url), nil
}

// FileEntry is an Entry persisted as a single JSON file.
type FileEntry struct {
	Fields

	// path is the record file.
	path string

	// url is the URL the entry was requested for.
	url string
}

// NewFileEntry returns an unloaded entry for url stored at path.
func NewFileEntry(path, url string) *FileEntry {
	return &FileEntry{path: path, url: url}
}

// Path returns the record file.
func (e *FileEntry) Path() string {
	return e.path
}

// Load reads the record file. A missing file leaves the entry empty.
func (e *FileEntry) Load() error {
	if e.Loaded() {
		return nil
	}

	data, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		e.Initialize(e.url)
		return nil
	}
	if err != nil {
		return &StorageError{Op: "load", Path: e.path, Err: err}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return &StorageError{Op: "decode", Path: e.path, Err: err}
	}
	e.Populate(rec)
	return nil
}

// Save writes the record file if the entry is dirty. The record is written
// to a temporary file first and renamed over the target, so a crash never
// leaves a truncated record behind.
func (e *FileEntry) Save() error {
	if !e.Dirty() {
		return nil
	}

	data, err := json.Marshal(e.Record())
	if err != nil {
		return &StorageError{Op: "encode", Path: e.path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), filepath.Base(e.path)+".*.tmp")
	if err != nil {
		return &StorageError{Op: "save", Path: e.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()        //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return &StorageError{Op: "save", Path: e.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return &StorageError{Op: "save", Path: e.path, Err: err}
	}
	if err := os.Rename(tmpName, e.path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return &StorageError{Op: "save", Path: e.path, Err: err}
	}

	e.MarkClean()
	return nil
}
