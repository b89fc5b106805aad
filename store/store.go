// Package store persists the identity resolution cache: a single JSON file
// recording which agent identity last signed for which GitHub user.
//
// The file is a cache, not a source of truth. A missing or unreadable record
// means "resolve again"; writes are whole-file and unlocked, so concurrent
// processes may overwrite each other, which only costs a re-resolution.
package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName is the cache file name inside the cache directory.
const DefaultFileName = "ghsign.json"

// Store errors.
var (
	// ErrNotFound is returned when no record has been written yet.
	ErrNotFound = errors.New("resolution record not found")

	// ErrCorrupt is returned when the record exists but cannot be decoded.
	ErrCorrupt = errors.New("resolution record corrupt")
)

// Record is a persisted identity resolution.
type Record struct {
	// Username is the GitHub user the identity signed for.
	Username string `json:"username"`

	// Type is the agent identity's algorithm type.
	Type string `json:"type"`

	// SSHKey is the base64 SSH wire blob of the identity.
	SSHKey string `json:"ssh_key"`
}

// NewRecord builds a Record for an identity's type and wire blob.
func NewRecord(username, keyType string, blob []byte) *Record {
	return &Record{
		Username: username,
		Type:     keyType,
		SSHKey:   base64.StdEncoding.EncodeToString(blob),
	}
}

// Blob decodes the stored SSH wire blob.
func (r *Record) Blob() ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(r.SSHKey)
	if err != nil {
		return nil, fmt.Errorf("%w: ssh_key: %v", ErrCorrupt, err)
	}
	return blob, nil
}

// File stores one Record as JSON on disk.
type File struct {
	path string
}

// NewFile returns a File for DefaultFileName inside dir.
func NewFile(dir string) *File {
	return &File{path: filepath.Join(dir, DefaultFileName)}
}

// NewFileAt returns a File at an explicit path.
func NewFileAt(path string) *File {
	return &File{path: path}
}

// Path returns the file's location.
func (f *File) Path() string {
	return f.path
}

// Load reads the stored record.
func (f *File) Load() (*Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &rec, nil
}

// Save replaces the stored record, creating the directory if needed.
func (f *File) Save(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}
