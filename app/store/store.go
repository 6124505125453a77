package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var ErrIO = errors.New("store: I/O error")

// Store is the whole-file JSON article store. Only the aggregation pipeline
// writes it.
type Store struct {
	path string
	// write copies the encoded snapshot into the temp file.
	write func(w io.Writer, data []byte) error
}

func New(path string) *Store {
	return &Store{
		path: path,
		write: func(w io.Writer, data []byte) error {
			_, err := w.Write(data)
			return err
		},
	}
}

// Load reads the current snapshot. A missing file is an empty snapshot.
// Both the wrapped shape and a bare article array are accepted.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Snapshot{Articles: []Article{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrIO, s.path, err)
	}

	return decode(data, s.path)
}

func decode(data []byte, path string) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Snapshot{Articles: []Article{}}, nil
	}

	snapshot := &Snapshot{}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &snapshot.Articles); err != nil {
			return nil, fmt.Errorf("%w: failed to decode %s: %w", ErrIO, path, err)
		}
		slog.Debug("Legacy store format detected", "path", path)
	} else if err := json.Unmarshal(trimmed, snapshot); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", ErrIO, path, err)
	}

	if snapshot.Articles == nil {
		snapshot.Articles = []Article{}
	}
	for i := range snapshot.Articles {
		if snapshot.Articles[i].Keywords == nil {
			snapshot.Articles[i].Keywords = []string{}
		}
	}

	return snapshot, nil
}

// Save replaces the store with snapshot. The encoded form is built in memory
// and written to a temp file next to the target, which is then renamed over
// it. On failure the previous file is left as it was.
func (s *Store) Save(snapshot *Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode snapshot: %w", ErrIO, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", ErrIO, err)
	}
	tmpName := tmp.Name()

	if err := s.writeTemp(tmp, data); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to replace %s: %w", ErrIO, s.path, err)
	}

	slog.Debug("Store saved", "path", s.path, "articles", len(snapshot.Articles))
	return nil
}

func (s *Store) writeTemp(tmp *os.File, data []byte) error {
	if err := s.write(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write temp file: %w", ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to sync temp file: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %w", ErrIO, err)
	}
	return nil
}
