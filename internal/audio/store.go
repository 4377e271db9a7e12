// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound reports a missing artifact.
	ErrNotFound = errors.New("audio file not found")

	// ErrInvalidName reports a name that is not a plain file name in the
	// output directory.
	ErrInvalidName = errors.New("invalid audio file name")
)

// audioExts are the extensions listed and managed by the store.
var audioExts = map[string]bool{".mp3": true, ".wav": true, ".m4a": true}

// Artifact describes one audio file in the output directory.
type Artifact struct {
	Name    string    `json:"filename" yaml:"filename"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"modified" yaml:"modified"`
}

// SizeMB returns the size in megabytes rounded to two decimals.
func (a Artifact) SizeMB() float64 {
	return float64(int64(float64(a.Size)/(1024*1024)*100+0.5)) / 100
}

// Store is a flat directory of audio artifacts.
type Store struct {
	dir string
}

// NewStore creates dir if needed and returns a store rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the full path of name. It does not check existence.
func (s *Store) Path(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Write stores data under name, replacing any existing file. The data is
// written to a temporary file first and renamed into place so readers never
// see a partial file.
func (s *Store) Write(name string, data []byte) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", name, err)
	}
	return nil
}

// Open opens the named artifact for reading.
func (s *Store) Open(name string) (*os.File, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, nil
}

// Exists reports whether the named artifact exists.
func (s *Store) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// List returns the audio artifacts sorted by name.
func (s *Store) List() ([]Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.dir, err)
	}

	var out []Artifact
	for _, e := range entries {
		if !e.Type().IsRegular() || !isAudio(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed since ReadDir
		}
		out = append(out, Artifact{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes one artifact.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if !isAudio(name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	return nil
}

// DeleteAll removes every audio artifact and returns how many were deleted.
func (s *Store) DeleteAll() (int, error) {
	list, err := s.List()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range list {
		if err := s.Delete(a.Name); err != nil && !errors.Is(err, ErrNotFound) {
			return n, err
		}
		n++
	}
	return n, nil
}

// Sweep removes artifacts last modified more than maxAge before now and
// returns their names.
func (s *Store) Sweep(maxAge time.Duration, now time.Time) ([]string, error) {
	list, err := s.List()
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, a := range list {
		if now.Sub(a.ModTime) <= maxAge {
			continue
		}
		if err := s.Delete(a.Name); err != nil && !errors.Is(err, ErrNotFound) {
			return removed, err
		}
		removed = append(removed, a.Name)
	}
	return removed, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func isAudio(name string) bool {
	return audioExts[strings.ToLower(filepath.Ext(name))]
}
