// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: huggingface-api-key, gemini-api-key.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key names understood by the CLI.
const (
	HuggingFaceKey = "huggingface-api-key"
	GeminiKey      = "gemini-api-key"
)

// Secrets maps key file names to their values.
type Secrets map[string]string

// Load reads all files in dir and returns their trimmed contents keyed by filename.
// A missing directory is not an error; Load returns an empty set.
// Unreadable files are logged and skipped.
func Load(dir string, log *slog.Logger) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", "key", name, "err", err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Resolve returns the first non-empty value among the explicit value,
// the environment variable envVar, and the secret file key.
func (s Secrets) Resolve(explicit, envVar, key string) string {
	if explicit != "" {
		return explicit
	}
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	return s[key]
}

// Keys returns the loaded key names in sorted order, never the values.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
