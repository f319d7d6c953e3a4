// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of
// plain-text files. Each file in the directory is one secret: the filename
// is the key name and the file contents (trimmed) are the value.
//
// Supported key files: anthropic-api-key, openrouter-api-key,
// openai-api-key, semantic-scholar-api-key, openalex-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store holds the secrets loaded from one directory.
type Store map[string]string

// Get returns the secret for name, or "" when absent.
func (s Store) Get(name string) string { return s[name] }

// Default returns fallback when it is non-empty, otherwise the secret for
// name. Explicit configuration always wins over secret files.
func (s Store) Default(name, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return s[name]
}

// Load reads all files in dir into a Store. A missing directory or missing
// files are not errors; Load returns an empty Store. Unreadable files
// produce a warning on stderr but do not abort.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Store)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
