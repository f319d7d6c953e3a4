// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topics

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// TopicsFile is the on-disk list of allowed topics for one episode. Users
// write these by hand; the run command also drops a copy into the episode
// directory so an episode is reproducible from its own files (R1.7).
type TopicsFile struct {
	// Episode is an optional display title for the episode.
	Episode string `yaml:"episode,omitempty"`

	// Topics are the allowed topic labels, in the order segments should air.
	Topics []string `yaml:"topics"`
}

// List builds the deduplicated allowed-topic list from the file contents.
func (tf *TopicsFile) List() List {
	return NewList(tf.Topics)
}

// ReadTopicsFile loads and validates a topics file (R1.8). A file whose
// entries all normalize away is an error: classification without allowed
// topics would send every paper to Uncategorized.
func ReadTopicsFile(path string) (*TopicsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics file %s: %w", path, err)
	}

	var tf TopicsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing topics file %s: %w", path, err)
	}

	if tf.List().Len() == 0 {
		return nil, fmt.Errorf("topics file %s contains no usable topics", path)
	}

	return &tf, nil
}

// WriteTopicsFile marshals tf to YAML at path, creating parent directories.
func WriteTopicsFile(path string, tf *TopicsFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	data, err := yaml.Marshal(tf)
	if err != nil {
		return fmt.Errorf("marshaling topics file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing topics file %s: %w", path, err)
	}

	return nil
}
