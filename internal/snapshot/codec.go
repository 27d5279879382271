package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jengzang/sankhya-backend-go/internal/models"
)

// Encode renders an artifact as indented JSON
func Encode(artifact *models.Artifact) ([]byte, error) {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses an artifact and checks its schema version
func Decode(data []byte) (*models.Artifact, error) {
	var artifact models.Artifact
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	if artifact.SchemaVersion != models.ArtifactSchemaVersion {
		return nil, fmt.Errorf("unsupported artifact schema version %d (want %d)",
			artifact.SchemaVersion, models.ArtifactSchemaVersion)
	}
	return &artifact, nil
}

// WriteFile writes data next to path and renames it into place
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// ReadFile loads and decodes an artifact file
func ReadFile(path string) (*models.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return Decode(data)
}
