package workflow

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultGraphDir points to the conventional location for graph definitions
// when loading from disk.
const DefaultGraphDir = "graphs"

// ParseDefinitionYAML decodes a graph definition from YAML/JSON bytes.
func ParseDefinitionYAML(data []byte) (GraphDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return GraphDefinition{}, fmt.Errorf("workflow: definition payload is empty: %w", ErrInvalidDefinition)
	}
	var def GraphDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return GraphDefinition{}, fmt.Errorf("workflow: decode definition: %w", err)
	}
	return def.Normalized()
}

// LoadDefinitionReader reads YAML definition data from an io.Reader.
func LoadDefinitionReader(r io.Reader) (GraphDefinition, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return GraphDefinition{}, fmt.Errorf("workflow: read definition: %w", err)
	}
	return ParseDefinitionYAML(content)
}

// LoadDefinitionFile loads a graph definition from an explicit file path.
// Files ending in .hcl are decoded as HCL, everything else as YAML.
func LoadDefinitionFile(path string) (GraphDefinition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return GraphDefinition{}, fmt.Errorf("workflow: read %s: %w", path, err)
	}
	var (
		def      GraphDefinition
		parseErr error
	)
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		def, parseErr = ParseDefinitionHCL(filepath.Base(path), content)
	} else {
		def, parseErr = ParseDefinitionYAML(content)
	}
	if parseErr != nil {
		return GraphDefinition{}, fmt.Errorf("workflow: %s: %w", path, parseErr)
	}
	return def, nil
}

// LoadDefinitionRelative loads a definition from the graphs directory (or a
// custom baseDir if provided).
func LoadDefinitionRelative(baseDir, name string) (GraphDefinition, error) {
	if baseDir == "" {
		baseDir = DefaultGraphDir
	}
	return LoadDefinitionFile(filepath.Join(baseDir, name))
}
