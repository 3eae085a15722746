package texts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads text overrides from a YAML file.
type Loader struct {
	filePath string
}

// NewLoader creates a new texts loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load returns the defaults merged with the overrides found in the file.
// An empty path yields the defaults.
func (l *Loader) Load() (Texts, error) {
	t := Default()
	if l.filePath == "" {
		return t, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return t, fmt.Errorf("failed to read texts file: %w", err)
	}

	var overrides Texts
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return t, fmt.Errorf("failed to parse texts yaml: %w", err)
	}

	t.merge(overrides)
	return t, nil
}
