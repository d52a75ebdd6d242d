package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveToFile writes a configuration snapshot as indented JSON, creating
// the directory if needed.
func SaveToFile(configuration *DeviceConfig, path string) error {
	data, err := json.MarshalIndent(configuration, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadFromFile reads a configuration snapshot written by SaveToFile.
func LoadFromFile(path string) (*DeviceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	configuration := &DeviceConfig{}
	if err := json.Unmarshal(data, configuration); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return configuration, nil
}

// GetConfigPath returns the conventional snapshot location for a named
// chip: etc/sx1262/<name>.json relative to the working directory.
func GetConfigPath(name string) string {
	return filepath.Join("etc", "sx1262", name+".json")
}
