package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// parseJSON loads a [StructuredConfig] from the JSON file at path. Fields
// absent from the file stay at their zero value and are filled by the other
// configuration sources during the merge.
func parseJSON(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading json config file: %w", err)
	}

	cfg := &StructuredConfig{}
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing json config file: %w", err)
	}

	return cfg, nil
}
