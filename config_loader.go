// config_loader.go: multi-format manager configuration loading
//
// Format detection is delegated to Argus. JSON is parsed by Argus and bound
// onto ManagerConfig; YAML goes through gopkg.in/yaml.v3 so anchors and
// multi-line values work.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// LoadConfigFromFile reads, parses, defaults and validates a ManagerConfig.
//
//	cfg, err := modfactory.LoadConfigFromFile("modhost.yaml")
//	if err != nil {
//	    return err
//	}
//	manager := modfactory.NewManager(logger, modfactory.WithConfig(cfg))
func LoadConfigFromFile(path string) (ManagerConfig, error) {
	config := DefaultManagerConfig()
	config.Extensions = nil

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304 - operator supplied config path
	if err != nil {
		if os.IsNotExist(err) {
			return config, NewConfigNotFoundError(path)
		}
		return config, NewConfigParseError(path, err)
	}

	if err := parseManagerConfig(data, argus.DetectFormat(cleanPath), &config); err != nil {
		return config, NewConfigParseError(path, err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func parseManagerConfig(data []byte, format argus.ConfigFormat, config *ManagerConfig) error {
	switch format {
	case argus.FormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
		return nil
	case argus.FormatJSON:
		configMap, err := argus.ParseConfig(data, format)
		if err != nil {
			return err
		}
		return bindManagerConfig(configMap, config)
	default:
		return fmt.Errorf("unsupported config format %v, use .yaml, .yml or .json", format)
	}
}

// bindManagerConfig maps an Argus parse result onto ManagerConfig through
// its JSON tags.
func bindManagerConfig(configMap map[string]any, config *ManagerConfig) error {
	if configMap == nil {
		return fmt.Errorf("configuration map is nil")
	}
	jsonBytes, err := json.Marshal(configMap)
	if err != nil {
		return fmt.Errorf("failed to marshal config map to JSON: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}
