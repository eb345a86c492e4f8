// config.go: manager configuration, defaults and validation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ManagerConfig configures module discovery and the shared dispatcher.
//
// Example YAML:
//
//	search_path: ./modules
//	extensions: [".so"]
//	keep_unrecognized: false
//	fail_on_load_error: false
//	allowed_digests:
//	  echo.so: 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08
//	dispatch_limit: 8
type ManagerConfig struct {
	// SearchPath is used by Start when it is called with an empty path.
	SearchPath string `json:"search_path,omitempty" yaml:"search_path,omitempty"`

	// Extensions lists module file suffixes. Empty means the platform default.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty" validate:"omitempty,dive,required,startswith=."`

	// KeepUnrecognized keeps libraries without an entry point mapped until Stop.
	KeepUnrecognized bool `json:"keep_unrecognized" yaml:"keep_unrecognized"`

	// FailOnLoadError makes Start return the joined per-file errors.
	FailOnLoadError bool `json:"fail_on_load_error" yaml:"fail_on_load_error"`

	// AllowedDigests maps file base names to sha256 hex digests.
	AllowedDigests map[string]string `json:"allowed_digests,omitempty" yaml:"allowed_digests,omitempty" validate:"omitempty,dive,keys,required,endkeys,len=64,hexadecimal"`

	// DispatchLimit bounds concurrent invocations of dispatchers built from
	// this config. Zero means one goroutine per target.
	DispatchLimit int `json:"dispatch_limit" yaml:"dispatch_limit" validate:"gte=0"`
}

// DefaultManagerConfig returns the configuration used when none is given.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Extensions: []string{LibraryExtension},
	}
}

// ApplyDefaults fills unset fields and normalizes extensions to lower case.
func (c *ManagerConfig) ApplyDefaults() {
	if len(c.Extensions) == 0 {
		c.Extensions = []string{LibraryExtension}
		return
	}
	extensions := make([]string, len(c.Extensions))
	for i, ext := range c.Extensions {
		extensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}
	c.Extensions = extensions
}

// Validate checks the configuration for consistency.
func (c ManagerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return NewConfigValidationError(strings.Join(fields, "; "), err)
		}
		return NewConfigValidationError("invalid manager configuration", err)
	}
	return nil
}

// LoaderConfig derives the module loader settings.
func (c ManagerConfig) LoaderConfig() LoaderConfig {
	return LoaderConfig{
		Extensions:       c.Extensions,
		KeepUnrecognized: c.KeepUnrecognized,
		AllowedDigests:   DigestAllowlist(c.AllowedDigests),
	}
}
