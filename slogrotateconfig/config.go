// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogrotateconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pjscruggs/slogrotate"
)

// ErrUnsupportedFormat is returned for files that are neither TOML nor JSON.
var ErrUnsupportedFormat = errors.New("slogrotateconfig: unsupported file format")

// Load reads the sink configurations in path. The format is chosen by
// extension: ".toml" or ".json".
func Load(path string) ([]slogrotate.SinkConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("slogrotateconfig: read %q: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseTOML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// ParseTOML decodes sink configurations from TOML.
func ParseTOML(data []byte) ([]slogrotate.SinkConfiguration, error) {
	var doc struct {
		Sinks []map[string]any `toml:"sinks"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("slogrotateconfig: decode toml: %w", err)
	}

	cfgs := make([]slogrotate.SinkConfiguration, 0, len(doc.Sinks))
	for i, raw := range doc.Sinks {
		// Re-encoding the table lets go-toml fill a struct preloaded with
		// defaults, so omitted keys keep their default values.
		encoded, err := toml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("slogrotateconfig: sink %d: %w", i, err)
		}
		cfg := slogrotate.DefaultConfiguration()
		dec := toml.NewDecoder(bytes.NewReader(encoded)).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("slogrotateconfig: sink %d: %w", i, err)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

// ParseJSON decodes sink configurations from JSON.
func ParseJSON(data []byte) ([]slogrotate.SinkConfiguration, error) {
	var doc struct {
		Sinks []json.RawMessage `json:"sinks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("slogrotateconfig: decode json: %w", err)
	}

	cfgs := make([]slogrotate.SinkConfiguration, 0, len(doc.Sinks))
	for i, raw := range doc.Sinks {
		cfg := slogrotate.DefaultConfiguration()
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("slogrotateconfig: sink %d: %w", i, err)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

// ApplyTo adds every configuration to reg under policy. All entries are
// attempted; failures are joined.
func ApplyTo(reg *slogrotate.Registry, cfgs []slogrotate.SinkConfiguration, policy slogrotate.OverwritePolicy) error {
	var errs []error
	for _, cfg := range cfgs {
		if err := reg.Add(cfg, policy); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
