// Package config loads the optimization profile document and resolves it
// against the game data catalog.
package config

import (
	"bytes"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the profile file looked up when --config is not given.
const DefaultPath = "bis.yaml"

// Profile is the parsed optimization profile document. Names are plain
// strings at this stage; Resolve checks them against a catalog.
type Profile struct {
	Jobs      map[string]JobSettings `yaml:"jobs" validate:"required,min=1,dive"`
	RelicCaps map[int]int            `yaml:"relic_caps" validate:"omitempty,dive,gt=0"`
	BaseStats map[string]int         `yaml:"base_stats" validate:"required,min=1,dive,gte=0"`
}

// JobSettings holds the optimization targets configured for one job.
type JobSettings struct {
	Weights  map[string]float64 `yaml:"weights" validate:"required,min=1,dive,gt=0"`
	Minimums map[string]int     `yaml:"minimums" validate:"omitempty,dive,gte=0"`
}

// Load reads and parses a profile document from disk.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Message: "failed to read profile file", Cause: err}
	}
	return Parse(data)
}

// Parse decodes a profile document. Unknown fields are rejected so typos
// fail loudly instead of silently configuring nothing.
func Parse(data []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var profile Profile
	if err := dec.Decode(&profile); err != nil {
		return nil, &Error{Message: "failed to parse profile document", Cause: err}
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return &profile, nil
}

// Validate checks structural constraints: at least one job with at least one
// positive weight, non-negative minimums and base stats, positive relic caps.
func (p *Profile) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return &Error{Message: "invalid profile", Cause: err}
	}
	return nil
}
