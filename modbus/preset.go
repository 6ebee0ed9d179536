package modbus

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Preset is a named request kept in a presets file:
//
//	presets:
//	  - name: temperature
//	    slave: 1
//	    function: 3
//	    address: 0
//	    quantity: 2
//	    repeat: 1s
type Preset struct {
	Name     string        `yaml:"name"`
	Slave    byte          `yaml:"slave"`
	Function FunctionCode  `yaml:"function"`
	Address  uint16        `yaml:"address"`
	Quantity uint16        `yaml:"quantity,omitempty"`
	Values   []uint16      `yaml:"values,omitempty"`
	Repeat   time.Duration `yaml:"repeat,omitempty"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Request builds the preset's request.
func (p Preset) Request() (Request, error) {
	req, err := Build(p.Slave, p.Function, p.Address, p.Quantity, p.Values)
	if err != nil {
		return Request{}, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return req, nil
}

// LoadPresets reads a presets file. Every preset must have a unique name
// and build a valid request.
func LoadPresets(r io.Reader) ([]Preset, error) {
	var f presetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("modbus: parse presets: %w", err)
	}

	seen := make(map[string]bool, len(f.Presets))
	for i, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: preset %d has no name", ErrInvalidConfig, i)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate preset %q", ErrInvalidConfig, p.Name)
		}
		seen[key] = true
		if p.Repeat < 0 {
			return nil, fmt.Errorf("%w: preset %q has a negative repeat", ErrInvalidConfig, p.Name)
		}
		if _, err := p.Request(); err != nil {
			return nil, err
		}
	}
	return f.Presets, nil
}

// FindPreset returns the preset called name, ignoring case.
func FindPreset(presets []Preset, name string) (Preset, error) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
}

// SavePresets writes presets in the format LoadPresets reads.
func SavePresets(w io.Writer, presets []Preset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(presetFile{Presets: presets}); err != nil {
		return fmt.Errorf("modbus: write presets: %w", err)
	}
	return enc.Close()
}
