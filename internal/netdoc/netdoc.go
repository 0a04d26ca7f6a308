// Package netdoc is a narrow stand-in for the hierarchical MNode/MDoc/MDir
// document store parts and populations consult for named parameters,
// backed by a flat YAML file rather than the original's on-disk schema
// (out of scope). It also defines the network-definition config format a
// runnable program loads: populations, connection rules, and run
// parameters.
package netdoc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Doc is the capability a Part/Population factory needs to look up a named
// parameter, independent of the underlying document format.
type Doc interface {
	Get(path string) (string, bool)
}

// YAMLDoc implements Doc over a YAML-decoded nested map, addressed by
// dot-separated path segments (e.g. "neuron.threshold").
type YAMLDoc struct {
	data map[string]any
}

// NewYAMLDoc wraps an already-decoded document.
func NewYAMLDoc(data map[string]any) *YAMLDoc {
	return &YAMLDoc{data: data}
}

// LoadYAMLDoc reads and decodes a YAML file at path.
func LoadYAMLDoc(path string) (*YAMLDoc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &YAMLDoc{data: data}, nil
}

// Get walks path's dot-separated segments through the nested map, returning
// the leaf value's string form.
func (d *YAMLDoc) Get(path string) (string, bool) {
	var cur any = d.data
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		v, ok := m[seg]
		if !ok {
			return "", false
		}
		cur = v
	}
	switch v := cur.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case map[string]any:
		return "", false // leaf expected, not a subtree
	default:
		return fmt.Sprint(v), true
	}
}

// PopulationSpec describes one population: how many parts to start with,
// what part type backs it, and degree bounds. Build does not apply
// MinDegree or MaxDegree; the only degree caps it enforces are a
// ConnectionSpec's MaxA and MaxB.
type PopulationSpec struct {
	Name      string `yaml:"name"`
	PartType  string `yaml:"part_type"`
	Initial   int    `yaml:"initial"`
	MinDegree int    `yaml:"min_degree"`
	MaxDegree int    `yaml:"max_degree"`
}

// ConnectionSpec describes one connection population: the populations it
// matches between, the acceptance probability, and per-side max degree.
type ConnectionSpec struct {
	Name string  `yaml:"name"`
	From string  `yaml:"from"`
	To   string  `yaml:"to"`
	P    float64 `yaml:"p"`
	MaxA int     `yaml:"max_a"`
	MaxB int     `yaml:"max_b"`
}

// RunSpec carries the top-level run parameters.
type RunSpec struct {
	Duration float64 `yaml:"duration"`
	Seed     int64   `yaml:"seed"`
}

// NetworkConfig is the top-level YAML document describing a runnable
// network: its populations, the connection rules between them, and run
// parameters.
type NetworkConfig struct {
	Populations []PopulationSpec `yaml:"populations"`
	Connections []ConnectionSpec `yaml:"connections"`
	Run         RunSpec          `yaml:"run"`
}

// DefaultNetworkConfig returns an empty network with sane run defaults.
func DefaultNetworkConfig() *NetworkConfig {
	return &NetworkConfig{Run: RunSpec{Duration: 1.0, Seed: 1}}
}

// Load reads and decodes a network definition, starting from
// DefaultNetworkConfig so unset fields keep their defaults.
func Load(path string) (*NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultNetworkConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *NetworkConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Presets is a small registry of canonical network definitions for
// demonstration and the scenario CLI subcommand, the way the teacher's
// config.Presets registers named starting points per model.
var Presets = map[string]*NetworkConfig{
	"pair": {
		Populations: []PopulationSpec{
			{Name: "a", PartType: "node", Initial: 2},
			{Name: "b", PartType: "node", Initial: 2},
		},
		Connections: []ConnectionSpec{
			{Name: "a_to_b", From: "a", To: "b", P: 1},
		},
		Run: RunSpec{Duration: 1.0, Seed: 1},
	},
	"chain": {
		Populations: []PopulationSpec{
			{Name: "a", PartType: "node", Initial: 4},
			{Name: "b", PartType: "node", Initial: 4},
			{Name: "c", PartType: "node", Initial: 4},
		},
		Connections: []ConnectionSpec{
			{Name: "a_to_b", From: "a", To: "b", P: 0.5, MaxA: 2, MaxB: 2},
			{Name: "b_to_c", From: "b", To: "c", P: 0.5, MaxA: 2, MaxB: 2},
		},
		Run: RunSpec{Duration: 5.0, Seed: 1},
	},
}

// GetPreset looks up a named preset.
func GetPreset(name string) (*NetworkConfig, bool) {
	cfg, ok := Presets[name]
	return cfg, ok
}

// ListPresets returns every registered preset name.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
