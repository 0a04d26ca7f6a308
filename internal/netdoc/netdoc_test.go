package netdoc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestYAMLDocGetNested(t *testing.T) {
	d := NewYAMLDoc(map[string]any{
		"neuron": map[string]any{
			"threshold": 1.5,
			"label":     "excitatory",
		},
		"seed": 7,
	})

	if v, ok := d.Get("neuron.threshold"); !ok || v != "1.5" {
		t.Fatalf("Get(neuron.threshold) = (%q, %v), want (1.5, true)", v, ok)
	}
	if v, ok := d.Get("neuron.label"); !ok || v != "excitatory" {
		t.Fatalf("Get(neuron.label) = (%q, %v), want (excitatory, true)", v, ok)
	}
	if v, ok := d.Get("seed"); !ok || v != "7" {
		t.Fatalf("Get(seed) = (%q, %v), want (7, true)", v, ok)
	}
}

func TestYAMLDocGetMissing(t *testing.T) {
	d := NewYAMLDoc(map[string]any{"a": map[string]any{"b": 1}})

	if _, ok := d.Get("a.c"); ok {
		t.Fatal("Get(a.c) should not be found")
	}
	if _, ok := d.Get("x.y"); ok {
		t.Fatal("Get(x.y) should not be found")
	}
	if _, ok := d.Get("a"); ok {
		t.Fatal("Get(a) names a subtree, not a leaf, and should not be found")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.yaml")
	cfg := &NetworkConfig{
		Populations: []PopulationSpec{
			{Name: "a", PartType: "node", Initial: 3, MaxDegree: 2},
		},
		Connections: []ConnectionSpec{
			{Name: "a_self", From: "a", To: "a", P: 0.5, MaxA: 1, MaxB: 1},
		},
		Run: RunSpec{Duration: 2.5, Seed: 42},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(got.Populations) != 1 || got.Populations[0].Name != "a" || got.Populations[0].Initial != 3 {
		t.Fatalf("Populations = %+v", got.Populations)
	}
	if len(got.Connections) != 1 || got.Connections[0].P != 0.5 {
		t.Fatalf("Connections = %+v", got.Connections)
	}
	if got.Run.Duration != 2.5 || got.Run.Seed != 42 {
		t.Fatalf("Run = %+v", got.Run)
	}
}

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.yaml")
	// A network definition that omits the run block entirely.
	minimal := []byte("populations:\n  - name: a\n    part_type: node\n    initial: 1\n")
	if err := os.WriteFile(path, minimal, 0644); err != nil {
		t.Fatalf("WriteFile() = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if got.Run.Duration != 1.0 || got.Run.Seed != 1 {
		t.Fatalf("Run = %+v, want defaults {1.0 1}", got.Run)
	}
}

func TestPresetRegistry(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("ListPresets() returned no presets")
	}
	cfg, ok := GetPreset("pair")
	if !ok {
		t.Fatal(`GetPreset("pair") not found`)
	}
	if len(cfg.Populations) != 2 {
		t.Fatalf("pair preset Populations = %+v, want 2 entries", cfg.Populations)
	}
	if _, ok := GetPreset("does-not-exist"); ok {
		t.Fatal("GetPreset should not find an unregistered name")
	}
}
