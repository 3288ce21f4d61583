package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/bondmd/internal/potential"
	"github.com/san-kum/bondmd/internal/run"
)

func sampleResult() *run.Result {
	return &run.Result{
		Records: []run.Record{
			{Step: 0, Time: 0, Temperature: 300, Potential: -295.5, Kinetic: 2.5, Total: -293},
			{Step: 10, Time: 0.1, Temperature: 298.2, Potential: -295.4, Kinetic: 2.4, Total: -293,
				Heat: [5]float64{1.5, -0.25, 0, 0, 3}},
		},
		StepsTaken:  10,
		EnergyDrift: 1.2e-7,
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	meta := RunMetadata{
		Preset:      "si-small",
		Atoms:       216,
		Mode:        "heat",
		Dt:          0.01,
		Steps:       10,
		Seed:        42,
		Volume:      4320.5,
		Temperature: 300,
	}
	id, err := s.Save(meta, sampleResult(), nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != id {
		t.Errorf("expected id %q, got %q", id, loaded.ID)
	}
	if loaded.Atoms != 216 || loaded.Mode != "heat" || loaded.Seed != 42 {
		t.Errorf("metadata did not survive the round trip: %+v", loaded)
	}
	if math.Abs(loaded.EnergyDrift-1.2e-7) > 1e-18 {
		t.Errorf("expected the result's drift in metadata, got %e", loaded.EnergyDrift)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Errorf("expected one listed run with id %q, got %+v", id, runs)
	}
}

func TestLoadThermoColumns(t *testing.T) {
	s := New(t.TempDir())
	id, err := s.Save(RunMetadata{Preset: "si-small"}, sampleResult(), nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	cols, err := s.LoadThermo(id)
	if err != nil {
		t.Fatalf("load thermo: %v", err)
	}

	for _, name := range []string{"step", "time", "temperature", "total", "jx_in", "jz"} {
		if len(cols[name]) != 2 {
			t.Fatalf("column %s: expected 2 values, got %d", name, len(cols[name]))
		}
	}
	if cols["step"][1] != 10 {
		t.Errorf("expected step 10, got %f", cols["step"][1])
	}
	if math.Abs(cols["temperature"][1]-298.2) > 1e-9 {
		t.Errorf("expected temperature 298.2, got %f", cols["temperature"][1])
	}
	if math.Abs(cols["jx_in"][1]-1.5) > 1e-12 {
		t.Errorf("expected jx_in 1.5, got %f", cols["jx_in"][1])
	}
	if math.Abs(cols["jx_out"][1]+0.25) > 1e-12 {
		t.Errorf("expected jx_out -0.25, got %f", cols["jx_out"][1])
	}
}

func TestSaveWritesFluxSamples(t *testing.T) {
	s := New(t.TempDir())
	sampler := potential.NewFluxSampler(4)
	if err := sampler.Mark(1, 2); err != nil {
		t.Fatalf("mark: %v", err)
	}

	id, err := s.Save(RunMetadata{Preset: "si-shc"}, sampleResult(), sampler)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(s.baseDir, id, "shc.csv")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected shc.csv for a sampler with marked pairs: %v", err)
	}
}

func TestLoadFluxRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	sampler := potential.NewFluxSampler(4)
	if err := sampler.Mark(1, 2); err != nil {
		t.Fatalf("mark: %v", err)
	}
	want := []potential.FluxSample{
		{F: [3]float64{1.5, -0.25, 0.125}, VI: [3]float64{0.1, 0.2, 0.3}, VJ: [3]float64{-0.1, 0, 0.05}},
		{F: [3]float64{1.4, -0.2, 0.1}, VI: [3]float64{0.11, 0.19, 0.31}, VJ: [3]float64{-0.09, 0.01, 0.04}},
	}
	for _, sample := range want {
		sampler.Record(1, sample)
	}

	id, err := s.Save(RunMetadata{Preset: "si-shc"}, sampleResult(), sampler)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	slots, err := s.LoadFlux(id)
	if err != nil {
		t.Fatalf("load flux: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	got := slots[0]
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSaveSkipsFluxWithoutPairs(t *testing.T) {
	s := New(t.TempDir())
	id, err := s.Save(RunMetadata{Preset: "si-small"}, sampleResult(), potential.NewFluxSampler(4))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, id, "shc.csv")); !os.IsNotExist(err) {
		t.Error("expected no shc.csv when no pairs are marked")
	}
}

func TestListEmptyStore(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "never-created"))
	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
