// Package storage persists run artifacts under a data directory: one
// subdirectory per run with metadata.json, thermo.csv, and optional
// shc.csv flux samples.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/bondmd/internal/potential"
	"github.com/san-kum/bondmd/internal/run"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata summarizes one stored run.
type RunMetadata struct {
	ID          string    `json:"id"`
	Preset      string    `json:"preset"`
	Timestamp   time.Time `json:"timestamp"`
	Atoms       int       `json:"atoms"`
	Mode        string    `json:"mode"`
	Dt          float64   `json:"dt"`
	Steps       int       `json:"steps"`
	Seed        int64     `json:"seed"`
	Volume      float64   `json:"volume"`
	Temperature float64   `json:"temperature"`
	EnergyDrift float64   `json:"energy_drift"`
}

var thermoHeader = []string{
	"step", "time", "temperature", "potential", "kinetic", "total",
	"jx_in", "jx_out", "jy_in", "jy_out", "jz",
}

// Save writes one run's artifacts and returns its ID.
func (s *Store) Save(meta RunMetadata, result *run.Result, sampler *potential.FluxSampler) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Preset, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.EnergyDrift = result.EnergyDrift

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := s.writeThermo(runDir, result); err != nil {
		return "", err
	}
	if sampler != nil && sampler.Pairs() > 0 {
		if err := s.writeFlux(runDir, sampler); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (s *Store) writeThermo(runDir string, result *run.Result) error {
	f, err := os.Create(filepath.Join(runDir, "thermo.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(thermoHeader); err != nil {
		return err
	}
	for _, r := range result.Records {
		row := []string{
			strconv.Itoa(r.Step),
			fmtF(r.Time),
			fmtF(r.Temperature),
			fmtF(r.Potential),
			fmtF(r.Kinetic),
			fmtF(r.Total),
		}
		for _, h := range r.Heat {
			row = append(row, fmtF(h))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeFlux(runDir string, sampler *potential.FluxSampler) error {
	f, err := os.Create(filepath.Join(runDir, "shc.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"slot", "atom", "partner", "fx", "fy", "fz",
		"vix", "viy", "viz", "vjx", "vjy", "vjz"}
	if err := w.Write(header); err != nil {
		return err
	}
	for slot := 0; slot < sampler.Pairs(); slot++ {
		atom, partner := sampler.Owner(slot)
		for _, sample := range sampler.Samples(slot) {
			row := []string{
				strconv.Itoa(slot), strconv.Itoa(atom), strconv.Itoa(partner),
				fmtF(sample.F[0]), fmtF(sample.F[1]), fmtF(sample.F[2]),
				fmtF(sample.VI[0]), fmtF(sample.VI[1]), fmtF(sample.VI[2]),
				fmtF(sample.VJ[0]), fmtF(sample.VJ[1]), fmtF(sample.VJ[2]),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// List returns metadata for every stored run.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load returns one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadThermo reads back the thermo series as a column map keyed by header
// name.
func (s *Store) LoadThermo(runID string) (map[string][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "thermo.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return map[string][]float64{}, nil
	}

	header := records[0]
	cols := make(map[string][]float64, len(header))
	for _, name := range header {
		cols[name] = make([]float64, 0, len(records)-1)
	}
	for _, rec := range records[1:] {
		for c, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: bad value %q in %s: %w", field, runID, err)
			}
			cols[header[c]] = append(cols[header[c]], v)
		}
	}
	return cols, nil
}

// LoadFlux reads back the cross-section samples grouped by slot, in the
// order they were recorded.
func (s *Store) LoadFlux(runID string) (map[int][]potential.FluxSample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "shc.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	slots := make(map[int][]potential.FluxSample)
	if len(records) < 2 {
		return slots, nil
	}
	for _, rec := range records[1:] {
		slot, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("storage: bad slot %q in %s: %w", rec[0], runID, err)
		}
		var v [9]float64
		for c := 0; c < 9; c++ {
			v[c], err = strconv.ParseFloat(rec[3+c], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: bad value %q in %s: %w", rec[3+c], runID, err)
			}
		}
		slots[slot] = append(slots[slot], potential.FluxSample{
			F:  [3]float64{v[0], v[1], v[2]},
			VI: [3]float64{v[3], v[4], v[5]},
			VJ: [3]float64{v[6], v[7], v[8]},
		})
	}
	return slots, nil
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
