// Package storage persists runs as a metadata.json plus a states.csv per
// run directory.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/motosim/internal/sim"
)

var ErrNoColumn = errors.New("storage: no such column")

// Columns is the states.csv header.
var Columns = []string{
	"time", "x", "y", "z", "speed", "roll", "pitch", "roll_rate", "yaw_rate",
	"front_grounded", "rear_grounded", "throttle", "front_brake", "steer",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Pilot      string             `json:"pilot"`
	Strength   float64            `json:"strength"`
	Episode    int                `json:"episode"`
	Steps      int                `json:"steps"`
	Fallen     bool               `json:"fallen"`
	FallTime   float64            `json:"fall_time,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes one run and returns its ID. ID, Timestamp and the result
// fields of meta are filled in here.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Name, now.UnixNano())
	if result.Episode > 0 {
		runID = fmt.Sprintf("%s_ep%d", runID, result.Episode)
	}
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Episode = result.Episode
	meta.Steps = result.Steps
	meta.Fallen = result.Fallen
	meta.FallTime = result.FallTime
	meta.Metrics = result.Metrics

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

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(Columns); err != nil {
		return "", err
	}
	for _, obs := range result.Observations {
		if err := w.Write(row(obs)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func row(obs sim.Observation) []string {
	vals := values(obs)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return out
}

func values(obs sim.Observation) []float64 {
	return []float64{
		obs.Time,
		obs.Position.X(), obs.Position.Y(), obs.Position.Z(),
		obs.Speed, obs.Roll, obs.Pitch, obs.RollRate, obs.YawRate,
		flag(obs.Front.Grounded), flag(obs.Rear.Grounded),
		obs.Actions[0], obs.Actions[1], obs.Actions[2],
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

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

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	return runs, nil
}

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

// Series is a loaded states.csv, one slice per column.
type Series struct {
	Header []string
	Rows   [][]float64
}

func (s *Series) Len() int { return len(s.Rows) }

// Column returns one column by header name.
func (s *Series) Column(name string) ([]float64, error) {
	idx := -1
	for i, h := range s.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	out := make([]float64, 0, len(s.Rows))
	for _, r := range s.Rows {
		if idx < len(r) {
			out = append(out, r[idx])
		}
	}
	return out, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Series{}, nil
	}

	series := &Series{
		Header: records[0],
		Rows:   make([][]float64, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		vals := make([]float64, 0, len(record))
		for _, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("states.csv: %w", err)
			}
			vals = append(vals, val)
		}
		series.Rows = append(series.Rows, vals)
	}

	return series, nil
}
