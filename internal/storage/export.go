package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/motosim/internal/sim"
)

type ExportData struct {
	RunMetadata
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// ExportJSON writes a stored run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	return encode(w, ExportData{RunMetadata: *meta, Columns: series.Header, Rows: series.Rows})
}

// ExportResult writes a result that was never stored.
func ExportResult(w io.Writer, meta RunMetadata, result *sim.Result) error {
	rows := make([][]float64, len(result.Observations))
	for i, obs := range result.Observations {
		rows[i] = values(obs)
	}
	meta.Steps = result.Steps
	meta.Fallen = result.Fallen
	meta.FallTime = result.FallTime
	meta.Metrics = result.Metrics
	return encode(w, ExportData{RunMetadata: meta, Columns: Columns, Rows: rows})
}

func encode(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
