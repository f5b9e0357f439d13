// Package automation runs scripted batches of simulations described in
// YAML.
package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/dynamo"
	"github.com/san-kum/motosim/internal/metrics"
	"github.com/san-kum/motosim/internal/optim"
	"github.com/san-kum/motosim/internal/pilot"
	"github.com/san-kum/motosim/internal/sim"
	"github.com/san-kum/motosim/internal/storage"
)

// Batch is a named sequence of runs.
type Batch struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step starts from a preset or a config file, then applies overrides.
// Params takes the names optim.SetParam accepts.
type Step struct {
	Preset     string             `yaml:"preset"`
	Config     string             `yaml:"config"`
	Pilot      string             `yaml:"pilot"`
	Integrator string             `yaml:"integrator"`
	Duration   float64            `yaml:"duration"`
	Episodes   int                `yaml:"episodes"`
	Params     map[string]float64 `yaml:"params"`
	SaveAs     string             `yaml:"save_as"`
}

// StepResult holds the episodes of one step and their stored run IDs.
type StepResult struct {
	Name    string
	Results []*sim.Result
	RunIDs  []string
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	if len(batch.Steps) == 0 {
		return nil, fmt.Errorf("batch %q has no steps", batch.Name)
	}
	return &batch, nil
}

// Resolve builds the full configuration for a step.
func (s Step) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: preset %q", dynamo.ErrUnknownName, s.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	if s.Pilot != "" {
		cfg.Run.Pilot = s.Pilot
	}
	if s.Integrator != "" {
		cfg.Run.Integrator = s.Integrator
	}
	if s.Duration > 0 {
		cfg.Run.Duration = s.Duration
	}
	if s.Episodes > 0 {
		cfg.Run.Episodes = s.Episodes
	}
	for name, v := range s.Params {
		if err := optim.SetParam(cfg, name, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func (s Step) name(i int) string {
	switch {
	case s.SaveAs != "":
		return s.SaveAs
	case s.Preset != "":
		return s.Preset
	}
	return fmt.Sprintf("step%d", i+1)
}

// RunBatch executes the steps in order. Results are stored when st is not
// nil. It stops at the first failing step and returns what completed.
func RunBatch(ctx context.Context, batch *Batch, st *storage.Store, progress func(i int, name string)) ([]StepResult, error) {
	out := make([]StepResult, 0, len(batch.Steps))

	for i, step := range batch.Steps {
		name := step.name(i)
		if progress != nil {
			progress(i, name)
		}

		cfg, err := step.Resolve()
		if err != nil {
			return out, fmt.Errorf("step %d: %w", i+1, err)
		}
		s, err := sim.NewFromConfig(cfg)
		if err != nil {
			return out, fmt.Errorf("step %d: %w", i+1, err)
		}
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}
		p, err := pilot.New(cfg)
		if err != nil {
			return out, fmt.Errorf("step %d: %w", i+1, err)
		}

		results, err := s.Episodes(ctx, p, sim.RunConfig(cfg), cfg.Run.Episodes)
		sr := StepResult{Name: name, Results: results}
		if st != nil {
			for _, res := range results {
				id, serr := st.Save(storage.RunMetadata{
					Name:       name,
					Seed:       cfg.Run.Seed,
					Dt:         cfg.Run.Dt,
					Duration:   cfg.Run.Duration,
					Integrator: cfg.Run.Integrator,
					Pilot:      cfg.Run.Pilot,
					Strength:   cfg.Controller.Strength,
					Episode:    res.Episode,
				}, res)
				if serr != nil {
					return out, fmt.Errorf("step %d save: %w", i+1, serr)
				}
				sr.RunIDs = append(sr.RunIDs, id)
			}
		}
		out = append(out, sr)
		if err != nil {
			return out, fmt.Errorf("step %d run: %w", i+1, err)
		}
	}

	return out, nil
}

// Stats counts episodes that stayed up and those that fell.
func Stats(results []StepResult) (upright, fallen int) {
	for _, sr := range results {
		for _, res := range sr.Results {
			if res.Fallen {
				fallen++
			} else {
				upright++
			}
		}
	}
	return upright, fallen
}
