// Package optim tunes configuration parameters by exhaustive search.
package optim

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/dynamo"
	"github.com/san-kum/motosim/internal/sim"
)

// Trial is one evaluated parameter combination.
type Trial struct {
	Params map[string]float64
	Value  float64
	Fallen bool
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Combinations enumerates the full grid, first parameter outermost.
func (g *GridSearch) Combinations() []map[string]float64 {
	var out []map[string]float64
	g.combine(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) combine(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		*out = append(*out, params)
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		g.combine(depth+1, current, out)
	}
	delete(current, name)
}

// Search runs every combination on a copy of base and ranks the trials by
// metric, lowest first unless maximize is set. Trials that fell rank after
// all that stayed up. The first trial is the best.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, setup sim.Setup, metric string, maximize bool) ([]Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("%w: %d names for %d ranges", dynamo.ErrDimensionMismatch, len(g.paramNames), len(g.ranges))
	}

	combos := g.Combinations()
	cfgs := make([]*config.Config, len(combos))
	for i, params := range combos {
		c := *base
		for name, val := range params {
			if err := SetParam(&c, name, val); err != nil {
				return nil, err
			}
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("trial %v: %w", params, err)
		}
		cfgs[i] = &c
	}

	results, err := sim.Sweep(ctx, cfgs, setup)
	if err != nil {
		return nil, err
	}

	trials := make([]Trial, len(results))
	for i, res := range results {
		val, ok := res.Metrics[metric]
		if !ok {
			return nil, fmt.Errorf("%w: metric %q", dynamo.ErrUnknownName, metric)
		}
		trials[i] = Trial{Params: combos[i], Value: val, Fallen: res.Fallen}
	}

	sort.SliceStable(trials, func(i, j int) bool {
		a, b := trials[i], trials[j]
		if a.Fallen != b.Fallen {
			return !a.Fallen
		}
		if maximize {
			return a.Value > b.Value
		}
		return a.Value < b.Value
	})
	return trials, nil
}

// Tunable lists the parameter names SetParam accepts.
func Tunable() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var setters = map[string]func(c *config.Config, v float64){
	"strength":            func(c *config.Config, v float64) { c.Controller.Strength = v },
	"target_distance":     func(c *config.Config, v float64) { c.Controller.TargetDistance = v },
	"cruise.kp":           func(c *config.Config, v float64) { c.Cruise.Kp = v },
	"cruise.ki":           func(c *config.Config, v float64) { c.Cruise.Ki = v },
	"cruise.kd":           func(c *config.Config, v float64) { c.Cruise.Kd = v },
	"cruise.target_speed": func(c *config.Config, v float64) { c.Cruise.TargetSpeed = v },
}

func SetParam(c *config.Config, name string, value float64) error {
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("%w: parameter %q", dynamo.ErrUnknownName, name)
	}
	set(c, value)
	return nil
}
