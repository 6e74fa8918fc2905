// Package seed loads the bundled demo scenarios into an empty store so a
// fresh install has something to open. It never touches a store that
// already has scenarios.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dmaher/loanscope/internal/scenario"
)

//go:embed demo_scenarios.yaml
var demoScenariosYAML []byte

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

type demoFile struct {
	Scenarios []demoScenario `yaml:"scenarios"`
}

type demoScenario struct {
	Name               string         `yaml:"name"`
	LoanData           map[string]any `yaml:"loanData"`
	PreferredProgramID *int64         `yaml:"preferredProgramId"`
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, store *scenario.Store) (Stats, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list scenarios before seed: %w", err)
	}
	if len(existing) > 0 {
		return Stats{}, nil
	}

	var file demoFile
	if err := yaml.Unmarshal(demoScenariosYAML, &file); err != nil {
		return Stats{}, fmt.Errorf("parse demo scenarios: %w", err)
	}

	stats := Stats{}
	for _, demo := range file.Scenarios {
		payload, err := decodeDemo(demo)
		if err != nil {
			return stats, err
		}
		if _, err := store.Create(ctx, payload); err != nil {
			return stats, fmt.Errorf("seed scenario %q: %w", demo.Name, err)
		}
		stats.Inserts++
	}

	return stats, nil
}

// decodeDemo funnels the YAML entry through the scenario codec so demo
// data gets the same validation and defaulting as user imports.
func decodeDemo(demo demoScenario) (scenario.Payload, error) {
	raw, err := json.Marshal(map[string]any{
		"version":            scenario.CurrentVersion,
		"name":               demo.Name,
		"loanData":           demo.LoanData,
		"preferredProgramId": demo.PreferredProgramID,
	})
	if err != nil {
		return scenario.Payload{}, fmt.Errorf("marshal demo scenario %q: %w", demo.Name, err)
	}

	payload, err := scenario.Decode(raw)
	if err != nil {
		return scenario.Payload{}, fmt.Errorf("decode demo scenario %q: %w", demo.Name, err)
	}
	return payload, nil
}
