package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/signalsfoundry/descent-simulator/model"
)

// scenarioFileJSON is the on-disk shape; unexported so we're free to evolve
// it without touching the public surface.
type scenarioFileJSON struct {
	Scenario model.ScenarioParameters `json:"scenario"`
}

// LoadScenario reads ScenarioParameters from a JSON document and validates
// them, so callers see configuration errors before any simulation runs.
func LoadScenario(r io.Reader) (model.ScenarioParameters, error) {
	var payload scenarioFileJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return model.ScenarioParameters{}, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}
	if err := payload.Scenario.Validate(); err != nil {
		return model.ScenarioParameters{}, fmt.Errorf("LoadScenario: %w", err)
	}
	return payload.Scenario, nil
}
