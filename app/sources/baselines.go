package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadBaselines reads the per-region expected post counts measured by
// the external baseline job. The table is recomputed out of process on
// a recurring schedule; callers re-read it periodically.
func LoadBaselines(file string) (map[string]float64, int, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read baselines file: %w", err)
	}

	var raw baselinesFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("failed to parse baselines YAML: %w", err)
	}

	if raw.WindowHours == 0 {
		raw.WindowHours = 6
	}
	if raw.WindowHours < 0 {
		return nil, 0, fmt.Errorf("window_hours must be positive")
	}

	for region, baseline := range raw.Baselines {
		if baseline < 0 {
			return nil, 0, fmt.Errorf("baseline for region '%s' must be non-negative", region)
		}
	}

	return raw.Baselines, raw.WindowHours, nil
}
