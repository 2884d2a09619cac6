// Package simulation loads the tunable constants of the triage simulation.
package simulation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/medicast/triage/pkg/ledger"
	"github.com/medicast/triage/pkg/vitals"
	"gopkg.in/yaml.v3"
)

type Params struct {
	Vitals vitals.Params `yaml:"vitals"`
	Ledger ledger.Params `yaml:"ledger"`
}

func DefaultParams() Params {
	return Params{
		Vitals: vitals.DefaultParams(),
		Ledger: ledger.DefaultParams(),
	}
}

// Load reads a YAML override file. Keys missing from the file keep their
// defaults; an empty path returns the defaults.
func Load(path string) (Params, error) {
	params := DefaultParams()
	if path == "" {
		return params, nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return params, err
	}
	if err := yaml.Unmarshal(content, &params); err != nil {
		return Params{}, fmt.Errorf("parsing simulation params: %w", err)
	}
	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

func (p Params) Validate() error {
	v := p.Vitals
	if v.SpO2Min > v.SpO2Max {
		return fmt.Errorf("spo2_min %.1f exceeds spo2_max %.1f", v.SpO2Min, v.SpO2Max)
	}
	if v.SpO2MaxStep < 1 || v.HeartRateMaxStep < 1 {
		return fmt.Errorf("fluctuation steps must be positive")
	}
	for name, threshold := range map[string]float64{
		"spo2_bias_threshold":   v.SpO2BiasThreshold,
		"icu_change_threshold":  p.Ledger.ICUChangeThreshold,
		"ward_change_threshold": p.Ledger.WardChangeThreshold,
	} {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, threshold)
		}
	}
	return nil
}
