package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/cascade/internal/algo/momentum"
	"github.com/sawpanic/cascade/internal/domain/backfill"
	"github.com/sawpanic/cascade/internal/domain/ceiling"
	"github.com/sawpanic/cascade/internal/domain/chain"
	"github.com/sawpanic/cascade/internal/domain/dcs"
	"github.com/sawpanic/cascade/internal/domain/factors"
	"github.com/sawpanic/cascade/internal/domain/history"
	"github.com/sawpanic/cascade/internal/domain/state"
	"github.com/sawpanic/cascade/internal/domain/synergy"
	atomicio "github.com/sawpanic/cascade/internal/io"
)

// Policy is the single table of tuning constants for the whole cascade
type Policy struct {
	// HistoryVersion tags the persisted history key. Bump it whenever a
	// change here alters the meaning of stored contributions.
	HistoryVersion int                     `yaml:"history_version"`
	Factors        factors.Config          `yaml:"factors"`
	Synergy        synergy.Config          `yaml:"synergy"`
	Chain          chain.Config            `yaml:"chain"`
	DCS            dcs.Config              `yaml:"dcs"`
	Ceiling        ceiling.Config          `yaml:"ceiling"`
	Momentum       momentum.MomentumConfig `yaml:"momentum"`
	Backfill       backfill.Config         `yaml:"backfill"`
	History        history.Config          `yaml:"history"`
	State          state.Config            `yaml:"state"`
}

// DefaultPolicy returns the production policy
func DefaultPolicy() *Policy {
	return &Policy{
		HistoryVersion: 4,
		Factors:        factors.DefaultConfig(),
		Synergy:        synergy.DefaultConfig(),
		Chain:          chain.DefaultConfig(),
		DCS:            dcs.DefaultConfig(),
		Ceiling:        ceiling.DefaultConfig(),
		Momentum:       momentum.DefaultConfig(),
		Backfill:       backfill.DefaultConfig(),
		History:        history.DefaultConfig(),
		State:          state.DefaultConfig(),
	}
}

// LoadPolicy overlays a YAML file on the default policy. Keys missing from
// the file keep their defaults.
func LoadPolicy(configPath string) (*Policy, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}

	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy YAML: %w", err)
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	return policy, nil
}

// SavePolicy writes the policy as YAML, replacing the file atomically
func SavePolicy(policy *Policy, configPath string) error {
	data, err := policy.YAML()
	if err != nil {
		return err
	}

	if err := atomicio.WriteFileAtomic(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write policy: %w", err)
	}

	return nil
}

// YAML renders the policy
func (p *Policy) YAML() ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy: %w", err)
	}
	return data, nil
}

// WindowDays is how many trailing records a computation can use: the
// backfill span plus its chronotype lookback, or the ceiling span.
func (p *Policy) WindowDays() int {
	n := p.Backfill.Days + p.Backfill.ChronotypeDays
	if p.Ceiling.WindowDays-1 > n {
		n = p.Ceiling.WindowDays - 1
	}
	return n
}

// Validate checks the constants that would otherwise break an invariant
func (p *Policy) Validate() error {
	var problems []string

	if p.HistoryVersion < 1 {
		problems = append(problems, fmt.Sprintf("history_version %d must be positive", p.HistoryVersion))
	}

	tiers := p.Factors.Confidence.Tiers
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinDays >= tiers[i-1].MinDays {
			problems = append(problems, fmt.Sprintf("confidence tier %d: min_days must be descending", i))
		}
		if tiers[i].Value > tiers[i-1].Value {
			problems = append(problems, fmt.Sprintf("confidence tier %d: value must not increase", i))
		}
	}
	for i, t := range tiers {
		if t.Value <= 0 || t.Value > 1 {
			problems = append(problems, fmt.Sprintf("confidence tier %d: value %.2f outside (0, 1]", i, t.Value))
		}
	}
	if p.Factors.BaselineWindow < 1 {
		problems = append(problems, "factors.baseline_window must be at least 1")
	}

	if p.Chain.SevereBelow >= p.Chain.MediumBelow {
		problems = append(problems, "chain.severe_below must be below chain.medium_below")
	}
	if p.Chain.MinorPenalty < 0 || p.Chain.MediumPenalty < p.Chain.MinorPenalty || p.Chain.SeverePenalty < p.Chain.MediumPenalty {
		problems = append(problems, "chain penalties must be non-negative and increase with severity")
	}

	if p.DCS.MomentumTarget <= 0 {
		problems = append(problems, "dcs.momentum_target must be positive")
	}
	if p.DCS.Floor < -1 || p.DCS.Ceil > 1 || p.DCS.Floor >= p.DCS.Ceil {
		problems = append(problems, fmt.Sprintf("dcs clamp [%.2f, %.2f] must lie within [-1, 1]", p.DCS.Floor, p.DCS.Ceil))
	}
	for _, v := range p.DCS.Overrides() {
		if v < -1 || v >= p.DCS.Floor {
			problems = append(problems, fmt.Sprintf("dcs override %.2f must lie in [-1, floor)", v))
		}
	}

	if p.Ceiling.WindowDays < 1 || p.Ceiling.DiversityDivisor <= 0 {
		problems = append(problems, "ceiling.window_days and ceiling.diversity_divisor must be positive")
	}

	if p.Momentum.Decay <= 0 || p.Momentum.Decay > 1 {
		problems = append(problems, fmt.Sprintf("momentum.decay %.2f outside (0, 1]", p.Momentum.Decay))
	}
	if p.Momentum.WindowDays < 1 {
		problems = append(problems, "momentum.window_days must be at least 1")
	}

	if p.Backfill.MomentumTarget <= 0 {
		problems = append(problems, "backfill.momentum_target must be positive")
	}
	if p.History.RetentionDays < p.Momentum.WindowDays || p.History.RetentionDays < p.Backfill.Days {
		problems = append(problems, fmt.Sprintf("history.retention_days %d must cover the momentum and backfill windows", p.History.RetentionDays))
	}

	if !(p.State.Strong >= p.State.Growing && p.State.Growing >= p.State.Building && p.State.Building >= p.State.Recovery) {
		problems = append(problems, "state thresholds must descend strong > growing > building > recovery")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
