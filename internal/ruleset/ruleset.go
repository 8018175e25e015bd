// Package ruleset defines the qualification ruleset: factor weights, status
// thresholds, hard-fail rules, priority bonuses, the program catalog, and the
// intent seed phrases. A Ruleset is loaded once at startup and treated as
// read-only for the lifetime of the process; reloading means constructing a
// fresh instance, never mutating a live one.
package ruleset

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FactorWeights holds the per-factor weights applied by the score aggregator.
// The five weights must sum to 1.0.
type FactorWeights struct {
	IntentScore     float64 `yaml:"intent_score"`
	FitScore        float64 `yaml:"fit_score"`
	AbilityToPay    float64 `yaml:"ability_to_pay"`
	CompletionScore float64 `yaml:"completion_score"`
	PriorityBonus   float64 `yaml:"priority_bonus"`
}

// HardFails configures the policy exclusions checked before any scoring runs.
type HardFails struct {
	MissingContact     bool     `yaml:"missing_contact"`
	IrrelevantProgram  bool     `yaml:"irrelevant_program"`
	BudgetBelowMinimum float64  `yaml:"budget_below_minimum"`
	DisallowedRegions  []string `yaml:"disallowed_regions"`
}

// PriorityFlags holds the bonus magnitudes applied by the priority calculator.
type PriorityFlags struct {
	AlumniReferral     float64 `yaml:"alumni_referral"`
	StrongProgramMatch float64 `yaml:"strong_program_match"`
	PriorEngagement    float64 `yaml:"prior_engagement"`
}

// Qualification groups the engine tuning parameters.
type Qualification struct {
	FactorWeights   FactorWeights `yaml:"factor_weights"`
	PursueThreshold float64       `yaml:"pursue_threshold"`
	ReviewThreshold float64       `yaml:"review_threshold"`
	HardFails       HardFails     `yaml:"hard_fails"`
	PriorityFlags   PriorityFlags `yaml:"priority_flags"`
}

// Program describes one offering leads can be qualified against.
type Program struct {
	Name          string   `yaml:"name"`
	TargetRoles   []string `yaml:"target_roles"`
	MinExperience int      `yaml:"min_experience"`
}

// IntentSeeds holds the seed phrases used by the semantic intent scorer.
type IntentSeeds struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// Ruleset is the full qualification configuration.
type Ruleset struct {
	Qualification Qualification `yaml:"qualification"`
	Programs      []Program     `yaml:"programs"`
	IntentSeeds   IntentSeeds   `yaml:"intent_seeds"`
}

// Load reads and validates a ruleset from a YAML file.
func Load(path string) (*Ruleset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a ruleset from YAML bytes.
func Parse(raw []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("parse ruleset: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// weightSumTolerance absorbs float rounding in hand-edited YAML weights.
const weightSumTolerance = 1e-9

// Validate checks the invariants the engine relies on. A ruleset failing
// validation must prevent the engine from starting.
func (rs *Ruleset) Validate() error {
	w := rs.Qualification.FactorWeights
	sum := w.IntentScore + w.FitScore + w.AbilityToPay + w.CompletionScore + w.PriorityBonus
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("factor weights must sum to 1.0, got %.6f", sum)
	}
	for name, weight := range map[string]float64{
		"intent_score":     w.IntentScore,
		"fit_score":        w.FitScore,
		"ability_to_pay":   w.AbilityToPay,
		"completion_score": w.CompletionScore,
		"priority_bonus":   w.PriorityBonus,
	} {
		if weight < 0 {
			return fmt.Errorf("factor weight %s must not be negative", name)
		}
	}

	if rs.Qualification.PursueThreshold <= rs.Qualification.ReviewThreshold {
		return fmt.Errorf("pursue_threshold (%.1f) must be greater than review_threshold (%.1f)",
			rs.Qualification.PursueThreshold, rs.Qualification.ReviewThreshold)
	}

	if rs.Qualification.HardFails.BudgetBelowMinimum < 0 {
		return fmt.Errorf("budget_below_minimum must not be negative")
	}

	pf := rs.Qualification.PriorityFlags
	if pf.AlumniReferral < 0 || pf.StrongProgramMatch < 0 || pf.PriorEngagement < 0 {
		return fmt.Errorf("priority flag bonuses must not be negative")
	}

	if len(rs.Programs) == 0 {
		return fmt.Errorf("at least one program is required")
	}
	for i, p := range rs.Programs {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("program %d has an empty name", i)
		}
		if p.MinExperience < 0 {
			return fmt.Errorf("program %q has a negative min_experience", p.Name)
		}
	}

	return nil
}

// FindProgram returns the program matching name case-insensitively, or nil.
// Matching is exact equality after lowering; multi-word names never match
// partially.
func (rs *Ruleset) FindProgram(name string) *Program {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for i := range rs.Programs {
		if strings.ToLower(rs.Programs[i].Name) == needle {
			return &rs.Programs[i]
		}
	}
	return nil
}

// RegionDisallowed reports whether region case-insensitively equals an entry
// in the disallowed-region list.
func (rs *Ruleset) RegionDisallowed(region string) bool {
	needle := strings.ToLower(strings.TrimSpace(region))
	if needle == "" {
		return false
	}
	for _, r := range rs.Qualification.HardFails.DisallowedRegions {
		if strings.ToLower(r) == needle {
			return true
		}
	}
	return false
}
