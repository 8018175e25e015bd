package ruleset

import (
	"strings"
	"testing"
)

func validRuleset() *Ruleset {
	return &Ruleset{
		Qualification: Qualification{
			FactorWeights: FactorWeights{
				IntentScore:     0.30,
				FitScore:        0.25,
				AbilityToPay:    0.20,
				CompletionScore: 0.15,
				PriorityBonus:   0.10,
			},
			PursueThreshold: 70,
			ReviewThreshold: 50,
			HardFails: HardFails{
				MissingContact:     true,
				IrrelevantProgram:  true,
				BudgetBelowMinimum: 1000,
				DisallowedRegions:  []string{"Antarctica"},
			},
			PriorityFlags: PriorityFlags{
				AlumniReferral:     15,
				StrongProgramMatch: 10,
				PriorEngagement:    10,
			},
		},
		Programs: []Program{
			{Name: "Data Science Bootcamp", TargetRoles: []string{"analyst", "engineer"}, MinExperience: 2},
		},
		IntentSeeds: IntentSeeds{
			Positive: []string{"I want to enroll as soon as possible"},
			Negative: []string{"just browsing"},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validRuleset().Validate(); err != nil {
		t.Fatalf("expected valid ruleset, got %v", err)
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	rs := validRuleset()
	rs.Qualification.FactorWeights.IntentScore = 0.5

	err := rs.Validate()
	if err == nil {
		t.Fatal("expected weight sum error")
	}
	if !strings.Contains(err.Error(), "sum to 1.0") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	rs := validRuleset()
	rs.Qualification.PursueThreshold = 50
	rs.Qualification.ReviewThreshold = 50

	if err := rs.Validate(); err == nil {
		t.Fatal("expected threshold ordering error")
	}
}

func TestValidate_NegativeBonus(t *testing.T) {
	rs := validRuleset()
	rs.Qualification.PriorityFlags.AlumniReferral = -5

	if err := rs.Validate(); err == nil {
		t.Fatal("expected negative bonus error")
	}
}

func TestValidate_RequiresPrograms(t *testing.T) {
	rs := validRuleset()
	rs.Programs = nil

	if err := rs.Validate(); err == nil {
		t.Fatal("expected missing programs error")
	}
}

func TestParse_RejectsInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("qualification: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParse_FullDocument(t *testing.T) {
	doc := `
qualification:
  factor_weights:
    intent_score: 0.30
    fit_score: 0.25
    ability_to_pay: 0.20
    completion_score: 0.15
    priority_bonus: 0.10
  pursue_threshold: 70
  review_threshold: 50
  hard_fails:
    missing_contact: true
    irrelevant_program: true
    budget_below_minimum: 1000
    disallowed_regions:
      - Antarctica
  priority_flags:
    alumni_referral: 15
    strong_program_match: 10
    prior_engagement: 10
programs:
  - name: Data Science Bootcamp
    target_roles: [analyst, engineer]
    min_experience: 2
intent_seeds:
  positive:
    - I want to enroll as soon as possible
  negative:
    - just browsing
`
	rs, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rs.Qualification.PursueThreshold != 70 {
		t.Fatalf("expected pursue threshold 70, got %.1f", rs.Qualification.PursueThreshold)
	}
	if len(rs.Programs) != 1 || rs.Programs[0].MinExperience != 2 {
		t.Fatalf("unexpected programs: %+v", rs.Programs)
	}
}

func TestFindProgram_CaseInsensitiveExact(t *testing.T) {
	rs := validRuleset()

	if rs.FindProgram("data science bootcamp") == nil {
		t.Fatal("expected case-insensitive match")
	}
	if rs.FindProgram("Data Science") != nil {
		t.Fatal("partial names must not match")
	}
	if rs.FindProgram("") != nil {
		t.Fatal("empty name must not match")
	}
}

func TestRegionDisallowed(t *testing.T) {
	rs := validRuleset()

	if !rs.RegionDisallowed("antarctica") {
		t.Fatal("expected region to be disallowed")
	}
	if rs.RegionDisallowed("Atlantis") {
		t.Fatal("unexpected disallow")
	}
	if rs.RegionDisallowed("") {
		t.Fatal("empty region must pass")
	}
}
