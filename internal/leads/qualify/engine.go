// Package qualify implements the lead qualification decision engine: a
// hard-fail gate, five independently weighted factor scorers, a weighted
// aggregator, a threshold-based status classifier with calibrated
// confidence, and a ranked rationale generator.
package qualify

import (
	"context"
	"math"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/ruleset"
	"leadqual_backend/platform/logger"
)

const (
	// neutralIntent is returned when no intent text or similarity backend is
	// available. Semantic signal is supplementary, never load-bearing.
	neutralIntent = 50.0

	// unknownProgramFit reflects unknown-program risk.
	unknownProgramFit = 30.0

	// unknownBudget is distinct from "confirmed low": absent or non-numeric
	// budget text scores 30, a parsed low figure scores 20.
	unknownBudget = 30.0

	fitBase          = 50.0
	fitRoleMatch     = 25.0
	fitRolePresent   = 10.0
	fitExperienceMet = 20.0
	fitExperienceAny = 10.0

	maxRationaleLines = 3
)

// Result is the structured outcome of one qualification run.
type Result struct {
	Status     domain.Status          `json:"status"`
	Confidence float64                `json:"confidence"`
	Rationale  []string               `json:"rationale"`
	Factors    domain.FactorBreakdown `json:"factors"`
	HardFail   bool                   `json:"hard_fail"`
}

// Engine computes qualification verdicts. It is stateless per call: a pure
// function of (lead, ruleset) apart from the similarity lookup, so concurrent
// calls need no coordination.
type Engine struct {
	rules *ruleset.Ruleset
	sim   Similarity
	log   *logger.Logger
}

// New creates an engine. sim may be nil, in which case the intent scorer
// always yields its neutral value.
func New(rules *ruleset.Ruleset, sim Similarity, log *logger.Logger) *Engine {
	return &Engine{rules: rules, sim: sim, log: log}
}

// Qualify runs the full gate-score-classify pipeline for one lead.
func (e *Engine) Qualify(ctx context.Context, lead domain.Lead) Result {
	if reason, failed := e.checkHardFails(lead); failed {
		// Hard fails are policy exclusions, not quality judgments; scoring
		// never runs and must never dilute the verdict.
		return Result{
			Status:     domain.StatusDrop,
			Confidence: 1.0,
			Rationale:  []string{reason},
			Factors:    domain.FactorBreakdown{},
			HardFail:   true,
		}
	}

	// The five factor scorers are independent of each other; order is
	// arbitrary.
	intentScore := e.scoreIntent(ctx, lead.IntentTextValue())
	fitScore := e.scoreFit(lead)
	abilityToPay := e.scoreAbilityToPay(lead.BudgetBandValue())
	completionScore := e.scoreCompletion(lead)
	priorityBonus := e.scorePriorityBonus(lead)

	w := e.rules.Qualification.FactorWeights
	// No renormalization: weight validation happened at load time.
	totalScore := intentScore*w.IntentScore +
		fitScore*w.FitScore +
		abilityToPay*w.AbilityToPay +
		completionScore*w.CompletionScore +
		priorityBonus*w.PriorityBonus

	status, confidence := e.classify(totalScore)

	factors := domain.FactorBreakdown{
		IntentScore:     round1(intentScore),
		FitScore:        round1(fitScore),
		AbilityToPay:    round1(abilityToPay),
		CompletionScore: round1(completionScore),
		PriorityBonus:   round1(priorityBonus),
		TotalScore:      round1(totalScore),
	}

	return Result{
		Status:     status,
		Confidence: round2(confidence),
		Rationale:  e.rationale(status, totalScore, intentScore, fitScore, abilityToPay, priorityBonus),
		Factors:    factors,
		HardFail:   false,
	}
}

// classify maps the aggregated total onto a status and a calibrated
// confidence. The source formulas can exceed [0,1] at extreme totals, so the
// result is clamped explicitly.
func (e *Engine) classify(totalScore float64) (domain.Status, float64) {
	pursue := e.rules.Qualification.PursueThreshold
	review := e.rules.Qualification.ReviewThreshold

	var status domain.Status
	var confidence float64
	switch {
	case totalScore >= pursue:
		status = domain.StatusPursue
		confidence = math.Min(0.9, 0.6+(totalScore-pursue)/40)
	case totalScore >= review:
		status = domain.StatusReview
		confidence = 0.5 + (totalScore-review)/30
	default:
		status = domain.StatusDrop
		confidence = 0.7 + (50-totalScore)/50
	}

	return status, clamp(confidence, 0, 1)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
