package qualify

import (
	"context"
	"strings"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/ruleset"
)

// scoreIntent scores the lead's free-text intent statement by semantic
// similarity to the configured seed phrase sets. Neutral (no text, equal pull
// toward both seed sets) centers at 50; the spread between the best positive
// and best negative match swings the score toward the extremes. Any failure
// of the similarity backend degrades to the neutral value.
func (e *Engine) scoreIntent(ctx context.Context, intentText string) float64 {
	if strings.TrimSpace(intentText) == "" || e.sim == nil {
		return neutralIntent
	}

	cmp, err := e.sim.Compare(ctx, intentText, e.rules.IntentSeeds.Positive, e.rules.IntentSeeds.Negative)
	if err != nil {
		if e.log != nil {
			e.log.Warn("intent similarity unavailable, using neutral score", "error", err)
		}
		return neutralIntent
	}

	score := 50 + (cmp.MaxPositive-cmp.MaxNegative)*50
	return clamp(score, 0, 100)
}

// scoreFit scores program, role, and experience alignment against the
// program catalog.
func (e *Engine) scoreFit(lead domain.Lead) float64 {
	program := e.rules.FindProgram(lead.ProgramValue())
	if program == nil {
		return unknownProgramFit
	}

	score := fitBase

	role := strings.ToLower(lead.RoleValue())
	switch {
	case roleMatchesProgram(role, program):
		score += fitRoleMatch
	case role != "":
		// Partial credit for engagement even without a target-role match.
		score += fitRolePresent
	}

	switch {
	case lead.ExperienceYears >= program.MinExperience:
		score += fitExperienceMet
	case lead.ExperienceYears > 0:
		score += fitExperienceAny
	}

	return clamp(score, 0, 100)
}

// roleMatchesProgram reports whether the role text contains any of the
// program's target-role substrings.
func roleMatchesProgram(role string, program *ruleset.Program) bool {
	if role == "" {
		return false
	}
	for _, target := range program.TargetRoles {
		if strings.Contains(role, strings.ToLower(target)) {
			return true
		}
	}
	return false
}

// abilityToPayTiers maps a parsed budget magnitude to a score, highest tier
// first.
var abilityToPayTiers = []struct {
	minBudget float64
	score     float64
}{
	{15000, 100},
	{10000, 85},
	{8000, 70},
	{5000, 50},
}

// scoreAbilityToPay maps the budget-band text through fixed tiers. Absent or
// non-numeric budget text is "unknown", distinct from a confirmed low figure.
func (e *Engine) scoreAbilityToPay(budgetBand string) float64 {
	budget, ok := parseBudget(budgetBand)
	if !ok {
		return unknownBudget
	}

	for _, tier := range abilityToPayTiers {
		if budget >= tier.minBudget {
			return tier.score
		}
	}
	return 20
}

// scoreCompletion rewards data completeness, weighting required fields more
// heavily than optional ones: incomplete contact or program data impairs
// follow-up regardless of how qualified the lead looks.
func (e *Engine) scoreCompletion(lead domain.Lead) float64 {
	required := []string{
		lead.Name,
		lead.EmailValue(),
		lead.PhoneValue(),
		lead.ProgramValue(),
		lead.RoleValue(),
		lead.BudgetBandValue(),
	}
	optional := []string{
		lead.RegionValue(),
		lead.IntentTextValue(),
		lead.SourceValue(),
	}

	completedRequired := 0
	for _, field := range required {
		if field != "" {
			completedRequired++
		}
	}

	completedOptional := 0
	if lead.ExperienceYears > 0 {
		completedOptional++
	}
	for _, field := range optional {
		if field != "" {
			completedOptional++
		}
	}

	totalOptional := len(optional) + 1 // experience counts as one optional field
	return float64(completedRequired)/float64(len(required))*70 +
		float64(completedOptional)/float64(totalOptional)*30
}

// engagementVerbs signal prior interaction with the organization.
var engagementVerbs = []string{"attended", "participated", "enrolled", "previous"}

// scorePriorityBonus sums the configured bonuses for referral sourcing, a
// strong program-role match, and prior engagement. The result is additive
// headroom on top of the weighted total, capped at 100.
func (e *Engine) scorePriorityBonus(lead domain.Lead) float64 {
	flags := e.rules.Qualification.PriorityFlags
	bonus := 0.0

	source := strings.ToLower(lead.SourceValue())
	if strings.Contains(source, "alumni") || strings.Contains(source, "referral") {
		bonus += flags.AlumniReferral
	}

	if program := e.rules.FindProgram(lead.ProgramValue()); program != nil {
		if roleMatchesProgram(strings.ToLower(lead.RoleValue()), program) {
			bonus += flags.StrongProgramMatch
		}
	}

	intent := strings.ToLower(lead.IntentTextValue())
	for _, verb := range engagementVerbs {
		if strings.Contains(intent, verb) {
			bonus += flags.PriorEngagement
			break
		}
	}

	return clamp(bonus, 0, 100)
}
