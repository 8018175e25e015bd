package qualify

import (
	"fmt"

	"leadqual_backend/internal/leads/domain"
)

// rationale produces at most three ordered explanation lines: the overall
// verdict, qualitative flags for notable factor scores, and the priority
// bonus when one was applied.
func (e *Engine) rationale(status domain.Status, totalScore, intentScore, fitScore, abilityToPay, priorityBonus float64) []string {
	lines := make([]string, 0, 6)

	switch status {
	case domain.StatusPursue:
		lines = append(lines, fmt.Sprintf("Strong candidate with %.1f%% qualification score", totalScore))
	case domain.StatusReview:
		lines = append(lines, fmt.Sprintf("Borderline candidate requiring manual review (%.1f%% score)", totalScore))
	default:
		lines = append(lines, fmt.Sprintf("Low qualification score (%.1f%%) - not recommended", totalScore))
	}

	if intentScore >= 70 {
		lines = append(lines, "High intent signals detected in communication")
	} else if intentScore <= 30 {
		lines = append(lines, "Low intent signals - may not be serious about enrollment")
	}

	if fitScore >= 70 {
		lines = append(lines, "Strong program and role alignment")
	} else if fitScore <= 40 {
		lines = append(lines, "Weak program or role fit")
	}

	if abilityToPay >= 70 {
		lines = append(lines, "Budget appears sufficient for program")
	} else if abilityToPay <= 40 {
		lines = append(lines, "Budget concerns - may need financial assistance")
	}

	if priorityBonus > 0 {
		lines = append(lines, fmt.Sprintf("Priority bonus applied (+%.1f points)", priorityBonus))
	}

	if len(lines) > maxRationaleLines {
		lines = lines[:maxRationaleLines]
	}
	return lines
}
