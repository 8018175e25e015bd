package qualify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"leadqual_backend/internal/leads/domain"
)

// budgetPattern matches the first numeric magnitude in budget-band text,
// optionally suffixed with a thousands marker ("10k", "8K").
var budgetPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([kK])?`)

// parseBudget extracts the numeric magnitude from budget-band text. The
// second return value is false when no digits are present.
func parseBudget(budgetBand string) (float64, bool) {
	match := budgetPattern.FindStringSubmatch(budgetBand)
	if match == nil || match[1] == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	if match[2] != "" {
		value *= 1000
	}
	return value, true
}

// checkHardFails evaluates the policy exclusions in fixed order; the first
// match wins. It returns the rejection reason and true on failure.
func (e *Engine) checkHardFails(lead domain.Lead) (string, bool) {
	hf := e.rules.Qualification.HardFails

	if hf.MissingContact && !lead.HasContact() {
		return "missing contact", true
	}

	if hf.IrrelevantProgram {
		program := lead.ProgramValue()
		if program != "" && e.rules.FindProgram(program) == nil {
			return fmt.Sprintf("irrelevant program: %s", strings.ToLower(program)), true
		}
	}

	// Budget text without an extractable number passes this check; "unknown"
	// is handled by the ability-to-pay scorer, not the gate.
	if budget, ok := parseBudget(lead.BudgetBandValue()); ok && budget < hf.BudgetBelowMinimum {
		return fmt.Sprintf("budget below minimum: %.0f", budget), true
	}

	if e.rules.RegionDisallowed(lead.RegionValue()) {
		return fmt.Sprintf("disallowed region: %s", strings.ToLower(lead.RegionValue())), true
	}

	return "", false
}
