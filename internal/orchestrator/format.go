package orchestrator

import (
	"fmt"
	"strings"

	"mygroceries/internal/models"
)

const (
	msgEmpty                   = "Send me a message like \"bought 2kg chicken\" or \"used 3 eggs\"."
	msgServiceDown             = "I'm having trouble understanding messages right now. Please try again in a moment."
	msgUnknown                 = "I didn't catch that. You can add stock (\"bought 2kg chicken\"), use it (\"used 3 eggs\"), or ask what's in stock."
	msgChat                    = "Hi! I keep track of your groceries. Tell me what you bought or used, or ask what's in stock."
	msgCancelled               = "Okay, cancelled. Nothing was changed."
	msgAlreadyEmpty            = "Your inventory is already empty."
	msgNothingToAdd            = "I couldn't work out what to add."
	msgNothingToUse            = "I couldn't work out what to use."
	msgNothingExtracted        = "I couldn't find any grocery items in that."
	msgNoIngredientsForRecipes = "Your inventory is empty, so I have nothing to cook with. Add some ingredients first."
)

// formatApply renders per-item outcomes, fuzzy-match notes and rejections,
// followed by the resulting stock so the user always sees the merged state.
func formatApply(intent models.Intent, result models.ApplyResult, snapshot []models.InventoryEntry) string {
	var b strings.Builder

	cleared := 0
	for _, out := range result.Outcomes {
		switch out.Status {
		case models.OutcomeAdded:
			fmt.Fprintf(&b, "Added %s of %s (now %s).\n", out.Requested, out.ItemKey, out.Resulting)
		case models.OutcomeUsed:
			fmt.Fprintf(&b, "Used %s of %s (%s left).\n", out.Requested, out.ItemKey, out.Resulting)
		case models.OutcomePartial:
			fmt.Fprintf(&b, "You asked for %s of %s but had less; it's now used up.\n", out.Requested, out.ItemKey)
		case models.OutcomeInsufficient:
			fmt.Fprintf(&b, "No %s in stock, so nothing was used.\n", out.ItemKey)
		case models.OutcomeUnitMismatch:
			fmt.Fprintf(&b, "%s is tracked in %s; I can't apply %s to it.\n", out.ItemKey, out.Resulting.Unit, out.Requested.Unit)
		case models.OutcomeCleared:
			cleared++
		}
	}
	if cleared > 0 {
		fmt.Fprintf(&b, "Cleared %d item(s) from your inventory.\n", cleared)
	}

	for _, it := range intent.Items {
		if it.FuzzyMatched {
			fmt.Fprintf(&b, "(I read %q as %s.)\n", it.RawName, it.Item.DisplayName)
		}
	}
	for _, rej := range intent.Rejected {
		b.WriteString(rejectionLine(rej))
		b.WriteByte('\n')
	}

	b.WriteString(formatStock(snapshot))
	return strings.TrimRight(b.String(), "\n")
}

func formatStock(snapshot []models.InventoryEntry) string {
	if len(snapshot) == 0 {
		return "Your inventory is empty."
	}
	var b strings.Builder
	b.WriteString("Current stock:")
	for _, e := range snapshot {
		fmt.Fprintf(&b, "\n- %s: %g %s", e.ItemKey, e.Amount, e.Unit)
	}
	return b.String()
}

func formatRejections(rejected []models.RejectedItem, fallback string) string {
	if len(rejected) == 0 {
		return fallback
	}
	lines := make([]string, 0, len(rejected))
	for _, rej := range rejected {
		lines = append(lines, rejectionLine(rej))
	}
	return strings.Join(lines, "\n")
}

func rejectionLine(rej models.RejectedItem) string {
	switch rej.Reason {
	case string(models.ReasonUnknownUnit):
		return fmt.Sprintf("I skipped %q: I don't know the unit %q.", rej.RawName, rej.RawUnit)
	case string(models.ReasonUnknownItem):
		return fmt.Sprintf("I skipped %q: I don't know that item.", rej.RawName)
	default:
		return fmt.Sprintf("I skipped %q (%s).", rej.RawName, rej.Reason)
	}
}

func formatRecipes(recipes []models.Recipe) string {
	var b strings.Builder
	b.WriteString("Here's what you could cook:")
	for i, r := range recipes {
		fmt.Fprintf(&b, "\n\n%d. %s (%s, %s)", i+1, r.Name, r.Difficulty, r.CookingTime)
		if r.Description != "" {
			fmt.Fprintf(&b, "\n%s", r.Description)
		}
		if len(r.IngredientsUsed) > 0 {
			fmt.Fprintf(&b, "\nUses: %s", strings.Join(r.IngredientsUsed, ", "))
		}
		if len(r.AdditionalIngredients) > 0 {
			fmt.Fprintf(&b, "\nYou'd also need: %s", strings.Join(r.AdditionalIngredients, ", "))
		}
	}
	return b.String()
}

func describeItems(items []models.IntentItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s %s", it.Quantity, it.Item.DisplayName))
	}
	return strings.Join(parts, ", ")
}
