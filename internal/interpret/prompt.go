package interpret

import (
	"fmt"
	"strings"

	"mygroceries/internal/models"
)

const intentPromptTemplate = `You are a grocery management assistant. Analyze the user's text and determine the action.
The possible actions are 'ADD', 'USE', 'QUERY', 'QUERY_ALL', 'RECIPE', 'CLEAR_ALL', or 'UNRELATED'.
- 'ADD': for buying or getting new groceries.
- 'USE': for consuming or using up groceries.
- 'QUERY': for asking about a specific item's stock.
- 'QUERY_ALL': for asking to see all available stock.
- 'RECIPE': for asking recipe suggestions based on available ingredients.
- 'CLEAR_ALL': for clearing all inventory items (e.g., "hapus semua", "clear all", "reset inventory").
- 'UNRELATED': for greetings, tests, or any conversation not related to groceries.

The user may refer to current stock (e.g., "use the rest of the milk"). Current inventory:
%s

Respond with only a JSON object in the following format:
{
  "action": "ADD|USE|QUERY|QUERY_ALL|RECIPE|CLEAR_ALL|UNRELATED",
  "items": [
    {"name": "item name", "quantity": number, "unit": "unit type"}
  ]
}
For QUERY_ALL, RECIPE, CLEAR_ALL, and UNRELATED, the items list can be empty.

User text: "%s"`

const recipePromptTemplate = `You are a home cooking expert. Based on the available ingredients below, suggest up to 3 practical recipes.

Available ingredients: %s

Requirements:
- Use as many available ingredients as possible.
- If some ingredients are missing, list them as additional ingredients.
- Keep instructions brief.

Respond with only a JSON object in the following format:
{
  "recipes": [
    {
      "name": "Recipe Name",
      "description": "Brief description of the dish",
      "ingredients_used": ["ingredient1", "ingredient2"],
      "additional_ingredients": ["ingredient3"],
      "cooking_time": "30 minutes",
      "difficulty": "Easy/Medium/Hard",
      "instructions": "Brief cooking steps"
    }
  ]
}`

// buildIntentPrompt renders the understanding request: the utterance plus a
// compact snapshot of current inventory so the model can resolve references
// to existing stock.
func buildIntentPrompt(text string, snapshot []models.InventoryEntry) string {
	return fmt.Sprintf(intentPromptTemplate, formatSnapshot(snapshot), text)
}

func buildRecipePrompt(snapshot []models.InventoryEntry) string {
	return fmt.Sprintf(recipePromptTemplate, formatSnapshot(snapshot))
}

func formatSnapshot(snapshot []models.InventoryEntry) string {
	if len(snapshot) == 0 {
		return "(empty)"
	}
	lines := make([]string, 0, len(snapshot))
	for _, e := range snapshot {
		lines = append(lines, fmt.Sprintf("- %s: %g %s", e.ItemKey, e.Amount, e.Unit))
	}
	return strings.Join(lines, "\n")
}
