package normalize

import "mygroceries/internal/models"

// seedAliases is the starter vocabulary used when the alias table is empty:
// common grocery staples with their Indonesian spellings.
func seedAliases() []models.ItemAlias {
	type entry struct {
		key     string
		display string
		class   models.UnitClass
		aliases []string
	}
	entries := []entry{
		{"chicken", "Chicken", models.ClassMass, []string{"chicken", "ayam", "daging ayam", "ayam broiler"}},
		{"beef", "Beef", models.ClassMass, []string{"beef", "sapi", "daging sapi"}},
		{"egg", "Egg", models.ClassCount, []string{"egg", "eggs", "telur", "telur ayam"}},
		{"rice", "Rice", models.ClassMass, []string{"rice", "beras", "beras putih"}},
		{"sugar", "Sugar", models.ClassMass, []string{"sugar", "gula", "gula pasir"}},
		{"salt", "Salt", models.ClassMass, []string{"salt", "garam"}},
		{"cooking oil", "Cooking oil", models.ClassVolume, []string{"cooking oil", "minyak goreng", "minyak"}},
		{"milk", "Milk", models.ClassVolume, []string{"milk", "susu"}},
		{"flour", "Flour", models.ClassMass, []string{"flour", "tepung", "tepung terigu"}},
		{"potato", "Potato", models.ClassCount, []string{"potato", "potatoes", "kentang"}},
		{"carrot", "Carrot", models.ClassCount, []string{"carrot", "carrots", "wortel"}},
		{"onion", "Onion", models.ClassCount, []string{"onion", "onions", "bawang", "bawang merah"}},
		{"garlic", "Garlic", models.ClassCount, []string{"garlic", "bawang putih"}},
		{"chili", "Chili", models.ClassMass, []string{"chili", "cabe", "cabai"}},
		{"tomato", "Tomato", models.ClassCount, []string{"tomato", "tomatoes", "tomat"}},
		{"instant noodles", "Instant noodles", models.ClassCount, []string{"instant noodles", "mie instan", "indomie"}},
		{"tofu", "Tofu", models.ClassCount, []string{"tofu", "tahu"}},
		{"tempeh", "Tempeh", models.ClassCount, []string{"tempeh", "tempe"}},
	}

	var rows []models.ItemAlias
	for _, e := range entries {
		for _, a := range e.aliases {
			rows = append(rows, models.ItemAlias{
				Alias:        a,
				ItemKey:      e.key,
				DisplayName:  e.display,
				DefaultClass: string(e.class),
			})
		}
	}
	return rows
}
