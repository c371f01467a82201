package consolidate

import (
	"math"
	"testing"

	"shopping-optimizer/internal/core/shopping/matcher"
	"shopping-optimizer/internal/core/shopping/units"
	"shopping-optimizer/internal/pkg/common"
)

func newTestConsolidator() *Consolidator {
	engine := units.NewEngine()
	return NewConsolidator(matcher.NewMatcher(engine), engine)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func findByName(t *testing.T, items []common.ConsolidatedIngredient, name string) common.ConsolidatedIngredient {
	t.Helper()
	for _, item := range items {
		if item.Name == name {
			return item
		}
	}
	t.Fatalf("consolidated ingredient %q not found", name)
	return common.ConsolidatedIngredient{}
}

func TestConsolidateEmptyInput(t *testing.T) {
	c := newTestConsolidator()
	consolidated, warnings := c.ConsolidateIngredients(nil)
	if len(consolidated) != 0 || len(warnings) != 0 {
		t.Errorf("empty input should be a no-op, got %d items %d warnings", len(consolidated), len(warnings))
	}
}

func TestDuplicateIngredientsConsolidation(t *testing.T) {
	c := newTestConsolidator()
	ingredients := []common.RecipeIngredient{
		{RecipeID: "r1", RecipeName: "Soup", IngredientName: "salt", Quantity: 10, Unit: "g"},
		{RecipeID: "r2", RecipeName: "Stew", IngredientName: "salt", Quantity: 5, Unit: "g"},
	}

	consolidated, warnings := c.ConsolidateIngredients(ingredients)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(consolidated) != 1 {
		t.Fatalf("expected exactly one consolidated entry, got %d", len(consolidated))
	}

	salt := consolidated[0]
	if salt.Name != "salt" {
		t.Errorf("name = %q, want salt", salt.Name)
	}
	if !almostEqual(salt.TotalQuantity, 15) || salt.Unit != "g" {
		t.Errorf("total = %g %s, want 15 g", salt.TotalQuantity, salt.Unit)
	}
	if salt.Category != common.CategoryWeight {
		t.Errorf("category = %s, want weight", salt.Category)
	}
	if len(salt.SourceRecipes) != 2 {
		t.Errorf("source recipes = %d, want 2", len(salt.SourceRecipes))
	}
	if salt.ID == "" {
		t.Error("consolidated ingredient must carry a generated id")
	}
}

func TestConsolidationReducesCount(t *testing.T) {
	c := newTestConsolidator()
	ingredients := []common.RecipeIngredient{
		{RecipeID: "r1", RecipeName: "A", IngredientName: "olive oil", Quantity: 2, Unit: "tablespoon"},
		{RecipeID: "r1", RecipeName: "A", IngredientName: "garlic", Quantity: 3, Unit: "clove"},
		{RecipeID: "r2", RecipeName: "B", IngredientName: "extra virgin olive oil", Quantity: 1, Unit: "cup"},
		{RecipeID: "r2", RecipeName: "B", IngredientName: "onion", Quantity: 1, Unit: "piece"},
	}

	consolidated, _ := c.ConsolidateIngredients(ingredients)
	if len(consolidated) >= len(ingredients) {
		t.Errorf("consolidation should reduce count: %d -> %d", len(ingredients), len(consolidated))
	}
}

func TestEndToEndScenario(t *testing.T) {
	c := newTestConsolidator()
	// Mediterranean Salad 與 Pasta Primavera 共用 olive oil 與 salt
	ingredients := []common.RecipeIngredient{
		{RecipeID: "r1", RecipeName: "Mediterranean Salad", IngredientName: "olive oil", Quantity: 2, Unit: "tablespoon"},
		{RecipeID: "r1", RecipeName: "Mediterranean Salad", IngredientName: "salt", Quantity: 1, Unit: "teaspoon"},
		{RecipeID: "r2", RecipeName: "Pasta Primavera", IngredientName: "olive oil", Quantity: 30, Unit: "ml"},
		{RecipeID: "r2", RecipeName: "Pasta Primavera", IngredientName: "salt", Quantity: 0.5, Unit: "teaspoon"},
	}

	consolidated, warnings := c.ConsolidateIngredients(ingredients)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(consolidated) > 3 {
		t.Fatalf("expected at most 3 consolidated ingredients, got %d", len(consolidated))
	}

	oil := findByName(t, consolidated, "olive oil")
	if len(oil.SourceRecipes) != 2 {
		t.Errorf("olive oil source recipes = %d, want 2", len(oil.SourceRecipes))
	}
	// 2 tbsp = 29.574 ml，加 30 ml 為 59.574 ml，取實際購買增量後為 60 ml
	if oil.Unit != "ml" || !almostEqual(oil.TotalQuantity, 60) {
		t.Errorf("olive oil total = %g %s, want 60 ml", oil.TotalQuantity, oil.Unit)
	}
	if oil.Category != common.CategoryVolume {
		t.Errorf("olive oil category = %s, want volume", oil.Category)
	}

	salt := findByName(t, consolidated, "salt")
	if len(salt.SourceRecipes) != 2 {
		t.Errorf("salt source recipes = %d, want 2", len(salt.SourceRecipes))
	}
}

func TestStandardizedSumBeforeRounding(t *testing.T) {
	e := units.NewEngine()
	tbsp := e.ConvertToStandardUnit(2, "tablespoon", "")
	ml := e.ConvertToStandardUnit(30, "ml", "")
	sum := tbsp.Quantity + ml.Quantity
	if math.Abs(sum-59.574) > 0.01 {
		t.Errorf("standardized olive oil sum = %.4f ml, want ~59.57", sum)
	}
}

func TestSingletonPassesThroughUnchanged(t *testing.T) {
	c := newTestConsolidator()
	ingredients := []common.RecipeIngredient{
		{RecipeID: "r1", RecipeName: "Cake", IngredientName: "vanilla extract", Quantity: 1, Unit: "teaspoon"},
	}
	consolidated, _ := c.ConsolidateIngredients(ingredients)
	if len(consolidated) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(consolidated))
	}
	got := consolidated[0]
	// 單一成員保留原單位，不轉換為 ml
	if got.Unit != "teaspoon" || !almostEqual(got.TotalQuantity, 1) {
		t.Errorf("singleton = %g %s, want 1 teaspoon", got.TotalQuantity, got.Unit)
	}
}

func TestUnknownUnitGroupKeepsAttribution(t *testing.T) {
	c := newTestConsolidator()
	ingredients := []common.RecipeIngredient{
		{RecipeID: "r1", RecipeName: "A", IngredientName: "saffron", Quantity: 1, Unit: "glug"},
	}
	consolidated, _ := c.ConsolidateIngredients(ingredients)
	if len(consolidated) != 1 {
		t.Fatalf("singleton with unknown unit should pass through, got %d entries", len(consolidated))
	}
	if consolidated[0].Category != common.CategoryUnknown {
		t.Errorf("category = %s, want unknown", consolidated[0].Category)
	}
	if len(consolidated[0].SourceRecipes) == 0 {
		t.Error("source recipes must never be empty")
	}
}

func TestMultiMemberUnknownUnitsDropWithWarning(t *testing.T) {
	c := newTestConsolidator()
	// 兩筆名稱相同但單位皆無法辨識 — 單位分類 unknown 無法通過
	// CanConsolidate，會形成兩個單一成員群組而非一個失敗群組
	ingredients := []common.RecipeIngredient{
		{RecipeID: "r1", RecipeName: "A", IngredientName: "mystery spice", Quantity: 1, Unit: "glug"},
		{RecipeID: "r2", RecipeName: "B", IngredientName: "mystery spice", Quantity: 2, Unit: "glug"},
	}
	consolidated, _ := c.ConsolidateIngredients(ingredients)
	if len(consolidated) != 2 {
		t.Fatalf("unknown-unit mentions stay separate, got %d entries", len(consolidated))
	}
}

func TestGreedyGroupingIsOrderDependent(t *testing.T) {
	c := newTestConsolidator()
	ingredients := []common.RecipeIngredient{
		{RecipeID: "r1", RecipeName: "A", IngredientName: "Olive Oil", Quantity: 1, Unit: "tablespoon"},
		{RecipeID: "r2", RecipeName: "B", IngredientName: "olive oil", Quantity: 1, Unit: "tablespoon"},
		{RecipeID: "r3", RecipeName: "C", IngredientName: "olive oil", Quantity: 1, Unit: "tablespoon"},
	}
	consolidated, _ := c.ConsolidateIngredients(ingredients)
	if len(consolidated) != 1 {
		t.Fatalf("expected 1 group, got %d", len(consolidated))
	}
	// 最常見正規化名稱 olive_oil 映射回第一個原始拼寫 "Olive Oil"
	if consolidated[0].Name != "Olive Oil" {
		t.Errorf("group name = %q, want first-seen spelling \"Olive Oil\"", consolidated[0].Name)
	}
}

func TestAttributionPreservesNotesAndOriginalQuantities(t *testing.T) {
	c := newTestConsolidator()
	ingredients := []common.RecipeIngredient{
		{RecipeID: "r1", RecipeName: "A", IngredientName: "flour", Quantity: 2, Unit: "cup", Notes: "sifted"},
		{RecipeID: "r2", RecipeName: "B", IngredientName: "flour", Quantity: 0.5, Unit: "cup"},
	}
	consolidated, warnings := c.ConsolidateIngredients(ingredients)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(consolidated) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(consolidated))
	}

	flour := consolidated[0]
	if len(flour.SourceRecipes) != 2 {
		t.Fatalf("source recipes = %d, want 2", len(flour.SourceRecipes))
	}
	if flour.SourceRecipes[0].OriginalQuantity != 2 || flour.SourceRecipes[0].Unit != "cup" {
		t.Errorf("first attribution = %g %s, want 2 cup", flour.SourceRecipes[0].OriginalQuantity, flour.SourceRecipes[0].Unit)
	}
	if flour.SourceRecipes[0].Notes != "sifted" {
		t.Errorf("notes lost in attribution: %q", flour.SourceRecipes[0].Notes)
	}
}

func TestCrossCategoryMentionsStaySeparate(t *testing.T) {
	c := newTestConsolidator()
	// cup（體積）與 g（重量）原始單位分類不相容，即使同名也不併組
	ingredients := []common.RecipeIngredient{
		{RecipeID: "r1", RecipeName: "A", IngredientName: "flour", Quantity: 1, Unit: "cup"},
		{RecipeID: "r2", RecipeName: "B", IngredientName: "flour", Quantity: 120, Unit: "g"},
	}
	consolidated, _ := c.ConsolidateIngredients(ingredients)
	if len(consolidated) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(consolidated))
	}
}
