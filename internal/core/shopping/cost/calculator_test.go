package cost

import (
	"math"
	"testing"

	"shopping-optimizer/internal/core/shopping/pricing"
	"shopping-optimizer/internal/core/shopping/units"
	"shopping-optimizer/internal/pkg/common"
)

func newTestCalculator() *Calculator {
	return NewCalculator(units.NewEngine(), pricing.NewHeuristicProvider())
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func TestEstimateSingleItemBasket(t *testing.T) {
	c := newTestCalculator()
	consolidated := []common.ConsolidatedIngredient{
		{Name: "salt", TotalQuantity: 15, Unit: "g", Category: common.CategoryWeight},
	}

	estimate := c.EstimateBasket(consolidated, nil)

	// 15 g * 0.008/g = 0.12
	if !almostEqual(estimate.TotalCost, 0.12) {
		t.Errorf("total cost = %g, want 0.12", estimate.TotalCost)
	}
	if !almostEqual(estimate.PerIngredientCost["salt"], 0.12) {
		t.Errorf("per-ingredient cost = %g, want 0.12", estimate.PerIngredientCost["salt"])
	}
	if estimate.PotentialSavings != 0 {
		t.Errorf("no opportunities means no savings, got %g", estimate.PotentialSavings)
	}

	// 節省 0、單一品項精簡度 1.0、成本 0.12 的合理性 0.5012
	want := 0.3*1.0 + 0.2*0.5012
	if !almostEqual(estimate.OptimizationScore, want) {
		t.Errorf("score = %g, want %g", estimate.OptimizationScore, want)
	}
}

func TestEstimateConvertsDisplayUnits(t *testing.T) {
	c := newTestCalculator()
	// 2 liter 橄欖油先轉成 2000 ml 再計價：2000 * 0.005 * 2.5 = 25
	consolidated := []common.ConsolidatedIngredient{
		{Name: "olive oil", TotalQuantity: 2, Unit: "liter", Category: common.CategoryVolume},
	}
	estimate := c.EstimateBasket(consolidated, nil)
	if !almostEqual(estimate.TotalCost, 25) {
		t.Errorf("total cost = %g, want 25", estimate.TotalCost)
	}
}

func TestNegativeSavingsExcluded(t *testing.T) {
	c := newTestCalculator()
	consolidated := []common.ConsolidatedIngredient{
		{Name: "rice", TotalQuantity: 1000, Unit: "g", Category: common.CategoryWeight},
	}
	opportunities := []common.BulkOpportunity{
		{IngredientName: "rice", SavingsAmount: 3},
		{IngredientName: "bogus", SavingsAmount: -5},
	}
	estimate := c.EstimateBasket(consolidated, opportunities)
	if !almostEqual(estimate.PotentialSavings, 3) {
		t.Errorf("potential savings = %g, want 3 (negative amounts ignored)", estimate.PotentialSavings)
	}
}

func TestItemCountPenalty(t *testing.T) {
	c := newTestCalculator()
	small := []common.ConsolidatedIngredient{
		{Name: "salt", TotalQuantity: 10, Unit: "g"},
	}
	var large []common.ConsolidatedIngredient
	for i := 0; i < 20; i++ {
		large = append(large, common.ConsolidatedIngredient{Name: "salt", TotalQuantity: 10, Unit: "g"})
	}

	smallScore := c.EstimateBasket(small, nil).OptimizationScore
	largeScore := c.EstimateBasket(large, nil).OptimizationScore
	if largeScore >= smallScore {
		t.Errorf("longer list should score lower: %g vs %g", largeScore, smallScore)
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	c := newTestCalculator()
	baskets := [][]common.ConsolidatedIngredient{
		nil,
		{{Name: "saffron", TotalQuantity: 5000, Unit: "g"}},
		{{Name: "water", TotalQuantity: 1, Unit: "ml"}},
	}
	for _, basket := range baskets {
		estimate := c.EstimateBasket(basket, []common.BulkOpportunity{{SavingsAmount: 1e6}})
		if estimate.OptimizationScore < 0 || estimate.OptimizationScore > 1 {
			t.Errorf("score %g out of [0, 1]", estimate.OptimizationScore)
		}
	}
}
