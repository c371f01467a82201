package cost

import (
	"math"

	"go.uber.org/zap"

	"shopping-optimizer/internal/core/shopping/pricing"
	"shopping-optimizer/internal/core/shopping/units"
	"shopping-optimizer/internal/pkg/common"
)

// 最佳化分數權重：節省比例 50%、清單精簡度 30%、成本合理性 20%
const (
	savingsScoreWeight   = 0.5
	itemCountScoreWeight = 0.3
	costScoreWeight      = 0.2

	// 清單精簡度以 10 項為基準
	itemCountBaseline = 10.0

	// 成本合理性以 50 美元為中心、100 美元為容許幅度
	reasonableCostCenter = 50.0
	reasonableCostSpread = 100.0
)

// Estimate 一次成本估算的輸出
type Estimate struct {
	TotalCost         float64
	PotentialSavings  float64
	OptimizationScore float64
	PerIngredientCost map[string]float64
}

// Calculator 估算購物清單總成本與最佳化分數。
// 價格來自 pricing.Provider 的啟發式估價，僅供相對比較。
type Calculator struct {
	unitEngine *units.Engine
	pricing    pricing.Provider
}

// NewCalculator 創建成本計算器
func NewCalculator(e *units.Engine, p pricing.Provider) *Calculator {
	return &Calculator{
		unitEngine: e,
		pricing:    p,
	}
}

// EstimateBasket 估算彙整後清單的總成本、潛在節省與最佳化分數
func (c *Calculator) EstimateBasket(consolidated []common.ConsolidatedIngredient, opportunities []common.BulkOpportunity) Estimate {
	estimate := Estimate{
		PerIngredientCost: make(map[string]float64, len(consolidated)),
	}

	for _, ingredient := range consolidated {
		standard := c.unitEngine.ConvertToStandardUnit(ingredient.TotalQuantity, ingredient.Unit, "")
		unitPrice := c.pricing.EstimateUnitPrice(ingredient.Name, standard.Category)
		itemCost := unitPrice * standard.Quantity
		estimate.PerIngredientCost[ingredient.Name] = itemCost
		estimate.TotalCost += itemCost
	}

	for _, opportunity := range opportunities {
		if opportunity.SavingsAmount > 0 {
			estimate.PotentialSavings += opportunity.SavingsAmount
		}
	}

	estimate.OptimizationScore = c.score(estimate.TotalCost, estimate.PotentialSavings, len(consolidated))

	common.LogDebug("成本估算完成",
		zap.Float64("total_cost", estimate.TotalCost),
		zap.Float64("potential_savings", estimate.PotentialSavings),
		zap.Float64("optimization_score", estimate.OptimizationScore),
	)

	return estimate
}

// score 加權最佳化分數，夾在 [0, 1]
func (c *Calculator) score(totalCost, potentialSavings float64, itemCount int) float64 {
	savingsRatio := 0.0
	if totalCost > 0 {
		savingsRatio = math.Min(potentialSavings/totalCost, 1.0)
	}

	itemCountScore := math.Min(1.0, 1.0/math.Max(float64(itemCount)/itemCountBaseline, 1.0))

	costScore := common.Clamp(1.0-math.Abs(totalCost-reasonableCostCenter)/reasonableCostSpread, 0, 1)

	score := savingsScoreWeight*savingsRatio + itemCountScoreWeight*itemCountScore + costScoreWeight*costScore
	return common.Clamp(score, 0, 1)
}
