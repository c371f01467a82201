package bulk

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"shopping-optimizer/internal/core/shopping/pricing"
	"shopping-optimizer/internal/core/shopping/units"
	"shopping-optimizer/internal/pkg/common"
)

// 各分類的囤貨門檻（以標準單位計）
var bulkThresholds = map[common.UnitCategory]float64{
	common.CategoryVolume:  500, // ml
	common.CategoryWeight:  500, // g
	common.CategoryCount:   5,   // piece
	common.CategoryUnknown: 3,
}

// 各分類的大包裝倍率
var bulkMultipliers = map[common.UnitCategory]float64{
	common.CategoryVolume:  2.5,
	common.CategoryWeight:  2.5,
	common.CategoryCount:   2,
	common.CategoryUnknown: 2,
}

// 零售包裝級距（標準單位）
var (
	volumeBreakpoints = []float64{1000, 2000, 5000} // ml
	weightBreakpoints = []float64{1000, 2500, 5000} // g
)

// 信心值權重：折扣比例 50%、儲存風險 30%、過量懲罰 20%
const (
	savingsWeight = 0.5
	riskWeight    = 0.3
	excessWeight  = 0.2

	savingsRatioCeiling = 0.4 // 折扣比例正規化上限

	minRecommendationConfidence = 0.1
	maxRecommendationConfidence = 1.0
)

var riskScores = map[common.StorageRisk]float64{
	common.RiskLow:    1.0,
	common.RiskMedium: 0.6,
	common.RiskHigh:   0.3,
}

// Detector 囤貨機會偵測器。
// 這是啟發式的定價模擬而非即時查價整合；常數為固定商業規則。
type Detector struct {
	unitEngine *units.Engine
	pricing    pricing.Provider
}

// NewDetector 創建囤貨偵測器
func NewDetector(e *units.Engine, p pricing.Provider) *Detector {
	return &Detector{
		unitEngine: e,
		pricing:    p,
	}
}

// DetectBulkOpportunities 找出值得大量採購的食材，依節省比例由高到低排序。
// 不會產出節省金額為負的建議。
func (d *Detector) DetectBulkOpportunities(consolidated []common.ConsolidatedIngredient) []common.BulkOpportunity {
	var opportunities []common.BulkOpportunity

	for _, ingredient := range consolidated {
		opportunity, ok := d.evaluate(ingredient)
		if !ok {
			continue
		}
		opportunities = append(opportunities, opportunity)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].SavingsPercentage > opportunities[j].SavingsPercentage
	})

	common.LogInfo("囤貨機會偵測完成",
		zap.Int("consolidated_count", len(consolidated)),
		zap.Int("opportunity_count", len(opportunities)),
	)

	return opportunities
}

// evaluate 評估單一彙整食材的囤貨價值
func (d *Detector) evaluate(ingredient common.ConsolidatedIngredient) (common.BulkOpportunity, bool) {
	standard := d.unitEngine.ConvertToStandardUnit(ingredient.TotalQuantity, ingredient.Unit, "")

	threshold := bulkThresholds[standard.Category]
	if standard.Quantity < threshold {
		return common.BulkOpportunity{}, false
	}

	ratio := d.pricing.SavingsRatio(ingredient.Name)
	storage := d.pricing.StorageProfile(ingredient.Name)

	// 建議包裝量：現有量乘上倍率，再進位到實際零售級距
	rawBulk := standard.Quantity * bulkMultipliers[standard.Category]
	bulkQuantity := roundToRetailPackage(rawBulk, standard.Category)

	regularUnitPrice := d.pricing.EstimateUnitPrice(ingredient.Name, standard.Category)
	bulkUnitPrice := regularUnitPrice * (1 - ratio)

	standardCost := regularUnitPrice * bulkQuantity
	bulkCost := bulkUnitPrice * bulkQuantity
	savings := standardCost - bulkCost
	if savings <= 0 {
		return common.BulkOpportunity{}, false
	}

	confidence := d.confidence(ratio, storage.Risk, standard.Quantity, bulkQuantity)

	displayBulkQty, displayBulkUnit := d.unitEngine.GetBestDisplayUnit(bulkQuantity, standard.Unit, standard.Category)

	return common.BulkOpportunity{
		IngredientName:           ingredient.Name,
		CurrentQuantity:          ingredient.TotalQuantity,
		CurrentUnit:              ingredient.Unit,
		RecommendedBulkQuantity:  displayBulkQty,
		RecommendedBulkUnit:      displayBulkUnit,
		RegularUnitPrice:         regularUnitPrice,
		BulkUnitPrice:            bulkUnitPrice,
		SavingsAmount:            savings,
		SavingsPercentage:        ratio * 100,
		StorageType:              storage.Type,
		PerishabilityDays:        storage.ShelfLifeDays,
		RecommendationConfidence: confidence,
		BulkPackageInfo: common.BulkPackageInfo{
			PackageQuantity:    displayBulkQty,
			PackageUnit:        displayBulkUnit,
			EstimatedTotalCost: bulkCost,
		},
	}, true
}

// confidence 加權信心值：折扣比例 50%、儲存風險 30%、過量懲罰 20%，夾在 [0.1, 1.0]
func (d *Detector) confidence(ratio float64, risk common.StorageRisk, currentQty, bulkQty float64) float64 {
	normalizedSavings := math.Min(ratio/savingsRatioCeiling, 1.0)

	riskScore, ok := riskScores[risk]
	if !ok {
		riskScore = riskScores[common.RiskMedium]
	}

	// 建議量超出現有需求越多，信心越低
	excessPenalty := 1.0
	if bulkQty > 0 {
		excessPenalty = 1 - (bulkQty-currentQty)/bulkQty
	}

	score := savingsWeight*normalizedSavings + riskWeight*riskScore + excessWeight*excessPenalty
	return common.Clamp(score, minRecommendationConfidence, maxRecommendationConfidence)
}

// roundToRetailPackage 進位到實際零售包裝級距
func roundToRetailPackage(quantity float64, category common.UnitCategory) float64 {
	switch category {
	case common.CategoryVolume:
		return roundUpToBreakpoint(quantity, volumeBreakpoints)
	case common.CategoryWeight:
		return roundUpToBreakpoint(quantity, weightBreakpoints)
	case common.CategoryCount:
		// 進位到一打的倍數
		return math.Ceil(quantity/12) * 12
	default:
		return math.Ceil(quantity)
	}
}

// roundUpToBreakpoint 進位到第一個不小於數量的級距；超過最大級距時取其倍數
func roundUpToBreakpoint(quantity float64, breakpoints []float64) float64 {
	for _, breakpoint := range breakpoints {
		if quantity <= breakpoint {
			return breakpoint
		}
	}
	largest := breakpoints[len(breakpoints)-1]
	return math.Ceil(quantity/largest) * largest
}
