package common

import (
	"fmt"
	"strings"
)

// UnitCategory 計量單位分類
type UnitCategory string

const (
	CategoryVolume  UnitCategory = "volume"
	CategoryWeight  UnitCategory = "weight"
	CategoryCount   UnitCategory = "count"
	CategoryUnknown UnitCategory = "unknown"
)

// StorageType 囤貨儲存方式
type StorageType string

const (
	StoragePantry       StorageType = "pantry"
	StorageRefrigerated StorageType = "refrigerated"
	StorageFrozen       StorageType = "frozen"
)

// StorageRisk 囤貨腐壞風險等級
type StorageRisk string

const (
	RiskLow    StorageRisk = "low"
	RiskMedium StorageRisk = "medium"
	RiskHigh   StorageRisk = "high"
)

// RecipeLineItem 食譜中的單行食材（原始輸入）
type RecipeLineItem struct {
	IngredientName string  `json:"ingredient_name" binding:"required"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	Notes          string  `json:"notes,omitempty"`
}

// RecipeData 一份食譜的食材清單
type RecipeData struct {
	RecipeID    string           `json:"recipe_id" binding:"required"`
	RecipeName  string           `json:"recipe_name"`
	Ingredients []RecipeLineItem `json:"ingredients"`
}

// RecipeIngredient 展開後的單筆食材紀錄，帶有所屬食譜資訊。
// 由抽取階段建立，之後不再修改。
type RecipeIngredient struct {
	RecipeID       string  `json:"recipe_id"`
	RecipeName     string  `json:"recipe_name"`
	IngredientName string  `json:"ingredient_name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	Notes          string  `json:"notes,omitempty"`
}

// SourceRecipe 彙整後保留的來源食譜出處
type SourceRecipe struct {
	RecipeID         string  `json:"recipe_id"`
	RecipeName       string  `json:"recipe_name"`
	OriginalQuantity float64 `json:"original_quantity"`
	Unit             string  `json:"unit"`
	Notes            string  `json:"notes,omitempty"`
}

// ConsolidatedIngredient 彙整後的購物清單項目
type ConsolidatedIngredient struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	TotalQuantity         float64        `json:"total_quantity"`
	Unit                  string         `json:"unit"`
	SourceRecipes         []SourceRecipe `json:"source_recipes"`
	Category              UnitCategory   `json:"category"`
	EstimatedCost         *float64       `json:"estimated_cost,omitempty"`
	BulkDiscountAvailable bool           `json:"bulk_discount_available"`
}

// BulkPackageInfo 建議購買的大包裝資訊
type BulkPackageInfo struct {
	PackageQuantity    float64 `json:"package_quantity"`
	PackageUnit        string  `json:"package_unit"`
	EstimatedTotalCost float64 `json:"estimated_total_cost"`
}

// BulkOpportunity 囤貨購買建議，對應到單一彙整後食材
type BulkOpportunity struct {
	IngredientName           string          `json:"ingredient_name"`
	CurrentQuantity          float64         `json:"current_quantity"`
	CurrentUnit              string          `json:"current_unit"`
	RecommendedBulkQuantity  float64         `json:"recommended_bulk_quantity"`
	RecommendedBulkUnit      string          `json:"recommended_bulk_unit"`
	RegularUnitPrice         float64         `json:"regular_unit_price"`
	BulkUnitPrice            float64         `json:"bulk_unit_price"`
	SavingsAmount            float64         `json:"savings_amount"`
	SavingsPercentage        float64         `json:"savings_percentage"`
	StorageType              StorageType     `json:"storage_type"`
	PerishabilityDays        int             `json:"perishability_days"`
	RecommendationConfidence float64         `json:"recommendation_confidence"`
	BulkPackageInfo          BulkPackageInfo `json:"bulk_package_info"`
}

// OptimizationSummary 一次最佳化的整體指標
type OptimizationSummary struct {
	TotalOriginalIngredients     int     `json:"total_original_ingredients"`
	TotalConsolidatedIngredients int     `json:"total_consolidated_ingredients"`
	ConsolidationOpportunities   int     `json:"consolidation_opportunities"`
	EfficiencyScore              float64 `json:"efficiency_score"`
	EstimatedCost                float64 `json:"estimated_cost"`
	OptimizationScore            float64 `json:"optimization_score"`
}

// OptimizationResult 最佳化結果（API 回應主體）
type OptimizationResult struct {
	ConsolidatedIngredients []ConsolidatedIngredient `json:"consolidated_ingredients"`
	BulkOpportunities       []BulkOpportunity        `json:"bulk_opportunities"`
	Summary                 OptimizationSummary      `json:"summary"`
	Warnings                []string                 `json:"warnings,omitempty"`
	Errors                  []string                 `json:"errors,omitempty"`
}

// FlattenRecipes 將多份食譜展開成食材紀錄列表，保持輸入順序
func FlattenRecipes(recipes []RecipeData) []RecipeIngredient {
	var out []RecipeIngredient
	for _, r := range recipes {
		for _, item := range r.Ingredients {
			out = append(out, RecipeIngredient{
				RecipeID:       r.RecipeID,
				RecipeName:     r.RecipeName,
				IngredientName: item.IngredientName,
				Quantity:       item.Quantity,
				Unit:           item.Unit,
				Notes:          item.Notes,
			})
		}
	}
	return out
}

// FormatIngredientLine 格式化單筆食材（用於日誌與除錯輸出）
func FormatIngredientLine(ing RecipeIngredient) string {
	line := fmt.Sprintf("%s: %g %s", ing.IngredientName, ing.Quantity, ing.Unit)
	if ing.Notes != "" {
		line += fmt.Sprintf("（%s）", ing.Notes)
	}
	return line
}

// SummarizeRecipes 將食譜列表轉為簡短摘要字串（用於日誌）
func SummarizeRecipes(recipes []RecipeData) string {
	if len(recipes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(recipes))
	for _, r := range recipes {
		name := r.RecipeName
		if name == "" {
			name = r.RecipeID
		}
		parts = append(parts, fmt.Sprintf("%s(%d)", name, len(r.Ingredients)))
	}
	return strings.Join(parts, "、")
}
