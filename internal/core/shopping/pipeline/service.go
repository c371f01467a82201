package pipeline

import (
	"context"
	"fmt"
	"time"

	"shopping-optimizer/internal/core/shopping/bulk"
	"shopping-optimizer/internal/core/shopping/consolidate"
	"shopping-optimizer/internal/core/shopping/cost"
	"shopping-optimizer/internal/core/shopping/matcher"
	"shopping-optimizer/internal/core/shopping/pricing"
	"shopping-optimizer/internal/core/shopping/units"
	"shopping-optimizer/internal/infrastructure/config"
	"shopping-optimizer/internal/pkg/common"
)

// Service 購物清單最佳化服務。
// 無內部狀態，可安全地在多個請求之間共用。
type Service struct {
	limits config.ShoppingConfig

	fullPipeline    *Pipeline
	consolidateOnly *Pipeline
}

// NewService 組裝最佳化服務與其管線
func NewService(limits config.ShoppingConfig) *Service {
	engine := units.NewEngine()
	ingredientMatcher := matcher.NewMatcher(engine)
	consolidator := consolidate.NewConsolidator(ingredientMatcher, engine)
	provider := pricing.NewHeuristicProvider()
	detector := bulk.NewDetector(engine, provider)
	calculator := cost.NewCalculator(engine, provider)

	consolidation := NewConsolidationStage(consolidator)

	return &Service{
		limits: limits,
		fullPipeline: NewPipeline(
			consolidation,
			NewBulkAnalysisStage(detector),
			NewCostEstimationStage(calculator),
		),
		consolidateOnly: NewPipeline(consolidation),
	}
}

// OptimizeShoppingList 執行完整三階段最佳化
func (s *Service) OptimizeShoppingList(ctx context.Context, recipes []common.RecipeData, requestID string) (*common.OptimizationResult, error) {
	return s.run(ctx, s.fullPipeline, recipes, requestID)
}

// ConsolidateShoppingList 只執行彙整階段，不做囤貨與成本分析
func (s *Service) ConsolidateShoppingList(ctx context.Context, recipes []common.RecipeData, requestID string) (*common.OptimizationResult, error) {
	return s.run(ctx, s.consolidateOnly, recipes, requestID)
}

func (s *Service) run(ctx context.Context, p *Pipeline, recipes []common.RecipeData, requestID string) (*common.OptimizationResult, error) {
	if err := s.validateRecipes(recipes); err != nil {
		return nil, err
	}

	octx := NewOptimizationContext(recipes, requestID)
	start := time.Now()
	err := p.Run(ctx, octx)
	common.LogOptimizationRun(len(recipes), len(octx.RawIngredients), time.Since(start), err, requestID)
	if err != nil {
		return nil, err
	}

	return s.buildResult(octx), nil
}

// validateRecipes 檢查輸入食譜是否在限制內
func (s *Service) validateRecipes(recipes []common.RecipeData) error {
	if len(recipes) == 0 {
		return common.ErrNoValidRecipes
	}
	if s.limits.MaxRecipes > 0 && len(recipes) > s.limits.MaxRecipes {
		return common.ErrTooManyRecipes
	}
	for _, r := range recipes {
		if r.RecipeID == "" {
			return common.NewValidationError("recipe_id 為必填欄位")
		}
		if s.limits.MaxIngredientsPerRecipe > 0 && len(r.Ingredients) > s.limits.MaxIngredientsPerRecipe {
			return common.NewValidationError(fmt.Sprintf("食譜 %s 的食材數量超出限制 %d", r.RecipeID, s.limits.MaxIngredientsPerRecipe))
		}
	}
	return nil
}

// buildResult 將管線上下文組裝成 API 回應
func (s *Service) buildResult(octx *OptimizationContext) *common.OptimizationResult {
	originalCount := len(octx.RawIngredients)
	consolidatedCount := len(octx.Consolidated)

	// 彙整越多、清單越短，效率分數越高
	efficiency := 0.0
	if originalCount > 0 {
		efficiency = common.Clamp(1-float64(consolidatedCount)/float64(originalCount), 0, 1)
	}

	return &common.OptimizationResult{
		ConsolidatedIngredients: octx.Consolidated,
		BulkOpportunities:       octx.BulkOpportunities,
		Summary: common.OptimizationSummary{
			TotalOriginalIngredients:     originalCount,
			TotalConsolidatedIngredients: consolidatedCount,
			ConsolidationOpportunities:   originalCount - consolidatedCount,
			EfficiencyScore:              efficiency,
			EstimatedCost:                octx.Estimate.TotalCost,
			OptimizationScore:            octx.Estimate.OptimizationScore,
		},
		Warnings: octx.Warnings,
		Errors:   octx.Errors,
	}
}
