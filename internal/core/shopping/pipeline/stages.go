package pipeline

import (
	"context"

	"go.uber.org/zap"

	"shopping-optimizer/internal/core/shopping/bulk"
	"shopping-optimizer/internal/core/shopping/consolidate"
	"shopping-optimizer/internal/core/shopping/cost"
	"shopping-optimizer/internal/pkg/common"
)

// ConsolidationStage 展開食譜並彙整重複食材。
// 這是後續所有階段的基礎，失敗時整條管線中止。
type ConsolidationStage struct {
	consolidator *consolidate.Consolidator
}

// NewConsolidationStage 創建彙整階段
func NewConsolidationStage(c *consolidate.Consolidator) *ConsolidationStage {
	return &ConsolidationStage{consolidator: c}
}

func (s *ConsolidationStage) Name() string { return "consolidation" }
func (s *ConsolidationStage) Fatal() bool  { return true }

func (s *ConsolidationStage) Execute(ctx context.Context, octx *OptimizationContext) error {
	if len(octx.RawIngredients) == 0 {
		octx.RawIngredients = common.FlattenRecipes(octx.Recipes)
	}
	if len(octx.RawIngredients) == 0 {
		return common.ErrEmptyIngredients
	}

	consolidated, warnings := s.consolidator.ConsolidateIngredients(octx.RawIngredients)
	for _, w := range warnings {
		octx.AddWarning(w)
	}
	if len(consolidated) == 0 {
		return common.ErrConsolidationFail
	}

	octx.Consolidated = consolidated
	return nil
}

// BulkAnalysisStage 偵測囤貨機會並標記可折扣的清單項目。
// 失敗時只影響建議，不影響已彙整的清單。
type BulkAnalysisStage struct {
	detector *bulk.Detector
}

// NewBulkAnalysisStage 創建囤貨分析階段
func NewBulkAnalysisStage(d *bulk.Detector) *BulkAnalysisStage {
	return &BulkAnalysisStage{detector: d}
}

func (s *BulkAnalysisStage) Name() string { return "bulk_analysis" }
func (s *BulkAnalysisStage) Fatal() bool  { return false }

func (s *BulkAnalysisStage) Execute(ctx context.Context, octx *OptimizationContext) error {
	opportunities := s.detector.DetectBulkOpportunities(octx.Consolidated)
	octx.BulkOpportunities = opportunities

	discountable := make(map[string]bool, len(opportunities))
	for _, opp := range opportunities {
		discountable[opp.IngredientName] = true
	}
	for i := range octx.Consolidated {
		if discountable[octx.Consolidated[i].Name] {
			octx.Consolidated[i].BulkDiscountAvailable = true
		}
	}
	return nil
}

// CostEstimationStage 估算總成本、潛在節省與最佳化分數。
// 失敗時回應仍包含彙整清單與囤貨建議。
type CostEstimationStage struct {
	calculator *cost.Calculator
}

// NewCostEstimationStage 創建成本估算階段
func NewCostEstimationStage(c *cost.Calculator) *CostEstimationStage {
	return &CostEstimationStage{calculator: c}
}

func (s *CostEstimationStage) Name() string { return "cost_estimation" }
func (s *CostEstimationStage) Fatal() bool  { return false }

func (s *CostEstimationStage) Execute(ctx context.Context, octx *OptimizationContext) error {
	estimate := s.calculator.EstimateBasket(octx.Consolidated, octx.BulkOpportunities)
	octx.Estimate = estimate

	for i := range octx.Consolidated {
		if itemCost, ok := estimate.PerIngredientCost[octx.Consolidated[i].Name]; ok {
			c := itemCost
			octx.Consolidated[i].EstimatedCost = &c
		}
	}

	common.LogDebug("成本估算階段完成",
		zap.Float64("total_cost", estimate.TotalCost),
		zap.String("request_id", octx.RequestID),
	)
	return nil
}
