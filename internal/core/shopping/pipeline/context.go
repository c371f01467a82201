package pipeline

import (
	"time"

	"shopping-optimizer/internal/core/shopping/cost"
	"shopping-optimizer/internal/pkg/common"
)

// StageMetric 單一階段的執行紀錄
type StageMetric struct {
	Duration  time.Duration `json:"duration"`
	Succeeded bool          `json:"succeeded"`
}

// OptimizationContext 在各階段之間傳遞的共享狀態。
// 每個階段讀取前面階段的輸出並寫入自己的結果，不回頭修改輸入。
type OptimizationContext struct {
	RequestID string

	// 輸入
	Recipes        []common.RecipeData
	RawIngredients []common.RecipeIngredient

	// 各階段輸出
	Consolidated      []common.ConsolidatedIngredient
	BulkOpportunities []common.BulkOpportunity
	Estimate          cost.Estimate

	// 累積的非致命問題與指標
	Warnings     []string
	Errors       []string
	StageMetrics map[string]StageMetric
}

// NewOptimizationContext 以輸入食譜創建管線上下文
func NewOptimizationContext(recipes []common.RecipeData, requestID string) *OptimizationContext {
	return &OptimizationContext{
		RequestID:    requestID,
		Recipes:      recipes,
		StageMetrics: make(map[string]StageMetric),
	}
}

// AddWarning 記錄非致命警告
func (c *OptimizationContext) AddWarning(msg string) {
	c.Warnings = append(c.Warnings, msg)
}

// AddError 記錄已恢復的階段錯誤
func (c *OptimizationContext) AddError(msg string) {
	c.Errors = append(c.Errors, msg)
}
