package consolidate

import (
	"fmt"

	"go.uber.org/zap"

	"shopping-optimizer/internal/core/shopping/matcher"
	"shopping-optimizer/internal/core/shopping/units"
	"shopping-optimizer/internal/pkg/common"
)

// ingredientGroup 彙整過程中的暫時性食材群組，產出 ConsolidatedIngredient 後即丟棄
type ingredientGroup struct {
	members []common.RecipeIngredient
}

// Consolidator 食材彙整器，將多份食譜的原始食材行轉為最小化、單位一致的購物清單
type Consolidator struct {
	matcher    *matcher.Matcher
	unitEngine *units.Engine
}

// NewConsolidator 創建食材彙整器
func NewConsolidator(m *matcher.Matcher, e *units.Engine) *Consolidator {
	return &Consolidator{
		matcher:    m,
		unitEngine: e,
	}
}

// ConsolidateIngredients 彙整食材。回傳彙整結果與過程中產生的警告（整組轉換失敗等）。
//
// 分組採單趟貪婪法：依輸入順序掃描，未分組者開新群組並往後收編可彙整的成員。
// O(n²) 且與順序相關（最先出現者決定群組暫定名稱），並非全域最佳分群。
func (c *Consolidator) ConsolidateIngredients(ingredients []common.RecipeIngredient) ([]common.ConsolidatedIngredient, []string) {
	if len(ingredients) == 0 {
		return nil, nil
	}

	groups := c.groupIngredients(ingredients)

	var consolidated []common.ConsolidatedIngredient
	var warnings []string
	for _, group := range groups {
		result, ok, warning := c.consolidateGroup(group)
		if !ok {
			if warning != "" {
				warnings = append(warnings, warning)
				common.LogWarn("食材群組無法彙整",
					zap.String("warning", warning),
					zap.Int("group_size", len(group.members)),
				)
			}
			continue
		}
		consolidated = append(consolidated, result)
	}

	common.LogInfo("食材彙整完成",
		zap.Int("original_count", len(ingredients)),
		zap.Int("consolidated_count", len(consolidated)),
		zap.Int("warning_count", len(warnings)),
	)

	return consolidated, warnings
}

// groupIngredients 單趟貪婪分群
func (c *Consolidator) groupIngredients(ingredients []common.RecipeIngredient) []ingredientGroup {
	assigned := make([]bool, len(ingredients))
	var groups []ingredientGroup

	for i := range ingredients {
		if assigned[i] {
			continue
		}
		group := ingredientGroup{members: []common.RecipeIngredient{ingredients[i]}}
		assigned[i] = true

		for j := i + 1; j < len(ingredients); j++ {
			if assigned[j] {
				continue
			}
			if ok, _ := c.matcher.CanConsolidate(ingredients[i], ingredients[j]); ok {
				group.members = append(group.members, ingredients[j])
				assigned[j] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// consolidateGroup 將一個群組轉為單一購物項目
func (c *Consolidator) consolidateGroup(group ingredientGroup) (common.ConsolidatedIngredient, bool, string) {
	name := c.selectGroupName(group)

	// 單一成員直接通過，保留原單位不轉換
	if len(group.members) == 1 {
		only := group.members[0]
		category := c.unitEngine.GetUnitCategory(only.Unit)
		displayUnit := c.unitEngine.NormalizeUnitName(only.Unit)
		quantity := c.unitEngine.RoundToPracticalAmount(only.Quantity, displayUnit)
		return common.ConsolidatedIngredient{
			ID:            common.GenerateUUID(),
			Name:          name,
			TotalQuantity: quantity,
			Unit:          displayUnit,
			SourceRecipes: sourceAttributions(group.members),
			Category:      category,
		}, true, ""
	}

	// 多成員群組：跨單位分類時啟用密度換算，統一換到標準單位後加總
	densityName := ""
	if c.spansMultipleCategories(group) {
		densityName = name
	}

	var total float64
	var standardUnit string
	var category common.UnitCategory
	accepted := 0
	for _, member := range group.members {
		result := c.unitEngine.ConvertToStandardUnit(member.Quantity, member.Unit, densityName)
		if result.Confidence < units.MinUsableConfidence {
			continue
		}
		if accepted == 0 {
			standardUnit = result.Unit
			category = result.Category
		} else if result.Unit != standardUnit {
			// 換算結果落在不同標準單位（例如密度換算部分失敗），不納入加總
			continue
		}
		total += result.Quantity
		accepted++
	}

	if accepted == 0 {
		return common.ConsolidatedIngredient{}, false,
			fmt.Sprintf("no usable unit conversion for ingredient group %q", name)
	}

	displayQuantity, displayUnit := c.unitEngine.GetBestDisplayUnit(total, standardUnit, category)
	displayQuantity = c.unitEngine.RoundToPracticalAmount(displayQuantity, displayUnit)

	return common.ConsolidatedIngredient{
		ID:            common.GenerateUUID(),
		Name:          name,
		TotalQuantity: displayQuantity,
		Unit:          displayUnit,
		SourceRecipes: sourceAttributions(group.members),
		Category:      category,
	}, true, ""
}

// spansMultipleCategories 群組成員是否橫跨多個單位分類
func (c *Consolidator) spansMultipleCategories(group ingredientGroup) bool {
	first := c.unitEngine.GetUnitCategory(group.members[0].Unit)
	for _, member := range group.members[1:] {
		if c.unitEngine.GetUnitCategory(member.Unit) != first {
			return true
		}
	}
	return false
}

// selectGroupName 挑選群組顯示名稱：取出現次數最多的正規化名稱，
// 再映射回第一個產生該正規化結果的原始拼寫。與輸入順序相關。
func (c *Consolidator) selectGroupName(group ingredientGroup) string {
	counts := make(map[string]int)
	firstSpelling := make(map[string]string)
	order := make([]string, 0, len(group.members))

	for _, member := range group.members {
		norm := c.matcher.NormalizeIngredientName(member.IngredientName)
		if _, seen := counts[norm]; !seen {
			firstSpelling[norm] = member.IngredientName
			order = append(order, norm)
		}
		counts[norm]++
	}

	best := order[0]
	for _, norm := range order {
		if counts[norm] > counts[best] {
			best = norm
		}
	}
	return firstSpelling[best]
}

// sourceAttributions 保留每筆來源食譜的原始數量與單位，彙整後不得遺失
func sourceAttributions(members []common.RecipeIngredient) []common.SourceRecipe {
	sources := make([]common.SourceRecipe, 0, len(members))
	for _, member := range members {
		sources = append(sources, common.SourceRecipe{
			RecipeID:         member.RecipeID,
			RecipeName:       member.RecipeName,
			OriginalQuantity: member.Quantity,
			Unit:             member.Unit,
			Notes:            member.Notes,
		})
	}
	return sources
}
