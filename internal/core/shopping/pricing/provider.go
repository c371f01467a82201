package pricing

import (
	"regexp"
	"strings"

	"shopping-optimizer/internal/pkg/common"
)

// StorageProfile 食材的儲存與保存特性
type StorageProfile struct {
	Type          common.StorageType
	ShelfLifeDays int
	Risk          common.StorageRisk
}

// Provider 定義價格資訊提供者介面。
// 目前唯一的實作是簡化的啟發式定價；正式部署時應替換為商品目錄查價服務。
type Provider interface {
	// EstimateUnitPrice 估算標準單位（ml / g / piece）的一般售價
	EstimateUnitPrice(ingredientName string, category common.UnitCategory) float64

	// SavingsRatio 估算大量採購可得的折扣比例 [0,1]
	SavingsRatio(ingredientName string) float64

	// StorageProfile 查詢儲存方式與保存期限
	StorageProfile(ingredientName string) StorageProfile
}

// 每個標準單位的基礎單價（美元）
var baseUnitPrices = map[common.UnitCategory]float64{
	common.CategoryVolume:  0.005, // per ml
	common.CategoryWeight:  0.008, // per g
	common.CategoryCount:   0.5,   // per piece
	common.CategoryUnknown: 1.0,   // per unit
}

// 關鍵字價格乘數。開發用簡化數值，非真實市價。
var priceMultipliers = map[string]float64{
	"oil":       2,
	"olive_oil": 2.5,
	"butter":    2,
	"cheese":    2.5,
	"chicken":   3,
	"pork":      3,
	"beef":      4,
	"lamb":      4,
	"fish":      3.5,
	"salmon":    4,
	"shrimp":    3.5,
	"almond":    2,
	"walnut":    2,
	"honey":     1.5,
	"chocolate": 2,
	"vanilla":   10,
	"truffle":   30,
	"saffron":   50,
}

// 關鍵字折扣比例表：油品 ~22–25%、乾貨 ~28–35%、香料 ~30–40%、蛋白質 ~12–25%
var savingsRatios = map[string]float64{
	"oil":       0.22,
	"olive_oil": 0.25,
	"flour":     0.28,
	"sugar":     0.28,
	"rice":      0.30,
	"oats":      0.30,
	"pasta":     0.32,
	"lentils":   0.33,
	"beans":     0.35,
	"pepper":    0.30,
	"cumin":     0.35,
	"paprika":   0.35,
	"oregano":   0.38,
	"cinnamon":  0.40,
	"beef":      0.12,
	"pork":      0.14,
	"chicken":   0.15,
	"fish":      0.20,
	"shrimp":    0.25,
}

// defaultSavingsRatio 未命中任何類別時的全域預設折扣
const defaultSavingsRatio = 0.15

// 關鍵字儲存特性表
var storageProfiles = map[string]StorageProfile{
	"milk":    {Type: common.StorageRefrigerated, ShelfLifeDays: 7, Risk: common.RiskHigh},
	"cream":   {Type: common.StorageRefrigerated, ShelfLifeDays: 7, Risk: common.RiskHigh},
	"yogurt":  {Type: common.StorageRefrigerated, ShelfLifeDays: 14, Risk: common.RiskHigh},
	"cheese":  {Type: common.StorageRefrigerated, ShelfLifeDays: 30, Risk: common.RiskMedium},
	"butter":  {Type: common.StorageRefrigerated, ShelfLifeDays: 60, Risk: common.RiskMedium},
	"egg":     {Type: common.StorageRefrigerated, ShelfLifeDays: 28, Risk: common.RiskMedium},
	"chicken": {Type: common.StorageFrozen, ShelfLifeDays: 90, Risk: common.RiskMedium},
	"beef":    {Type: common.StorageFrozen, ShelfLifeDays: 120, Risk: common.RiskMedium},
	"pork":    {Type: common.StorageFrozen, ShelfLifeDays: 120, Risk: common.RiskMedium},
	"fish":    {Type: common.StorageFrozen, ShelfLifeDays: 60, Risk: common.RiskHigh},
	"shrimp":  {Type: common.StorageFrozen, ShelfLifeDays: 60, Risk: common.RiskHigh},
	"lettuce": {Type: common.StorageRefrigerated, ShelfLifeDays: 5, Risk: common.RiskHigh},
	"tomato":  {Type: common.StorageRefrigerated, ShelfLifeDays: 7, Risk: common.RiskHigh},
	"basil":   {Type: common.StorageRefrigerated, ShelfLifeDays: 5, Risk: common.RiskHigh},
	"herb":    {Type: common.StorageRefrigerated, ShelfLifeDays: 5, Risk: common.RiskHigh},
	"oil":     {Type: common.StoragePantry, ShelfLifeDays: 365, Risk: common.RiskLow},
	"flour":   {Type: common.StoragePantry, ShelfLifeDays: 365, Risk: common.RiskLow},
	"sugar":   {Type: common.StoragePantry, ShelfLifeDays: 730, Risk: common.RiskLow},
	"rice":    {Type: common.StoragePantry, ShelfLifeDays: 730, Risk: common.RiskLow},
	"pasta":   {Type: common.StoragePantry, ShelfLifeDays: 730, Risk: common.RiskLow},
	"beans":   {Type: common.StoragePantry, ShelfLifeDays: 730, Risk: common.RiskLow},
	"oats":    {Type: common.StoragePantry, ShelfLifeDays: 365, Risk: common.RiskLow},
	"salt":    {Type: common.StoragePantry, ShelfLifeDays: 1825, Risk: common.RiskLow},
	"pepper":  {Type: common.StoragePantry, ShelfLifeDays: 730, Risk: common.RiskLow},
	"spice":   {Type: common.StoragePantry, ShelfLifeDays: 730, Risk: common.RiskLow},
	"honey":   {Type: common.StoragePantry, ShelfLifeDays: 1825, Risk: common.RiskLow},
}

// 未命中任何關鍵字的預設儲存特性
var (
	defaultFreshProfile  = StorageProfile{Type: common.StorageRefrigerated, ShelfLifeDays: 7, Risk: common.RiskHigh}
	defaultPantryProfile = StorageProfile{Type: common.StoragePantry, ShelfLifeDays: 180, Risk: common.RiskLow}
)

var nonWordPattern = regexp.MustCompile(`[^a-z0-9]+`)

// HeuristicProvider 以固定查表估價的提供者。查表唯讀，可跨請求共用。
type HeuristicProvider struct{}

// NewHeuristicProvider 創建啟發式定價提供者
func NewHeuristicProvider() *HeuristicProvider {
	return &HeuristicProvider{}
}

// EstimateUnitPrice 估算標準單位的一般售價
func (p *HeuristicProvider) EstimateUnitPrice(ingredientName string, category common.UnitCategory) float64 {
	price := baseUnitPrices[category]
	if price == 0 {
		price = baseUnitPrices[common.CategoryUnknown]
	}
	if multiplier, ok := lookupByKeyword(priceMultipliers, ingredientName); ok {
		price *= multiplier
	}
	return price
}

// SavingsRatio 估算大量採購折扣比例
func (p *HeuristicProvider) SavingsRatio(ingredientName string) float64 {
	if ratio, ok := lookupByKeyword(savingsRatios, ingredientName); ok {
		return ratio
	}
	return defaultSavingsRatio
}

// StorageProfile 查詢儲存特性，未命中時依名稱關鍵字給予生鮮或常溫預設
func (p *HeuristicProvider) StorageProfile(ingredientName string) StorageProfile {
	if profile, ok := lookupByKeyword(storageProfiles, ingredientName); ok {
		return profile
	}
	key := normalizeKey(ingredientName)
	if strings.Contains(key, "fresh") {
		return defaultFreshProfile
	}
	return defaultPantryProfile
}

// lookupByKeyword 子字串關鍵字查表，命中多個時取最長鍵以保持結果確定
func lookupByKeyword[V any](table map[string]V, ingredientName string) (V, bool) {
	key := normalizeKey(ingredientName)
	var zero V
	if key == "" {
		return zero, false
	}
	if v, ok := table[key]; ok {
		return v, true
	}
	bestKey := ""
	for tableKey := range table {
		if strings.Contains(key, tableKey) && len(tableKey) > len(bestKey) {
			bestKey = tableKey
		}
	}
	if bestKey == "" {
		return zero, false
	}
	return table[bestKey], true
}

func normalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = nonWordPattern.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}
