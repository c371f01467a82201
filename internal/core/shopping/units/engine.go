package units

import (
	"math"
	"regexp"
	"strings"

	"shopping-optimizer/internal/pkg/common"
)

// ConversionResult 單位轉換結果。
// 轉換永遠不會失敗：無法辨識的單位會原樣通過，並以 Confidence 表達可信度，
// 由下游依信心值決定是否採用。
type ConversionResult struct {
	Quantity   float64
	Unit       string
	Category   common.UnitCategory
	Confidence float64
}

// 各信心值層級
const (
	confidenceExact       = 1.0 // 換算表直接查表
	confidenceDensity     = 0.9 // 食材密度表直接命中
	confidenceDensityCup  = 0.8 // 經由杯容積比例換算密度
	confidencePassthrough = 0.3 // 無已知換算，原樣通過
)

// MinUsableConfidence 下游彙整採納轉換結果的最低信心值
const MinUsableConfidence = 0.5

// 體積單位 → 毫升
var volumeToMilliliter = map[string]float64{
	"ml":          1,
	"liter":       1000,
	"teaspoon":    4.929,
	"tablespoon":  14.787,
	"fluid_ounce": 29.5735,
	"cup":         236.588,
	"pint":        473.176,
	"quart":       946.353,
	"gallon":      3785.41,
	"drop":        0.05,
	"pinch":       0.31,
	"dash":        0.62,
}

// 重量單位 → 公克
var weightToGram = map[string]float64{
	"mg": 0.001,
	"g":  1,
	"kg": 1000,
	"oz": 28.3495,
	"lb": 453.592,
}

// 數量單位 → 個
var countToPiece = map[string]float64{
	"piece":   1,
	"whole":   1,
	"clove":   1,
	"slice":   1,
	"head":    1,
	"bunch":   1,
	"stalk":   1,
	"sprig":   1,
	"can":     1,
	"jar":     1,
	"bottle":  1,
	"package": 1,
	"bag":     1,
	"box":     1,
	"pair":    2,
	"dozen":   12,
}

// 單位別名表
var unitAliases = map[string]string{
	"cups":         "cup",
	"c":            "cup",
	"tbsp":         "tablespoon",
	"tbs":          "tablespoon",
	"tablespoons":  "tablespoon",
	"tsp":          "teaspoon",
	"teaspoons":    "teaspoon",
	"milliliter":   "ml",
	"milliliters":  "ml",
	"millilitre":   "ml",
	"millilitres":  "ml",
	"l":            "liter",
	"liters":       "liter",
	"litre":        "liter",
	"litres":       "liter",
	"fl_oz":        "fluid_ounce",
	"fluid_ounces": "fluid_ounce",
	"pints":        "pint",
	"pt":           "pint",
	"quarts":       "quart",
	"qt":           "quart",
	"gallons":      "gallon",
	"gal":          "gallon",
	"drops":        "drop",
	"pinches":      "pinch",
	"dashes":       "dash",
	"gram":         "g",
	"grams":        "g",
	"gr":           "g",
	"kilogram":     "kg",
	"kilograms":    "kg",
	"kgs":          "kg",
	"milligram":    "mg",
	"milligrams":   "mg",
	"ounce":        "oz",
	"ounces":       "oz",
	"pound":        "lb",
	"pounds":       "lb",
	"lbs":          "lb",
	"pieces":       "piece",
	"pcs":          "piece",
	"pc":           "piece",
	"each":         "piece",
	"ea":           "piece",
	"item":         "piece",
	"items":        "piece",
	"unit":         "piece",
	"units":        "piece",
	"cloves":       "clove",
	"slices":       "slice",
	"heads":        "head",
	"bunches":      "bunch",
	"stalks":       "stalk",
	"sprigs":       "sprig",
	"cans":         "can",
	"jars":         "jar",
	"bottles":      "bottle",
	"packages":     "package",
	"pkg":          "package",
	"bags":         "bag",
	"boxes":        "box",
	"dozens":       "dozen",
}

// 食材密度表：正規化食材名稱 → 每「杯 / 湯匙 / 茶匙」的公克數。
// 僅用於體積→重量的跨分類換算。
var ingredientDensities = map[string]map[string]float64{
	"flour":          {"cup": 120, "tablespoon": 7.5, "teaspoon": 2.5},
	"sugar":          {"cup": 200, "tablespoon": 12.5, "teaspoon": 4.2},
	"brown_sugar":    {"cup": 220, "tablespoon": 13.75},
	"powdered_sugar": {"cup": 120, "tablespoon": 7.5},
	"butter":         {"cup": 227, "tablespoon": 14.2, "teaspoon": 4.7},
	"milk":           {"cup": 245, "tablespoon": 15.3},
	"water":          {"cup": 236.588, "tablespoon": 14.8, "teaspoon": 4.9},
	"rice":           {"cup": 185},
	"oats":           {"cup": 90},
	"honey":          {"cup": 340, "tablespoon": 21},
	"olive_oil":      {"cup": 216, "tablespoon": 13.5, "teaspoon": 4.5},
	"vegetable_oil":  {"cup": 218, "tablespoon": 13.6},
	"salt":           {"cup": 292, "tablespoon": 18, "teaspoon": 6},
	"cocoa_powder":   {"cup": 85, "tablespoon": 5.3},
	"breadcrumbs":    {"cup": 108},
}

var nonWordPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Engine 單位轉換引擎。查表皆為唯讀，可在多個併發請求間共用。
type Engine struct{}

// NewEngine 創建單位轉換引擎
func NewEngine() *Engine {
	return &Engine{}
}

// NormalizeUnitName 正規化單位拼寫。空值預設為 piece。
func (e *Engine) NormalizeUnitName(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if u == "" {
		return "piece"
	}
	u = nonWordPattern.ReplaceAllString(u, "_")
	u = strings.Trim(u, "_")
	if u == "" {
		return "piece"
	}
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	// 別名表沒有收錄的複數型，退而求其次去掉字尾 s
	if strings.HasSuffix(u, "s") {
		singular := strings.TrimSuffix(u, "s")
		if e.knownUnit(singular) {
			return singular
		}
		if alias, ok := unitAliases[singular]; ok {
			return alias
		}
	}
	return u
}

func (e *Engine) knownUnit(unit string) bool {
	if _, ok := volumeToMilliliter[unit]; ok {
		return true
	}
	if _, ok := weightToGram[unit]; ok {
		return true
	}
	_, ok := countToPiece[unit]
	return ok
}

// GetUnitCategory 查詢單位分類，依序查體積、重量、數量表
func (e *Engine) GetUnitCategory(unit string) common.UnitCategory {
	norm := e.NormalizeUnitName(unit)
	if _, ok := volumeToMilliliter[norm]; ok {
		return common.CategoryVolume
	}
	if _, ok := weightToGram[norm]; ok {
		return common.CategoryWeight
	}
	if _, ok := countToPiece[norm]; ok {
		return common.CategoryCount
	}
	return common.CategoryUnknown
}

// ConvertToStandardUnit 將數量轉換為該分類的標準單位（ml / g / piece）。
// 體積單位若提供食材名稱且密度表命中，優先換算為重量。
func (e *Engine) ConvertToStandardUnit(quantity float64, fromUnit string, ingredientName string) ConversionResult {
	norm := e.NormalizeUnitName(fromUnit)

	if factor, ok := volumeToMilliliter[norm]; ok {
		if ingredientName != "" {
			if result, ok := e.convertByDensity(quantity, norm, ingredientName); ok {
				return result
			}
		}
		return ConversionResult{
			Quantity:   quantity * factor,
			Unit:       "ml",
			Category:   common.CategoryVolume,
			Confidence: confidenceExact,
		}
	}

	if factor, ok := weightToGram[norm]; ok {
		return ConversionResult{
			Quantity:   quantity * factor,
			Unit:       "g",
			Category:   common.CategoryWeight,
			Confidence: confidenceExact,
		}
	}

	if factor, ok := countToPiece[norm]; ok {
		return ConversionResult{
			Quantity:   quantity * factor,
			Unit:       "piece",
			Category:   common.CategoryCount,
			Confidence: confidenceExact,
		}
	}

	// 未知單位原樣通過，下游依信心值把關
	return ConversionResult{
		Quantity:   quantity,
		Unit:       norm,
		Category:   common.CategoryUnknown,
		Confidence: confidencePassthrough,
	}
}

// convertByDensity 依食材密度將體積換算為公克
func (e *Engine) convertByDensity(quantity float64, normUnit string, ingredientName string) (ConversionResult, bool) {
	density, ok := e.lookupDensity(ingredientName)
	if !ok {
		return ConversionResult{}, false
	}

	// 密度表直接命中該單位
	if gramsPerUnit, ok := density[normUnit]; ok {
		return ConversionResult{
			Quantity:   quantity * gramsPerUnit,
			Unit:       "g",
			Category:   common.CategoryWeight,
			Confidence: confidenceDensity,
		}, true
	}

	// 單位沒有密度條目，但有杯的密度，經由杯容積比例換算
	gramsPerCup, hasCup := density["cup"]
	factor, hasFactor := volumeToMilliliter[normUnit]
	if hasCup && hasFactor {
		milliliters := quantity * factor
		cups := milliliters / volumeToMilliliter["cup"]
		return ConversionResult{
			Quantity:   cups * gramsPerCup,
			Unit:       "g",
			Category:   common.CategoryWeight,
			Confidence: confidenceDensityCup,
		}, true
	}

	return ConversionResult{}, false
}

// lookupDensity 查詢食材密度，先精確比對，再找最長的子字串命中
func (e *Engine) lookupDensity(ingredientName string) (map[string]float64, bool) {
	key := normalizeIngredientKey(ingredientName)
	if key == "" {
		return nil, false
	}
	if density, ok := ingredientDensities[key]; ok {
		return density, true
	}

	bestKey := ""
	for tableKey := range ingredientDensities {
		if strings.Contains(key, tableKey) && len(tableKey) > len(bestKey) {
			bestKey = tableKey
		}
	}
	if bestKey == "" {
		return nil, false
	}
	return ingredientDensities[bestKey], true
}

func normalizeIngredientKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = nonWordPattern.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// 顯示單位的固定切換門檻
const (
	literThreshold = 1000    // ml
	cupThreshold   = 236.588 // ml
	kiloThreshold  = 1000    // g
	poundThreshold = 453.592 // g
)

// GetBestDisplayUnit 將標準化數量換成最自然的顯示單位
func (e *Engine) GetBestDisplayUnit(quantity float64, standardUnit string, category common.UnitCategory) (float64, string) {
	switch category {
	case common.CategoryVolume:
		if quantity >= literThreshold {
			return quantity / literThreshold, "liter"
		}
		if quantity >= cupThreshold {
			return quantity / cupThreshold, "cup"
		}
		return quantity, "ml"
	case common.CategoryWeight:
		if quantity >= kiloThreshold {
			return quantity / kiloThreshold, "kg"
		}
		if quantity >= poundThreshold {
			return quantity / poundThreshold, "lb"
		}
		return quantity, "g"
	case common.CategoryCount:
		return quantity, "piece"
	default:
		return quantity, standardUnit
	}
}

// CanConsolidateUnits 兩單位屬於同一個非未知分類時可彙整
func (e *Engine) CanConsolidateUnits(unit1, unit2 string) bool {
	cat1 := e.GetUnitCategory(unit1)
	cat2 := e.GetUnitCategory(unit2)
	return cat1 == cat2 && cat1 != common.CategoryUnknown
}

// RoundToPracticalAmount 將數量調整為實際可購買的增量。
// 規則固定、不可配置，且為冪等運算（對自身輸出再套用結果不變）。
func (e *Engine) RoundToPracticalAmount(quantity float64, unit string) float64 {
	if quantity <= 0 {
		return 0
	}
	norm := e.NormalizeUnitName(unit)

	switch norm {
	case "cup":
		if quantity < 1 {
			return roundToIncrement(quantity, 0.25)
		}
		return roundToIncrement(quantity, 0.5)
	case "tablespoon", "teaspoon":
		return roundToIncrement(quantity, 0.5)
	case "g":
		if quantity < 100 {
			return roundToIncrement(quantity, 5)
		}
		return roundToIncrement(quantity, 10)
	case "ml":
		if quantity < 100 {
			return roundToIncrement(quantity, 5)
		}
		return roundToIncrement(quantity, 25)
	case "kg", "liter", "lb":
		return roundToIncrement(quantity, 0.25)
	}

	if e.GetUnitCategory(norm) == common.CategoryCount {
		return math.Ceil(quantity)
	}

	// 無特定規則的單位取兩位小數
	return math.Round(quantity*100) / 100
}

// roundToIncrement 取最接近的增量倍數，至少保留一個增量
func roundToIncrement(quantity, increment float64) float64 {
	rounded := math.Round(quantity/increment) * increment
	if rounded <= 0 {
		return increment
	}
	return rounded
}
