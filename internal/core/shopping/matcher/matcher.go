package matcher

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"shopping-optimizer/internal/core/shopping/units"
	"shopping-optimizer/internal/pkg/common"
)

// 相似度判定門檻與各層級的信心係數。
// 同義詞表優先（便宜、高精度），一般模糊比對作為後備。
const (
	exactScore    = 1.0
	synonymScore  = 0.95
	substrFloor   = 0.8
	fuzzyWeight   = 0.7
	jaccardWeight = 0.3

	acceptThreshold = 0.7
	highTier        = 0.9
	midTier         = 0.8
	midTierModifier = 0.9
	lowTierModifier = 0.8
)

// 名稱正規化時剔除的修飾詞
var stopWords = map[string]bool{
	"fresh":    true,
	"dried":    true,
	"ground":   true,
	"organic":  true,
	"raw":      true,
	"cooked":   true,
	"frozen":   true,
	"canned":   true,
	"chopped":  true,
	"minced":   true,
	"sliced":   true,
	"diced":    true,
	"grated":   true,
	"shredded": true,
	"whole":    true,
	"large":    true,
	"small":    true,
	"medium":   true,
	"extra":    false, // extra virgin 的 extra 保留，交給同義詞表處理
	"finely":   true,
	"coarsely": true,
	"of":       true,
	"the":      true,
	"a":        true,
	"an":       true,
	"to":       true,
	"taste":    true,
}

// 人工整理的同義詞群組，群組內任兩個名稱視為同一個可購買品項
var synonymGroups = [][]string{
	{"olive_oil", "extra_virgin_olive_oil", "evoo", "virgin_olive_oil"},
	{"vegetable_oil", "cooking_oil", "canola_oil"},
	{"green_onion", "scallion", "spring_onion"},
	{"cilantro", "coriander", "coriander_leaves"},
	{"chickpeas", "garbanzo_beans"},
	{"sugar", "granulated_sugar", "white_sugar"},
	{"flour", "all_purpose_flour", "plain_flour"},
	{"salt", "table_salt", "sea_salt", "kosher_salt"},
	{"black_pepper", "pepper", "cracked_pepper"},
	{"butter", "unsalted_butter", "salted_butter"},
	{"milk", "whole_milk"},
	{"soy_sauce", "soya_sauce"},
	{"corn_starch", "cornstarch", "corn_flour"},
	{"bell_pepper", "capsicum", "sweet_pepper"},
	{"eggplant", "aubergine"},
	{"zucchini", "courgette"},
	{"shrimp", "prawns"},
	{"garlic", "garlic_clove"},
	{"tomato", "roma_tomato", "plum_tomato"},
	{"parmesan", "parmesan_cheese", "parmigiano_reggiano"},
	{"stock", "broth"},
	{"chicken_stock", "chicken_broth"},
	{"beef_stock", "beef_broth"},
	{"vegetable_stock", "vegetable_broth"},
}

var (
	parentheticalPattern  = regexp.MustCompile(`\([^)]*\)`)
	quantityPhrasePattern = regexp.MustCompile(`\b\d+(\.\d+)?\s*(cups?|tablespoons?|tbsp|teaspoons?|tsp|grams?|g|kgs?|kilograms?|ounces?|oz|pounds?|lbs?|lb|milliliters?|ml|liters?|l|pieces?|cloves?)\b`)
	punctuationPattern    = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
)

// Matcher 食材名稱比對器。同義詞索引建構後唯讀，可跨請求共用。
type Matcher struct {
	unitEngine *units.Engine
	synonyms   map[string]int // 正規化名稱 → 同義詞群組編號
}

// NewMatcher 創建食材比對器
func NewMatcher(unitEngine *units.Engine) *Matcher {
	synonyms := make(map[string]int)
	for groupID, group := range synonymGroups {
		for _, name := range group {
			synonyms[name] = groupID
		}
	}
	return &Matcher{
		unitEngine: unitEngine,
		synonyms:   synonyms,
	}
}

// NormalizeIngredientName 正規化食材名稱：小寫、去括號附註、去數量片語、
// 去標點與修飾詞，剩餘 token 以底線連接。
func (m *Matcher) NormalizeIngredientName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = parentheticalPattern.ReplaceAllString(n, " ")
	n = quantityPhrasePattern.ReplaceAllString(n, " ")
	n = punctuationPattern.ReplaceAllString(n, " ")
	n = whitespacePattern.ReplaceAllString(n, " ")
	n = strings.TrimSpace(n)

	tokens := strings.Fields(n)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if stopWords[token] {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, "_")
}

// CalculateSimilarity 計算兩個食材名稱的相似度，結果落在 [0,1] 且對稱
func (m *Matcher) CalculateSimilarity(name1, name2 string) float64 {
	norm1 := m.NormalizeIngredientName(name1)
	norm2 := m.NormalizeIngredientName(name2)

	if norm1 == "" || norm2 == "" {
		return 0
	}
	if norm1 == norm2 {
		return exactScore
	}

	// 同義詞表優先
	if g1, ok1 := m.synonyms[norm1]; ok1 {
		if g2, ok2 := m.synonyms[norm2]; ok2 && g1 == g2 {
			return synonymScore
		}
	}

	score := fuzzyWeight*fuzzyRatio(norm1, norm2) + jaccardWeight*tokenJaccard(norm1, norm2)

	// 一方是另一方的子字串時，給予保底分數
	if strings.Contains(norm1, norm2) || strings.Contains(norm2, norm1) {
		if score < substrFloor {
			score = substrFloor
		}
	}
	return score
}

// fuzzyRatio 字元層級的模糊相似度：1 - 編輯距離 / 較長字串長度
func fuzzyRatio(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// tokenJaccard 整個 token 的 Jaccard 重疊率
func tokenJaccard(a, b string) float64 {
	tokensA := strings.Split(a, "_")
	tokensB := strings.Split(b, "_")

	setA := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		setA[t] = true
	}
	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// CanConsolidate 判斷兩筆食材是否可以彙整為同一個購物項目。
// 名稱相似度需達門檻，且原始單位分類必須相容；回傳的信心值依相似度層級折減。
func (m *Matcher) CanConsolidate(ing1, ing2 common.RecipeIngredient) (bool, float64) {
	similarity := m.CalculateSimilarity(ing1.IngredientName, ing2.IngredientName)
	if similarity < acceptThreshold {
		return false, 0
	}
	if !m.unitEngine.CanConsolidateUnits(ing1.Unit, ing2.Unit) {
		return false, 0
	}

	switch {
	case similarity >= highTier:
		return true, similarity
	case similarity >= midTier:
		return true, similarity * midTierModifier
	default:
		return true, similarity * lowTierModifier
	}
}
