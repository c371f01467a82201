package units

import (
	"math"
	"testing"

	"shopping-optimizer/internal/pkg/common"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func TestNormalizeUnitName(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		in   string
		want string
	}{
		{"cups", "cup"},
		{"Cup", "cup"},
		{"TBSP", "tablespoon"},
		{"tsp", "teaspoon"},
		{"fl. oz", "fluid_ounce"},
		{"Fluid Ounces", "fluid_ounce"},
		{"grams", "g"},
		{"lbs", "lb"},
		{"pieces", "piece"},
		{"", "piece"},
		{"   ", "piece"},
		{"Litres", "liter"},
		{"cloves", "clove"},
		{"mystery-unit", "mystery_unit"},
	}
	for _, c := range cases {
		if got := e.NormalizeUnitName(c.in); got != c.want {
			t.Errorf("NormalizeUnitName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGetUnitCategory(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		unit string
		want common.UnitCategory
	}{
		{"cup", common.CategoryVolume},
		{"ml", common.CategoryVolume},
		{"gallon", common.CategoryVolume},
		{"kg", common.CategoryWeight},
		{"ounces", common.CategoryWeight},
		{"piece", common.CategoryCount},
		{"dozen", common.CategoryCount},
		{"widget", common.CategoryUnknown},
	}
	for _, c := range cases {
		if got := e.GetUnitCategory(c.unit); got != c.want {
			t.Errorf("GetUnitCategory(%q) = %v, want %v", c.unit, got, c.want)
		}
	}
}

func TestConvertToStandardUnitExactConstants(t *testing.T) {
	e := NewEngine()

	cup := e.ConvertToStandardUnit(1.0, "cup", "")
	if cup.Quantity != 236.588 || cup.Unit != "ml" || cup.Category != common.CategoryVolume || cup.Confidence != 1.0 {
		t.Errorf("1 cup = %+v, want 236.588 ml volume conf 1.0", cup)
	}

	lb := e.ConvertToStandardUnit(1.0, "lb", "")
	if lb.Quantity != 453.592 || lb.Unit != "g" || lb.Category != common.CategoryWeight || lb.Confidence != 1.0 {
		t.Errorf("1 lb = %+v, want 453.592 g weight conf 1.0", lb)
	}

	oz := e.ConvertToStandardUnit(1.0, "oz", "")
	if oz.Quantity != 28.3495 || oz.Unit != "g" || oz.Category != common.CategoryWeight || oz.Confidence != 1.0 {
		t.Errorf("1 oz = %+v, want 28.3495 g weight conf 1.0", oz)
	}
}

func TestConvertToStandardUnitDensity(t *testing.T) {
	e := NewEngine()

	flour := e.ConvertToStandardUnit(1.0, "cup", "flour")
	if !almostEqual(flour.Quantity, 120.0) || flour.Unit != "g" || flour.Confidence != 0.9 {
		t.Errorf("1 cup flour = %+v, want 120 g conf 0.9", flour)
	}

	// 密度表沒有 fluid_ounce 條目，經由杯比例換算，信心值降為 0.8
	rice := e.ConvertToStandardUnit(8.0, "fl oz", "rice")
	wantGrams := 8.0 * 29.5735 / 236.588 * 185
	if !almostEqual(rice.Quantity, wantGrams) || rice.Unit != "g" || rice.Confidence != 0.8 {
		t.Errorf("8 fl oz rice = %+v, want %.4f g conf 0.8", rice, wantGrams)
	}

	// 子字串命中：all-purpose flour 應套用 flour 的密度
	ap := e.ConvertToStandardUnit(2.0, "cup", "all-purpose flour")
	if !almostEqual(ap.Quantity, 240.0) || ap.Confidence != 0.9 {
		t.Errorf("2 cup all-purpose flour = %+v, want 240 g conf 0.9", ap)
	}

	// 沒有密度條目的食材走一般體積換算
	broth := e.ConvertToStandardUnit(1.0, "cup", "chicken broth")
	if broth.Unit != "ml" || broth.Confidence != 1.0 {
		t.Errorf("1 cup chicken broth = %+v, want ml conf 1.0", broth)
	}
}

func TestConvertToStandardUnitUnknownPassthrough(t *testing.T) {
	e := NewEngine()
	result := e.ConvertToStandardUnit(3.0, "glug", "")
	if result.Quantity != 3.0 || result.Category != common.CategoryUnknown {
		t.Errorf("unknown unit should pass through, got %+v", result)
	}
	if result.Confidence > 0.5 {
		t.Errorf("unknown unit confidence = %f, want <= 0.5", result.Confidence)
	}
}

func TestConversionRoundTrip(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		quantity float64
		unit     string
	}{
		{2, "cups"},
		{350, "ml"},
		{2.2, "l"},
		{1.5, "lb"},
		{750, "g"},
		{3, "kg"},
		{4, "tbsp"},
		{12, "oz"},
	}
	for _, c := range cases {
		std := e.ConvertToStandardUnit(c.quantity, c.unit, "")
		displayQty, displayUnit := e.GetBestDisplayUnit(std.Quantity, std.Unit, std.Category)
		back := e.ConvertToStandardUnit(displayQty, displayUnit, "")
		if !almostEqual(back.Quantity, std.Quantity) {
			t.Errorf("round trip %g %s: standard %.6f, back %.6f", c.quantity, c.unit, std.Quantity, back.Quantity)
		}
		if back.Category != std.Category {
			t.Errorf("round trip %g %s changed category: %v -> %v", c.quantity, c.unit, std.Category, back.Category)
		}
	}
}

func TestGetBestDisplayUnit(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		quantity float64
		unit     string
		category common.UnitCategory
		wantQty  float64
		wantUnit string
	}{
		{1500, "ml", common.CategoryVolume, 1.5, "liter"},
		{473.176, "ml", common.CategoryVolume, 2, "cup"},
		{100, "ml", common.CategoryVolume, 100, "ml"},
		{2000, "g", common.CategoryWeight, 2, "kg"},
		{453.592, "g", common.CategoryWeight, 1, "lb"},
		{80, "g", common.CategoryWeight, 80, "g"},
		{6, "piece", common.CategoryCount, 6, "piece"},
	}
	for _, c := range cases {
		qty, unit := e.GetBestDisplayUnit(c.quantity, c.unit, c.category)
		if !almostEqual(qty, c.wantQty) || unit != c.wantUnit {
			t.Errorf("GetBestDisplayUnit(%g, %s, %s) = (%g, %s), want (%g, %s)",
				c.quantity, c.unit, c.category, qty, unit, c.wantQty, c.wantUnit)
		}
	}
}

func TestCanConsolidateUnits(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		unit1, unit2 string
		want         bool
	}{
		{"cup", "ml", true},
		{"tablespoon", "liter", true},
		{"g", "lb", true},
		{"piece", "dozen", true},
		{"cup", "g", false},
		{"widget", "widget", false},
	}
	for _, c := range cases {
		if got := e.CanConsolidateUnits(c.unit1, c.unit2); got != c.want {
			t.Errorf("CanConsolidateUnits(%q, %q) = %v, want %v", c.unit1, c.unit2, got, c.want)
		}
	}
}

func TestRoundToPracticalAmount(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		quantity float64
		unit     string
		want     float64
	}{
		{0.3, "cup", 0.25},
		{0.7, "cup", 0.75},
		{1.3, "cup", 1.5},
		{2.1, "cup", 2},
		{47, "g", 45},
		{98, "g", 100},
		{123, "g", 120},
		{62, "ml", 60},
		{130, "ml", 125},
		{2.4, "piece", 3},
		{1.1, "kg", 1},
		{0.1, "cup", 0.25}, // 至少保留一個增量
	}
	for _, c := range cases {
		if got := e.RoundToPracticalAmount(c.quantity, c.unit); !almostEqual(got, c.want) {
			t.Errorf("RoundToPracticalAmount(%g, %q) = %g, want %g", c.quantity, c.unit, got, c.want)
		}
	}
}

func TestRoundToPracticalAmountIdempotent(t *testing.T) {
	e := NewEngine()
	quantities := []float64{0.1, 0.3, 0.9, 1.3, 7.77, 47, 98, 123, 62, 130, 999, 2.4}
	unitsUnderTest := []string{"cup", "tablespoon", "g", "ml", "kg", "piece", "widget"}
	for _, unit := range unitsUnderTest {
		for _, q := range quantities {
			once := e.RoundToPracticalAmount(q, unit)
			twice := e.RoundToPracticalAmount(once, unit)
			if !almostEqual(once, twice) {
				t.Errorf("rounding not idempotent for (%g, %q): %g -> %g", q, unit, once, twice)
			}
		}
	}
}
