package service

import (
	"math"
	"strconv"
	"strings"

	"goldmarket/internal/domain/entity"
)

// GramsPerDon is the fixed mass of one don (돈).
const GramsPerDon = 3.75

const (
	UnitGram = "g"
	UnitDon  = "don"
)

const (
	GoldType14K       = "14k(585)"
	GoldType18K       = "18k(750)"
	GoldTypePure995   = "순금제품 995"
	GoldTypePure999   = "순금제품 999"
	GoldTypePureOther = "순금기타(문의)"

	// legacy spelling still present in older request documents
	goldTypePure999Legacy = "순금제999"
)

const (
	ExchangeTypeGoldBar  = "999.9골드바"
	ExchangeTypeGoldLump = "999.9 순금덩어리"
)

var conversionFactors = map[string]float64{
	GoldType14K:     0.54,
	GoldType18K:     0.72,
	GoldTypePure995: 0.97,
	GoldTypePure999: 0.98,
}

var exchangeFactors = map[string]float64{
	ExchangeTypeGoldBar:  0.95,
	ExchangeTypeGoldLump: 0.98,
}

// NormalizeGoldType maps legacy spellings onto the canonical gold type.
func NormalizeGoldType(goldType string) string {
	goldType = strings.TrimSpace(goldType)
	if goldType == goldTypePure999Legacy {
		return GoldTypePure999
	}
	return goldType
}

// ConversionFactor is the purity fraction for a gold type, 0 when unknown or
// when the rate has to be quoted by hand.
func ConversionFactor(goldType string) float64 {
	return conversionFactors[NormalizeGoldType(goldType)]
}

// ExchangeFactor is the yield fraction for the output form, 1 for any form
// without a published factor.
func ExchangeFactor(exchangeType string) float64 {
	if f, ok := exchangeFactors[exchangeType]; ok {
		return f
	}
	return 1
}

// ParseQuantity parses a positive finite quantity. ok is false for anything
// else, including empty and negative input.
func ParseQuantity(raw string) (float64, bool) {
	q, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return 0, false
	}
	return q, true
}

// ToGrams normalizes a quantity to grams. Any unit other than "g" is don.
func ToGrams(quantity float64, inputUnit string) float64 {
	if inputUnit == UnitGram {
		return quantity
	}
	return quantity * GramsPerDon
}

// ComputeFinalWeight returns the pure-gold weight in grams that a product
// yields in its requested exchange form. It never fails: malformed
// quantities and unpriced gold types yield 0.
func ComputeFinalWeight(p entity.ExchangeProduct) float64 {
	quantity, ok := ParseQuantity(p.Quantity)
	if !ok {
		return 0
	}
	grams := ToGrams(quantity, p.InputUnit)
	return grams * ConversionFactor(p.GoldType) * ExchangeFactor(p.ExchangeType)
}

type ExchangeQuote struct {
	Products          []entity.ExchangeProduct `json:"products"`
	TotalGrams        float64                  `json:"total_grams"`
	TotalDon          float64                  `json:"total_don"`
	TotalGramsDisplay string                   `json:"total_grams_display"`
	TotalDonDisplay   string                   `json:"total_don_display"`
}

// QuoteExchange fills FinalWeight on a copy of every product and totals them.
func QuoteExchange(products []entity.ExchangeProduct) ExchangeQuote {
	quoted := make([]entity.ExchangeProduct, len(products))
	total := 0.0
	for i, p := range products {
		p.GoldType = NormalizeGoldType(p.GoldType)
		p.FinalWeight = ComputeFinalWeight(p)
		total += p.FinalWeight
		quoted[i] = p
	}
	return ExchangeQuote{
		Products:          quoted,
		TotalGrams:        total,
		TotalDon:          GramsToDon(total),
		TotalGramsDisplay: FormatGrams(total),
		TotalDonDisplay:   FormatDon(total),
	}
}

func GramsToDon(grams float64) float64 {
	return grams / GramsPerDon
}

func DonToGrams(don float64) float64 {
	return don * GramsPerDon
}

// FormatFixed2 renders a value with two decimals, for display only.
func FormatFixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func FormatGrams(grams float64) string {
	return FormatFixed2(grams) + " g"
}

func FormatDon(grams float64) string {
	return FormatFixed2(GramsToDon(grams)) + " 돈"
}

// DisplayOriginal shows an input quantity in both units, e.g.
// "37.50 g (10.00 돈)". Unparseable input shows "0".
func DisplayOriginal(quantity, unit string) string {
	q, err := strconv.ParseFloat(strings.TrimSpace(quantity), 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) {
		return "0"
	}
	if unit == UnitGram {
		return FormatFixed2(q) + " g (" + FormatFixed2(GramsToDon(q)) + " 돈)"
	}
	return FormatFixed2(DonToGrams(q)) + " g (" + FormatFixed2(q) + " 돈)"
}

// FormatGoldType is the short label used in receipts and admin lists.
func FormatGoldType(goldType string) string {
	switch NormalizeGoldType(goldType) {
	case GoldType14K:
		return "14케이"
	case GoldType18K:
		return "18케이"
	case GoldTypePure995:
		return "순금995"
	case GoldTypePure999:
		return "순금999"
	case GoldTypePureOther:
		return "순금기타"
	default:
		return goldType
	}
}

// IsQuotable reports whether the gold type has a published conversion factor.
func IsQuotable(goldType string) bool {
	_, ok := conversionFactors[NormalizeGoldType(goldType)]
	return ok
}

// IsKnownExchangeType reports whether the output form has a published factor.
func IsKnownExchangeType(exchangeType string) bool {
	_, ok := exchangeFactors[exchangeType]
	return ok
}
