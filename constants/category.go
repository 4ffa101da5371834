package constants

import (
	"strings"
)

type Category string

const (
	Elektronika  Category = "Elektronika"
	Namjestaj    Category = "Namještaj"
	AutoDijelovi Category = "Auto Dijelovi"
	Sport        Category = "Sport"
	Ostalo       Category = "Ostalo"
)

var allCategories = []Category{
	Elektronika,
	Namjestaj,
	AutoDijelovi,
	Sport,
	Ostalo,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Ostalo, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"tv":          Elektronika,
		"televizor":   Elektronika,
		"mobitel":     Elektronika,
		"laptop":      Elektronika,
		"electronics": Elektronika,
		"namjestaj":   Namjestaj,
		"furniture":   Namjestaj,
		"kauč":        Namjestaj,
		"auto":        AutoDijelovi,
		"auto dijelovi": AutoDijelovi,
		"gume":        AutoDijelovi,
		"bicikl":      Sport,
		"fitness":     Sport,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Ostalo, false
}
