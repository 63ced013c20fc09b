package normalizer

import (
	"strings"

	"github.com/shashiranjanraj/gpucatalog/app/models"
)

// Families is the product-line vocabulary handed to the extractor. The
// extractor is asked to choose from it; values are not re-validated here.
var Families = []string{
	"ROG Strix", "ROG Astral", "TUF Gaming", "Dual", "Prime", "ProArt",
	"Gaming OC", "Eagle", "Windforce", "AORUS Master", "AORUS Elite",
	"Ventus", "Gaming X Trio", "Suprim", "Inspire",
	"Twin Edge", "AMP", "Trinity", "Solid",
	"XLR8", "Phantom", "Challenger", "Steel Legend", "Taichi",
	"Pulse", "Nitro+", "Hellhound", "Red Devil",
	"Merc", "Founders Edition", "iChill",
}

// NormalizeFamily trims the family and substitutes Base when the extractor
// reported nothing useful.
func NormalizeFamily(raw string) string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "none", "n/a", "na", "unknown", "null":
		return models.DefaultFamily
	}
	return s
}

// NormalizeFeatures stores "None" for an empty feature list.
func NormalizeFeatures(raw string) string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "none", "n/a", "null", "-":
		return "None"
	}
	return s
}
