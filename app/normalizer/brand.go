package normalizer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var knownBrands = map[string]string{
	"asus":       "ASUS",
	"msi":        "MSI",
	"gigabyte":   "Gigabyte",
	"aorus":      "Gigabyte",
	"zotac":      "ZOTAC",
	"evga":       "EVGA",
	"pny":        "PNY",
	"sapphire":   "Sapphire",
	"xfx":        "XFX",
	"powercolor": "PowerColor",
	"asrock":     "ASRock",
	"nvidia":     "NVIDIA",
	"amd":        "AMD",
	"intel":      "Intel",
	"palit":      "Palit",
	"gainward":   "Gainward",
	"inno3d":     "INNO3D",
	"galax":      "GALAX",
	"colorful":   "Colorful",
	"acer":       "Acer",
	"sparkle":    "Sparkle",
	"yeston":     "Yeston",
	"manli":      "Manli",
	"biostar":    "Biostar",
}

// NormalizeBrand returns the vendor's own casing for known board partners and
// title case otherwise.
func NormalizeBrand(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return ""
	}
	if canonical, ok := knownBrands[strings.ToLower(s)]; ok {
		return canonical
	}
	// A Caser is stateful, so each call gets its own.
	return cases.Title(language.English).String(strings.ToLower(s))
}
