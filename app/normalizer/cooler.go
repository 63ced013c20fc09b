// Package normalizer maps raw extracted values onto the canonical values
// stored in a product record. Every function here is pure and total: input
// it does not recognise yields a default, never an error, except in the
// record mappers where a missing required field makes the record unusable.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/shashiranjanraj/gpucatalog/app/models"
)

var fanCount = regexp.MustCompile(`^([23])\s*-?\s*(?:fans?)?$`)

// NormalizeCoolerType maps free text or a fan count to Dual or Triple.
// Unrecognised non-empty input is returned trimmed so new vendor wording is
// not lost. NormalizeCoolerType(NormalizeCoolerType(x)) == NormalizeCoolerType(x).
func NormalizeCoolerType(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	l := strings.ToLower(s)

	switch l {
	case "dual", "two":
		return models.CoolerDual
	case "triple", "tripple", "three":
		return models.CoolerTriple
	}

	if m := fanCount.FindStringSubmatch(l); m != nil {
		if m[1] == "2" {
			return models.CoolerDual
		}
		return models.CoolerTriple
	}

	// "triple fan, dual BIOS" is a triple-fan card.
	switch {
	case strings.Contains(l, "tripl"):
		return models.CoolerTriple
	case strings.Contains(l, "dual"):
		return models.CoolerDual
	}
	return s
}
