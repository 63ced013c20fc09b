package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	errNoPrice      = errors.New("price is missing")
	memoryWithUnit  = regexp.MustCompile(`(?i)(\d+)\s*gb`)
	priceNoise      = strings.NewReplacer("$", "", ",", "", "USD", "", "usd", "", " ", "")
	outOfStockWords = []string{"out of stock", "out-of-stock", "sold out", "unavailable", "backorder", "not available"}
	inStockWords    = map[string]bool{
		"in stock": true, "instock": true, "in_stock": true, "in-stock": true,
		"available": true, "true": true, "yes": true, "y": true, "1": true,
	}
)

// ParsePrice accepts numbers and strings such as "$1,299.99" and returns the
// amount rounded to cents. Empty, unparsable and non-positive prices fail.
func ParsePrice(v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch t := v.(type) {
	case nil:
		return decimal.Zero, errNoPrice
	case decimal.Decimal:
		d = t
	case string:
		s := priceNoise.Replace(strings.TrimSpace(t))
		if s == "" {
			return decimal.Zero, errNoPrice
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("price %q is not a number", t)
		}
		d = parsed
	default:
		f, err := cast.ToFloat64E(t)
		if err != nil {
			return decimal.Zero, fmt.Errorf("price %v is not a number", t)
		}
		d = decimal.NewFromFloat(f)
	}

	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("price %s is not positive", d.String())
	}
	return d.Round(2), nil
}

// ParseMemoryGB reads sizes such as 16, "16", "16GB" or "GDDR6X 16 GB".
// Anything else is 0.
func ParseMemoryGB(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		if m := memoryWithUnit.FindStringSubmatch(t); m != nil {
			return cast.ToInt(m[1])
		}
		n, err := cast.ToIntE(strings.TrimSpace(t))
		if err != nil || n < 0 {
			return 0
		}
		return n
	default:
		n, err := cast.ToIntE(t)
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
}

// ParseStock maps booleans and stock wording to in-stock or not. Unknown
// wording is treated as out of stock.
func ParseStock(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		l := strings.ToLower(strings.TrimSpace(t))
		for _, w := range outOfStockWords {
			if strings.Contains(l, w) {
				return false
			}
		}
		return inStockWords[l] || strings.Contains(l, "in stock")
	default:
		return cast.ToFloat64(t) != 0
	}
}

// ParseFlag reads a loosely typed boolean such as true, "yes" or "OC".
func ParseFlag(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "oc", "overclocked":
			return true
		}
		b, err := cast.ToBoolE(strings.TrimSpace(t))
		return err == nil && b
	default:
		return cast.ToBool(t)
	}
}

// joinText flattens a string or a list of strings into one line.
func joinText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(cast.ToString(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(cast.ToString(t))
	}
}
