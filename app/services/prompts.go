package services

import (
	"strings"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/normalizer"
	"github.com/shashiranjanraj/gpucatalog/pkg/extract"
)

var scrapeOptions = map[string]any{
	"formats":         []string{"markdown"},
	"onlyMainContent": true,
	"waitFor":         2000,
}

// ProductSpec asks for the full product listing. Each item echoes the page
// URL so results can be matched back to what was submitted.
func ProductSpec() extract.PromptSpec {
	families := append([]string{}, normalizer.Families...)

	prompt := strings.Join([]string{
		"Extract the graphics card sold on each page.",
		"For every page return one item in `products` and copy the page URL into `url`.",
		"brand: the board partner (ASUS, MSI, Gigabyte, ZOTAC...).",
		"product_title: the full listing title.",
		"family: choose exactly one of [" + strings.Join(families, ", ") + "]; use \"" + models.DefaultFamily + "\" when none matches.",
		"variant: the GPU model, e.g. RTX 4070 Ti SUPER.",
		"memory_size_gb: VRAM in GB as an integer.",
		"cooler_type: \"Dual\" or \"Triple\" by fan count.",
		"special_features: notable extras, or \"None\".",
		"price: current price in USD as a number, in_stock: whether it can be bought now, is_oc: factory overclocked.",
	}, "\n")

	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":              map[string]any{"type": "string"},
			"brand":            map[string]any{"type": "string"},
			"product_title":    map[string]any{"type": "string"},
			"family":           map[string]any{"type": "string", "enum": append(families, models.DefaultFamily)},
			"variant":          map[string]any{"type": "string"},
			"memory_size_gb":   map[string]any{"type": "integer"},
			"cooler_type":      map[string]any{"type": "string", "enum": []string{models.CoolerDual, models.CoolerTriple}},
			"special_features": map[string]any{"type": "string"},
			"price":            map[string]any{"type": "number"},
			"in_stock":         map[string]any{"type": "boolean"},
			"is_oc":            map[string]any{"type": "boolean"},
		},
		"required": []string{"url", "brand", "product_title", "price"},
	}

	return extract.PromptSpec{
		Prompt: prompt,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"products": map[string]any{"type": "array", "items": item},
			},
			"required": []string{"products"},
		},
		ScrapeOptions: scrapeOptions,
	}
}

// PriceSpec asks only for the current price and availability of one page.
func PriceSpec() extract.PromptSpec {
	return extract.PromptSpec{
		Prompt: "Extract the current price in USD as a number and whether the graphics card is in stock.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":      map[string]any{"type": "string"},
				"price":    map[string]any{"type": "number"},
				"in_stock": map[string]any{"type": "boolean"},
			},
			"required": []string{"price", "in_stock"},
		},
		ScrapeOptions: scrapeOptions,
	}
}
