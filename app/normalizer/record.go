package normalizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/pkg/extract"
)

// rawProduct is the loosely typed shape the extractor returns. It carries the
// canonical keys and the deprecated model_name/price_usd/stock_status keys;
// when both are present the canonical key wins.
type rawProduct struct {
	URL             string `mapstructure:"url"`
	Brand           string `mapstructure:"brand"`
	ProductTitle    string `mapstructure:"product_title"`
	ModelName       string `mapstructure:"model_name"`
	Family          string `mapstructure:"family"`
	Variant         string `mapstructure:"variant"`
	MemorySizeGB    any    `mapstructure:"memory_size_gb"`
	CoolerType      string `mapstructure:"cooler_type"`
	SpecialFeatures any    `mapstructure:"special_features"`
	Price           any    `mapstructure:"price"`
	PriceUSD        any    `mapstructure:"price_usd"`
	InStock         any    `mapstructure:"in_stock"`
	StockStatus     any    `mapstructure:"stock_status"`
	IsOC            any    `mapstructure:"is_oc"`
}

// PriceQuote is the result of a price-only extraction.
type PriceQuote struct {
	Price   decimal.Decimal
	InStock bool
}

func decodeRaw(rec extract.Record) (rawProduct, error) {
	var raw rawProduct

	fields, err := rec.Fields()
	if err != nil {
		return raw, err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return raw, err
	}
	if err := dec.Decode(fields); err != nil {
		return raw, fmt.Errorf("unexpected field types: %w", err)
	}
	return raw, nil
}

// MapRecord turns one extracted record into a storable product for
// sourceURL. Brand, title and a positive price are required.
func MapRecord(rec extract.Record, sourceURL string, fetchedAt time.Time) (models.Product, error) {
	raw, err := decodeRaw(rec)
	if err != nil {
		return models.Product{}, err
	}

	var missing []string
	brand := NormalizeBrand(raw.Brand)
	if brand == "" {
		missing = append(missing, "brand")
	}
	title := strings.TrimSpace(raw.ProductTitle)
	if title == "" {
		title = strings.TrimSpace(raw.ModelName)
	}
	if title == "" {
		missing = append(missing, "product_title")
	}
	if len(missing) > 0 {
		return models.Product{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	price, err := ParsePrice(firstPresent(raw.Price, raw.PriceUSD))
	if err != nil {
		return models.Product{}, err
	}

	return models.Product{
		URL:             sourceURL,
		Brand:           brand,
		ProductTitle:    title,
		Family:          NormalizeFamily(raw.Family),
		Variant:         strings.TrimSpace(raw.Variant),
		MemorySizeGB:    ParseMemoryGB(raw.MemorySizeGB),
		CoolerType:      NormalizeCoolerType(raw.CoolerType),
		SpecialFeatures: NormalizeFeatures(joinText(raw.SpecialFeatures)),
		Price:           price,
		InStock:         ParseStock(firstPresent(raw.InStock, raw.StockStatus)),
		IsOC:            ParseFlag(raw.IsOC),
		Retailer:        DeriveRetailer(sourceURL),
		RawData:         datatypes.JSON(rec.Raw()),
		FetchedAt:       fetchedAt,
	}, nil
}

// MapPrice reads the current price and stock from a price-only record.
func MapPrice(rec extract.Record) (PriceQuote, error) {
	raw, err := decodeRaw(rec)
	if err != nil {
		return PriceQuote{}, err
	}
	price, err := ParsePrice(firstPresent(raw.Price, raw.PriceUSD))
	if err != nil {
		return PriceQuote{}, err
	}
	return PriceQuote{
		Price:   price,
		InStock: ParseStock(firstPresent(raw.InStock, raw.StockStatus)),
	}, nil
}

// ErrNotHTTP is returned by ValidateURL for anything but an absolute
// http(s) URL.
var ErrNotHTTP = errors.New("not an absolute http(s) URL")

// ValidateURL checks that s can be submitted for extraction.
func ValidateURL(s string) error {
	if DeriveRetailer(s) == UnknownRetailer {
		return ErrNotHTTP
	}
	l := strings.ToLower(s)
	if !strings.HasPrefix(l, "http://") && !strings.HasPrefix(l, "https://") {
		return ErrNotHTTP
	}
	return nil
}

func firstPresent(values ...any) any {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}
