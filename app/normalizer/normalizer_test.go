package normalizer_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/gpucatalog/app/normalizer"
	"github.com/shashiranjanraj/gpucatalog/pkg/extract"
)

func TestNormalizeCoolerType(t *testing.T) {
	cases := map[string]string{
		"DUAL":                  "Dual",
		"dual":                  "Dual",
		"2":                     "Dual",
		" 2 fans ":              "Dual",
		"2-fan":                 "Dual",
		"Dual-fan cooler":       "Dual",
		"triple":                "Triple",
		"Tripple":               "Triple",
		"3":                     "Triple",
		"3 fan":                 "Triple",
		"Triple fan, dual BIOS": "Triple",
		"Blower":                "Blower",
		"  Liquid  ":            "Liquid",
		"":                      "",
		"   ":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizer.NormalizeCoolerType(in), "input %q", in)
	}
}

func TestNormalizeCoolerType_Idempotent(t *testing.T) {
	inputs := []string{"DUAL", "dual", "2", "triple", "tripple", "3", "3 fans", "Blower", " Hybrid ", "", "passive", "Dual"}
	for _, in := range inputs {
		once := normalizer.NormalizeCoolerType(in)
		assert.Equal(t, once, normalizer.NormalizeCoolerType(once), "input %q", in)
	}
	assert.Equal(t, normalizer.NormalizeCoolerType("DUAL"), normalizer.NormalizeCoolerType("dual"))
	assert.Equal(t, normalizer.NormalizeCoolerType("dual"), normalizer.NormalizeCoolerType("2"))
}

func TestDeriveRetailer(t *testing.T) {
	assert.Equal(t, "newegg.com", normalizer.DeriveRetailer("https://www.newegg.com/p/123"))
	assert.Equal(t, "bestbuy.com", normalizer.DeriveRetailer("https://WWW.BestBuy.com/site/x?id=1"))
	assert.Equal(t, "shop.example.co.uk", normalizer.DeriveRetailer("http://shop.example.co.uk:8080/gpu"))
	assert.Equal(t, "unknown", normalizer.DeriveRetailer("://bad url"))
	assert.Equal(t, "unknown", normalizer.DeriveRetailer("newegg.com/p/123"))
	assert.Equal(t, "unknown", normalizer.DeriveRetailer(""))
}

func TestNormalizeFamily(t *testing.T) {
	assert.Equal(t, "Base", normalizer.NormalizeFamily(""))
	assert.Equal(t, "Base", normalizer.NormalizeFamily("N/A"))
	assert.Equal(t, "Base", normalizer.NormalizeFamily("unknown"))
	assert.Equal(t, "TUF Gaming", normalizer.NormalizeFamily(" TUF Gaming "))
	assert.Contains(t, normalizer.Families, "ROG Strix")
}

func TestNormalizeBrand(t *testing.T) {
	assert.Equal(t, "ASUS", normalizer.NormalizeBrand("asus"))
	assert.Equal(t, "ZOTAC", normalizer.NormalizeBrand(" Zotac "))
	assert.Equal(t, "Gigabyte", normalizer.NormalizeBrand("AORUS"))
	assert.Equal(t, "Some Vendor", normalizer.NormalizeBrand("SOME   vendor"))
	assert.Equal(t, "", normalizer.NormalizeBrand("  "))
}

func TestParsePrice(t *testing.T) {
	good := map[any]string{
		"$1,299.99":  "1299.99",
		"499":        "499",
		" 749.5 USD": "749.5",
		899.999:      "900",
		float64(329): "329",
	}
	for in, want := range good {
		got, err := normalizer.ParsePrice(in)
		require.NoError(t, err, "input %v", in)
		assert.True(t, decimal.RequireFromString(want).Equal(got), "input %v: got %s", in, got)
	}

	for _, in := range []any{nil, "", "call for price", -5.0, "0", map[string]any{}} {
		_, err := normalizer.ParsePrice(in)
		assert.Error(t, err, "input %v", in)
	}
}

func TestParseMemoryGB(t *testing.T) {
	assert.Equal(t, 16, normalizer.ParseMemoryGB(float64(16)))
	assert.Equal(t, 16, normalizer.ParseMemoryGB("16GB"))
	assert.Equal(t, 24, normalizer.ParseMemoryGB("GDDR6X 24 GB"))
	assert.Equal(t, 8, normalizer.ParseMemoryGB("8"))
	assert.Equal(t, 0, normalizer.ParseMemoryGB("lots"))
	assert.Equal(t, 0, normalizer.ParseMemoryGB(nil))
}

func TestParseStock(t *testing.T) {
	for _, v := range []any{true, "In Stock", "available", "yes", "Only 2 left in stock", float64(1)} {
		assert.True(t, normalizer.ParseStock(v), "input %v", v)
	}
	for _, v := range []any{false, "Out of Stock", "sold out", "", nil, "unknown", float64(0)} {
		assert.False(t, normalizer.ParseStock(v), "input %v", v)
	}
}

func TestMapRecord_CanonicalSchema(t *testing.T) {
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := extract.RecordOf(map[string]any{
		"brand":            "msi",
		"product_title":    "GeForce RTX 4070 Ventus 2X",
		"family":           "Ventus",
		"memory_size_gb":   "12GB",
		"cooler_type":      "2 fans",
		"special_features": []any{"DLSS 3", "", "Ray tracing"},
		"price":            "$549.99",
		"in_stock":         true,
		"is_oc":            "yes",
	})

	p, err := normalizer.MapRecord(rec, "https://www.newegg.com/p/abc", fetched)
	require.NoError(t, err)

	assert.Equal(t, "https://www.newegg.com/p/abc", p.URL)
	assert.Equal(t, "MSI", p.Brand)
	assert.Equal(t, "GeForce RTX 4070 Ventus 2X", p.ProductTitle)
	assert.Equal(t, "Ventus", p.Family)
	assert.Equal(t, 12, p.MemorySizeGB)
	assert.Equal(t, "Dual", p.CoolerType)
	assert.Equal(t, "DLSS 3, Ray tracing", p.SpecialFeatures)
	assert.True(t, decimal.RequireFromString("549.99").Equal(p.Price))
	assert.True(t, p.InStock)
	assert.True(t, p.IsOC)
	assert.Equal(t, "newegg.com", p.Retailer)
	assert.Equal(t, fetched, p.FetchedAt)
	assert.JSONEq(t, string(rec.Raw()), string(p.RawData))
}

func TestMapRecord_DeprecatedKeysAndDefaults(t *testing.T) {
	rec := extract.RecordOf(map[string]any{
		"brand":        "Sapphire",
		"model_name":   "Pulse RX 7800 XT",
		"price_usd":    499,
		"stock_status": "Out of stock",
	})

	p, err := normalizer.MapRecord(rec, "https://amazon.com/dp/1", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Pulse RX 7800 XT", p.ProductTitle)
	assert.True(t, decimal.NewFromInt(499).Equal(p.Price))
	assert.False(t, p.InStock)
	assert.Equal(t, "Base", p.Family)
	assert.Equal(t, "None", p.SpecialFeatures)
	assert.Equal(t, "", p.CoolerType)
}

func TestMapRecord_CanonicalKeyWins(t *testing.T) {
	rec := extract.RecordOf(map[string]any{
		"brand":         "ASUS",
		"product_title": "TUF RTX 4080",
		"model_name":    "old name",
		"price":         1099,
		"price_usd":     1,
	})

	p, err := normalizer.MapRecord(rec, "https://bhphotovideo.com/x", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "TUF RTX 4080", p.ProductTitle)
	assert.True(t, decimal.NewFromInt(1099).Equal(p.Price))
}

func TestMapRecord_Rejects(t *testing.T) {
	cases := map[string]extract.Record{
		"not an object": extract.NewRecord([]byte(`"junk"`)),
		"no brand":      extract.RecordOf(map[string]any{"product_title": "x", "price": 1}),
		"no title":      extract.RecordOf(map[string]any{"brand": "ASUS", "price": 1}),
		"no price":      extract.RecordOf(map[string]any{"brand": "ASUS", "product_title": "x"}),
		"bad types":     extract.RecordOf(map[string]any{"brand": map[string]any{"a": 1}, "product_title": "x", "price": 1}),
	}
	for name, rec := range cases {
		_, err := normalizer.MapRecord(rec, "https://example.com/x", time.Now())
		assert.Error(t, err, name)
	}
}

func TestMapPrice(t *testing.T) {
	q, err := normalizer.MapPrice(extract.RecordOf(map[string]any{"price": "1,049.00", "in_stock": "In stock"}))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1049).Equal(q.Price))
	assert.True(t, q.InStock)

	_, err = normalizer.MapPrice(extract.RecordOf(map[string]any{"in_stock": true}))
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, normalizer.ValidateURL("https://www.newegg.com/p/1"))
	assert.NoError(t, normalizer.ValidateURL("http://shop.example/x"))
	assert.Error(t, normalizer.ValidateURL("ftp://files.example/x"))
	assert.Error(t, normalizer.ValidateURL("newegg.com/p/1"))
	assert.Error(t, normalizer.ValidateURL("not a url"))
}
