package validate_test

import (
	"testing"

	"github.com/shashiranjanraj/gpucatalog/pkg/validate"
)

type listInput struct {
	Brand    string `query:"brand"     validate:"max=100"`
	MinPrice string `query:"min_price" validate:"nullable,numeric"`
	Sort     string `query:"sort"      validate:"nullable,in=price,brand,created_at"`
	Order    string `query:"order"     validate:"nullable,in=asc,desc"`
	InStock  string `query:"in_stock"  validate:"nullable,boolean"`
	Page     int    `query:"page"      validate:"gte=0"`
	Limit    int    `query:"limit"     validate:"between=0,100"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(listInput{
		Brand:    "ASUS",
		MinPrice: "199.99",
		Sort:     "created_at",
		Order:    "desc",
		InStock:  "true",
		Page:     2,
		Limit:    24,
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestEmptyOptionalFieldsPass(t *testing.T) {
	if errs := validate.Struct(listInput{}); validate.HasErrors(errs) {
		t.Errorf("expected zero value to pass, got: %v", errs)
	}
}

func TestFieldNamesComeFromTags(t *testing.T) {
	errs := validate.Struct(listInput{MinPrice: "cheap", Order: "sideways"})
	if _, ok := errs["min_price"]; !ok {
		t.Errorf("expected min_price error, got: %v", errs)
	}
	if _, ok := errs["order"]; !ok {
		t.Errorf("expected order error, got: %v", errs)
	}
}

func TestInRuleWithUnderscoreValues(t *testing.T) {
	if errs := validate.Struct(listInput{Sort: "created_at"}); validate.HasErrors(errs) {
		t.Errorf("expected created_at to pass: %v", errs)
	}
	if errs := validate.Struct(listInput{Sort: "rating"}); !validate.HasErrors(errs) {
		t.Error("expected unknown sort key to fail")
	}
}

func TestBetweenRule(t *testing.T) {
	if errs := validate.Struct(listInput{Limit: 150}); !validate.HasErrors(errs) {
		t.Error("expected limit > 100 to fail")
	}
	if errs := validate.Struct(listInput{Limit: 100}); validate.HasErrors(errs) {
		t.Errorf("expected limit 100 to pass: %v", errs)
	}
}

func TestBooleanRule(t *testing.T) {
	if errs := validate.Struct(listInput{InStock: "maybe"}); !validate.HasErrors(errs) {
		t.Error("expected non-boolean to fail")
	}
	if errs := validate.Struct(listInput{InStock: "0"}); validate.HasErrors(errs) {
		t.Errorf("expected 0 to pass: %v", errs)
	}
}

type ingestInput struct {
	URLs []string `json:"urls" validate:"required,min=1,max=3,dive,required,url"`
}

func TestSliceRequired(t *testing.T) {
	errs := validate.Struct(ingestInput{})
	if _, ok := errs["urls"]; !ok {
		t.Errorf("expected urls to be required, got: %v", errs)
	}
}

func TestSliceMaxItems(t *testing.T) {
	errs := validate.Struct(ingestInput{URLs: []string{"https://a/1", "https://a/2", "https://a/3", "https://a/4"}})
	if _, ok := errs["urls"]; !ok {
		t.Errorf("expected too many urls to fail, got: %v", errs)
	}
}

func TestDiveChecksEveryElement(t *testing.T) {
	errs := validate.Struct(ingestInput{URLs: []string{"https://shop.example/gpu", "ftp://shop.example/gpu"}})
	msg, ok := errs["urls"]
	if !ok {
		t.Fatalf("expected urls error, got: %v", errs)
	}
	if msg != "The urls.1 must be a valid URL." {
		t.Errorf("unexpected message: %q", msg)
	}

	if errs := validate.Struct(ingestInput{URLs: []string{"https://shop.example/gpu"}}); validate.HasErrors(errs) {
		t.Errorf("expected valid urls to pass: %v", errs)
	}
}

func TestDiveRequiredRejectsBlank(t *testing.T) {
	errs := validate.Struct(ingestInput{URLs: []string{"https://shop.example/gpu", "  "}})
	if msg := errs["urls"]; msg != "The urls.1 field is required." {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestPointerFields(t *testing.T) {
	type in struct {
		Limit *int `json:"limit" validate:"nullable,lte=100"`
	}
	if errs := validate.Struct(in{}); validate.HasErrors(errs) {
		t.Errorf("expected nil pointer to pass: %v", errs)
	}
	big := 500
	if errs := validate.Struct(in{Limit: &big}); !validate.HasErrors(errs) {
		t.Error("expected 500 to fail")
	}
}
