// Package graphql exposes the product catalog as a read-only GraphQL schema.
//
//	{ products(brand: "ASUS", inStock: true, sort: "price", limit: 5) {
//	    total items { id productTitle price retailer } } }
package graphql

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/repositories"
	"github.com/shashiranjanraj/gpucatalog/app/services"
	gql "github.com/shashiranjanraj/gpucatalog/pkg/graphql"
)

// Catalog is the read side the schema resolves against.
type Catalog interface {
	List(ctx context.Context, f repositories.ProductFilter) (services.ProductPage, error)
	Find(ctx context.Context, id uint) (models.Product, error)
	FilterOptions(ctx context.Context) (repositories.FilterOptions, error)
}

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"url":             &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"brand":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"productTitle":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"family":          &graphql.Field{Type: graphql.String},
		"variant":         &graphql.Field{Type: graphql.String},
		"memorySizeGb":    &graphql.Field{Type: graphql.Int},
		"coolerType":      &graphql.Field{Type: graphql.String},
		"specialFeatures": &graphql.Field{Type: graphql.String},
		"price":           &graphql.Field{Type: graphql.NewNonNull(graphql.String), Description: "Exact decimal, e.g. \"1299.99\"."},
		"inStock":         &graphql.Field{Type: graphql.Boolean},
		"isOc":            &graphql.Field{Type: graphql.Boolean},
		"retailer":        &graphql.Field{Type: graphql.String},
		"fetchedAt":       &graphql.Field{Type: graphql.DateTime},
		"updatedAt":       &graphql.Field{Type: graphql.DateTime},
	},
})

var productPageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ProductPage",
	Fields: graphql.Fields{
		"items":       &graphql.Field{Type: graphql.NewList(productType)},
		"total":       &graphql.Field{Type: graphql.Int},
		"perPage":     &graphql.Field{Type: graphql.Int},
		"currentPage": &graphql.Field{Type: graphql.Int},
		"lastPage":    &graphql.Field{Type: graphql.Int},
	},
})

var filterOptionsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FilterOptions",
	Fields: graphql.Fields{
		"brands":      &graphql.Field{Type: graphql.NewList(graphql.String)},
		"families":    &graphql.Field{Type: graphql.NewList(graphql.String)},
		"coolerTypes": &graphql.Field{Type: graphql.NewList(graphql.String)},
		"retailers":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		"memorySizes": &graphql.Field{Type: graphql.NewList(graphql.Int)},
		"minPrice":    &graphql.Field{Type: graphql.String},
		"maxPrice":    &graphql.Field{Type: graphql.String},
	},
})

// NewSchema builds the catalog schema.
func NewSchema(catalog Catalog) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: productPageType,
				Args: graphql.FieldConfigArgument{
					"brand":    &graphql.ArgumentConfig{Type: graphql.String},
					"family":   &graphql.ArgumentConfig{Type: graphql.String},
					"cooler":   &graphql.ArgumentConfig{Type: graphql.String},
					"retailer": &graphql.ArgumentConfig{Type: graphql.String},
					"memory":   &graphql.ArgumentConfig{Type: graphql.Int},
					"inStock":  &graphql.ArgumentConfig{Type: graphql.Boolean},
					"oc":       &graphql.ArgumentConfig{Type: graphql.Boolean},
					"q":        &graphql.ArgumentConfig{Type: graphql.String},
					"minPrice": &graphql.ArgumentConfig{Type: graphql.Float},
					"maxPrice": &graphql.ArgumentConfig{Type: graphql.Float},
					"sort":     &graphql.ArgumentConfig{Type: graphql.String},
					"order":    &graphql.ArgumentConfig{Type: graphql.String},
					"page":     &graphql.ArgumentConfig{Type: graphql.Int},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					page, err := catalog.List(p.Context, filterFromArgs(p.Args))
					if err != nil {
						return nil, err
					}
					items := make([]map[string]interface{}, len(page.Data))
					for i, prod := range page.Data {
						items[i] = productFields(prod)
					}
					return map[string]interface{}{
						"items":       items,
						"total":       int(page.Meta.Total),
						"perPage":     page.Meta.PerPage,
						"currentPage": page.Meta.CurrentPage,
						"lastPage":    page.Meta.LastPage,
					}, nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := cast.ToUint(p.Args["id"])
					if id == 0 {
						return nil, nil
					}
					prod, err := catalog.Find(p.Context, id)
					if errors.Is(err, repositories.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return productFields(prod), nil
				},
			},
			"filters": &graphql.Field{
				Type: filterOptionsType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					opts, err := catalog.FilterOptions(p.Context)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"brands":      opts.Brands,
						"families":    opts.Families,
						"coolerTypes": opts.CoolerTypes,
						"retailers":   opts.Retailers,
						"memorySizes": opts.MemorySizes,
						"minPrice":    opts.MinPrice.StringFixed(2),
						"maxPrice":    opts.MaxPrice.StringFixed(2),
					}, nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}

func filterFromArgs(args map[string]interface{}) repositories.ProductFilter {
	f := repositories.ProductFilter{
		Brand:      cast.ToString(args["brand"]),
		Family:     cast.ToString(args["family"]),
		CoolerType: cast.ToString(args["cooler"]),
		Retailer:   cast.ToString(args["retailer"]),
		MemoryGB:   cast.ToInt(args["memory"]),
		Query:      cast.ToString(args["q"]),
		Sort:       cast.ToString(args["sort"]),
		Order:      cast.ToString(args["order"]),
		Page:       cast.ToInt(args["page"]),
		Limit:      cast.ToInt(args["limit"]),
	}
	if v, ok := args["inStock"]; ok {
		b := cast.ToBool(v)
		f.InStock = &b
	}
	if v, ok := args["oc"]; ok {
		b := cast.ToBool(v)
		f.IsOC = &b
	}
	if v, ok := args["minPrice"]; ok {
		d := decimal.NewFromFloat(cast.ToFloat64(v))
		f.MinPrice = &d
	}
	if v, ok := args["maxPrice"]; ok {
		d := decimal.NewFromFloat(cast.ToFloat64(v))
		f.MaxPrice = &d
	}
	return f
}

func productFields(p models.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":              int(p.ID),
		"url":             p.URL,
		"brand":           p.Brand,
		"productTitle":    p.ProductTitle,
		"family":          p.Family,
		"variant":         p.Variant,
		"memorySizeGb":    p.MemorySizeGB,
		"coolerType":      p.CoolerType,
		"specialFeatures": p.SpecialFeatures,
		"price":           p.Price.StringFixed(2),
		"inStock":         p.InStock,
		"isOc":            p.IsOC,
		"retailer":        p.Retailer,
		"fetchedAt":       p.FetchedAt.UTC(),
		"updatedAt":       p.UpdatedAt.UTC(),
	}
}
