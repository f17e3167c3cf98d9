package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

const defaultCategory = "Uncategorized"

var whitespaceRun = regexp.MustCompile(`\s+`)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Price is a menu price that may be stored as a number or a string such as "9.50" or "9.50€".
// A string is read up to the end of its leading number; anything without one decodes to zero.
type Price float64

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(parseLeadingFloat(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		f = 0
	}
	*p = Price(f)
	return nil
}

func parseLeadingFloat(s string) float64 {
	f, err := strconv.ParseFloat(leadingNumber.FindString(strings.TrimSpace(s)), 64)
	if err != nil {
		return 0
	}
	return f
}

// MenuItem is a locally stored catalog entry as written by the menu editor.
type MenuItem struct {
	RowKey      string `json:"RowKey,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"Name,omitempty"`
	ItemName    string `json:"ItemName,omitempty"`
	Category    string `json:"Category,omitempty"`
	Description string `json:"Description,omitempty"`
	Price       Price  `json:"Price,omitempty"`
	ImageURL    string `json:"ImageUrl,omitempty"`
	Tags        string `json:"Tags,omitempty"`
	IsAvailable *bool  `json:"IsAvailable,omitempty"`
}

// UnmarshalJSON also accepts IsAvailable as a string ("true", "false", "0", "1").
// Any other value leaves availability unset, which publishes the item as available.
func (m *MenuItem) UnmarshalJSON(data []byte) error {
	type plain MenuItem
	aux := struct {
		*plain
		IsAvailable json.RawMessage `json:"IsAvailable,omitempty"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.IsAvailable = availability(aux.IsAvailable)
	return nil
}

func availability(raw json.RawMessage) *bool {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}
	switch t := v.(type) {
	case bool:
		return &t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil
		}
		return &b
	default:
		return nil
	}
}

// Catalog is the partner's catalog document, pushed with a full replace.
type Catalog struct {
	Name       string            `json:"name"`
	Categories []CatalogCategory `json:"categories"`
	Products   []CatalogProduct  `json:"products"`
}

type CatalogCategory struct {
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

type CatalogProduct struct {
	Name        string   `json:"name"`
	Ref         string   `json:"ref"`
	CategoryRef string   `json:"category_ref"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ImageIDs    []string `json:"image_ids"`
	Tags        []string `json:"tags"`
	Available   bool     `json:"available"`
}

// CategoryRef derives the partner category reference from a display name.
func CategoryRef(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "_")
}

// BuildCatalog groups menu items by category, preserving first-seen category order.
func BuildCatalog(items []MenuItem) *Catalog {
	catalog := &Catalog{
		Name:       "Menu Catalog",
		Categories: []CatalogCategory{},
		Products:   make([]CatalogProduct, 0, len(items)),
	}
	seen := make(map[string]string)

	for _, item := range items {
		category := item.Category
		if category == "" {
			category = defaultCategory
		}
		ref, ok := seen[category]
		if !ok {
			ref = CategoryRef(category)
			seen[category] = ref
			catalog.Categories = append(catalog.Categories, CatalogCategory{Name: category, Ref: ref})
		}

		product := CatalogProduct{
			Name:        item.Name,
			Ref:         item.RowKey,
			CategoryRef: ref,
			Description: item.Description,
			Price:       float64(item.Price),
			ImageIDs:    []string{},
			Tags:        []string{},
			Available:   item.IsAvailable == nil || *item.IsAvailable,
		}
		if product.Name == "" {
			product.Name = item.ItemName
		}
		if product.Ref == "" {
			product.Ref = item.ID
		}
		if item.ImageURL != "" {
			product.ImageIDs = []string{item.ImageURL}
		}
		if item.Tags != "" {
			for _, tag := range strings.Split(item.Tags, ",") {
				product.Tags = append(product.Tags, strings.TrimSpace(tag))
			}
		}
		catalog.Products = append(catalog.Products, product)
	}
	return catalog
}
