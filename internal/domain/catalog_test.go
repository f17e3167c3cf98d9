package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRef(t *testing.T) {
	assert.Equal(t, "hot_drinks", CategoryRef("Hot  Drinks"))
	assert.Equal(t, "desserts", CategoryRef("Desserts"))
	assert.Equal(t, "a_b_c", CategoryRef("A\tB\nC"))
}

func TestPriceDecoding(t *testing.T) {
	var items []MenuItem
	raw := `[{"Price":"4.50"},{"Price":3},{"Price":"free"},{"Price":null},{}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &items))

	prices := make([]Price, 0, len(items))
	for _, it := range items {
		prices = append(prices, it.Price)
	}
	assert.Equal(t, []Price{4.5, 3, 0, 0, 0}, prices)
}

func TestPriceDecodingReadsLeadingNumber(t *testing.T) {
	cases := map[string]Price{
		`"9.50€"`:    9.5,
		`"  12 EUR"`: 12,
		`".5"`:       0.5,
		`"-3.25x"`:   -3.25,
		`"1e2 "`:     100,
		`"€9.50"`:    0,
		`true`:       0,
		`{"v":1}`:    0,
	}
	for raw, want := range cases {
		var p Price
		require.NoError(t, json.Unmarshal([]byte(raw), &p), raw)
		assert.InDelta(t, float64(want), float64(p), 1e-9, raw)
	}
}

func TestMenuItemAvailabilityDecoding(t *testing.T) {
	raw := `[
		{"RowKey":"a","IsAvailable":false},
		{"RowKey":"b","IsAvailable":"false"},
		{"RowKey":"c","IsAvailable":"1"},
		{"RowKey":"d","IsAvailable":"maybe"},
		{"RowKey":"e","IsAvailable":0},
		{"RowKey":"f","Name":"Soup","Price":"4.20€","Category":"Starters"}
	]`
	var items []MenuItem
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 6)

	catalog := BuildCatalog(items)
	available := make(map[string]bool, len(catalog.Products))
	for _, p := range catalog.Products {
		available[p.Ref] = p.Available
	}
	assert.Equal(t, map[string]bool{"a": false, "b": false, "c": true, "d": true, "e": true, "f": true}, available)

	soup := items[5]
	assert.Equal(t, "Soup", soup.Name)
	assert.Equal(t, "Starters", soup.Category)
	assert.InDelta(t, 4.2, float64(soup.Price), 1e-9)
}

func TestBuildCatalog(t *testing.T) {
	unavailable := false
	items := []MenuItem{
		{RowKey: "r1", Name: "Espresso", Category: "Hot Drinks", Price: 2.5, Tags: "coffee, short", ImageURL: "https://img/1"},
		{ID: "r2", ItemName: "Tiramisu", Category: "Desserts", Price: 6, IsAvailable: &unavailable},
		{RowKey: "r3", Name: "Latte", Category: "Hot Drinks"},
		{RowKey: "r4", Name: "Mystery"},
	}

	catalog := BuildCatalog(items)

	assert.Equal(t, "Menu Catalog", catalog.Name)
	assert.Equal(t, []CatalogCategory{
		{Name: "Hot Drinks", Ref: "hot_drinks"},
		{Name: "Desserts", Ref: "desserts"},
		{Name: "Uncategorized", Ref: "uncategorized"},
	}, catalog.Categories)

	require.Len(t, catalog.Products, 4)
	espresso := catalog.Products[0]
	assert.Equal(t, "r1", espresso.Ref)
	assert.Equal(t, "hot_drinks", espresso.CategoryRef)
	assert.Equal(t, []string{"coffee", "short"}, espresso.Tags)
	assert.Equal(t, []string{"https://img/1"}, espresso.ImageIDs)
	assert.True(t, espresso.Available)

	tiramisu := catalog.Products[1]
	assert.Equal(t, "Tiramisu", tiramisu.Name)
	assert.Equal(t, "r2", tiramisu.Ref)
	assert.False(t, tiramisu.Available)

	assert.Empty(t, catalog.Products[2].Tags)
	assert.NotNil(t, catalog.Products[2].ImageIDs)
	assert.Equal(t, "uncategorized", catalog.Products[3].CategoryRef)
}

func TestBuildCatalogEmpty(t *testing.T) {
	catalog := BuildCatalog(nil)
	body, err := json.Marshal(catalog)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Menu Catalog","categories":[],"products":[]}`, string(body))
}
