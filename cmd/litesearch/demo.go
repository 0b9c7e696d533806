package main

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog/memory"
)

// demoProducts is a small bilingual catalog for trying the engine without
// a database.
func demoProducts() []*memory.Product {
	now := time.Now().UTC()
	days := func(n int) time.Time { return now.AddDate(0, 0, -n) }
	color := func(values ...string) []catalog.Attribute {
		return []catalog.Attribute{{Name: "Color", Visible: true, Options: values}}
	}

	return []*memory.Product{
		{
			ProductID:     101,
			Title:         "Wireless Headphones WH-1000",
			Sku:           "WH-1000-BLK",
			Desc:          "<p>Over-ear <strong>noise cancelling</strong> headphones with 30h battery.</p>",
			Brands:        []string{"Sony"},
			CategoryNames: []string{"Audio", "Headphones"},
			TagNames:      []string{"bluetooth", "travel"},
			Attrs:         color("Black"),
			Cost:          349.99,
			Stock:         catalog.StockInStock,
			Created:       days(12),
		},
		{
			ProductID:     102,
			Title:         "Căști in-ear sport",
			Sku:           "CIE-SPORT",
			ShortDesc:     "Căști rezistente la apă pentru alergare",
			Brands:        []string{"JBL"},
			CategoryNames: []string{"Audio"},
			Cost:          129,
			Stock:         catalog.StockInStock,
			Created:       days(90),
		},
		{
			ProductID:     103,
			Title:         "Laptop Ultrabook 14",
			Sku:           "UB14-2026",
			Desc:          "Ultrabook with 16GB RAM and 1TB SSD.",
			Brands:        []string{"Lenovo"},
			CategoryNames: []string{"Laptops"},
			Attrs:         color("Silver"),
			Cost:          1199,
			Stock:         catalog.StockInStock,
			Created:       days(5),
		},
		{
			ProductID:     104,
			Title:         "Husă laptop 14 inch",
			Sku:           "HL-14",
			Brands:        []string{"Thule"},
			CategoryNames: []string{"Accesorii", "Laptops"},
			TagNames:      []string{"geanta"},
			Cost:          89.5,
			Stock:         catalog.StockOutOfStock,
			Created:       days(200),
		},
		{
			ProductID:     105,
			Title:         "Telefon smartphone 5G 128GB",
			Sku:           "TS-5G-128",
			Desc:          "Smartphone cu ecran OLED de 6.1 inch.",
			Brands:        []string{"Samsung"},
			CategoryNames: []string{"Telefoane"},
			Attrs:         color("Blue", "Black"),
			Cost:          799,
			Stock:         catalog.StockInStock,
			Created:       days(20),
		},
		{
			ProductID:     106,
			Title:         "Phone charger USB-C 65W",
			Sku:           "PC-65W",
			Brands:        []string{"Anker"},
			CategoryNames: []string{"Accessories"},
			Cost:          39.9,
			Stock:         catalog.StockOnBackorder,
			Created:       days(45),
		},
		{
			ProductID:     107,
			Title:         "Espressor automat",
			Sku:           "EA-300",
			Desc:          "<ul><li>Râșniță integrată</li><li>15 bar</li></ul>",
			Brands:        []string{"DeLonghi"},
			CategoryNames: []string{"Electrocasnice"},
			Cost:          1499,
			Stock:         catalog.StockInStock,
			Created:       days(300),
		},
		{
			ProductID:     108,
			Title:         "Bluetooth Speaker Mini",
			Sku:           "BSM-01",
			Brands:        []string{"JBL"},
			CategoryNames: []string{"Audio"},
			TagNames:      []string{"wireless", "outdoor"},
			Attrs:         color("Red"),
			Cost:          59,
			Stock:         catalog.StockInStock,
			Created:       days(2),
		},
		{
			ProductID: 109,
			Title:     "Unreleased prototype",
			Draft:     true,
			Created:   days(1),
		},
	}
}
