package main

import (
	"catalog/internal/domain/model"

	"github.com/shopspring/decimal"
)

// STORE=memory の初期データ
func demoProducts() []model.Product {
	p := func(name, desc, price, category string) model.Product {
		return model.Product{Name: name, Description: desc, Price: decimal.RequireFromString(price), Category: category}
	}
	return []model.Product{
		p("Kayak", "A boat for one person", "275.00", "Watersports"),
		p("Lifejacket", "Protective and fashionable", "48.95", "Watersports"),
		p("Soccer Ball", "FIFA-approved size and weight", "19.50", "Soccer"),
		p("Corner Flags", "Give your playing field a professional touch", "34.95", "Soccer"),
		p("Stadium", "Flat-packed 35,000-seat stadium", "79500.00", "Soccer"),
		p("Thinking Cap", "Improve brain efficiency by 75%", "16.00", "Chess"),
		p("Unsteady Chair", "Secretly give your opponent a disadvantage", "29.95", "Chess"),
		p("Human Chess Board", "A fun game for the family", "75.00", "Chess"),
		p("Bling-Bling King", "Gold-plated, diamond-studded King", "1200.00", "Chess"),
	}
}
