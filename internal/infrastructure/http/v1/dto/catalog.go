package dto

import (
	"github.com/shopspring/decimal"
)

// RecipeLineRequest is one ingredient of a menu item.
type RecipeLineRequest struct {
	SKU string          `json:"sku" binding:"required"`
	Qty decimal.Decimal `json:"qty"`
}

// MenuItemRequest creates a menu item with its recipe.
type MenuItemRequest struct {
	SKU         string              `json:"sku" binding:"required"`
	Name        string              `json:"name" binding:"required"`
	Price       decimal.Decimal     `json:"price"`
	TaxRateCode string              `json:"taxRateCode"`
	Recipe      []RecipeLineRequest `json:"recipe" binding:"dive"`
}
