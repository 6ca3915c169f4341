package costing

import (
	"sort"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

// ValidatePricing rejects negative or non-finite list prices.
func ValidatePricing(p models.ProductPricing) error {
	if !finiteNonNegative(p.UnitPrice) || !finiteNonNegative(p.MarketPrice) {
		return models.Validation(models.CodeInvalidPricing, "unitPrice and marketPrice must be finite non-negative numbers")
	}
	return nil
}

// PriceProduct derives the margin of a product's list price against latest,
// its most recent active cost snapshot. A product without a snapshot is
// priced against zero cost and reports a zero margin.
func PriceProduct(p *models.Product, latest *models.CostRecord) models.ProductProfit {
	row := models.ProductProfit{
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductCode:  p.Code,
		Category:     p.Category,
		SellingPrice: p.Pricing.ListPrice(),
		LastUpdated:  p.UpdatedAt,
	}
	if latest != nil {
		id := latest.ID
		row.CostInfoID = &id
		row.TotalCost = latest.TotalCost
		if latest.UpdatedAt.After(row.LastUpdated) {
			row.LastUpdated = latest.UpdatedAt
		}
	}
	row.GrossProfit = row.SellingPrice - row.TotalCost
	row.ProfitMargin = percent(row.GrossProfit, row.TotalCost)
	row.ProfitLevel = ClassifyProfitLevel(row.ProfitMargin)
	return row
}

// RankProductProfit orders rows by margin, highest first, ties by product id.
func RankProductProfit(rows []models.ProductProfit) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ProfitMargin != rows[j].ProfitMargin {
			return rows[i].ProfitMargin > rows[j].ProfitMargin
		}
		return rows[i].ProductID.Hex() < rows[j].ProductID.Hex()
	})
}
