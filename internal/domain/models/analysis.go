package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfitEntry is one quotation joined with its product and cost snapshot,
// the input row of the profit analysis.
type ProfitEntry struct {
	Quotation Quotation
	Product   *Product
	Cost      *CostRecord
}

// ProfitAnalysisRow aggregates the valid quotations of one product.
type ProfitAnalysisRow struct {
	ProductID       primitive.ObjectID `json:"productId"`
	ProductName     string             `json:"productName"`
	ProductCode     string             `json:"productCode"`
	Category        string             `json:"category"`
	AvgSellingPrice float64            `json:"avgSellingPrice"`
	AvgCost         float64            `json:"avgCost"`
	AvgGrossProfit  float64            `json:"avgGrossProfit"`
	AvgProfitMargin float64            `json:"avgProfitMargin"`
	QuotationCount  int                `json:"quotationCount"`
	LastUpdated     time.Time          `json:"lastUpdated"`
}

// ProfitSummary rolls the per-product rows up into report totals.
type ProfitSummary struct {
	TotalProducts         int     `json:"totalProducts"`
	TotalQuotations       int     `json:"totalQuotations"`
	AvgProfitMargin       float64 `json:"avgProfitMargin"`
	TotalAvgGrossProfit   float64 `json:"totalAvgGrossProfit"`
	HighestProfitMargin   float64 `json:"highestProfitMargin"`
	MostProfitableProduct string  `json:"mostProfitableProduct"`
}

// ReportPeriod is the optional createdAt window of a profit report.
type ReportPeriod struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// ProfitAnalysisReport is the full profit analysis payload.
type ProfitAnalysisReport struct {
	Analysis []ProfitAnalysisRow `json:"analysis"`
	Summary  ProfitSummary       `json:"summary"`
	Period   ReportPeriod        `json:"period"`
}
