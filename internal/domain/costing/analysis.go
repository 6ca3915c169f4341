package costing

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

type profitAcc struct {
	row                              models.ProfitAnalysisRow
	price, cost, grossProfit, margin float64
}

// AggregateProfit groups quotations by product and averages their pricing.
// Entries missing their product or cost snapshot are skipped. Rows come back
// ordered by average margin, highest first.
func AggregateProfit(entries []models.ProfitEntry) []models.ProfitAnalysisRow {
	accs := make(map[primitive.ObjectID]*profitAcc)
	order := make([]primitive.ObjectID, 0)

	for _, e := range entries {
		if e.Product == nil || e.Cost == nil {
			continue
		}
		pid := e.Quotation.ProductID
		acc, ok := accs[pid]
		if !ok {
			acc = &profitAcc{row: models.ProfitAnalysisRow{
				ProductID:   pid,
				ProductName: e.Product.Name,
				ProductCode: e.Product.Code,
				Category:    e.Product.Category,
			}}
			accs[pid] = acc
			order = append(order, pid)
		}
		acc.price += e.Quotation.SellingPrice
		acc.cost += e.Cost.TotalCost
		acc.grossProfit += e.Quotation.GrossProfit
		acc.margin += e.Quotation.ProfitMargin
		acc.row.QuotationCount++
		if e.Quotation.UpdatedAt.After(acc.row.LastUpdated) {
			acc.row.LastUpdated = e.Quotation.UpdatedAt
		}
	}

	rows := make([]models.ProfitAnalysisRow, 0, len(order))
	for _, pid := range order {
		acc := accs[pid]
		n := float64(acc.row.QuotationCount)
		row := acc.row
		row.AvgSellingPrice = acc.price / n
		row.AvgCost = acc.cost / n
		row.AvgGrossProfit = acc.grossProfit / n
		row.AvgProfitMargin = acc.margin / n
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AvgProfitMargin != rows[j].AvgProfitMargin {
			return rows[i].AvgProfitMargin > rows[j].AvgProfitMargin
		}
		return rows[i].ProductID.Hex() < rows[j].ProductID.Hex()
	})
	return rows
}

// SummarizeProfit rolls the product rows up into report totals.
func SummarizeProfit(rows []models.ProfitAnalysisRow) models.ProfitSummary {
	var summary models.ProfitSummary
	if len(rows) == 0 {
		return summary
	}

	var marginSum, grossSum float64
	best := rows[0]
	for _, row := range rows {
		summary.TotalProducts++
		summary.TotalQuotations += row.QuotationCount
		marginSum += row.AvgProfitMargin
		grossSum += row.AvgGrossProfit
		if row.AvgProfitMargin > best.AvgProfitMargin {
			best = row
		}
	}

	summary.AvgProfitMargin = Round2(marginSum / float64(summary.TotalProducts))
	summary.TotalAvgGrossProfit = Round2(grossSum)
	summary.HighestProfitMargin = best.AvgProfitMargin
	summary.MostProfitableProduct = best.ProductName
	return summary
}
