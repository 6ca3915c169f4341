package costing

import (
	"fmt"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

// ValidateCost checks that every cost component is a finite, non-negative number.
func ValidateCost(rec *models.CostRecord) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"materialCost", rec.MaterialCost},
		{"laborCost", rec.LaborCost},
		{"overheadCost", rec.OverheadCost},
	}
	for _, f := range fields {
		if !finiteNonNegative(f.value) {
			return models.Validation(models.CodeInvalidCost, fmt.Sprintf("%s must be a finite non-negative number", f.name))
		}
	}
	for i, oc := range rec.OtherCosts {
		if !finiteNonNegative(oc.Amount) {
			return models.Validation(models.CodeInvalidCost, fmt.Sprintf("otherCosts[%d].amount must be a finite non-negative number", i))
		}
	}
	return nil
}

// ComputeTotal assigns TotalCost from the components and returns it.
// Calling it again without field changes yields the same total.
func ComputeTotal(rec *models.CostRecord) float64 {
	rec.TotalCost = rec.MaterialCost + rec.LaborCost + rec.OverheadCost + rec.OtherCostsTotal()
	return rec.TotalCost
}

// Breakdown returns each bucket's share of the total. All shares are zero for a zero total.
func Breakdown(rec *models.CostRecord) models.CostBreakdown {
	total := rec.TotalCost
	if total == 0 {
		return models.CostBreakdown{}
	}
	return models.CostBreakdown{
		MaterialCostPercentage: percent(rec.MaterialCost, total),
		LaborCostPercentage:    percent(rec.LaborCost, total),
		OverheadCostPercentage: percent(rec.OverheadCost, total),
		OtherCostsPercentage:   percent(rec.OtherCostsTotal(), total),
	}
}

// Compare measures current against the snapshot that preceded it.
// A nil previous means current is the first snapshot and yields nil.
func Compare(current, previous *models.CostRecord) *models.CostComparison {
	if current == nil || previous == nil {
		return nil
	}
	diff := current.TotalCost - previous.TotalCost
	return &models.CostComparison{
		PreviousCost:     previous.TotalCost,
		CurrentCost:      current.TotalCost,
		Difference:       diff,
		PercentageChange: percent(diff, previous.TotalCost),
		IsIncrease:       diff > 0,
		PreviousDate:     previous.EffectiveDate,
	}
}
