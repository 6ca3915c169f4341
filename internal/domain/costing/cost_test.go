package costing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

func sampleCost() *models.CostRecord {
	return &models.CostRecord{
		MaterialCost: 100,
		LaborCost:    50,
		OverheadCost: 20,
		OtherCosts:   []models.OtherCost{{Name: "packaging", Amount: 30}},
	}
}

func TestComputeTotalSumsAllComponents(t *testing.T) {
	rec := sampleCost()
	assert.Equal(t, 200.0, ComputeTotal(rec))
	assert.Equal(t, 200.0, rec.TotalCost)

	// recomputing without changes is stable
	assert.Equal(t, 200.0, ComputeTotal(rec))

	rec.OtherCosts = append(rec.OtherCosts, models.OtherCost{Name: "freight", Amount: 12.5})
	assert.Equal(t, 212.5, ComputeTotal(rec))
}

func TestValidateCost(t *testing.T) {
	require.NoError(t, ValidateCost(sampleCost()))

	neg := sampleCost()
	neg.LaborCost = -1
	err := ValidateCost(neg)
	require.Error(t, err)
	derr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindValidation, derr.Kind)
	assert.Equal(t, models.CodeInvalidCost, derr.Code)

	inf := sampleCost()
	inf.MaterialCost = math.Inf(1)
	assert.Error(t, ValidateCost(inf))

	nan := sampleCost()
	nan.OtherCosts[0].Amount = math.NaN()
	assert.Error(t, ValidateCost(nan))
}

func TestBreakdown(t *testing.T) {
	rec := sampleCost()
	ComputeTotal(rec)

	b := Breakdown(rec)
	assert.Equal(t, models.CostBreakdown{
		MaterialCostPercentage: 50,
		LaborCostPercentage:    25,
		OverheadCostPercentage: 10,
		OtherCostsPercentage:   15,
	}, b)
}

func TestBreakdownSumsToHundred(t *testing.T) {
	rec := &models.CostRecord{MaterialCost: 1, LaborCost: 1, OverheadCost: 1}
	ComputeTotal(rec)
	b := Breakdown(rec)
	sum := b.MaterialCostPercentage + b.LaborCostPercentage + b.OverheadCostPercentage + b.OtherCostsPercentage
	assert.InDelta(t, 100, sum, 0.011)
}

func TestBreakdownZeroTotal(t *testing.T) {
	rec := &models.CostRecord{}
	ComputeTotal(rec)
	assert.Equal(t, models.CostBreakdown{}, Breakdown(rec))
}

func TestCompare(t *testing.T) {
	prevDate := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	prev := &models.CostRecord{TotalCost: 200, EffectiveDate: prevDate}
	cur := &models.CostRecord{TotalCost: 250}

	cmp := Compare(cur, prev)
	require.NotNil(t, cmp)
	assert.Equal(t, 200.0, cmp.PreviousCost)
	assert.Equal(t, 250.0, cmp.CurrentCost)
	assert.Equal(t, 50.0, cmp.Difference)
	assert.Equal(t, 25.0, cmp.PercentageChange)
	assert.True(t, cmp.IsIncrease)
	assert.Equal(t, prevDate, cmp.PreviousDate)

	down := Compare(&models.CostRecord{TotalCost: 150}, prev)
	assert.Equal(t, -50.0, down.Difference)
	assert.Equal(t, -25.0, down.PercentageChange)
	assert.False(t, down.IsIncrease)
}

func TestCompareFirstSnapshot(t *testing.T) {
	assert.Nil(t, Compare(&models.CostRecord{TotalCost: 10}, nil))
}

func TestCompareAgainstZeroCost(t *testing.T) {
	cmp := Compare(&models.CostRecord{TotalCost: 10}, &models.CostRecord{TotalCost: 0})
	require.NotNil(t, cmp)
	assert.Equal(t, 0.0, cmp.PercentageChange)
	assert.Equal(t, 10.0, cmp.Difference)
}
