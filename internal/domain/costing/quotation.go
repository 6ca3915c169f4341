package costing

import (
	"fmt"
	"math"
	"time"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

const day = 24 * time.Hour

// MaxExtendDays bounds a single validity extension.
const MaxExtendDays = 365

// ValidateSellingPrice rejects negative or non-finite prices.
func ValidateSellingPrice(price float64) error {
	if !finiteNonNegative(price) {
		return models.Validation(models.CodeInvalidSellingPrice, "sellingPrice must be a finite non-negative number")
	}
	return nil
}

// ComputeProfit derives gross profit and margin of q against its cost snapshot.
// The margin is expressed against cost, and is zero for a zero-cost snapshot.
func ComputeProfit(q *models.Quotation, cost *models.CostRecord) {
	q.GrossProfit = q.SellingPrice - cost.TotalCost
	q.ProfitMargin = percent(q.GrossProfit, cost.TotalCost)
}

// ClassifyProfitLevel maps a margin onto its tier. Ranges are closed-open.
func ClassifyProfitLevel(margin float64) models.ProfitLevel {
	switch {
	case margin < 0:
		return models.ProfitLevel{Level: models.TierLoss, Color: "red"}
	case margin < 10:
		return models.ProfitLevel{Level: models.TierLow, Color: "orange"}
	case margin < 20:
		return models.ProfitLevel{Level: models.TierNormal, Color: "yellow"}
	case margin < 30:
		return models.ProfitLevel{Level: models.TierHigh, Color: "green"}
	default:
		return models.ProfitLevel{Level: models.TierVeryHigh, Color: "blue"}
	}
}

// QuotationStatusAt reports the validity state of q at now.
func QuotationStatusAt(q *models.Quotation, now time.Time) models.QuotationStatus {
	if !q.IsActive() {
		return models.QuotationInactive
	}
	if q.ValidUntil.Before(now) {
		return models.QuotationExpired
	}
	daysLeft := math.Ceil(float64(q.ValidUntil.Sub(now)) / float64(day))
	switch {
	case daysLeft <= 3:
		return models.QuotationExpiringSoon
	case daysLeft <= 7:
		return models.QuotationExpiring
	default:
		return models.QuotationValid
	}
}

// ExtendValidity pushes ValidUntil forward by whole calendar days.
// Profit fields are left untouched.
func ExtendValidity(q *models.Quotation, days int) error {
	if days <= 0 || days > MaxExtendDays {
		return models.Validation(models.CodeInvalidDays, fmt.Sprintf("days must be between 1 and %d", MaxExtendDays))
	}
	q.ValidUntil = q.ValidUntil.UTC().AddDate(0, 0, days)
	return nil
}
