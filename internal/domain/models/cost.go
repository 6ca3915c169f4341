package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OtherCost is an itemized extra cost line of a cost snapshot.
type OtherCost struct {
	Name        string  `bson:"name" json:"name" validate:"required,max=50"`
	Amount      float64 `bson:"amount" json:"amount" validate:"gte=0"`
	Description string  `bson:"description,omitempty" json:"description,omitempty" validate:"max=200"`
}

// CostRecord is a product's cost composition effective from a point in time.
type CostRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID     primitive.ObjectID `bson:"productId" json:"productId"`
	MaterialCost  float64            `bson:"materialCost" json:"materialCost"`
	LaborCost     float64            `bson:"laborCost" json:"laborCost"`
	OverheadCost  float64            `bson:"overheadCost" json:"overheadCost"`
	OtherCosts    []OtherCost        `bson:"otherCosts" json:"otherCosts"`
	TotalCost     float64            `bson:"totalCost" json:"totalCost"`
	EffectiveDate time.Time          `bson:"effectiveDate" json:"effectiveDate"`
	Status        RecordStatus       `bson:"status" json:"status"`
	CreatedBy     string             `bson:"createdBy" json:"createdBy"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the snapshot takes part in comparisons and trends.
func (c *CostRecord) IsActive() bool {
	return c != nil && c.Status == StatusActive
}

// OtherCostsTotal sums the itemized extras.
func (c *CostRecord) OtherCostsTotal() float64 {
	var sum float64
	for _, oc := range c.OtherCosts {
		sum += oc.Amount
	}
	return sum
}

// CostBreakdown is the percentage share of each cost bucket.
type CostBreakdown struct {
	MaterialCostPercentage float64 `json:"materialCostPercentage"`
	LaborCostPercentage    float64 `json:"laborCostPercentage"`
	OverheadCostPercentage float64 `json:"overheadCostPercentage"`
	OtherCostsPercentage   float64 `json:"otherCostsPercentage"`
}

// CostComparison compares a snapshot with the one that preceded it.
type CostComparison struct {
	PreviousCost     float64   `json:"previousCost"`
	CurrentCost      float64   `json:"currentCost"`
	Difference       float64   `json:"difference"`
	PercentageChange float64   `json:"percentageChange"`
	IsIncrease       bool      `json:"isIncrease"`
	PreviousDate     time.Time `json:"previousDate"`
}

// CostDetail is a snapshot with its derived views.
type CostDetail struct {
	CostInfo   *CostRecord     `json:"costInfo"`
	Breakdown  CostBreakdown   `json:"breakdown"`
	Comparison *CostComparison `json:"comparison"`
}

// TrendBucket aggregates the snapshots of one calendar month.
type TrendBucket struct {
	Year            int       `json:"year"`
	Month           int       `json:"month"`
	Date            time.Time `json:"date"`
	AvgTotalCost    float64   `json:"avgTotalCost"`
	AvgMaterialCost float64   `json:"avgMaterialCost"`
	AvgLaborCost    float64   `json:"avgLaborCost"`
	AvgOverheadCost float64   `json:"avgOverheadCost"`
	MinCost         float64   `json:"minCost"`
	MaxCost         float64   `json:"maxCost"`
	Count           int       `json:"count"`
}

// TrendPeriod describes the window a trend was computed over.
type TrendPeriod struct {
	Months    int       `json:"months"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// CostTrend is the monthly cost trend of one product.
type CostTrend struct {
	Product ProductRef    `json:"product"`
	Trend   []TrendBucket `json:"trend"`
	Period  TrendPeriod   `json:"period"`
}

// CostHistory lists the latest snapshots of one product.
type CostHistory struct {
	Product     ProductRef   `json:"product"`
	CostHistory []CostRecord `json:"costHistory"`
}

// CostFilter narrows cost listings.
type CostFilter struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder SortOrder
	ProductID *primitive.ObjectID
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    RecordStatus
}

// CostPage is one page of cost snapshots.
type CostPage struct {
	CostInfos  []CostRecord `json:"costInfos"`
	Pagination Pagination   `json:"pagination"`
}
