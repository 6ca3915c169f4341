package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomerType is the fixed set of customer segments a quotation targets.
type CustomerType string

const (
	CustomerRetail     CustomerType = "retail"
	CustomerVIP        CustomerType = "vip"
	CustomerWholesale  CustomerType = "wholesale"
	CustomerEnterprise CustomerType = "enterprise"
	CustomerGovernment CustomerType = "government"
	CustomerOther      CustomerType = "other"
)

var customerTypes = map[CustomerType]struct{}{
	CustomerRetail:     {},
	CustomerVIP:        {},
	CustomerWholesale:  {},
	CustomerEnterprise: {},
	CustomerGovernment: {},
	CustomerOther:      {},
}

// Valid reports whether t is empty or one of the known segments.
func (t CustomerType) Valid() bool {
	if t == "" {
		return true
	}
	_, ok := customerTypes[t]
	return ok
}

// Quotation is a proposed selling price for a product, priced against one cost snapshot.
type Quotation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	CostInfoID   primitive.ObjectID `bson:"costInfoId" json:"costInfoId"`
	SellingPrice float64            `bson:"sellingPrice" json:"sellingPrice"`
	GrossProfit  float64            `bson:"grossProfit" json:"grossProfit"`
	ProfitMargin float64            `bson:"profitMargin" json:"profitMargin"`
	CustomerType CustomerType       `bson:"customerType,omitempty" json:"customerType,omitempty"`
	ValidUntil   time.Time          `bson:"validUntil" json:"validUntil"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status       RecordStatus       `bson:"status" json:"status"`
	CreatedBy    string             `bson:"createdBy" json:"createdBy"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the quotation has not been retired.
func (q *Quotation) IsActive() bool {
	return q != nil && q.Status == StatusActive
}

// IsValidAt reports whether the quotation is active and validUntil >= now,
// the same boundary the store applies.
func (q *Quotation) IsValidAt(now time.Time) bool {
	return q.IsActive() && !q.ValidUntil.Before(now)
}

// ProfitTier is the qualitative bucket of a profit margin.
type ProfitTier string

const (
	TierLoss     ProfitTier = "Loss"
	TierLow      ProfitTier = "Low"
	TierNormal   ProfitTier = "Normal"
	TierHigh     ProfitTier = "High"
	TierVeryHigh ProfitTier = "Very High"
)

// ProfitLevel pairs a tier with the colour the dashboard renders it in.
type ProfitLevel struct {
	Level ProfitTier `json:"level"`
	Color string     `json:"color"`
}

// QuotationStatus is the validity state of a quotation at a given instant.
type QuotationStatus string

const (
	QuotationInactive     QuotationStatus = "Inactive"
	QuotationExpired      QuotationStatus = "Expired"
	QuotationExpiringSoon QuotationStatus = "Expiring Soon"
	QuotationExpiring     QuotationStatus = "Expiring"
	QuotationValid        QuotationStatus = "Valid"
)

// QuotationDetail is a quotation with its joined references and derived views.
type QuotationDetail struct {
	Quotation   *Quotation      `json:"quotation"`
	Product     *Product        `json:"product"`
	CostInfo    *CostRecord     `json:"costInfo"`
	ProfitLevel ProfitLevel     `json:"profitLevel"`
	Status      QuotationStatus `json:"status"`
	IsValid     bool            `json:"isValid"`
}

// ExpiringQuotation is a quotation close to the end of its validity window.
type ExpiringQuotation struct {
	Quotation
	ProductName string          `json:"productName"`
	ProductCode string          `json:"productCode"`
	State       QuotationStatus `json:"state"`
}

// ExpiringQuotations is the result of an expiring-window lookup.
type ExpiringQuotations struct {
	Quotations     []ExpiringQuotation `json:"quotations"`
	ExpiringInDays int                 `json:"expiringInDays"`
}

// QuotationFilter narrows quotation listings.
type QuotationFilter struct {
	Page         int
	Limit        int
	SortBy       string
	SortOrder    SortOrder
	ProductID    *primitive.ObjectID
	CustomerType CustomerType
	ValidOnly    bool
	Now          time.Time
}

// QuotationPage is one page of quotations.
type QuotationPage struct {
	Quotations []Quotation `json:"quotations"`
	Pagination Pagination  `json:"pagination"`
}
