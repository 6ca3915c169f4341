package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is an entry of the product directory that costs and quotations refer to.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Code        string             `bson:"code" json:"code"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Unit        string             `bson:"unit" json:"unit"`
	Pricing     ProductPricing     `bson:"pricing" json:"pricing"`
	Status      RecordStatus       `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the product may be referenced by new records.
func (p *Product) IsActive() bool {
	return p != nil && p.Status == StatusActive
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Page     int
	Limit    int
	Search   string
	Category string
	Status   RecordStatus
}

// ProductRef is the short product summary embedded in history and trend results.
type ProductRef struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
	Code string             `json:"code"`
}

// Ref returns the summary view of p.
func (p *Product) Ref() ProductRef {
	return ProductRef{ID: p.ID, Name: p.Name, Code: p.Code}
}

// ProductPricing is the list price block of a product.
type ProductPricing struct {
	UnitPrice    float64 `bson:"unitPrice" json:"unitPrice"`
	MarketPrice  float64 `bson:"marketPrice" json:"marketPrice"`
	DeliveryTime string  `bson:"deliveryTime,omitempty" json:"deliveryTime,omitempty"`
}

// ListPrice is the market price when set, otherwise the unit price.
func (p ProductPricing) ListPrice() float64 {
	if p.MarketPrice > 0 {
		return p.MarketPrice
	}
	return p.UnitPrice
}

// ProductProfit prices a product's list price against its latest cost snapshot.
type ProductProfit struct {
	ProductID    primitive.ObjectID  `json:"productId"`
	ProductName  string              `json:"productName"`
	ProductCode  string              `json:"productCode"`
	Category     string              `json:"category"`
	CostInfoID   *primitive.ObjectID `json:"costInfoId,omitempty"`
	TotalCost    float64             `json:"totalCost"`
	SellingPrice float64             `json:"sellingPrice"`
	GrossProfit  float64             `json:"grossProfit"`
	ProfitMargin float64             `json:"profitMargin"`
	ProfitLevel  ProfitLevel         `json:"profitLevel"`
	LastUpdated  time.Time           `json:"lastUpdated"`
}
