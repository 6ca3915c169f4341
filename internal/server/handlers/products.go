package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/domain/models"
	"github.com/mamadbah2/costquote/internal/service/products"
)

// ProductService is the product directory used by ProductHandler.
type ProductService interface {
	List(ctx context.Context, f models.ProductFilter) (*products.ProductPage, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, in products.CreateInput) (*models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, patch products.Patch) (*models.Product, error)
	UpdatePricing(ctx context.Context, id primitive.ObjectID, pricing models.ProductPricing) (*models.Product, error)
	ProfitAnalysis(ctx context.Context, ids []primitive.ObjectID) ([]models.ProductProfit, error)
	Retire(ctx context.Context, id primitive.ObjectID) error
}

// ProductHandler serves /api/products.
type ProductHandler struct {
	svc    ProductService
	logger *zap.Logger
}

// NewProductHandler constructs the product HTTP adapter.
func NewProductHandler(svc ProductService, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{svc: svc, logger: logger}
}

type createProductRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Code        string `json:"code" validate:"required,max=50"`
	Category    string `json:"category" validate:"required,max=50"`
	Description string `json:"description" validate:"max=500"`
	Unit        string `json:"unit" validate:"max=20"`
}

type updateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Unit        *string `json:"unit" validate:"omitempty,max=20"`
}

type pricingRequest struct {
	UnitPrice    float64 `json:"unitPrice" validate:"gte=0"`
	MarketPrice  float64 `json:"marketPrice" validate:"gte=0"`
	DeliveryTime string  `json:"deliveryTime" validate:"max=100"`
}

// List handles GET /api/products.
func (h *ProductHandler) List(c *gin.Context) {
	q := queryParser{c: c}
	f := models.ProductFilter{
		Page:     q.intParam("page"),
		Limit:    q.intParam("limit"),
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Status:   models.RecordStatus(c.Query("status")),
	}
	if q.err != nil {
		respondError(c, h.logger, q.err, "GET_PRODUCTS_ERROR", "failed to list products")
		return
	}

	page, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err, "GET_PRODUCTS_ERROR", "failed to list products")
		return
	}
	respond(c, http.StatusOK, "products retrieved", page)
}

// Categories handles GET /api/products/categories.
func (h *ProductHandler) Categories(c *gin.Context) {
	cats, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "GET_CATEGORIES_ERROR", "failed to list categories")
		return
	}
	respond(c, http.StatusOK, "categories retrieved", cats)
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "GET_PRODUCT_ERROR", "failed to load product")
		return
	}
	respond(c, http.StatusOK, "product retrieved", p)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.Create(c.Request.Context(), products.CreateInput{
		Name:        req.Name,
		Code:        req.Code,
		Category:    req.Category,
		Description: req.Description,
		Unit:        req.Unit,
	})
	if err != nil {
		respondError(c, h.logger, err, "CREATE_PRODUCT_ERROR", "failed to create product")
		return
	}
	respond(c, http.StatusCreated, "product created", p)
}

// Retire handles DELETE /api/products/:id.
func (h *ProductHandler) Retire(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Retire(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "DELETE_PRODUCT_ERROR", "failed to delete product")
		return
	}
	respond(c, http.StatusOK, "product deleted", nil)
}

// Update handles PUT /api/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, products.Patch{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Unit:        req.Unit,
	})
	if err != nil {
		respondError(c, h.logger, err, "UPDATE_PRODUCT_ERROR", "failed to update product")
		return
	}
	respond(c, http.StatusOK, "product updated", p)
}

// UpdatePricing handles PUT /api/products/:id/pricing.
func (h *ProductHandler) UpdatePricing(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req pricingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.UpdatePricing(c.Request.Context(), id, models.ProductPricing{
		UnitPrice:    req.UnitPrice,
		MarketPrice:  req.MarketPrice,
		DeliveryTime: req.DeliveryTime,
	})
	if err != nil {
		respondError(c, h.logger, err, "UPDATE_PRICING_ERROR", "failed to update product pricing")
		return
	}
	respond(c, http.StatusOK, "product pricing updated", p)
}

// ProfitAnalysis handles GET /api/products/profit-analysis.
func (h *ProductHandler) ProfitAnalysis(c *gin.Context) {
	q := queryParser{c: c}
	ids := q.idListParam("productIds")
	if q.err != nil {
		respondError(c, h.logger, q.err, "PROFIT_ANALYSIS_ERROR", "failed to analyse product profit")
		return
	}
	rows, err := h.svc.ProfitAnalysis(c.Request.Context(), ids)
	if err != nil {
		respondError(c, h.logger, err, "PROFIT_ANALYSIS_ERROR", "failed to analyse product profit")
		return
	}
	respond(c, http.StatusOK, "product profit analysis retrieved", rows)
}
