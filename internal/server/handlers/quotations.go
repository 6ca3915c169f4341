package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/domain/models"
	"github.com/mamadbah2/costquote/internal/service/quotations"
)

// QuotationService is the quotation logic used by QuotationHandler.
type QuotationService interface {
	Create(ctx context.Context, in quotations.Input, actor string) (*models.Quotation, error)
	Update(ctx context.Context, id primitive.ObjectID, patch quotations.Patch) (*models.Quotation, error)
	Retire(ctx context.Context, id primitive.ObjectID) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.QuotationDetail, error)
	List(ctx context.Context, f models.QuotationFilter) (*models.QuotationPage, error)
	ExtendValidity(ctx context.Context, id primitive.ObjectID, days int) (*models.Quotation, error)
	Expiring(ctx context.Context, days int) (*models.ExpiringQuotations, error)
	ProfitAnalysis(ctx context.Context, from, to *time.Time) (*models.ProfitAnalysisReport, error)
}

// QuotationHandler serves /api/quotations.
type QuotationHandler struct {
	svc    QuotationService
	logger *zap.Logger
}

// NewQuotationHandler constructs the quotation HTTP adapter.
func NewQuotationHandler(svc QuotationService, logger *zap.Logger) *QuotationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotationHandler{svc: svc, logger: logger}
}

type createQuotationRequest struct {
	ProductID    string     `json:"productId" validate:"required,objectid"`
	CostInfoID   string     `json:"costInfoId" validate:"required,objectid"`
	SellingPrice *float64   `json:"sellingPrice" validate:"required"`
	CustomerType string     `json:"customerType" validate:"omitempty,customer_type"`
	ValidUntil   *time.Time `json:"validUntil" validate:"required"`
	Notes        string     `json:"notes" validate:"max=500"`
}

type updateQuotationRequest struct {
	ProductID    *string    `json:"productId" validate:"omitempty,objectid"`
	CostInfoID   *string    `json:"costInfoId" validate:"omitempty,objectid"`
	SellingPrice *float64   `json:"sellingPrice"`
	CustomerType *string    `json:"customerType" validate:"omitempty,customer_type"`
	ValidUntil   *time.Time `json:"validUntil"`
	Notes        *string    `json:"notes" validate:"omitempty,max=500"`
}

type extendValidityRequest struct {
	Days int `json:"days"`
}

// List handles GET /api/quotations.
func (h *QuotationHandler) List(c *gin.Context) {
	q := queryParser{c: c}
	f := models.QuotationFilter{
		Page:         q.intParam("page"),
		Limit:        q.intParam("limit"),
		SortBy:       c.Query("sortBy"),
		SortOrder:    q.orderParam("sortOrder"),
		ProductID:    q.idParam("productId"),
		CustomerType: models.CustomerType(c.Query("customerType")),
		ValidOnly:    q.boolParam("validOnly"),
	}
	if q.err != nil {
		respondError(c, h.logger, q.err, "GET_QUOTATIONS_ERROR", "failed to list quotations")
		return
	}

	page, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err, "GET_QUOTATIONS_ERROR", "failed to list quotations")
		return
	}
	respond(c, http.StatusOK, "quotations retrieved", page)
}

// Get handles GET /api/quotations/:id.
func (h *QuotationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "GET_QUOTATION_ERROR", "failed to load quotation")
		return
	}
	respond(c, http.StatusOK, "quotation retrieved", detail)
}

// Create handles POST /api/quotations.
func (h *QuotationHandler) Create(c *gin.Context) {
	var req createQuotationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	productID, _ := primitive.ObjectIDFromHex(req.ProductID)
	costID, _ := primitive.ObjectIDFromHex(req.CostInfoID)

	quote, err := h.svc.Create(c.Request.Context(), quotations.Input{
		ProductID:    productID,
		CostInfoID:   costID,
		SellingPrice: *req.SellingPrice,
		CustomerType: models.CustomerType(req.CustomerType),
		ValidUntil:   *req.ValidUntil,
		Notes:        req.Notes,
	}, actor(c))
	if err != nil {
		respondError(c, h.logger, err, "CREATE_QUOTATION_ERROR", "failed to create quotation")
		return
	}
	respond(c, http.StatusCreated, "quotation created", quote)
}

// Update handles PUT /api/quotations/:id.
func (h *QuotationHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateQuotationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	patch := quotations.Patch{
		SellingPrice: req.SellingPrice,
		ValidUntil:   req.ValidUntil,
		Notes:        req.Notes,
	}
	if req.ProductID != nil {
		pid, _ := primitive.ObjectIDFromHex(*req.ProductID)
		patch.ProductID = &pid
	}
	if req.CostInfoID != nil {
		cid, _ := primitive.ObjectIDFromHex(*req.CostInfoID)
		patch.CostInfoID = &cid
	}
	if req.CustomerType != nil {
		ct := models.CustomerType(*req.CustomerType)
		patch.CustomerType = &ct
	}

	quote, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err, "UPDATE_QUOTATION_ERROR", "failed to update quotation")
		return
	}
	respond(c, http.StatusOK, "quotation updated", quote)
}

// Retire handles DELETE /api/quotations/:id.
func (h *QuotationHandler) Retire(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Retire(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "DELETE_QUOTATION_ERROR", "failed to delete quotation")
		return
	}
	respond(c, http.StatusOK, "quotation deleted", nil)
}

// Extend handles POST /api/quotations/:id/extend.
func (h *QuotationHandler) Extend(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req extendValidityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	quote, err := h.svc.ExtendValidity(c.Request.Context(), id, req.Days)
	if err != nil {
		respondError(c, h.logger, err, "EXTEND_VALIDITY_ERROR", "failed to extend quotation validity")
		return
	}
	respond(c, http.StatusOK, "quotation validity extended", quote)
}

// Expiring handles GET /api/quotations/expiring.
func (h *QuotationHandler) Expiring(c *gin.Context) {
	q := queryParser{c: c}
	days := q.intParam("days")
	if q.err != nil {
		respondError(c, h.logger, q.err, "GET_EXPIRING_QUOTATIONS_ERROR", "failed to load expiring quotations")
		return
	}
	res, err := h.svc.Expiring(c.Request.Context(), days)
	if err != nil {
		respondError(c, h.logger, err, "GET_EXPIRING_QUOTATIONS_ERROR", "failed to load expiring quotations")
		return
	}
	respond(c, http.StatusOK, "expiring quotations retrieved", res)
}

// ProfitAnalysis handles GET /api/quotations/profit-analysis.
func (h *QuotationHandler) ProfitAnalysis(c *gin.Context) {
	q := queryParser{c: c}
	from := q.timeParam("startDate", false)
	to := q.timeParam("endDate", true)
	if q.err != nil {
		respondError(c, h.logger, q.err, "GET_PROFIT_ANALYSIS_ERROR", "failed to build profit analysis")
		return
	}
	report, err := h.svc.ProfitAnalysis(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err, "GET_PROFIT_ANALYSIS_ERROR", "failed to build profit analysis")
		return
	}
	respond(c, http.StatusOK, "profit analysis retrieved", report)
}
