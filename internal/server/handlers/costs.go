package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/domain/models"
	"github.com/mamadbah2/costquote/internal/service/costs"
)

// CostService is the cost logic used by CostHandler.
type CostService interface {
	Create(ctx context.Context, in costs.Input, actor string) (*models.CostRecord, error)
	Update(ctx context.Context, id primitive.ObjectID, patch costs.Patch) (*models.CostRecord, error)
	Retire(ctx context.Context, id primitive.ObjectID) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.CostDetail, error)
	List(ctx context.Context, f models.CostFilter) (*models.CostPage, error)
	History(ctx context.Context, productID primitive.ObjectID, limit int) (*models.CostHistory, error)
	Trend(ctx context.Context, productID primitive.ObjectID, months int) (*models.CostTrend, error)
}

// CostHandler serves /api/costs.
type CostHandler struct {
	svc    CostService
	logger *zap.Logger
}

// NewCostHandler constructs the cost HTTP adapter.
func NewCostHandler(svc CostService, logger *zap.Logger) *CostHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostHandler{svc: svc, logger: logger}
}

type createCostRequest struct {
	ProductID     string             `json:"productId" validate:"required,objectid"`
	MaterialCost  float64            `json:"materialCost"`
	LaborCost     float64            `json:"laborCost"`
	OverheadCost  float64            `json:"overheadCost"`
	OtherCosts    []models.OtherCost `json:"otherCosts" validate:"omitempty,max=50,dive"`
	EffectiveDate *time.Time         `json:"effectiveDate"`
}

type updateCostRequest struct {
	ProductID     *string             `json:"productId" validate:"omitempty,objectid"`
	MaterialCost  *float64            `json:"materialCost"`
	LaborCost     *float64            `json:"laborCost"`
	OverheadCost  *float64            `json:"overheadCost"`
	OtherCosts    *[]models.OtherCost `json:"otherCosts" validate:"omitempty,max=50,dive"`
	EffectiveDate *time.Time          `json:"effectiveDate"`
}

// List handles GET /api/costs.
func (h *CostHandler) List(c *gin.Context) {
	q := queryParser{c: c}
	f := models.CostFilter{
		Page:      q.intParam("page"),
		Limit:     q.intParam("limit"),
		SortBy:    c.Query("sortBy"),
		SortOrder: q.orderParam("sortOrder"),
		ProductID: q.idParam("productId"),
		DateFrom:  q.timeParam("dateFrom", false),
		DateTo:    q.timeParam("dateTo", true),
		Status:    models.RecordStatus(c.Query("status")),
	}
	if q.err != nil {
		respondError(c, h.logger, q.err, "GET_COSTS_ERROR", "failed to list cost infos")
		return
	}

	page, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err, "GET_COSTS_ERROR", "failed to list cost infos")
		return
	}
	respond(c, http.StatusOK, "cost infos retrieved", page)
}

// Get handles GET /api/costs/:id.
func (h *CostHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "GET_COST_ERROR", "failed to load cost info")
		return
	}
	respond(c, http.StatusOK, "cost info retrieved", detail)
}

// Create handles POST /api/costs.
func (h *CostHandler) Create(c *gin.Context) {
	var req createCostRequest
	if !bindAndValidate(c, &req) {
		return
	}
	productID, _ := primitive.ObjectIDFromHex(req.ProductID)

	rec, err := h.svc.Create(c.Request.Context(), costs.Input{
		ProductID:     productID,
		MaterialCost:  req.MaterialCost,
		LaborCost:     req.LaborCost,
		OverheadCost:  req.OverheadCost,
		OtherCosts:    req.OtherCosts,
		EffectiveDate: req.EffectiveDate,
	}, actor(c))
	if err != nil {
		respondError(c, h.logger, err, "CREATE_COST_ERROR", "failed to create cost info")
		return
	}
	respond(c, http.StatusCreated, "cost info created", rec)
}

// Update handles PUT /api/costs/:id.
func (h *CostHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateCostRequest
	if !bindAndValidate(c, &req) {
		return
	}

	patch := costs.Patch{
		MaterialCost:  req.MaterialCost,
		LaborCost:     req.LaborCost,
		OverheadCost:  req.OverheadCost,
		OtherCosts:    req.OtherCosts,
		EffectiveDate: req.EffectiveDate,
	}
	if req.ProductID != nil {
		pid, _ := primitive.ObjectIDFromHex(*req.ProductID)
		patch.ProductID = &pid
	}

	rec, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err, "UPDATE_COST_ERROR", "failed to update cost info")
		return
	}
	respond(c, http.StatusOK, "cost info updated", rec)
}

// Retire handles DELETE /api/costs/:id.
func (h *CostHandler) Retire(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Retire(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "DELETE_COST_ERROR", "failed to delete cost info")
		return
	}
	respond(c, http.StatusOK, "cost info deleted", nil)
}

// History handles GET /api/costs/history/:productId.
func (h *CostHandler) History(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	q := queryParser{c: c}
	limit := q.intParam("limit")
	if q.err != nil {
		respondError(c, h.logger, q.err, "GET_COST_HISTORY_ERROR", "failed to load cost history")
		return
	}

	hist, err := h.svc.History(c.Request.Context(), productID, limit)
	if err != nil {
		respondError(c, h.logger, err, "GET_COST_HISTORY_ERROR", "failed to load cost history")
		return
	}
	respond(c, http.StatusOK, "cost history retrieved", hist)
}

// Trend handles GET /api/costs/trend/:productId.
func (h *CostHandler) Trend(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	q := queryParser{c: c}
	months := q.intParam("months")
	if q.err != nil {
		respondError(c, h.logger, q.err, "GET_COST_TREND_ERROR", "failed to load cost trend")
		return
	}

	trend, err := h.svc.Trend(c.Request.Context(), productID, months)
	if err != nil {
		respondError(c, h.logger, err, "GET_COST_TREND_ERROR", "failed to load cost trend")
		return
	}
	respond(c, http.StatusOK, "cost trend retrieved", trend)
}
