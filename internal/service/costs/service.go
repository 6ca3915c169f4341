// Package costs manages cost snapshots: creation with derived totals,
// detail views with breakdown and comparison, history and monthly trends.
package costs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/domain/costing"
	"github.com/mamadbah2/costquote/internal/domain/models"
	"github.com/mamadbah2/costquote/internal/repository/cache"
)

const (
	defaultHistoryLimit = 10
	defaultTrendMonths  = 12
	maxTrendMonths      = 120
)

var sortFields = map[string]struct{}{
	"effectiveDate": {},
	"totalCost":     {},
	"createdAt":     {},
	"updatedAt":     {},
}

// ProductDirectory resolves product references.
type ProductDirectory interface {
	FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// Store persists cost snapshots.
type Store interface {
	InsertCost(ctx context.Context, rec *models.CostRecord) error
	UpdateCost(ctx context.Context, rec *models.CostRecord) error
	FindCost(ctx context.Context, id primitive.ObjectID) (*models.CostRecord, error)
	FindPreviousCost(ctx context.Context, productID, excludeID primitive.ObjectID, before time.Time) (*models.CostRecord, error)
	ListCosts(ctx context.Context, f models.CostFilter) ([]models.CostRecord, int64, error)
	CostsSince(ctx context.Context, productID primitive.ObjectID, since time.Time) ([]models.CostRecord, error)
	CostHistory(ctx context.Context, productID primitive.ObjectID, limit int) ([]models.CostRecord, error)
}

// Input is a new cost snapshot. A nil EffectiveDate means now.
type Input struct {
	ProductID     primitive.ObjectID
	MaterialCost  float64
	LaborCost     float64
	OverheadCost  float64
	OtherCosts    []models.OtherCost
	EffectiveDate *time.Time
}

// Patch holds the fields of an update; nil fields are left as stored.
type Patch struct {
	ProductID     *primitive.ObjectID
	MaterialCost  *float64
	LaborCost     *float64
	OverheadCost  *float64
	OtherCosts    *[]models.OtherCost
	EffectiveDate *time.Time
}

// Service implements the cost operations.
type Service struct {
	products ProductDirectory
	store    Store
	cache    *cache.Cache
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a cost service. reportCache may be nil.
func NewService(products ProductDirectory, store Store, reportCache *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products: products,
		store:    store,
		cache:    reportCache,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates and stores a new snapshot for an active product.
func (s *Service) Create(ctx context.Context, in Input, actor string) (*models.CostRecord, error) {
	if err := s.requireActiveProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &models.CostRecord{
		ProductID:     in.ProductID,
		MaterialCost:  in.MaterialCost,
		LaborCost:     in.LaborCost,
		OverheadCost:  in.OverheadCost,
		OtherCosts:    in.OtherCosts,
		EffectiveDate: now,
		Status:        models.StatusActive,
		CreatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.EffectiveDate != nil {
		rec.EffectiveDate = in.EffectiveDate.UTC()
	}
	if rec.OtherCosts == nil {
		rec.OtherCosts = []models.OtherCost{}
	}
	if err := costing.ValidateCost(rec); err != nil {
		return nil, err
	}
	costing.ComputeTotal(rec)

	if err := s.store.InsertCost(ctx, rec); err != nil {
		return nil, fmt.Errorf("create cost: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("cost created",
		zap.String("id", rec.ID.Hex()),
		zap.String("product_id", rec.ProductID.Hex()),
		zap.Float64("total_cost", rec.TotalCost),
	)
	return rec, nil
}

// Update applies patch to a stored snapshot and recomputes its total.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.CostRecord, error) {
	rec, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.ProductID != nil && *patch.ProductID != rec.ProductID {
		if err := s.requireActiveProduct(ctx, *patch.ProductID); err != nil {
			return nil, err
		}
		rec.ProductID = *patch.ProductID
	}
	if patch.MaterialCost != nil {
		rec.MaterialCost = *patch.MaterialCost
	}
	if patch.LaborCost != nil {
		rec.LaborCost = *patch.LaborCost
	}
	if patch.OverheadCost != nil {
		rec.OverheadCost = *patch.OverheadCost
	}
	if patch.OtherCosts != nil {
		rec.OtherCosts = *patch.OtherCosts
		if rec.OtherCosts == nil {
			rec.OtherCosts = []models.OtherCost{}
		}
	}
	if patch.EffectiveDate != nil {
		rec.EffectiveDate = patch.EffectiveDate.UTC()
	}

	if err := costing.ValidateCost(rec); err != nil {
		return nil, err
	}
	costing.ComputeTotal(rec)
	rec.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateCost(ctx, rec); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, models.NotFound(models.CodeCostNotFound, "cost info not found")
		}
		return nil, fmt.Errorf("update cost: %w", err)
	}
	s.invalidate(ctx)
	return rec, nil
}

// Retire soft-deletes a snapshot. It then no longer takes part in
// comparisons, history or trends.
func (s *Service) Retire(ctx context.Context, id primitive.ObjectID) error {
	rec, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	rec.Status = models.StatusRetired
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateCost(ctx, rec); err != nil {
		return fmt.Errorf("retire cost: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("cost retired", zap.String("id", id.Hex()))
	return nil
}

// Get returns a snapshot with its breakdown and the comparison against the
// previous active snapshot of the same product.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.CostDetail, error) {
	rec, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	prev, err := s.store.FindPreviousCost(ctx, rec.ProductID, rec.ID, rec.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("get cost: %w", err)
	}
	return &models.CostDetail{
		CostInfo:   rec,
		Breakdown:  costing.Breakdown(rec),
		Comparison: costing.Compare(rec, prev),
	}, nil
}

// List returns one page of snapshots.
func (s *Service) List(ctx context.Context, f models.CostFilter) (*models.CostPage, error) {
	f.Page, f.Limit = models.NormalizePage(f.Page, f.Limit)
	if f.SortBy == "" {
		f.SortBy = "effectiveDate"
	}
	if _, ok := sortFields[f.SortBy]; !ok {
		return nil, models.Validation(models.CodeValidation, "sortBy must be one of effectiveDate, totalCost, createdAt, updatedAt")
	}
	if f.SortOrder != models.SortAsc {
		f.SortOrder = models.SortDesc
	}
	if f.Status == "" {
		f.Status = models.StatusActive
	}
	if !f.Status.Valid() {
		return nil, models.Validation(models.CodeValidation, "status must be active or retired")
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return nil, models.Validation(models.CodeValidation, "dateFrom must not be after dateTo")
	}

	recs, total, err := s.store.ListCosts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}
	if recs == nil {
		recs = []models.CostRecord{}
	}
	return &models.CostPage{CostInfos: recs, Pagination: models.NewPagination(f.Page, f.Limit, total)}, nil
}

// History returns the latest active snapshots of a product, newest first.
func (s *Service) History(ctx context.Context, productID primitive.ObjectID, limit int) (*models.CostHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > models.MaxPageSize {
		limit = models.MaxPageSize
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.CostHistory(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("cost history: %w", err)
	}
	if recs == nil {
		recs = []models.CostRecord{}
	}
	return &models.CostHistory{Product: product.Ref(), CostHistory: recs}, nil
}

// Trend returns the monthly cost trend of a product over the last months months.
func (s *Service) Trend(ctx context.Context, productID primitive.ObjectID, months int) (*models.CostTrend, error) {
	if months == 0 {
		months = defaultTrendMonths
	}
	if months < 0 || months > maxTrendMonths {
		return nil, models.Validation(models.CodeValidation, fmt.Sprintf("months must be between 1 and %d", maxTrendMonths))
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}

	key, err := s.cache.Key(ctx, "trend", productID.Hex(), strconv.Itoa(months))
	if err != nil {
		s.logger.Warn("trend cache key", zap.Error(err))
		snap, err := s.buildTrend(ctx, product, months)
		if err != nil {
			return nil, err
		}
		return snap.Trend, nil
	}

	var snap trendSnapshot
	err = s.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (any, error) {
		return s.buildTrend(ctx, product, months)
	})
	if err != nil {
		return nil, fmt.Errorf("cost trend: %w", err)
	}

	now := s.now().UTC()
	start := costing.TrendWindowStart(now, months)
	if snap.staleAt(start) {
		fresh, err := s.buildTrend(ctx, product, months)
		if err != nil {
			return nil, fmt.Errorf("cost trend: %w", err)
		}
		if err := s.cache.StoreJSON(ctx, key, fresh); err != nil {
			s.logger.Warn("trend cache store", zap.Error(err))
		}
		snap = *fresh
	}

	out := snap.Trend
	out.Product = product.Ref()
	out.Period = models.TrendPeriod{Months: months, StartDate: start, EndDate: now}
	return out, nil
}

// trendSnapshot is the cached form of a trend. Oldest is the earliest
// effective date it covers; once the window start passes it the snapshot
// still counts a record that has left the window.
type trendSnapshot struct {
	Trend  *models.CostTrend `json:"trend"`
	Oldest *time.Time        `json:"oldest,omitempty"`
}

func (t *trendSnapshot) staleAt(windowStart time.Time) bool {
	if t.Trend == nil {
		return true
	}
	return t.Oldest != nil && t.Oldest.Before(windowStart)
}

func (s *Service) buildTrend(ctx context.Context, product *models.Product, months int) (*trendSnapshot, error) {
	now := s.now().UTC()
	start := costing.TrendWindowStart(now, months)
	recs, err := s.store.CostsSince(ctx, product.ID, start)
	if err != nil {
		return nil, fmt.Errorf("load trend costs: %w", err)
	}
	snap := &trendSnapshot{Trend: &models.CostTrend{
		Product: product.Ref(),
		Trend:   costing.Trend(recs),
		Period:  models.TrendPeriod{Months: months, StartDate: start, EndDate: now},
	}}
	for i := range recs {
		eff := recs[i].EffectiveDate
		if snap.Oldest == nil || eff.Before(*snap.Oldest) {
			snap.Oldest = &eff
		}
	}
	return snap, nil
}

func (s *Service) find(ctx context.Context, id primitive.ObjectID) (*models.CostRecord, error) {
	rec, err := s.store.FindCost(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, models.NotFound(models.CodeCostNotFound, "cost info not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find cost: %w", err)
	}
	return rec, nil
}

// product loads a product for read-only views; retired products still resolve.
func (s *Service) product(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.products.FindProduct(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, models.NotFound(models.CodeProductNotFound, "product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *Service) requireActiveProduct(ctx context.Context, id primitive.ObjectID) error {
	p, err := s.products.FindProduct(ctx, id)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		return fmt.Errorf("find product: %w", err)
	}
	if !p.IsActive() {
		return models.Reference(models.CodeProductNotFound, "product does not exist or is retired")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump report cache", zap.Error(err))
	}
}
