// Package quotations prices products against cost snapshots and reports on
// the resulting margins.
package quotations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/domain/costing"
	"github.com/mamadbah2/costquote/internal/domain/models"
	"github.com/mamadbah2/costquote/internal/repository/cache"
)

const (
	// DefaultExpiringDays is the look-ahead window of Expiring when none is given.
	DefaultExpiringDays = 7
	maxExpiringDays     = 365
	maxNotesLength      = 500
	reportDateLayout    = "20060102T150405"
)

var sortFields = map[string]struct{}{
	"createdAt":    {},
	"validUntil":   {},
	"sellingPrice": {},
	"profitMargin": {},
}

// ProductDirectory resolves product references.
type ProductDirectory interface {
	FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
}

// CostLookup resolves cost snapshot references.
type CostLookup interface {
	FindCost(ctx context.Context, id primitive.ObjectID) (*models.CostRecord, error)
	FindCostsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.CostRecord, error)
}

// Store persists quotations.
type Store interface {
	InsertQuotation(ctx context.Context, q *models.Quotation) error
	UpdateQuotation(ctx context.Context, q *models.Quotation) error
	FindQuotation(ctx context.Context, id primitive.ObjectID) (*models.Quotation, error)
	ListQuotations(ctx context.Context, f models.QuotationFilter) ([]models.Quotation, int64, error)
	ExpiringQuotations(ctx context.Context, from, to time.Time) ([]models.Quotation, error)
	ValidQuotations(ctx context.Context, now time.Time, createdFrom, createdTo *time.Time) ([]models.Quotation, error)
}

// Input is a new quotation.
type Input struct {
	ProductID    primitive.ObjectID
	CostInfoID   primitive.ObjectID
	SellingPrice float64
	CustomerType models.CustomerType
	ValidUntil   time.Time
	Notes        string
}

// Patch holds the fields of an update; nil fields are left as stored.
type Patch struct {
	ProductID    *primitive.ObjectID
	CostInfoID   *primitive.ObjectID
	SellingPrice *float64
	CustomerType *models.CustomerType
	ValidUntil   *time.Time
	Notes        *string
}

// Service implements the quotation operations.
type Service struct {
	products ProductDirectory
	costs    CostLookup
	store    Store
	cache    *cache.Cache
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a quotation service. reportCache may be nil.
func NewService(products ProductDirectory, costs CostLookup, store Store, reportCache *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products: products,
		costs:    costs,
		store:    store,
		cache:    reportCache,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates the references and prices a new quotation against its cost snapshot.
func (s *Service) Create(ctx context.Context, in Input, actor string) (*models.Quotation, error) {
	cost, err := s.resolveReferences(ctx, in.ProductID, in.CostInfoID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if !in.ValidUntil.After(now) {
		return nil, models.Validation(models.CodeInvalidValidUntil, "validUntil must be in the future")
	}
	if err := validateFields(in.SellingPrice, in.CustomerType, in.Notes); err != nil {
		return nil, err
	}

	q := &models.Quotation{
		ProductID:    in.ProductID,
		CostInfoID:   in.CostInfoID,
		SellingPrice: in.SellingPrice,
		CustomerType: in.CustomerType,
		ValidUntil:   in.ValidUntil.UTC(),
		Notes:        strings.TrimSpace(in.Notes),
		Status:       models.StatusActive,
		CreatedBy:    actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	costing.ComputeProfit(q, cost)

	if err := s.store.InsertQuotation(ctx, q); err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("quotation created",
		zap.String("id", q.ID.Hex()),
		zap.String("product_id", q.ProductID.Hex()),
		zap.Float64("profit_margin", q.ProfitMargin),
	)
	return q, nil
}

// Update applies patch to a stored quotation. References are re-checked when
// either changes and profit is recomputed when the price or cost changes.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.Quotation, error) {
	q, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	refsChanged := (patch.ProductID != nil && *patch.ProductID != q.ProductID) ||
		(patch.CostInfoID != nil && *patch.CostInfoID != q.CostInfoID)
	priceChanged := patch.SellingPrice != nil && *patch.SellingPrice != q.SellingPrice

	if patch.ProductID != nil {
		q.ProductID = *patch.ProductID
	}
	if patch.CostInfoID != nil {
		q.CostInfoID = *patch.CostInfoID
	}
	if patch.SellingPrice != nil {
		q.SellingPrice = *patch.SellingPrice
	}
	if patch.CustomerType != nil {
		q.CustomerType = *patch.CustomerType
	}
	if patch.Notes != nil {
		q.Notes = strings.TrimSpace(*patch.Notes)
	}
	now := s.now().UTC()
	if patch.ValidUntil != nil {
		if !patch.ValidUntil.After(now) {
			return nil, models.Validation(models.CodeInvalidValidUntil, "validUntil must be in the future")
		}
		q.ValidUntil = patch.ValidUntil.UTC()
	}
	if err := validateFields(q.SellingPrice, q.CustomerType, q.Notes); err != nil {
		return nil, err
	}

	if refsChanged || priceChanged {
		var cost *models.CostRecord
		if refsChanged {
			cost, err = s.resolveReferences(ctx, q.ProductID, q.CostInfoID)
		} else {
			cost, err = s.costs.FindCost(ctx, q.CostInfoID)
			if errors.Is(err, models.ErrRecordNotFound) {
				err = models.Reference(models.CodeCostInfoNotFound, "cost info does not exist")
			}
		}
		if err != nil {
			return nil, err
		}
		costing.ComputeProfit(q, cost)
	}
	q.UpdatedAt = now

	if err := s.store.UpdateQuotation(ctx, q); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, models.NotFound(models.CodeQuotationNotFound, "quotation not found")
		}
		return nil, fmt.Errorf("update quotation: %w", err)
	}
	s.invalidate(ctx)
	return q, nil
}

// Retire soft-deletes a quotation.
func (s *Service) Retire(ctx context.Context, id primitive.ObjectID) error {
	q, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	q.Status = models.StatusRetired
	q.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateQuotation(ctx, q); err != nil {
		return fmt.Errorf("retire quotation: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("quotation retired", zap.String("id", id.Hex()))
	return nil
}

// Get returns a quotation with its product, cost snapshot and derived state.
// References that no longer resolve are returned as nil.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.QuotationDetail, error) {
	q, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindProduct(ctx, q.ProductID)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		return nil, fmt.Errorf("get quotation product: %w", err)
	}
	cost, err := s.costs.FindCost(ctx, q.CostInfoID)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		return nil, fmt.Errorf("get quotation cost: %w", err)
	}

	now := s.now().UTC()
	return &models.QuotationDetail{
		Quotation:   q,
		Product:     product,
		CostInfo:    cost,
		ProfitLevel: costing.ClassifyProfitLevel(q.ProfitMargin),
		Status:      costing.QuotationStatusAt(q, now),
		IsValid:     q.IsValidAt(now),
	}, nil
}

// List returns one page of active quotations.
func (s *Service) List(ctx context.Context, f models.QuotationFilter) (*models.QuotationPage, error) {
	f.Page, f.Limit = models.NormalizePage(f.Page, f.Limit)
	if f.SortBy == "" {
		f.SortBy = "createdAt"
	}
	if _, ok := sortFields[f.SortBy]; !ok {
		return nil, models.Validation(models.CodeValidation, "sortBy must be one of createdAt, validUntil, sellingPrice, profitMargin")
	}
	if f.SortOrder != models.SortAsc {
		f.SortOrder = models.SortDesc
	}
	if !f.CustomerType.Valid() {
		return nil, models.Validation(models.CodeValidation, "unknown customerType")
	}
	f.Now = s.now().UTC()

	qs, total, err := s.store.ListQuotations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}
	if qs == nil {
		qs = []models.Quotation{}
	}
	return &models.QuotationPage{Quotations: qs, Pagination: models.NewPagination(f.Page, f.Limit, total)}, nil
}

// ExtendValidity pushes the expiry of a quotation by days calendar days.
func (s *Service) ExtendValidity(ctx context.Context, id primitive.ObjectID, days int) (*models.Quotation, error) {
	q, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := costing.ExtendValidity(q, days); err != nil {
		return nil, err
	}
	q.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateQuotation(ctx, q); err != nil {
		return nil, fmt.Errorf("extend quotation: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("quotation extended", zap.String("id", id.Hex()), zap.Int("days", days), zap.Time("valid_until", q.ValidUntil))
	return q, nil
}

// Expiring lists active quotations whose validity ends within the next days days.
func (s *Service) Expiring(ctx context.Context, days int) (*models.ExpiringQuotations, error) {
	if days == 0 {
		days = DefaultExpiringDays
	}
	if days < 0 || days > maxExpiringDays {
		return nil, models.Validation(models.CodeInvalidDays, fmt.Sprintf("days must be between 1 and %d", maxExpiringDays))
	}

	now := s.now().UTC()
	qs, err := s.store.ExpiringQuotations(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("expiring quotations: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ProductID)
	}
	products, err := s.products.FindProductsByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("expiring quotations products: %w", err)
	}

	out := make([]models.ExpiringQuotation, 0, len(qs))
	for _, q := range qs {
		item := models.ExpiringQuotation{Quotation: q, State: costing.QuotationStatusAt(&q, now)}
		if p, ok := products[q.ProductID]; ok {
			item.ProductName = p.Name
			item.ProductCode = p.Code
		}
		out = append(out, item)
	}
	return &models.ExpiringQuotations{Quotations: out, ExpiringInDays: days}, nil
}

// ProfitAnalysis aggregates the currently valid quotations per product,
// optionally limited to those created within [from, to].
func (s *Service) ProfitAnalysis(ctx context.Context, from, to *time.Time) (*models.ProfitAnalysisReport, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, models.Validation(models.CodeValidation, "startDate must not be after endDate")
	}

	key, err := s.cache.Key(ctx, "profit", formatBound(from), formatBound(to))
	if err != nil {
		s.logger.Warn("profit cache key", zap.Error(err))
		snap, err := s.buildProfitAnalysis(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return snap.Report, nil
	}

	var snap profitSnapshot
	err = s.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (any, error) {
		return s.buildProfitAnalysis(ctx, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("profit analysis: %w", err)
	}
	if snap.staleAt(s.now().UTC()) {
		fresh, err := s.buildProfitAnalysis(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("profit analysis: %w", err)
		}
		if err := s.cache.StoreJSON(ctx, key, fresh); err != nil {
			s.logger.Warn("profit cache store", zap.Error(err))
		}
		snap = *fresh
	}
	return snap.Report, nil
}

// profitSnapshot is the cached form of a profit report. ExpiresAt is the
// earliest validUntil among the quotations it counts; past that instant at
// least one of them is no longer valid.
type profitSnapshot struct {
	Report    *models.ProfitAnalysisReport `json:"report"`
	ExpiresAt *time.Time                   `json:"expiresAt,omitempty"`
}

func (p *profitSnapshot) staleAt(now time.Time) bool {
	if p.Report == nil {
		return true
	}
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

func (s *Service) buildProfitAnalysis(ctx context.Context, from, to *time.Time) (*profitSnapshot, error) {
	now := s.now().UTC()
	qs, err := s.store.ValidQuotations(ctx, now, from, to)
	if err != nil {
		return nil, fmt.Errorf("load valid quotations: %w", err)
	}

	productIDs := make([]primitive.ObjectID, 0, len(qs))
	costIDs := make([]primitive.ObjectID, 0, len(qs))
	var expiresAt *time.Time
	for i := range qs {
		productIDs = append(productIDs, qs[i].ProductID)
		costIDs = append(costIDs, qs[i].CostInfoID)
		if until := qs[i].ValidUntil; expiresAt == nil || until.Before(*expiresAt) {
			expiresAt = &until
		}
	}
	products, err := s.products.FindProductsByIDs(ctx, uniqueIDs(productIDs))
	if err != nil {
		return nil, fmt.Errorf("load analysis products: %w", err)
	}
	costs, err := s.costs.FindCostsByIDs(ctx, uniqueIDs(costIDs))
	if err != nil {
		return nil, fmt.Errorf("load analysis costs: %w", err)
	}

	entries := make([]models.ProfitEntry, 0, len(qs))
	for _, q := range qs {
		entries = append(entries, models.ProfitEntry{
			Quotation: q,
			Product:   products[q.ProductID],
			Cost:      costs[q.CostInfoID],
		})
	}
	rows := costing.AggregateProfit(entries)
	return &profitSnapshot{
		Report: &models.ProfitAnalysisReport{
			Analysis: rows,
			Summary:  costing.SummarizeProfit(rows),
			Period:   models.ReportPeriod{From: from, To: to},
		},
		ExpiresAt: expiresAt,
	}, nil
}

// resolveReferences checks that the product and the cost snapshot are active
// and belong together, and returns the snapshot.
func (s *Service) resolveReferences(ctx context.Context, productID, costID primitive.ObjectID) (*models.CostRecord, error) {
	product, err := s.products.FindProduct(ctx, productID)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if !product.IsActive() {
		return nil, models.Reference(models.CodeProductNotFound, "product does not exist or is retired")
	}

	cost, err := s.costs.FindCost(ctx, costID)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		return nil, fmt.Errorf("find cost: %w", err)
	}
	if !cost.IsActive() {
		return nil, models.Reference(models.CodeCostInfoNotFound, "cost info does not exist or is retired")
	}
	if cost.ProductID != productID {
		return nil, models.Reference(models.CodeCostProductMismatch, "cost info does not belong to the product")
	}
	return cost, nil
}

func (s *Service) find(ctx context.Context, id primitive.ObjectID) (*models.Quotation, error) {
	q, err := s.store.FindQuotation(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, models.NotFound(models.CodeQuotationNotFound, "quotation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find quotation: %w", err)
	}
	return q, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump report cache", zap.Error(err))
	}
}

func validateFields(price float64, customerType models.CustomerType, notes string) error {
	if err := costing.ValidateSellingPrice(price); err != nil {
		return err
	}
	if !customerType.Valid() {
		return models.Validation(models.CodeValidation, fmt.Sprintf("unknown customerType %q", customerType))
	}
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return models.Validation(models.CodeValidation, "notes must be at most 500 characters")
	}
	return nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(reportDateLayout)
}
