package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/domain/costing"
	"github.com/mamadbah2/costquote/internal/domain/models"
	"github.com/mamadbah2/costquote/internal/repository/cache"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// Store is the persistence the product directory needs.
type Store interface {
	FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error)
	ProductCategories(ctx context.Context) ([]string, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	UpdateProductStatus(ctx context.Context, id primitive.ObjectID, status models.RecordStatus) error
	PricedProducts(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

// CostLookup finds the newest active cost snapshot of each product.
type CostLookup interface {
	LatestCosts(ctx context.Context, productIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.CostRecord, error)
}

// CreateInput carries the fields of a new product.
type CreateInput struct {
	Name        string
	Code        string
	Category    string
	Description string
	Unit        string
}

// Patch holds the editable fields of a product; nil fields are left as stored.
// The code is immutable once created.
type Patch struct {
	Name        *string
	Category    *string
	Description *string
	Unit        *string
}

// ProductPage is one page of the directory.
type ProductPage struct {
	Products   []models.Product  `json:"products"`
	Pagination models.Pagination `json:"pagination"`
}

// Service manages the product directory.
type Service struct {
	store  Store
	costs  CostLookup
	cache  *cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a product service. reportCache may be nil.
func NewService(store Store, costs CostLookup, reportCache *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, costs: costs, cache: reportCache, logger: logger, now: time.Now}
}

// List returns one page of products. An empty status means active only.
func (s *Service) List(ctx context.Context, f models.ProductFilter) (*ProductPage, error) {
	f.Page, f.Limit = models.NormalizePage(f.Page, f.Limit)
	if f.Status == "" {
		f.Status = models.StatusActive
	}
	if !f.Status.Valid() {
		return nil, models.Validation(models.CodeValidation, "status must be active or retired")
	}
	f.Search = strings.TrimSpace(f.Search)

	items, total, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return &ProductPage{Products: items, Pagination: models.NewPagination(f.Page, f.Limit, total)}, nil
}

// Get loads a product by id, whatever its status.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.store.FindProduct(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, models.NotFound(models.CodeProductNotFound, "product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Categories lists the distinct categories of active products.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.store.ProductCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("product categories: %w", err)
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

// Create registers a new active product. Codes are stored upper-case and must be unique.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Product, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, models.Validation(models.CodeValidation, "name is required")
	case code == "" || len(code) > 50 || !codePattern.MatchString(code):
		return nil, models.Validation(models.CodeValidation, "code must be 1-50 characters of A-Z, 0-9, _ or -")
	case strings.TrimSpace(in.Category) == "":
		return nil, models.Validation(models.CodeValidation, "category is required")
	}

	now := s.now().UTC()
	p := &models.Product{
		Name:        name,
		Code:        code,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Unit:        strings.TrimSpace(in.Unit),
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Unit == "" {
		p.Unit = "pcs"
	}

	if err := s.store.InsertProduct(ctx, p); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, models.Validation(models.CodeDuplicateProduct, fmt.Sprintf("product code %s already exists", code))
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.String("id", p.ID.Hex()), zap.String("code", p.Code))
	return p, nil
}

// Update edits the descriptive fields of a product. Cached reports carry
// product names, so they are invalidated.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if p.Name = strings.TrimSpace(*patch.Name); p.Name == "" {
			return nil, models.Validation(models.CodeValidation, "name is required")
		}
	}
	if patch.Category != nil {
		if p.Category = strings.TrimSpace(*patch.Category); p.Category == "" {
			return nil, models.Validation(models.CodeValidation, "category is required")
		}
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Unit != nil {
		if p.Unit = strings.TrimSpace(*patch.Unit); p.Unit == "" {
			p.Unit = "pcs"
		}
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
	s.logger.Info("product updated", zap.String("id", id.Hex()))
	return p, nil
}

// UpdatePricing replaces the list price block of a product.
func (s *Service) UpdatePricing(ctx context.Context, id primitive.ObjectID, pricing models.ProductPricing) (*models.Product, error) {
	if err := costing.ValidatePricing(pricing); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	pricing.DeliveryTime = strings.TrimSpace(pricing.DeliveryTime)
	p.Pricing = pricing
	p.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product pricing: %w", err)
	}
	s.logger.Info("product pricing updated",
		zap.String("id", id.Hex()),
		zap.Float64("unit_price", pricing.UnitPrice),
		zap.Float64("market_price", pricing.MarketPrice),
	)
	return p, nil
}

// ProfitAnalysis prices every active product with a list price against its
// newest active cost snapshot, highest margin first. A non-empty ids limits
// the listing to those products.
func (s *Service) ProfitAnalysis(ctx context.Context, ids []primitive.ObjectID) ([]models.ProductProfit, error) {
	priced, err := s.store.PricedProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("product profit analysis: %w", err)
	}
	productIDs := make([]primitive.ObjectID, 0, len(priced))
	for _, p := range priced {
		productIDs = append(productIDs, p.ID)
	}
	latest, err := s.costs.LatestCosts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("product profit analysis: %w", err)
	}

	rows := make([]models.ProductProfit, 0, len(priced))
	for i := range priced {
		rows = append(rows, costing.PriceProduct(&priced[i], latest[priced[i].ID]))
	}
	costing.RankProductProfit(rows)
	return rows, nil
}

// Retire soft-deletes a product. Existing costs and quotations keep referring to it.
func (s *Service) Retire(ctx context.Context, id primitive.ObjectID) error {
	err := s.store.UpdateProductStatus(ctx, id, models.StatusRetired)
	if errors.Is(err, models.ErrRecordNotFound) {
		return models.NotFound(models.CodeProductNotFound, "product not found")
	}
	if err != nil {
		return fmt.Errorf("retire product: %w", err)
	}
	s.logger.Info("product retired", zap.String("id", id.Hex()))
	return nil
}
