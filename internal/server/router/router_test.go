package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/costquote/internal/domain/models"
	"github.com/mamadbah2/costquote/internal/server/handlers"
	"github.com/mamadbah2/costquote/internal/service/products"
)

type stubProducts struct {
	calls int
	last  string
}

func (s *stubProducts) List(context.Context, models.ProductFilter) (*products.ProductPage, error) {
	s.calls++
	return &products.ProductPage{Products: []models.Product{}}, nil
}

func (s *stubProducts) Get(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.calls++
	return &models.Product{ID: id}, nil
}

func (s *stubProducts) Categories(context.Context) ([]string, error) {
	s.calls++
	return []string{}, nil
}

func (s *stubProducts) Create(context.Context, products.CreateInput) (*models.Product, error) {
	s.calls++
	return &models.Product{}, nil
}

func (s *stubProducts) Update(_ context.Context, id primitive.ObjectID, _ products.Patch) (*models.Product, error) {
	s.calls++
	s.last = "update"
	return &models.Product{ID: id}, nil
}

func (s *stubProducts) UpdatePricing(_ context.Context, id primitive.ObjectID, _ models.ProductPricing) (*models.Product, error) {
	s.calls++
	s.last = "pricing"
	return &models.Product{ID: id}, nil
}

func (s *stubProducts) ProfitAnalysis(context.Context, []primitive.ObjectID) ([]models.ProductProfit, error) {
	s.calls++
	s.last = "profit"
	return []models.ProductProfit{}, nil
}

func (s *stubProducts) Retire(context.Context, primitive.ObjectID) error {
	s.calls++
	return nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestRouter(apiKey string) (*stubProducts, http.Handler) {
	stub := &stubProducts{}
	engine := New(Handlers{
		Products:   handlers.NewProductHandler(stub, nil),
		Costs:      handlers.NewCostHandler(nil, nil),
		Quotations: handlers.NewQuotationHandler(nil, nil),
		Health:     handlers.NewHealthHandler(okPinger{}, nil),
	}, apiKey, nil)
	return stub, engine
}

func do(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPIKeyGuard(t *testing.T) {
	stub, h := newTestRouter("secret")

	w := do(h, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var env handlers.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "UNAUTHORIZED", env.Error)
	assert.Zero(t, stub.calls)

	w = do(h, http.MethodGet, "/api/products", map[string]string{apiKeyHeader: "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.calls)
}

func TestHealthIsOpen(t *testing.T) {
	_, h := newTestRouter("secret")
	w := do(h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStaticRoutesWinOverIDs(t *testing.T) {
	stub, h := newTestRouter("")
	w := do(h, http.MethodGet, "/api/products/categories", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.calls)

	w = do(h, http.MethodGet, "/api/products/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, stub.calls)

	w = do(h, http.MethodGet, "/api/products/profit-analysis", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "profit", stub.last)
}

func TestProductPricingRoute(t *testing.T) {
	stub, h := newTestRouter("")
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+primitive.NewObjectID().Hex()+"/pricing",
		strings.NewReader(`{"unitPrice": 10}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pricing", stub.last)
}

func TestRequestID(t *testing.T) {
	_, h := newTestRouter("")

	w := do(h, http.MethodGet, "/healthz", nil)
	_, err := uuid.Parse(w.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	given := uuid.NewString()
	w = do(h, http.MethodGet, "/healthz", map[string]string{requestIDHeader: given})
	assert.Equal(t, given, w.Header().Get(requestIDHeader))

	w = do(h, http.MethodGet, "/healthz", map[string]string{requestIDHeader: "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(requestIDHeader))
}

func TestUnknownRoute(t *testing.T) {
	_, h := newTestRouter("")
	w := do(h, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var env handlers.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "NOT_FOUND", env.Error)
}
