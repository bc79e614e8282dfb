package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/retail-pos/internal/catalog"
	"github.com/vasiliy-maslov/retail-pos/internal/handler"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Page(page, size int) catalog.Page {
	args := m.Called(page, size)
	return args.Get(0).(catalog.Page)
}

func (m *MockCatalogService) Search(ctx context.Context, term string) ([]catalog.Product, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogService) Reload(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockCatalogService) CreateProduct(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockCatalogService) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogService) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCatalogService) CreateCategory(ctx context.Context, c *catalog.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCatalogService) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func newCatalogRouter(svc catalog.Service) *chi.Mux {
	router := chi.NewRouter()
	handler.NewCatalogHandler(svc).RegisterRoutes(router)
	return router
}

func TestCatalogHandler_ListProducts_Page(t *testing.T) {
	mockService := new(MockCatalogService)
	page := catalog.Page{
		Items:      []catalog.Product{{ID: uuid.Must(uuid.NewV4()), Name: "Mouse", Price: decimal.NewFromInt(25), Quantity: 3}},
		Page:       2,
		Size:       1,
		TotalItems: 2,
		TotalPages: 2,
	}
	mockService.On("Page", 2, 1).Return(page).Once()

	rr := httptest.NewRecorder()
	newCatalogRouter(mockService).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products?page=2&size=1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got catalog.Page
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, 2, got.TotalPages)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Mouse", got.Items[0].Name)
	mockService.AssertExpectations(t)
}

func TestCatalogHandler_ListProducts_InvalidPage(t *testing.T) {
	mockService := new(MockCatalogService)

	rr := httptest.NewRecorder()
	newCatalogRouter(mockService).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products?page=abc", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "Page", mock.Anything, mock.Anything)
}

func TestCatalogHandler_ListProducts_Search(t *testing.T) {
	mockService := new(MockCatalogService)
	mockService.On("Search", mock.Anything, "mou").Return(nil, nil).Once()

	rr := httptest.NewRecorder()
	newCatalogRouter(mockService).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products?q=mou", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	mockService.AssertExpectations(t)
}

func TestCatalogHandler_CreateProduct(t *testing.T) {
	categoryID := uuid.Must(uuid.NewV4())
	body := `{"category_id":"` + categoryID.String() + `","name":"Keyboard","price":"45.50","srp_price":"50","quantity":10}`

	mockService := new(MockCatalogService)
	mockService.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p *catalog.Product) bool {
		return p.Name == "Keyboard" &&
			p.Price.Equal(decimal.RequireFromString("45.50")) &&
			p.CategoryID.Valid && p.CategoryID.UUID == categoryID &&
			p.Quantity == 10
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*catalog.Product).ID = uuid.Must(uuid.NewV4())
	}).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	newCatalogRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var got catalog.Product
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "Keyboard", got.Name)
	mockService.AssertExpectations(t)
}

func TestCatalogHandler_CreateProduct_ValidationError(t *testing.T) {
	mockService := new(MockCatalogService)

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(`{"category_id":"nope","quantity":-1}`))
	rr := httptest.NewRecorder()
	newCatalogRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp handler.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, resp.Details, "name")
	assert.Contains(t, resp.Details, "categoryid")
	assert.Contains(t, resp.Details, "quantity")
	mockService.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestCatalogHandler_CreateProduct_UnknownCategory(t *testing.T) {
	mockService := new(MockCatalogService)
	mockService.On("CreateProduct", mock.Anything, mock.AnythingOfType("*catalog.Product")).
		Return(catalog.ErrCategoryNotFound).Once()

	body := `{"category_id":"` + uuid.Must(uuid.NewV4()).String() + `","name":"Keyboard","price":"45.50","quantity":1}`
	rr := httptest.NewRecorder()
	newCatalogRouter(mockService).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusNotFound, rr.Code)
	mockService.AssertExpectations(t)
}

func TestCatalogHandler_GetProduct(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	tests := []struct {
		name           string
		path           string
		setup          func(m *MockCatalogService)
		expectedStatus int
	}{
		{
			name: "found",
			path: "/products/" + id.String(),
			setup: func(m *MockCatalogService) {
				m.On("GetProduct", mock.Anything, id).Return(&catalog.Product{ID: id, Name: "Mouse"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/products/" + id.String(),
			setup: func(m *MockCatalogService) {
				m.On("GetProduct", mock.Anything, id).Return(nil, catalog.ErrProductNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed id",
			path:           "/products/not-a-uuid",
			setup:          func(m *MockCatalogService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCatalogService)
			tt.setup(mockService)

			rr := httptest.NewRecorder()
			newCatalogRouter(mockService).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestCatalogHandler_DeleteCategory(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	mockService := new(MockCatalogService)
	mockService.On("DeleteCategory", mock.Anything, id).Return(nil).Once()

	rr := httptest.NewRecorder()
	newCatalogRouter(mockService).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/categories/"+id.String(), nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	mockService.AssertExpectations(t)
}

func TestCatalogHandler_CreateCategory_UnknownField(t *testing.T) {
	mockService := new(MockCatalogService)

	rr := httptest.NewRecorder()
	newCatalogRouter(mockService).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/categories", bytes.NewBufferString(`{"name":"Peripherals","colour":"red"}`)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var errorResponse map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
	assert.Contains(t, errorResponse["error"], "Invalid request payload")
}
