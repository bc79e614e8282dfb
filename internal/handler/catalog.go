package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/retail-pos/internal/catalog"
)

type ProductRequest struct {
	CategoryID  string          `json:"category_id" validate:"omitempty,uuid"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	SRPPrice    decimal.Decimal `json:"srp_price"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
}

func (req ProductRequest) toProduct() catalog.Product {
	p := catalog.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		SRPPrice:    req.SRPPrice,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
	}
	if req.CategoryID != "" {
		p.CategoryID = uuid.NullUUID{UUID: uuid.FromStringOrNil(req.CategoryID), Valid: true}
	}
	return p
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type CatalogHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewCatalogHandler(s catalog.Service) *CatalogHandler {
	return &CatalogHandler{
		service:  s,
		validate: validator.New(),
	}
}

func (h *CatalogHandler) RegisterRoutes(router chi.Router) {
	router.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Post("/reload", h.Reload)
		r.Get("/{productID}", h.GetProduct)
		r.Put("/{productID}", h.UpdateProduct)
		r.Delete("/{productID}", h.DeleteProduct)
	})
	router.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Get("/{categoryID}", h.GetCategory)
		r.Put("/{categoryID}", h.UpdateCategory)
		r.Delete("/{categoryID}", h.DeleteCategory)
	})
}

// ListProducts serves a page of the cached catalog, or search results when q
// is set.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if q, ok := query["q"]; ok {
		products, err := h.service.Search(r.Context(), q[0])
		if err != nil {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to search products")
			return
		}
		if products == nil {
			products = []catalog.Product{}
		}
		respondWithJSON(w, http.StatusOK, products)
		return
	}

	page, err := intQuery(query.Get("page"), 1)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid page parameter")
		return
	}
	size, err := intQuery(query.Get("size"), 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid size parameter")
		return
	}

	respondWithJSON(w, http.StatusOK, h.service.Page(page, size))
}

func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reload(r.Context()); err != nil {
		log.Error().Err(err).Msg("Catalog reload failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to reload catalog")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p := req.toProduct()
	if err := h.service.CreateProduct(r.Context(), &p); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p := req.toProduct()
	p.ID = id
	if err := h.service.UpdateProduct(r.Context(), &p); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []catalog.Category{}
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "categoryID")
	if !ok {
		return
	}

	c, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	c := catalog.Category{Name: req.Name, Description: req.Description}
	if err := h.service.CreateCategory(r.Context(), &c); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "categoryID")
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	c := catalog.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := h.service.UpdateCategory(r.Context(), &c); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "categoryID")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intQuery(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
