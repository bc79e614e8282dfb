package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/retail-pos/internal/cart"
	"github.com/vasiliy-maslov/retail-pos/internal/checkout"
	"github.com/vasiliy-maslov/retail-pos/internal/outcome"
)

type Checkouter interface {
	Checkout(ctx context.Context, c *cart.Cart) (checkout.Result, error)
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// Delta is a pointer so a missing field is rejected while zero is a no-op.
type AdjustQuantityRequest struct {
	Delta *int `json:"delta" validate:"required"`
}

type CustomerRequest struct {
	Name string `json:"name" validate:"max=200"`
}

type CartResponse struct {
	Customer string           `json:"customer"`
	Lines    []cart.Line      `json:"lines"`
	Total    decimal.Decimal  `json:"total"`
	Outcome  *outcome.Outcome `json:"outcome,omitempty"`
}

func cartResponse(c *cart.Cart, o *outcome.Outcome) CartResponse {
	return CartResponse{
		Customer: c.Customer(),
		Lines:    c.Lines(),
		Total:    c.Total(),
		Outcome:  o,
	}
}

type CartHandler struct {
	sessions  *cart.Sessions
	products  cart.StockLookup
	sequencer Checkouter
	notifier  checkout.Notifier
	validate  *validator.Validate
}

// NewCartHandler wires the POS cart endpoints. notifier may be nil.
func NewCartHandler(sessions *cart.Sessions, products cart.StockLookup, sequencer Checkouter, notifier checkout.Notifier) *CartHandler {
	return &CartHandler{
		sessions:  sessions,
		products:  products,
		sequencer: sequencer,
		notifier:  notifier,
		validate:  validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Route("/carts/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.DropCart)
		r.Put("/customer", h.SetCustomer)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{productID}", h.AdjustQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
	})
}

// GetCart never opens a session; an unknown id reads as an empty cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	resp := CartResponse{Lines: []cart.Line{}, Total: decimal.Zero}
	h.sessions.View(chi.URLParam(r, "sessionID"), func(c *cart.Cart) {
		resp = cartResponse(c, nil)
	})
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) DropCart(w http.ResponseWriter, r *http.Request) {
	h.sessions.Drop(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	var resp CartResponse
	h.sessions.Do(chi.URLParam(r, "sessionID"), func(c *cart.Cart) {
		c.SetCustomer(req.Name)
		resp = cartResponse(c, nil)
	})
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p, ok := h.products.Product(uuid.FromStringOrNil(req.ProductID))
	if !ok {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	h.mutate(w, r, func(c *cart.Cart) outcome.Outcome {
		return c.AddItem(p)
	})
}

func (h *CartHandler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	var req AdjustQuantityRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	h.mutate(w, r, func(c *cart.Cart) outcome.Outcome {
		return c.AdjustQuantity(id, *req.Delta)
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	h.mutate(w, r, func(c *cart.Cart) outcome.Outcome {
		return c.RemoveItem(id)
	})
}

// Checkout holds the session lock for the whole sequence so the cart cannot
// change underneath it. A cleared cart releases its session.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var (
		res checkout.Result
		err error
	)
	h.sessions.Do(sessionID, func(c *cart.Cart) {
		res, err = h.sequencer.Checkout(r.Context(), c)
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Checkout did not complete")
		respondWithJSON(w, mapErrorToStatusCode(err), res)
		return
	}

	log.Info().Str("session_id", sessionID).Stringer("order_id", res.OrderID).Msg("Checkout completed")
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(c *cart.Cart) outcome.Outcome) {
	var resp CartResponse
	h.sessions.Do(chi.URLParam(r, "sessionID"), func(c *cart.Cart) {
		o := fn(c)
		resp = cartResponse(c, &o)
	})

	if h.notifier != nil {
		h.notifier.Broadcast(*resp.Outcome)
	}
	respondWithJSON(w, statusForOutcome(*resp.Outcome), resp)
}
