package httphandler

import (
	"context"
	"net/http"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
)

type cartChangeFn func(
	context.Context, string, domain.CartItemRef,
) (domain.Cart, bool, error)

type CartHandler struct {
	carts port.CartManager
}

func RegisterCart(mux *http.ServeMux, carts port.CartManager, auth Authenticator) {
	h := CartHandler{carts}
	mux.HandleFunc("GET /v1/cart", auth.Require(h.Summary))
	mux.HandleFunc("DELETE /v1/cart", auth.Require(h.Clear))
	mux.HandleFunc("POST /v1/cart/items", auth.Require(h.Add))
	mux.HandleFunc("POST /v1/cart/items/increase", auth.Require(h.Increase))
	mux.HandleFunc("POST /v1/cart/items/decrease", auth.Require(h.Decrease))
	mux.HandleFunc("POST /v1/cart/items/remove", auth.Require(h.Remove))
}

func (h CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Summary"

	c, s, err := h.carts.Summary(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, CartSummaryResponse{
		Cart:    fromCart(c),
		Summary: fromSummary(s),
	})
}

func (h CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Clear"

	c, err := h.carts.ClearCart(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, CartMutationResponse{
		Cart: fromCart(c), Applied: true,
	})
}

func (h CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Add"

	var req AddToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, op, err)
		return
	}

	c, err := h.carts.AddToCart(
		r.Context(),
		userFromContext(r.Context()).ID,
		domain.AddToCart{
			ProductID:        req.ProductID,
			CustomizationIDs: req.CustomizationIDs,
			Quantity:         req.Quantity,
		},
	)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, CartMutationResponse{
		Cart: fromCart(c), Applied: true,
	})
}

func (h CartHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, "CartHandler.Increase", h.carts.IncreaseQty)
}

func (h CartHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, "CartHandler.Decrease", h.carts.DecreaseQty)
}

func (h CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, "CartHandler.Remove", h.carts.RemoveItem)
}

func (h CartHandler) change(
	w http.ResponseWriter, r *http.Request, op string, fn cartChangeFn,
) {
	var req CartItemRefRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, op, err)
		return
	}

	c, applied, err := fn(
		r.Context(),
		userFromContext(r.Context()).ID,
		domain.CartItemRef{
			ProductID:        req.ProductID,
			CustomizationIDs: req.CustomizationIDs,
		},
	)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, CartMutationResponse{
		Cart: fromCart(c), Applied: applied,
	})
}
