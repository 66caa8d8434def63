// Package httphandler serves the storefront REST API.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/checkout"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const TotalCountHeader = "X-Total-Count"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// GET v1/products?page&limit&q&category&sort&order (200 OK, 400 Bad request)
// GET v1/products/{id} (200 OK, 404 Not found)
// POST v1/orders JSON order draft (201 Created, 400 Bad request)
// GET v1/users/{id}/orders session required (200 OK, 401 Unauthorized)
// POST v1/login JSON {"email", "password"} (200 OK, 400 Bad request)

type StoreHandler struct {
	ds port.DataSource
}

func RegisterStore(mux *http.ServeMux, ds port.DataSource) {
	h := StoreHandler{ds}
	mux.HandleFunc("POST /v1/login", h.PostLogin)
	mux.HandleFunc("GET /v1/products", h.GetProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /v1/orders", h.PostOrder)
	mux.HandleFunc("GET /v1/users/{id}/orders", h.GetUserOrders)
}

func (h StoreHandler) PostLogin(w http.ResponseWriter, r *http.Request) {
	const op = "StoreHandler.PostLogin"

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.ds.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		logFailure(op, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Session{User: UserFromDomain(s.User), Token: s.Token})
}

func (h StoreHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "StoreHandler.GetProducts"

	q, err := ParseProductQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.ds.ListProducts(r.Context(), q)
	if err != nil {
		logFailure(op, err)
		writeError(w, err)
		return
	}

	vs := make([]Product, len(page.Products))
	for i, p := range page.Products {
		vs[i] = ProductFromDomain(p)
	}
	w.Header().Set(TotalCountHeader, strconv.Itoa(page.TotalCount))
	writeJSON(w, http.StatusOK, vs)
}

func (h StoreHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "StoreHandler.GetProduct"

	p, err := h.ds.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		logFailure(op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductFromDomain(p))
}

// PostOrder files the order under the session user, or under the
// anonymous bucket without a session.
func (h StoreHandler) PostOrder(w http.ResponseWriter, r *http.Request) {
	const op = "StoreHandler.PostOrder"

	var req OrderDraft
	if !decodeJSON(w, r, &req) {
		return
	}

	d := req.ToDomain()
	d.UserID = ""
	if u, ok := UserFromContext(r.Context()); ok {
		d.UserID = u.UserID
	}

	o, err := h.ds.CreateOrder(r.Context(), d)
	if err != nil {
		logFailure(op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, OrderFromDomain(o))
}

func (h StoreHandler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	const op = "StoreHandler.GetUserOrders"

	u, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.PathValue("id") != u.UserID {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "orders of another user"})
		return
	}

	orders, err := h.ds.ListOrdersByUser(r.Context(), u.UserID)
	if err != nil {
		logFailure(op, err)
		writeError(w, err)
		return
	}

	vs := make([]Order, len(orders))
	for i, o := range orders {
		vs[i] = OrderFromDomain(o)
	}
	writeJSON(w, http.StatusOK, vs)
}

// ParseProductQuery reads the catalog query parameters of r.
//
// Absent parameters are left zero.
func ParseProductQuery(r *http.Request) (domain.ProductQuery, error) {
	var (
		q    domain.ProductQuery
		verr domain.ValidationError
		err  error
	)
	values := r.URL.Query()

	if s := values.Get("page"); s != "" {
		if q.Page, err = strconv.Atoi(s); err != nil || q.Page < 1 {
			verr.Add("page", "must be a positive integer")
		}
	}
	if s := values.Get("limit"); s != "" {
		if q.PageSize, err = strconv.Atoi(s); err != nil || q.PageSize < 1 {
			verr.Add("limit", "must be a positive integer")
		}
	}
	q.SearchTerm = values.Get("q")
	if q.Category, err = catalog.ParseCategory(values.Get("category")); err != nil {
		verr.Add("category", "unknown category")
	}
	if q.SortField, err = catalog.ParseSortField(values.Get("sort")); err != nil {
		verr.Add("sort", "unsupported sort field")
	}
	if q.SortOrder, err = catalog.ParseSortOrder(values.Get("order")); err != nil {
		verr.Add("order", "must be asc or desc")
	}

	if err := verr.Err(); err != nil {
		return domain.ProductQuery{}, err
	}
	return q, nil
}

// GET v1/cart, DELETE v1/cart
// POST v1/cart/items JSON {"product_id", "quantity"}
// PUT v1/cart/items/{id} JSON {"quantity"}, DELETE v1/cart/items/{id}
// POST v1/checkout JSON {"shipping"} (201 Created)
// All of them require a session.

type CartHandler struct {
	carts port.SessionCarts
}

func RegisterCart(mux *http.ServeMux, carts port.SessionCarts) {
	h := CartHandler{carts}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("DELETE /v1/cart", h.DeleteCart)
	mux.HandleFunc("POST /v1/cart/items", h.PostItem)
	mux.HandleFunc("PUT /v1/cart/items/{id}", h.PutItem)
	mux.HandleFunc("DELETE /v1/cart/items/{id}", h.DeleteItem)
	mux.HandleFunc("POST /v1/checkout", h.PostCheckout)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	h.respondCart(w, r, op, func(ctx context.Context, userID string) (domain.Cart, error) {
		return h.carts.Cart(ctx, userID)
	})
}

func (h CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteCart"

	u, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.carts.ClearCart(r.Context(), u.UserID); err != nil {
		logFailure(op, err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h CartHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostItem"

	var req CartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	h.respondCart(w, r, op, func(ctx context.Context, userID string) (domain.Cart, error) {
		return h.carts.AddToCart(ctx, userID, req.ProductID, req.Quantity)
	})
}

func (h CartHandler) PutItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PutItem"

	var req QuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.respondCart(w, r, op, func(ctx context.Context, userID string) (domain.Cart, error) {
		return h.carts.UpdateQuantity(ctx, userID, r.PathValue("id"), req.Quantity)
	})
}

func (h CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteItem"
	h.respondCart(w, r, op, func(ctx context.Context, userID string) (domain.Cart, error) {
		return h.carts.RemoveFromCart(ctx, userID, r.PathValue("id"))
	})
}

func (h CartHandler) PostCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostCheckout"

	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.carts.Checkout(r.Context(), u.UserID, domain.ShippingInfo(req.Shipping))
	if err != nil {
		logFailure(op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, OrderFromDomain(o))
}

func (h CartHandler) respondCart(
	w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, userID string) (domain.Cart, error),
) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	c, err := fn(r.Context(), u.UserID)
	if err != nil {
		logFailure(op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CartFromDomain(c))
}

func CartFromDomain(c domain.Cart) Cart {
	totals := checkout.ComputeTotals(c.Lines)
	return Cart{
		Items:     LinesFromDomain(c.Lines),
		ItemCount: cart.ItemCount(c),
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "session required"})
	}
	return u, ok
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	const op = "httphandler.decodeJSON"

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Warn("failed to parse JSON", "op", op, "err", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON data"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "httphandler.writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}

// StatusOf maps the error taxonomy to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	resp := ErrorResponse{Error: http.StatusText(status)}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			resp.Fields = append(resp.Fields, FieldError(f))
		}
	}
	writeJSON(w, status, resp)
}

func logFailure(op string, err error) {
	log := slog.With("op", op)
	if StatusOf(err) >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
		return
	}
	log.Info("request rejected", "err", err)
}
