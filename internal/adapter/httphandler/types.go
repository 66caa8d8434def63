package httphandler

import (
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	Product struct {
		ProductID     string   `json:"id"`
		Name          string   `json:"name"`
		Price         float64  `json:"price"`
		Category      string   `json:"category"`
		Image         string   `json:"image"`
		Description   string   `json:"description"`
		Stock         int      `json:"stock"`
		OriginalPrice *float64 `json:"originalPrice,omitempty"`
	}

	CartLine struct {
		Product  Product `json:"product"`
		Quantity int     `json:"quantity"`
	}

	Cart struct {
		Items     []CartLine `json:"items"`
		ItemCount int        `json:"itemCount"`
		Subtotal  float64    `json:"subtotal"`
		Tax       float64    `json:"tax"`
		Total     float64    `json:"total"`
	}

	ShippingInfo struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address string `json:"address"`
		City    string `json:"city"`
		ZipCode string `json:"zipCode"`
	}

	OrderDraft struct {
		UserID   string       `json:"userId"`
		Items    []CartLine   `json:"items"`
		Total    float64      `json:"total"`
		Shipping ShippingInfo `json:"shippingInfo"`
	}

	Order struct {
		OrderID   string       `json:"id"`
		UserID    string       `json:"userId"`
		Items     []CartLine   `json:"items"`
		Total     float64      `json:"total"`
		Shipping  ShippingInfo `json:"shippingInfo"`
		CreatedAt time.Time    `json:"createdAt"`
	}

	User struct {
		UserID string `json:"id"`
		Email  string `json:"email"`
		Name   string `json:"name"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	Session struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}

	CartItemRequest struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}

	QuantityRequest struct {
		Quantity int `json:"quantity"`
	}

	CheckoutRequest struct {
		Shipping ShippingInfo `json:"shipping"`
	}

	FieldError struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}

	ErrorResponse struct {
		Error  string       `json:"error"`
		Fields []FieldError `json:"fields,omitempty"`
	}
)

func ProductFromDomain(p domain.Product) Product {
	return Product{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Price:         p.Price,
		Category:      string(p.Category),
		Image:         p.Image,
		Description:   p.Description,
		Stock:         p.Stock,
		OriginalPrice: p.OriginalPrice,
	}
}

func (p Product) ToDomain() domain.Product {
	return domain.Product{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Price:         p.Price,
		Category:      domain.Category(p.Category),
		Image:         p.Image,
		Description:   p.Description,
		Stock:         p.Stock,
		OriginalPrice: p.OriginalPrice,
	}
}

func LinesFromDomain(ls []domain.CartLine) []CartLine {
	vs := make([]CartLine, len(ls))
	for i, l := range ls {
		vs[i] = CartLine{Product: ProductFromDomain(l.Product), Quantity: l.Quantity}
	}
	return vs
}

func LinesToDomain(vs []CartLine) []domain.CartLine {
	ls := make([]domain.CartLine, len(vs))
	for i, v := range vs {
		ls[i] = domain.CartLine{Product: v.Product.ToDomain(), Quantity: v.Quantity}
	}
	return ls
}

func OrderFromDomain(o domain.Order) Order {
	return Order{
		OrderID:   o.OrderID,
		UserID:    o.UserID,
		Items:     LinesFromDomain(o.Lines),
		Total:     o.Total,
		Shipping:  ShippingInfo(o.Shipping),
		CreatedAt: o.CreatedAt,
	}
}

func (o Order) ToDomain() domain.Order {
	return domain.Order{
		OrderID:   o.OrderID,
		UserID:    o.UserID,
		Lines:     LinesToDomain(o.Items),
		Total:     o.Total,
		Shipping:  domain.ShippingInfo(o.Shipping),
		CreatedAt: o.CreatedAt,
	}
}

func DraftFromDomain(d domain.OrderDraft) OrderDraft {
	return OrderDraft{
		UserID:   d.UserID,
		Items:    LinesFromDomain(d.Lines),
		Total:    d.Total,
		Shipping: ShippingInfo(d.Shipping),
	}
}

func (d OrderDraft) ToDomain() domain.OrderDraft {
	return domain.OrderDraft{
		UserID:   d.UserID,
		Lines:    LinesToDomain(d.Items),
		Total:    d.Total,
		Shipping: domain.ShippingInfo(d.Shipping),
	}
}

func UserFromDomain(u domain.User) User {
	return User(u)
}

func (u User) ToDomain() domain.User {
	return domain.User(u)
}
