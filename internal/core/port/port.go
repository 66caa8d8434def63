package port

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// A DataSource is the data-access interface of the storefront.
//
// Implemented by the core service, and by the HTTP client of it.
type DataSource interface {
	ProductsLister
	ProductGetter
	OrderCreator
	OrdersLister
	LoginProvider
}

type ProductsLister interface {
	ListProducts(context.Context, domain.ProductQuery) (domain.ProductPage, error)
}

type ProductGetter interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

type OrderCreator interface {
	CreateOrder(context.Context, domain.OrderDraft) (domain.Order, error)
}

type OrdersLister interface {
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type LoginProvider interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

// A SessionCarts manages carts of authenticated sessions.
type SessionCarts interface {
	Cart(ctx context.Context, userID string) (domain.Cart, error)
	AddToCart(ctx context.Context, userID, productID string, n int) (domain.Cart, error)
	RemoveFromCart(ctx context.Context, userID, productID string) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID string, qty int) (domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
	Checkout(ctx context.Context, userID string, si domain.ShippingInfo) (domain.Order, error)
}

type ProductsStorage interface {
	ReadProducts(context.Context, domain.ProductQuery) (domain.ProductPage, error)
	ReadProduct(ctx context.Context, productID string) (domain.Product, error)
}

type OrdersSaver interface {
	StoreOrder(context.Context, domain.Order) error
}

type OrdersReader interface {
	ReadOrders(ctx context.Context, userID string) ([]domain.Order, error)
}

type OrdersStorage interface {
	OrdersSaver
	OrdersReader
}

// A CartStorage is a durable key-value storage for serialized carts.
//
// Load returns [domain.ErrNotFound] for an absent key.
type CartStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type OrderEventsProducer interface {
	ProduceOrder(context.Context, domain.Order) error
}

type TokenIssuer interface {
	Issue(domain.User) (string, error)
	Verify(token string) (domain.User, error)
}

type OrderHistoryProcessor interface {
	runnerContextWg
	closer
}
