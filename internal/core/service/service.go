package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/checkout"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.DataSource = (*Service)(nil)
var _ port.Authenticator = (*Service)(nil)
var _ port.SessionCarts = (*Service)(nil)

// userNamespace derives stable user ids from e-mail addresses.
var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("storefront/users"))

type Opt func(*Service)

// WithOrdersReader replaces the orders storage as the source of order history.
func WithOrdersReader(r port.OrdersReader) Opt {
	return func(s *Service) {
		if r != nil {
			s.ordersReader = r
		}
	}
}

func WithOrderEvents(p port.OrderEventsProducer) Opt {
	return func(s *Service) {
		s.orderEvents = p
	}
}

func WithCarts(c *cart.Carts) Opt {
	return func(s *Service) {
		s.carts = c
	}
}

func WithClock(now func() time.Time) Opt {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Opt {
	return func(s *Service) {
		s.newID = newID
	}
}

type Service struct {
	products     port.ProductsStorage
	ordersSaver  port.OrdersSaver
	ordersReader port.OrdersReader
	orderEvents  port.OrderEventsProducer
	tokens       port.TokenIssuer
	carts        *cart.Carts
	now          func() time.Time
	newID        func() string
}

func New(
	products port.ProductsStorage,
	orders port.OrdersStorage,
	tokens port.TokenIssuer,
	opts ...Opt,
) *Service {
	s := &Service{
		products:     products,
		ordersSaver:  orders,
		ordersReader: orders,
		tokens:       tokens,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListProducts(
	ctx context.Context, q domain.ProductQuery,
) (domain.ProductPage, error) {
	const op = "Service.ListProducts"

	if err := ctx.Err(); err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
	}

	page, err := s.products.ReadProducts(ctx, catalog.Normalize(q))
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
	}
	return page, nil
}

func (s *Service) GetProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "Service.GetProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if productID == "" {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	p, err := s.products.ReadProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CreateOrder assigns an id and a creation time to the draft and
// appends the order to the user order history.
func (s *Service) CreateOrder(
	ctx context.Context, d domain.OrderDraft,
) (domain.Order, error) {
	const op = "Service.CreateOrder"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := checkout.ValidateDraft(d); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	order := domain.Order{
		OrderID:   s.newID(),
		UserID:    userBucket(d.UserID),
		Lines:     d.Lines,
		Total:     d.Total,
		Shipping:  checkout.NormalizeShipping(d.Shipping),
		CreatedAt: s.now().UTC(),
	}

	if err := s.ordersSaver.StoreOrder(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.orderEvents != nil {
		if err := s.orderEvents.ProduceOrder(ctx, order); err != nil {
			log.Error("failed to produce order event",
				"orderID", order.OrderID, "err", err)
		}
	}

	log.Info("order created",
		"orderID", order.OrderID, "userID", order.UserID, "total", order.Total)
	return order, nil
}

func (s *Service) ListOrdersByUser(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	const op = "Service.ListOrdersByUser"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := s.ordersReader.ReadOrders(ctx, userBucket(userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// Login starts a session for any non-empty e-mail.
//
// The password is not verified.
func (s *Service) Login(
	ctx context.Context, email, _ string,
) (domain.Session, error) {
	const op = "Service.Login"

	if err := ctx.Err(); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	email = strings.TrimSpace(email)
	if email == "" {
		var verr domain.ValidationError
		verr.Add("email", "is required")
		return domain.Session{}, fmt.Errorf("%s: %w", op, &verr)
	}

	user := domain.User{
		UserID: UserID(email),
		Email:  email,
		Name:   displayName(email),
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("session started", "op", op, "userID", user.UserID)
	return domain.Session{User: user, Token: token}, nil
}

func (s *Service) Authenticate(
	ctx context.Context, token string,
) (domain.User, error) {
	const op = "Service.Authenticate"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if token == "" {
		return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	user, err := s.tokens.Verify(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w: %w", op, domain.ErrUnauthorized, err)
	}
	return user, nil
}

// UserID returns the stable user id of the e-mail address.
func UserID(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(userNamespace, []byte(email)).String()
}

func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}

func userBucket(userID string) string {
	if userID == "" {
		return domain.AnonymousUserID
	}
	return userID
}
