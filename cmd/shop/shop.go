package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/localstore"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/checkout"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/spf13/pflag"
)

type shop struct {
	ds      port.DataSource
	store   *localstore.Store
	session *domain.Session
	stdout  io.Writer
}

func (s *shop) close() {
	s.store.Close()
}

func (s *shop) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		return s.products(ctx, args)
	case "product":
		return s.product(ctx, args)
	case "cart":
		return s.cart(ctx, args)
	case "checkout":
		return s.checkout(ctx, args)
	case "orders":
		return s.orders(ctx)
	case "login":
		return s.login(ctx, args)
	case "logout":
		return s.logout(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

// loadSession restores the session of the last login. A damaged
// session is dropped.
func (s *shop) loadSession(ctx context.Context) {
	const op = "shop.loadSession"
	log := slog.With("op", op)

	data, err := s.store.Load(ctx, localstore.SessionKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("failed to load session", "err", err)
		}
		return
	}

	var v httphandler.Session
	if err := json.Unmarshal(data, &v); err != nil || v.Token == "" {
		log.Warn("stored session is malformed, discarding", "err", err)
		_ = s.store.Delete(ctx, localstore.SessionKey)
		return
	}
	s.session = &domain.Session{User: v.User.ToDomain(), Token: v.Token}
}

func (s *shop) userID() string {
	if s.session == nil {
		return ""
	}
	return s.session.User.UserID
}

func (s *shop) openCart(ctx context.Context) *cart.Store {
	return cart.Open(ctx, s.store, cart.DefaultKey)
}

func (s *shop) products(ctx context.Context, args []string) error {
	const op = "shop.products"

	fs := pflag.NewFlagSet("products", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	page := fs.Int("page", 0, "page number")
	limit := fs.Int("limit", 0, "page size")
	term := fs.String("q", "", "search term")
	category := fs.String("category", "", "category")
	order := fs.String("order", "", "price order, asc or desc")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	var err error
	q := domain.ProductQuery{Page: *page, PageSize: *limit, SearchTerm: *term}
	if q.Category, err = catalog.ParseCategory(*category); err != nil {
		return err
	}
	if q.SortOrder, err = catalog.ParseSortOrder(*order); err != nil {
		return err
	}
	q = catalog.Normalize(q)

	res, err := s.ds.ListProducts(ctx, q)
	if err != nil {
		slog.Warn("failed to list products", "op", op, "err", err)
		res = domain.ProductPage{}
	}

	if len(res.Products) == 0 {
		fmt.Fprintln(s.stdout, "No products found.")
		return nil
	}

	tw := tabwriter.NewWriter(s.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range res.Products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ProductID, p.Name, p.Category, priceLabel(p), stockLabel(p))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(s.stdout, "\npage %d of %d, %d products\n",
		q.Page, res.PageCount(q.PageSize), res.TotalCount)
	return nil
}

func (s *shop) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: product <id>", errUsage)
	}

	p, err := s.ds.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(s.stdout, "%s\n%s\n\n%s\n\nprice:    %s\ncategory: %s\nstock:    %s\n",
		p.Name, p.Image, p.Description, priceLabel(p), p.Category, stockLabel(p))
	return nil
}

func (s *shop) cart(ctx context.Context, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	store := s.openCart(ctx)

	switch sub {
	case "show":
		if len(args) != 0 {
			return fmt.Errorf("%w: cart show", errUsage)
		}
	case "add":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("%w: cart add <id> [n]", errUsage)
		}
		n := 1
		if len(args) == 2 {
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: quantity must be a number", errUsage)
			}
			n = v
		}
		p, err := s.ds.GetProduct(ctx, args[0])
		if err != nil {
			return err
		}
		if _, err := store.AddN(ctx, p, n); err != nil {
			return err
		}
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("%w: cart remove <id>", errUsage)
		}
		if _, err := store.Remove(ctx, args[0]); err != nil {
			return err
		}
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("%w: cart set <id> <qty>", errUsage)
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: quantity must be a number", errUsage)
		}
		if _, err := store.SetQuantity(ctx, args[0], qty); err != nil {
			return err
		}
	case "clear":
		if err := store.Clear(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown cart command %q", errUsage, sub)
	}

	return s.printCart(store.Cart())
}

func (s *shop) printCart(c domain.Cart) error {
	if c.Empty() {
		fmt.Fprintln(s.stdout, "Your cart is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(s.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tAMOUNT")
	for _, l := range c.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			l.Product.ProductID, l.Product.Name, l.Quantity,
			money(l.Product.Price), money(l.Product.Price*float64(l.Quantity)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	t := checkout.ComputeTotals(c.Lines)
	fmt.Fprintf(s.stdout, "\nitems:    %d\nsubtotal: %s\ntax:      %s\ntotal:    %s\n",
		cart.ItemCount(c), money(t.Subtotal), money(t.Tax), money(t.Total))
	return nil
}

func (s *shop) checkout(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("checkout", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var si domain.ShippingInfo
	fs.StringVar(&si.Name, "name", "", "full name")
	fs.StringVar(&si.Email, "email", "", "e-mail, defaults to the session e-mail")
	fs.StringVar(&si.Address, "address", "", "street address")
	fs.StringVar(&si.City, "city", "", "city")
	fs.StringVar(&si.ZipCode, "zip", "", "zip code")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if si.Email == "" && s.session != nil {
		si.Email = s.session.User.Email
	}

	o, err := checkout.Submit(ctx, s.ds, s.openCart(ctx), s.userID(), si)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.stdout, "Order %s placed, total %s.\n", o.OrderID, money(o.Total))
	return nil
}

func (s *shop) orders(ctx context.Context) error {
	const op = "shop.orders"

	if s.session == nil {
		return fmt.Errorf("login required: %w", domain.ErrUnauthorized)
	}

	orders, err := s.ds.ListOrdersByUser(ctx, s.session.User.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		slog.Warn("failed to list orders", "op", op, "err", err)
		orders = nil
	}

	if len(orders) == 0 {
		fmt.Fprintln(s.stdout, "No orders yet.")
		return nil
	}

	tw := tabwriter.NewWriter(s.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tDATE\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			o.OrderID, o.CreatedAt.Local().Format("2006-01-02 15:04"),
			cart.ItemCount(domain.Cart{Lines: o.Lines}), money(o.Total))
	}
	return tw.Flush()
}

func (s *shop) login(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: login <email>", errUsage)
	}

	session, err := s.ds.Login(ctx, fs.Arg(0), *password)
	if err != nil {
		return err
	}

	data, err := json.Marshal(httphandler.Session{
		User:  httphandler.UserFromDomain(session.User),
		Token: session.Token,
	})
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, localstore.SessionKey, data); err != nil {
		return err
	}
	s.session = &session

	fmt.Fprintf(s.stdout, "Logged in as %s <%s>.\n", session.User.Name, session.User.Email)
	return nil
}

func (s *shop) logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, localstore.SessionKey); err != nil {
		return err
	}
	s.session = nil
	fmt.Fprintln(s.stdout, "Logged out.")
	return nil
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func priceLabel(p domain.Product) string {
	if p.OriginalPrice != nil && *p.OriginalPrice > p.Price {
		return fmt.Sprintf("%s (was %s)", money(p.Price), money(*p.OriginalPrice))
	}
	return money(p.Price)
}

func stockLabel(p domain.Product) string {
	if !p.InStock() {
		return "out of stock"
	}
	return strconv.Itoa(p.Stock)
}

// describe renders validation failures field by field.
func describe(err error) string {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) == 0 {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString("invalid input:")
	for _, f := range verr.Fields {
		fmt.Fprintf(&b, "\n  %s: %s", f.Field, f.Message)
	}
	return b.String()
}
