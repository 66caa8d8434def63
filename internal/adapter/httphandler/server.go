package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/niksmo/storefront/internal/core/port"
)

const defaultRequestTimeout = 5 * time.Second

// NewRouter registers the API routes. Cart routes are left out
// when carts is nil.
func NewRouter(
	ds port.DataSource, auth port.Authenticator, carts port.SessionCarts,
) http.Handler {
	mux := http.NewServeMux()
	RegisterStore(mux, ds)
	if carts != nil {
		RegisterCart(mux, carts)
	}

	var handler http.Handler = mux
	handler = Authenticate(auth)(handler)
	handler = AllowJSON(handler)
	handler = LogRequests(handler)
	return handler
}

type HTTPServer struct {
	httpServer *http.Server
}

// NewHTTPServer answers 503 to requests taking longer than requestTimeout.
// Zero requestTimeout means five seconds.
func NewHTTPServer(
	addr string, handler http.Handler, requestTimeout time.Duration,
) HTTPServer {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	handler = http.TimeoutHandler(handler, requestTimeout, `{"error":"Service Unavailable"}`)
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	return HTTPServer{s}
}

func (s HTTPServer) Run(stopFn context.CancelFunc) {
	const op = "HTTPServer.Run"
	log := slog.With("op", op)

	defer stopFn()
	log.Info("listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		log.Error("unexpected servers shutdown", "err", err)
	}
}

func (s HTTPServer) Close(ctx context.Context) {
	const op = "HTTPServer.Close"
	log := slog.With("op", op)

	log.Info("closing http server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		log.Error("failed to shutdown gracefully", "err", err)
	}
	log.Info("http server is closed")
}
