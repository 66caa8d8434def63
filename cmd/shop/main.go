// Command shop is the terminal client of the storefront.
//
//	shop [--api URL | --offline] [--data-dir DIR] <command> [args]
//
// The cart and the session are kept in a LevelDB store under the data dir.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/niksmo/storefront/internal/adapter/httpclient"
	"github.com/niksmo/storefront/internal/adapter/localstore"
	"github.com/niksmo/storefront/internal/adapter/memory"
	"github.com/niksmo/storefront/internal/adapter/token"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/spf13/pflag"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitSetup = 2

	apiEnvName    = "STOREFRONT_API"
	offlineSecret = "storefront-offline"
)

var errUsage = errors.New("usage")

const usage = `usage: shop [flags] <command> [args]

commands:
  products [--page N] [--limit N] [--q TERM] [--category C] [--order asc|desc]
  product <id>
  cart [show | add <id> [n] | remove <id> | set <id> <qty> | clear]
  checkout --name N --email E --address A --city C --zip Z
  orders
  login <email> [--password P]
  logout

flags:
`

func main() {
	ctx, cancel := sigctx.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

type options struct {
	api      string
	offline  bool
	dataDir  string
	logLevel string
	timeout  time.Duration
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("shop", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)

	var opts options
	fs.StringVar(&opts.api, "api", envOr(apiEnvName, "http://localhost:8080"), "storefront API URL")
	fs.BoolVar(&opts.offline, "offline", false, "use the built-in catalog instead of the API")
	fs.StringVar(&opts.dataDir, "data-dir", defaultDataDir(), "local cart and session directory")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitSetup
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitSetup
	}

	if err := initLogger(stderr, opts.logLevel); err != nil {
		fmt.Fprintln(stderr, err)
		return exitSetup
	}

	s, err := openShop(ctx, opts, stdout)
	if err != nil {
		fmt.Fprintln(stderr, "shop:", err)
		return exitSetup
	}
	defer s.close()

	err = s.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return exitSetup
	default:
		fmt.Fprintln(stderr, "shop:", describe(err))
		return exitFail
	}
}

func initLogger(w io.Writer, level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: l}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, opts)))
	return nil
}

func openShop(ctx context.Context, opts options, stdout io.Writer) (*shop, error) {
	store, err := localstore.Open(opts.dataDir)
	if err != nil {
		return nil, err
	}

	s := &shop{store: store, stdout: stdout}
	s.loadSession(ctx)

	if opts.offline {
		tokens, err := token.NewIssuer(offlineSecret, 0)
		if err != nil {
			store.Close()
			return nil, err
		}
		s.ds = service.New(
			memory.NewProductsStorage(memory.SeedProducts(), 0),
			memory.NewOrdersStorage(0),
			tokens,
		)
		return s, nil
	}

	clientOpts := []httpclient.Opt{
		httpclient.WithRetry(3, retry.ExponentialBackoff(200*time.Millisecond)),
	}
	if opts.timeout > 0 {
		clientOpts = append(clientOpts, httpclient.WithTimeout(opts.timeout))
	}
	if s.session != nil {
		clientOpts = append(clientOpts, httpclient.WithToken(s.session.Token))
	}

	client, err := httpclient.New(opts.api, clientOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	s.ds = client
	return s, nil
}

func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(dir, "storefront")
}
