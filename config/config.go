package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "STOREFRONT"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	CartStorageMemory = "memory"
	CartStorageRedis  = "redis"
	CartStorageNone   = "none"
)

type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

// Enabled reports whether the broker connection is secured.
func (t tlsFiles) Enabled() bool {
	return t.CA != "" || t.Cert != "" || t.Key != ""
}

type topics struct {
	Orders string `mapstructure:"orders"`
}

type consumers struct {
	OrderHistoryGroup string `mapstructure:"order_history_group"`
}

type broker struct {
	Enabled            bool      `mapstructure:"enabled"`
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                tlsFiles  `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	OrderHistoryView   bool      `mapstructure:"order_history_view"`
}

type auth struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type redisConfig struct {
	URL          string        `mapstructure:"url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Storage        string        `mapstructure:"storage"`
	SQLDB          string        `mapstructure:"sql_db"`
	MockLatency    time.Duration `mapstructure:"mock_latency"`
	Auth           auth          `mapstructure:"auth"`
	CartStorage    string        `mapstructure:"cart_storage"`
	CartTTL        time.Duration `mapstructure:"cart_ttl"`
	Redis          redisConfig   `mapstructure:"redis"`
	Broker         broker        `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML config at path. STOREFRONT_ prefixed
// environment variables override the file, e.g. STOREFRONT_AUTH_SECRET.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("request_timeout", 5*time.Second)
	v.SetDefault("storage", StorageMemory)
	v.SetDefault("sql_db", "")
	v.SetDefault("mock_latency", 0)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("cart_storage", CartStorageMemory)
	v.SetDefault("cart_ttl", 7*24*time.Hour)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.read_timeout", time.Second)
	v.SetDefault("redis.write_timeout", time.Second)
	v.SetDefault("redis.dial_timeout", 3*time.Second)
	v.SetDefault("broker.enabled", false)
	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
	v.SetDefault("broker.topics.orders", "orders")
	v.SetDefault("broker.consumers.order_history_group", "order-history")
	v.SetDefault("broker.order_history_view", false)
}

func (c Config) validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.SQLDB == "" {
			errs = append(errs, errors.New("sql_db: required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unknown value %q", c.Storage))
	}

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret: required"))
	}

	switch c.CartStorage {
	case CartStorageMemory, CartStorageNone:
	case CartStorageRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url: required for redis cart storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("cart_storage: unknown value %q", c.CartStorage))
	}

	if c.Broker.Enabled {
		if len(c.Broker.SeedBrokers) == 0 {
			errs = append(errs, errors.New("broker.seed_brokers: required"))
		}
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls: required"))
		}
		if c.Broker.Topics.Orders == "" {
			errs = append(errs, errors.New("broker.topics.orders: required"))
		}
		if c.Broker.Consumers.OrderHistoryGroup == "" {
			errs = append(errs, errors.New("broker.consumers.order_history_group: required"))
		}
	}

	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	RequestTimeout=%s
	Storage=%q
	SQLDB=%q
	MockLatency=%s
	AuthSecret=%q
	TokenTTL=%s

	Carts:
	CartStorage=%q
	CartTTL=%s
	RedisURL=%q

	BrokerConfig:
	Enabled=%t
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	OrderHistoryView=%t
	Topics:
		Orders=%q
	Consumers:
		OrderHistoryGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.RequestTimeout,
		c.Storage,
		redactURL(c.SQLDB),
		c.MockLatency,
		mask(c.Auth.Secret),
		c.Auth.TokenTTL,
		c.CartStorage,
		c.CartTTL,
		redactURL(c.Redis.URL),
		c.Broker.Enabled,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.OrderHistoryView,
		c.Broker.Topics.Orders,
		c.Broker.Consumers.OrderHistoryGroup,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}

// redactURL hides the password of a connection URL.
func redactURL(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return mask(s)
	}
	return u.Redacted()
}
