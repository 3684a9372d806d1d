package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "FOODEX_CONFIG_FILE"
	envPrefix         = "FOODEX"
)

type consumers struct {
	CartSnapshotsGroup string `mapstructure:"cart_snapshots_group"`
	PopularityGroup    string `mapstructure:"popularity_group"`
}

type topics struct {
	CartEvents string `mapstructure:"cart_events"`
}

// A tlsFiles holds paths to PEM files for mutual TLS with brokers,
// empty CA means plaintext.
type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t tlsFiles) Enabled() bool {
	return t.CA != ""
}

type Broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	TLS                tlsFiles  `mapstructure:"tls"`
}

// Enabled reports whether cart events are streamed to brokers.
func (b Broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type httpServer struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type pricing struct {
	DeliveryFee decimal.Decimal `mapstructure:"delivery_fee"`
	Discount    decimal.Decimal `mapstructure:"discount"`
}

type carts struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type Config struct {
	LogLevel      slog.Level `mapstructure:"log_level"`
	HTTPServer    httpServer `mapstructure:"http_server"`
	SQLDB         string     `mapstructure:"sql_db"`
	AvatarBaseURL string     `mapstructure:"avatar_base_url"`
	Pricing       pricing    `mapstructure:"pricing"`
	Carts         carts      `mapstructure:"carts"`
	Broker        Broker     `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML config file, FOODEX_* environment
// variables override its values, e.g. FOODEX_SQL_DB.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			numberToDecimalHookFunc(),
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

// numberToDecimalHookFunc decodes YAML numbers into [decimal.Decimal],
// strings are handled by the text unmarshaller hook.
func numberToDecimalHookFunc() mapstructure.DecodeHookFuncType {
	decimalType := reflect.TypeOf(decimal.Decimal{})
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != decimalType {
			return data, nil
		}
		switch v := data.(type) {
		case float64:
			return decimal.NewFromFloat(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		}
		return data, nil
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server.addr", ":8080")
	v.SetDefault("http_server.request_timeout", "5s")
	v.SetDefault("http_server.shutdown_timeout", "10s")
	v.SetDefault("sql_db", "")
	v.SetDefault("avatar_base_url", "")
	v.SetDefault("pricing.delivery_fee", "5.00")
	v.SetDefault("pricing.discount", "0.50")
	v.SetDefault("carts.idle_timeout", "30m")
	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.topics.cart_events", "foodex-cart-events")
	v.SetDefault("broker.consumers.cart_snapshots_group", "foodex-cart-snapshots")
	v.SetDefault("broker.consumers.popularity_group", "foodex-popularity")
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
}

func (c Config) validate() error {
	var errs []error

	if c.SQLDB == "" {
		errs = append(errs, errors.New("sql_db: required"))
	}

	if c.Pricing.DeliveryFee.IsNegative() {
		errs = append(errs, errors.New("pricing.delivery_fee: negative"))
	}

	if c.Pricing.Discount.IsNegative() {
		errs = append(errs, errors.New("pricing.discount: negative"))
	}

	if c.Carts.IdleTimeout <= 0 {
		errs = append(errs, errors.New("carts.idle_timeout: not positive"))
	}

	if c.HTTPServer.RequestTimeout <= 0 {
		errs = append(errs, errors.New("http_server.request_timeout: not positive"))
	}

	if c.Broker.Enabled() && len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls: required"))
	}

	tls := c.Broker.TLS
	if tls.Enabled() && (tls.Cert == "" || tls.Key == "") {
		errs = append(errs, errors.New("broker.tls: cert and key required"))
	}

	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
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
	RequestTimeout=%q
	ShutdownTimeout=%q
	AvatarBaseURL=%q

	Pricing:
	DeliveryFee=%q
	Discount=%q

	Carts:
	IdleTimeout=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		CartEvents=%q
	Consumers:
		CartSnapshotsGroup=%q
		PopularityGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServer.Addr,
		c.HTTPServer.RequestTimeout,
		c.HTTPServer.ShutdownTimeout,
		c.AvatarBaseURL,
		c.Pricing.DeliveryFee,
		c.Pricing.Discount,
		c.Carts.IdleTimeout,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.CartEvents,
		c.Broker.Consumers.CartSnapshotsGroup,
		c.Broker.Consumers.PopularityGroup,
	)
}
