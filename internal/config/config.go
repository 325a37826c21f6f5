package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/coupon-service/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Coupon     CouponConfig     `validate:"required"`
	Cache      CacheConfig
	EventBus   EventBusConfig `mapstructure:"event_bus" validate:"required"`
	Kafka      KafkaConfig
	Sentry     SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address      string        `validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	// ConnectTimeout bounds the retries made while waiting for the database at startup
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type AuthConfig struct {
	// Secret is the HMAC key bearer tokens are signed with
	Secret string `validate:"required"`
}

type CouponConfig struct {
	DefaultLanguage      string `mapstructure:"default_language" validate:"required"`
	CaseInsensitiveCodes bool   `mapstructure:"case_insensitive_codes"`
	// VerifyRPS and VerifyBurst size the per client limiter on the verify endpoint
	VerifyRPS   float64 `mapstructure:"verify_rps"`
	VerifyBurst int     `mapstructure:"verify_burst"`
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type EventBusConfig struct {
	Driver types.EventBusDriver `validate:"required,oneof=memory kafka"`
	Topic  string               `validate:"required"`
}

type KafkaConfig struct {
	Brokers       []string
	ClientID      string `mapstructure:"client_id"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	TLS           bool
	UseSASL       bool   `mapstructure:"use_sasl"`
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	SASLUser      string `mapstructure:"sasl_user"`
	SASLPassword  string `mapstructure:"sasl_password"`
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/coupon-service")

	v.SetEnvPrefix("COUPON")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("postgres.connect_timeout", 30*time.Second)
	v.SetDefault("coupon.default_language", "en")
	v.SetDefault("coupon.case_insensitive_codes", true)
	v.SetDefault("coupon.verify_rps", 20)
	v.SetDefault("coupon.verify_burst", 40)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("event_bus.driver", types.EventBusDriverMemory)
	v.SetDefault("event_bus.topic", "coupon_events")
	v.SetDefault("kafka.client_id", "coupon-service")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.EventBus.Driver == types.EventBusDriverKafka && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when event_bus.driver is kafka")
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development.
// Useful for scripts and tests that never read config.yaml.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Auth:       AuthConfig{Secret: "local-development-secret"},
		Coupon: CouponConfig{
			DefaultLanguage:      "en",
			CaseInsensitiveCodes: true,
			VerifyRPS:            20,
			VerifyBurst:          40,
		},
		Cache:    CacheConfig{Enabled: true, TTL: 30 * time.Second},
		EventBus: EventBusConfig{Driver: types.EventBusDriverMemory, Topic: "coupon_events"},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
