package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/aaos-backend/internal/data/db"
	"github.com/yungbote/aaos-backend/internal/platform/envutil"
)

type RedisConfig struct {
	Addr         string `yaml:"addr"`
	AuditChannel string `yaml:"audit_channel"`
}

type OtelSettings struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Headers     string  `yaml:"headers"`
}

type Config struct {
	LogMode            string       `yaml:"log_mode"`
	Port               string       `yaml:"port"`
	Environment        string       `yaml:"environment"`
	DB                 db.Config    `yaml:"db"`
	Redis              RedisConfig  `yaml:"redis"`
	OperatorJWTSecret  string       `yaml:"operator_jwt_secret"`
	CORSAllowedOrigins []string     `yaml:"cors_allowed_origins"`
	Otel               OtelSettings `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		LogMode: "development",
		Port:    "8080",
		DB: db.Config{
			Driver:  db.DriverPostgres,
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "aaos",
			SSLMode: "disable",
		},
		Otel: OtelSettings{ServiceName: "aaos", SampleRatio: 0.1},
	}
}

// LoadConfig layers, lowest first: built-in defaults, the YAML file named
// by AAOS_CONFIG, then environment variables.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("AAOS_CONFIG", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.Environment = envutil.String("AAOS_ENV", cfg.Environment)

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Host = envutil.String("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envutil.String("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envutil.String("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = envutil.String("POSTGRES_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.AuditChannel = envutil.String("REDIS_AUDIT_CHANNEL", cfg.Redis.AuditChannel)

	cfg.OperatorJWTSecret = envutil.String("OPERATOR_JWT_SECRET", cfg.OperatorJWTSecret)
	cfg.CORSAllowedOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers)
}

func (c Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}
