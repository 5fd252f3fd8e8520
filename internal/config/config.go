package config

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/joho/godotenv"

	pkgcfg "github.com/Skotchmaster/marketplace/pkg/config"
)

var defaultOrigins = []string{"http://localhost:5173", "https://tradz.netlify.app"}

type Config struct {
	ServiceName string
	Port        string
	LogLevel    string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	JWTSecret     []byte
	RefreshSecret []byte

	AllowedOrigins   []string
	ProductOwnerOnly bool

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProductCacheTTL time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("notice: .env not loaded: %v; using process environment", err)
	}
	return FromEnv()
}

func FromEnv() *Config {
	jwtSecret := pkgcfg.EnvDefault("JWT_SECRET", "")
	refreshSecret := pkgcfg.EnvDefault("REFRESH_SECRET", jwtSecret)

	origins := pkgcfg.CSV(pkgcfg.EnvDefault("ALLOWED_ORIGINS", ""))
	if len(origins) == 0 {
		origins = append([]string(nil), defaultOrigins...)
	}

	return &Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "marketplace"),
		Port:        pkgcfg.EnvDefault("PORT", "5001"),
		LogLevel:    pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: pkgcfg.EnvDefault("DATABASE_URL", ""),
		DBHost:      pkgcfg.EnvDefault("DB_HOST", "localhost"),
		DBPort:      pkgcfg.EnvDefault("DB_PORT", "5432"),
		DBUser:      pkgcfg.EnvDefault("DB_USER", ""),
		DBPassword:  pkgcfg.EnvDefault("DB_PASSWORD", ""),
		DBName:      pkgcfg.EnvDefault("DB_NAME", ""),
		DBSSLMode:   pkgcfg.EnvDefault("DB_SSLMODE", "disable"),

		JWTSecret:     []byte(jwtSecret),
		RefreshSecret: []byte(refreshSecret),

		AllowedOrigins:   origins,
		ProductOwnerOnly: pkgcfg.EnvBoolDefault("PRODUCT_OWNER_ONLY", false),

		KafkaBrokers: pkgcfg.CSV(pkgcfg.EnvDefault("KAFKA_BROKERS", "")),

		ESURL:      pkgcfg.EnvDefault("ES_URL", ""),
		ESUser:     pkgcfg.EnvDefault("ES_USER", ""),
		ESPassword: pkgcfg.EnvDefault("ES_PASSWORD", ""),
		ESIndex:    pkgcfg.EnvDefault("ES_INDEX", "products"),

		RedisAddr:       pkgcfg.EnvDefault("REDIS_ADDR", ""),
		RedisPassword:   pkgcfg.EnvDefault("REDIS_PASSWORD", ""),
		RedisDB:         pkgcfg.EnvIntDefault("REDIS_DB", 0),
		ProductCacheTTL: pkgcfg.EnvDurationDefault("PRODUCT_CACHE_TTL", 5*time.Minute),
	}
}

// DSN prefers DATABASE_URL and otherwise assembles a postgres URL from the
// DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func (c *Config) Validate() error {
	required := map[string]string{
		"JWT_SECRET": string(c.JWTSecret),
	}
	if c.DatabaseURL == "" {
		required["DB_USER"] = c.DBUser
		required["DB_NAME"] = c.DBName
	}
	if err := pkgcfg.RequireNonEmpty(required); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
