package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSpanner  = "spanner"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	Store string // memory / postgres / spanner

	DatabaseURL      string // あれば POSTGRES_* より優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	SpannerDatabase string // projects/<p>/instances/<i>/databases/<d>

	RedisAddr     string // 空ならキャッシュなし
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaBrokers []string // 空ならイベント発行なし
	KafkaTopic   string

	JWTSecret string // JWT署名シークレット

	PageSize                int  // 1ページの件数
	CategoryCaseInsensitive bool // カテゴリの大文字小文字を区別しない

	Log LogConfig
}

type LogConfig struct {
	Level      string // debug/info/warn/error
	Format     string // json/text
	Output     string // stdout/file/both
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("STORE", StoreMemory)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "catalog")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("KAFKA_TOPIC", "catalog.products")
	v.SetDefault("PAGE_SIZE", 4)
	v.SetDefault("CATEGORY_CASE_INSENSITIVE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_FILE", "logs/catalog.log")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 10)
	v.SetDefault("LOG_MAX_AGE_DAYS", 30)
}

// Loadは .env（あれば）と環境変数から設定を読み、必須チェックまで行う
func Load(envFiles ...string) (Config, error) {
	cfg, err := Read(envFiles...)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Readは検証なしで読む（migrate などサーバー以外のコマンド用）
func Read(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		Port:  v.GetString("PORT"),
		GoEnv: v.GetString("GO_ENV"),
		Store: strings.ToLower(v.GetString("STORE")),

		DatabaseURL:      v.GetString("DATABASE_URL"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),

		SpannerDatabase: v.GetString("SPANNER_DATABASE"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		JWTSecret: v.GetString("JWT_SECRET"),

		PageSize:                v.GetInt("PAGE_SIZE"),
		CategoryCaseInsensitive: v.GetBool("CATEGORY_CASE_INSENSITIVE"),

		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			Output:     v.GetString("LOG_OUTPUT"),
			FilePath:   v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
	return cfg, nil
}

// 必須チェック
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be > 0, got %d", c.PageSize)
	}
	switch c.Store {
	case StoreMemory, StorePostgres:
	case StoreSpanner:
		if c.SpannerDatabase == "" {
			return fmt.Errorf("SPANNER_DATABASE is required when STORE=spanner")
		}
	default:
		return fmt.Errorf("STORE must be one of memory/postgres/spanner, got %q", c.Store)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// ":8080" 形式に揃える
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
