package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/storefront/internal/prismic"
)

// Content sources.
const (
	SourcePrismic = "prismic"
	SourceLocal   = "local"
)

// AppConfig 汇总运行服务所需的基础配置。启动时读取一次，之后只读。
type AppConfig struct {
	ListenAddr         string
	Port               string
	GinMode            string
	SessionSecret      string
	ContentSource      string
	PrismicEndpoint    string
	PrismicAccessToken string
	PrismicTimeout     time.Duration
	DatabasePath       string
	ContentLocales     []string
	CollectionYear     int
	PageSize           int
	LogLevel           string
	SSLRedirect        bool
}

// DevSessionSecret signs the preview session cookie when SESSION_SECRET is unset.
const DevSessionSecret = "storefront-dev-secret"

// ErrInvalidConfig 表示配置缺失或不合法。
var ErrInvalidConfig = errors.New("invalid configuration")

// Load 从环境变量（以及当前目录下可选的 .env 文件）读取应用配置，并为缺失项提供默认值。
func Load() AppConfig {
	return LoadFile(".env")
}

// LoadFile 与 Load 相同，但允许指定 .env 文件路径；文件不存在时忽略。
func LoadFile(envFile string) AppConfig {
	v := viper.New()
	v.SetDefault("PORT", "3000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("SESSION_SECRET", DevSessionSecret)
	v.SetDefault("CONTENT_SOURCE", SourcePrismic)
	v.SetDefault("PRISMIC_TIMEOUT", "10s")
	v.SetDefault("DATABASE_PATH", "storefront.db")
	v.SetDefault("CONTENT_LOCALES", "")
	v.SetDefault("COLLECTION_YEAR", 2022)
	v.SetDefault("PAGE_SIZE", 100)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SSL_REDIRECT", false)

	if path := strings.TrimSpace(envFile); path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			_ = v.ReadInConfig()
		}
	}
	v.AutomaticEnv()

	port := strings.TrimSpace(v.GetString("PORT"))
	if port == "" {
		port = "3000"
	}

	listenAddr := strings.TrimSpace(v.GetString("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	timeout := v.GetDuration("PRISMIC_TIMEOUT")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return AppConfig{
		ListenAddr:         listenAddr,
		Port:               port,
		GinMode:            strings.TrimSpace(v.GetString("GIN_MODE")),
		SessionSecret:      strings.TrimSpace(v.GetString("SESSION_SECRET")),
		ContentSource:      strings.ToLower(strings.TrimSpace(v.GetString("CONTENT_SOURCE"))),
		PrismicEndpoint:    strings.TrimSpace(v.GetString("PRISMIC_ENDPOINT")),
		PrismicAccessToken: strings.TrimSpace(v.GetString("PRISMIC_ACCESS_TOKEN")),
		PrismicTimeout:     timeout,
		DatabasePath:       strings.TrimSpace(v.GetString("DATABASE_PATH")),
		ContentLocales:     splitLocales(v.GetString("CONTENT_LOCALES")),
		CollectionYear:     v.GetInt("COLLECTION_YEAR"),
		PageSize:           v.GetInt("PAGE_SIZE"),
		LogLevel:           strings.TrimSpace(v.GetString("LOG_LEVEL")),
		SSLRedirect:        v.GetBool("SSL_REDIRECT"),
	}
}

// Validate 在启动阶段检查配置，避免错误延迟到首个请求才暴露。
func (c AppConfig) Validate() error {
	switch c.ContentSource {
	case SourcePrismic:
		if c.PrismicEndpoint == "" {
			return fmt.Errorf("%w: PRISMIC_ENDPOINT is required when CONTENT_SOURCE=%s", ErrInvalidConfig, SourcePrismic)
		}
		if _, err := prismic.NormalizeEndpoint(c.PrismicEndpoint); err != nil {
			return fmt.Errorf("%w: PRISMIC_ENDPOINT: %v", ErrInvalidConfig, err)
		}
	case SourceLocal:
		if c.DatabasePath == "" {
			return fmt.Errorf("%w: DATABASE_PATH is required when CONTENT_SOURCE=%s", ErrInvalidConfig, SourceLocal)
		}
	default:
		return fmt.Errorf("%w: unknown CONTENT_SOURCE %q", ErrInvalidConfig, c.ContentSource)
	}

	if c.CollectionYear <= 0 {
		return fmt.Errorf("%w: COLLECTION_YEAR must be positive", ErrInvalidConfig)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("%w: SESSION_SECRET must not be empty", ErrInvalidConfig)
	}
	return nil
}

// UsesDevSecret reports a release build still signing sessions with the
// built-in secret. serve logs a warning for it.
func (c AppConfig) UsesDevSecret() bool {
	return c.GinMode == "release" && c.SessionSecret == DevSessionSecret
}

// DefaultLocale returns the first configured content locale, or "" when
// queries go out without a language and the repository's master locale applies.
func (c AppConfig) DefaultLocale() string {
	if len(c.ContentLocales) == 0 {
		return ""
	}
	return c.ContentLocales[0]
}

func splitLocales(raw string) []string {
	parts := strings.Split(raw, ",")
	locales := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		locale := strings.ToLower(strings.TrimSpace(part))
		if locale == "" {
			continue
		}
		if _, ok := seen[locale]; ok {
			continue
		}
		seen[locale] = struct{}{}
		locales = append(locales, locale)
	}
	return locales
}
