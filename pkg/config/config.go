// pkg/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App        AppConfig        `koanf:"app"`
	HTTP       HTTPConfig       `koanf:"http"`
	Log        LogConfig        `koanf:"log"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Tracing    TracingConfig    `koanf:"tracing"`
	Cache      CacheConfig      `koanf:"cache"`
	Database   DatabaseConfig   `koanf:"database"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Auth       AuthConfig       `koanf:"auth"`
	Audit      AuditConfig      `koanf:"audit"`
	Swagger    SwaggerConfig    `koanf:"swagger"`
	Settlement SettlementConfig `koanf:"settlement"`
	Report     ReportConfig     `koanf:"report"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig - настройки HTTP сервера (connect API, health)
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

// Address возвращает адрес для net.Listen
func (h HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CacheConfig - настройки кэширования результатов расчёта
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig - PostgreSQL для истории расчётов
type DatabaseConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// DSN возвращает строку подключения в формате URL
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// RateLimitConfig - ограничение частоты запросов к API. Redis backend
// использует адрес из секции cache.
type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`    // только для token_bucket
	Strategy string        `koanf:"strategy"` // sliding_window, token_bucket
	Backend  string        `koanf:"backend"`  // memory, redis
}

// AuthConfig - проверка JWT токенов API (HS256)
type AuthConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Secret   string        `koanf:"secret"`
	Issuer   string        `koanf:"issuer"`
	TokenTTL time.Duration `koanf:"token_ttl"` // срок жизни выпускаемых токенов
}

// MinAuthSecretLength минимальная длина секрета HS256
const MinAuthSecretLength = 32

// AuditConfig - журнал вызовов API (JSON строки)
type AuditConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"` // stdout, file
	FilePath    string        `koanf:"file_path"`
	MaxSize     int           `koanf:"max_size"` // MB
	MaxBackups  int           `koanf:"max_backups"`
	MaxAge      int           `koanf:"max_age"` // дни
	Compress    bool          `koanf:"compress"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`
}

// SwaggerConfig - Swagger UI на порту API
type SwaggerConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Title    string `koanf:"title"`
	BasePath string `koanf:"base_path"`
}

// SettlementConfig - параметры расчёта
type SettlementConfig struct {
	MaxParticipants int           `koanf:"max_participants"`
	Timeout         time.Duration `koanf:"timeout"`
	Epsilon         float64       `koanf:"epsilon"`
	DefaultFormat   string        `koanf:"default_format"` // text, json, csv, markdown, excel, pdf, dot
	ReturnPaths     bool          `koanf:"return_paths"`
}

// ReportConfig - оформление отчётов
type ReportConfig struct {
	Title    string    `koanf:"title"`
	Author   string    `koanf:"author"`
	Currency string    `koanf:"currency"`
	PDF      PDFConfig `koanf:"pdf"`
}

// PDFConfig конфигурация PDF генератора
type PDFConfig struct {
	MarginTop         float64 `koanf:"margin_top"`   // mm
	MarginLeft        float64 `koanf:"margin_left"`  // mm
	MarginRight       float64 `koanf:"margin_right"` // mm
	FontSize          float64 `koanf:"font_size"`    // pt
	EnablePageNumbers bool    `koanf:"enable_page_numbers"`
}

// ValidFormats допустимые форматы отчёта
var ValidFormats = []string{"text", "json", "csv", "markdown", "excel", "pdf", "dot"}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	validDrivers := map[string]bool{"memory": true, "redis": true}
	if c.Cache.Enabled && !validDrivers[c.Cache.Driver] {
		errs = append(errs, fmt.Sprintf("cache.driver must be one of: memory, redis, got %s", c.Cache.Driver))
	}

	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.Database == "" {
			errs = append(errs, "database.host and database.database are required when database is enabled")
		}
		if c.Database.MaxOpenConns < 1 {
			errs = append(errs, fmt.Sprintf("database.max_open_conns must be positive, got %d", c.Database.MaxOpenConns))
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			errs = append(errs, "ratelimit.requests and ratelimit.window must be positive")
		}
		validStrategies := map[string]bool{"sliding_window": true, "token_bucket": true}
		if !validStrategies[c.RateLimit.Strategy] {
			errs = append(errs, fmt.Sprintf("ratelimit.strategy must be one of: sliding_window, token_bucket, got %s", c.RateLimit.Strategy))
		}
		if !validDrivers[c.RateLimit.Backend] {
			errs = append(errs, fmt.Sprintf("ratelimit.backend must be one of: memory, redis, got %s", c.RateLimit.Backend))
		}
	}

	if c.Auth.Enabled && len(c.Auth.Secret) < MinAuthSecretLength {
		errs = append(errs, fmt.Sprintf("auth.secret must be at least %d characters when auth is enabled", MinAuthSecretLength))
	}

	if c.Audit.Enabled {
		switch c.Audit.Backend {
		case "stdout":
		case "file":
			if c.Audit.FilePath == "" {
				errs = append(errs, "audit.file_path is required for the file backend")
			}
		default:
			errs = append(errs, fmt.Sprintf("audit.backend must be one of: stdout, file, got %s", c.Audit.Backend))
		}
	}

	if c.Settlement.MaxParticipants < 2 {
		errs = append(errs, fmt.Sprintf("settlement.max_participants must be at least 2, got %d", c.Settlement.MaxParticipants))
	}

	if c.Settlement.Epsilon <= 0 || c.Settlement.Epsilon >= 0.01 {
		errs = append(errs, fmt.Sprintf("settlement.epsilon must be in (0, 0.01), got %g", c.Settlement.Epsilon))
	}

	if c.Settlement.DefaultFormat != "" && !IsValidFormat(c.Settlement.DefaultFormat) {
		errs = append(errs, fmt.Sprintf("settlement.default_format must be one of: %s, got %s",
			strings.Join(ValidFormats, ", "), c.Settlement.DefaultFormat))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("tracing.sample_rate must be in [0, 1], got %g", c.Tracing.SampleRate))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsValidFormat проверяет имя формата отчёта
func IsValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
