package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Dataset   DatasetConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Admin     AdminConfig
	Log       LogConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// DatasetConfig holds dataset source settings
type DatasetConfig struct {
	Kind            string // file, s3, database
	Path            string // CSV file path for file sources
	Table           string // listings table name for database sources
	CurrencyPrefix  string // prefix for formatted prices
	MaxParseWarnings int   // cap on retained row-level parse warnings
	S3              S3Config
}

// S3Config holds S3 dataset source settings
type S3Config struct {
	Bucket       string
	Key          string
	Region       string
	Endpoint     string // custom endpoint for MinIO or localstack
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	UseSSL       bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string // sqlite database file
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// CacheConfig holds table and search-result cache settings
type CacheConfig struct {
	TableEnabled     bool          // cache cleaned tables per source fingerprint
	ResultEnabled    bool          // cache serialized recommendation responses
	ResultTTL        time.Duration // expiry for cached results, 0 = no expiry
	RedisEnabled     bool          // back the result cache with Redis
	RedisHost        string
	RedisPort        int
	RedisPassword    string
	RedisDB          int
	InMemoryFallback bool // fall back to in-memory when Redis is unavailable
}

// AdminConfig holds settings for administrative endpoints
type AdminConfig struct {
	APIKeyHash string // bcrypt hash of the admin API key; empty disables admin endpoints
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled    bool     // Whether to enable Swagger endpoint
	AllowedIPs []string // IP whitelist (empty = allow all)
}

// TelemetryConfig holds OpenTelemetry and profiling configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry tracing
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	// Metrics options
	MetricsEnabled  bool
	MetricsInterval time.Duration // Export interval (default: 60s)
	// Logs bridge options
	LogsEnabled bool
	// Continuous profiling options
	ProfilingEnabled  bool
	ProfilingEndpoint string // Pyroscope server address
	ProfilingUser     string // Optional basic auth for Grafana Cloud
	ProfilingPassword string
	SpanProfiles      bool // Associate CPU profiles with trace spans
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only, disable in prod for security)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with HOMEFINDER_ prefix (e.g., HOMEFINDER_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/homefinder")

	// Booleans have no zero-vs-unset distinction, so true defaults must be
	// registered before reading
	v.SetDefault("cache.table_enabled", true)
	v.SetDefault("cache.result_enabled", true)
	v.SetDefault("cache.in_memory_fallback", true)
	v.SetDefault("dataset.s3.use_ssl", true)
	v.SetDefault("swagger.enabled", true)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("HOMEFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Dataset: DatasetConfig{
			Kind:             v.GetString("dataset.kind"),
			Path:             v.GetString("dataset.path"),
			Table:            v.GetString("dataset.table"),
			CurrencyPrefix:   v.GetString("dataset.currency_prefix"),
			MaxParseWarnings: v.GetInt("dataset.max_parse_warnings"),
			S3: S3Config{
				Bucket:       v.GetString("dataset.s3.bucket"),
				Key:          v.GetString("dataset.s3.key"),
				Region:       v.GetString("dataset.s3.region"),
				Endpoint:     v.GetString("dataset.s3.endpoint"),
				AccessKey:    v.GetString("dataset.s3.access_key"),
				SecretKey:    v.GetString("dataset.s3.secret_key"),
				UsePathStyle: v.GetBool("dataset.s3.use_path_style"),
				UseSSL:       v.GetBool("dataset.s3.use_ssl"),
			},
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			FilePath:        v.GetString("database.file_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Cache: CacheConfig{
			TableEnabled:     v.GetBool("cache.table_enabled"),
			ResultEnabled:    v.GetBool("cache.result_enabled"),
			ResultTTL:        v.GetDuration("cache.result_ttl"),
			RedisEnabled:     v.GetBool("cache.redis_enabled"),
			RedisHost:        v.GetString("cache.redis_host"),
			RedisPort:        v.GetInt("cache.redis_port"),
			RedisPassword:    v.GetString("cache.redis_password"),
			RedisDB:          v.GetInt("cache.redis_db"),
			InMemoryFallback: v.GetBool("cache.in_memory_fallback"),
		},
		Admin: AdminConfig{
			APIKeyHash: v.GetString("admin.api_key_hash"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingEndpoint: v.GetString("telemetry.profiling_endpoint"),
			ProfilingUser:     v.GetString("telemetry.profiling_user"),
			ProfilingPassword: v.GetString("telemetry.profiling_password"),
			SpanProfiles:      v.GetBool("telemetry.span_profiles"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "homefinder-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, search requests are small
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "X-API-Key"}
	}
	if cfg.Dataset.Kind == "" {
		cfg.Dataset.Kind = "file"
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = "data/listings.csv"
	}
	if cfg.Dataset.Table == "" {
		cfg.Dataset.Table = "listings"
	}
	if cfg.Dataset.CurrencyPrefix == "" {
		cfg.Dataset.CurrencyPrefix = "EGP"
	}
	if cfg.Dataset.MaxParseWarnings == 0 {
		cfg.Dataset.MaxParseWarnings = 100
	}
	if cfg.Dataset.S3.Region == "" {
		cfg.Dataset.S3.Region = "us-east-1"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "homefinder"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.FilePath == "" {
		cfg.Database.FilePath = "homefinder.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Cache.ResultTTL == 0 {
		cfg.Cache.ResultTTL = 5 * time.Minute
	}
	if cfg.Cache.RedisHost == "" {
		cfg.Cache.RedisHost = "localhost"
	}
	if cfg.Cache.RedisPort == 0 {
		cfg.Cache.RedisPort = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.ProfilingEndpoint == "" {
		cfg.Telemetry.ProfilingEndpoint = "http://localhost:4040"
	}
	// Note: Insecure defaults to false for safety (TLS enabled by default)
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	// Note: DBLogFullSQL defaults to false for security (disable in production)
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate dataset source settings
	switch c.Dataset.Kind {
	case "file":
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required for file sources")
		}
	case "s3":
		if c.Dataset.S3.Bucket == "" {
			return fmt.Errorf("dataset.s3.bucket is required for s3 sources")
		}
		if c.Dataset.S3.Key == "" {
			return fmt.Errorf("dataset.s3.key is required for s3 sources")
		}
	case "database":
		if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
			return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Database.Driver)
		}
		if c.Database.Driver == "sqlite" && c.Database.FilePath == "" {
			return fmt.Errorf("database.file_path is required for sqlite")
		}
	default:
		return fmt.Errorf("dataset.kind must be 'file', 's3' or 'database', got %q", c.Dataset.Kind)
	}

	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Cache.ResultTTL < 0 {
		return fmt.Errorf("cache.result_ttl cannot be negative")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Dataset.Kind == "database" && c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		// CORS must not use wildcard with credentials
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		// Swagger must be disabled OR IP-restricted in production
		if c.Swagger.Enabled && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled or have IP restriction in production")
		}
		// Database tracing: full SQL logging is a security risk in production
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs with the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values.
// For sqlite the file path is the DSN.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.FilePath
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisAddr returns the host:port address of the result cache Redis
func (c *CacheConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
