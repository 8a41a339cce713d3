package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	DB            DBConfig
	JWT           JWTConfig
	S3            S3Config
	Log           LogConfig
	Extractor     ExtractorConfig
	CORS          CORSConfig
	Ingest        IngestConfig
	Classifier    ClassifierConfig
	Validation    ValidationConfig
	Consolidation ConsolidationConfig
	Cache         CacheConfig
	Email         EmailConfig
}

// EmailConfig holds ingestion summary email settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// IngestConfig bounds every ingestion run.
type IngestConfig struct {
	MaxDocumentMB     int64         `mapstructure:"max_document_mb"`
	MaxPDFPages       int           `mapstructure:"max_pdf_pages"`
	ExtractionTimeout time.Duration `mapstructure:"extraction_timeout"`
	TranscribeTimeout time.Duration `mapstructure:"transcribe_timeout"`
	BatchConcurrency  int           `mapstructure:"batch_concurrency"`
	ArchiveSources    bool          `mapstructure:"archive_sources"`
	WebhookSecret     string        `mapstructure:"webhook_secret"`
}

// MaxDocumentBytes returns the document size ceiling in bytes.
func (c *IngestConfig) MaxDocumentBytes() int64 {
	return c.MaxDocumentMB * 1024 * 1024
}

// ClassifierConfig holds the booking likelihood gate settings.
type ClassifierConfig struct {
	Threshold int `mapstructure:"threshold"`
}

// ValidationConfig holds extraction contract settings.
type ValidationConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
	MaxExcerptLen int     `mapstructure:"max_excerpt_len"`
}

// ConsolidationConfig holds trip clustering settings.
type ConsolidationConfig struct {
	GapDays int `mapstructure:"gap_days"`
}

// CacheConfig holds the process-wide cache settings.
type CacheConfig struct {
	AirportTTL time.Duration `mapstructure:"airport_ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// ExtractorProviderConfig holds settings for a single LLM extractor provider.
type ExtractorProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds LLM extractor settings with multi-provider support.
type ExtractorConfig struct {
	// Mode is "fallback" (try providers in order) or "merge" (primary and
	// secondary concurrently, candidates unioned).
	Mode string `mapstructure:"mode"`

	// Single-provider shorthand
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`

	Primary   ExtractorProviderConfig `mapstructure:"primary"`
	Secondary ExtractorProviderConfig `mapstructure:"secondary"`
	Tertiary  ExtractorProviderConfig `mapstructure:"tertiary"`
}

// PrimaryConfig returns the primary provider config, falling back to the flat fields.
func (p *ExtractorConfig) PrimaryConfig() *ExtractorProviderConfig {
	if p.Primary.Provider != "" {
		return &p.Primary
	}
	return &ExtractorProviderConfig{
		Provider:     p.Provider,
		APIKey:       p.APIKey,
		DefaultModel: p.DefaultModel,
		MaxRetries:   p.MaxRetries,
		TimeoutSecs:  p.TimeoutSecs,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *ExtractorConfig) SecondaryConfig() *ExtractorProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (p *ExtractorConfig) TertiaryConfig() *ExtractorProviderConfig {
	if p.Tertiary.Provider != "" {
		return &p.Tertiary
	}
	return nil
}

// ProviderConfigs returns the configured providers in priority order.
func (p *ExtractorConfig) ProviderConfigs() []*ExtractorProviderConfig {
	out := []*ExtractorProviderConfig{p.PrimaryConfig()}
	if s := p.SecondaryConfig(); s != nil {
		out = append(out, s)
	}
	if t := p.TertiaryConfig(); t != nil {
		out = append(out, t)
	}
	return out
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds access token verification settings. Tokens are issued elsewhere.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds settings for the raw source archive bucket.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the ITINERA_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ITINERA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for _, key := range boundKeys {
		_ = v.BindEnv(key, "ITINERA_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if ITINERA_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("ITINERA_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{AllowedOrigins: splitList(v.GetString("cors.allowed_origins"))}

	cfg.Extractor = ExtractorConfig{
		Mode:         v.GetString("extractor.mode"),
		Provider:     v.GetString("extractor.provider"),
		APIKey:       v.GetString("extractor.api_key"),
		DefaultModel: v.GetString("extractor.default_model"),
		MaxRetries:   v.GetInt("extractor.max_retries"),
		TimeoutSecs:  v.GetInt("extractor.timeout_secs"),
		Primary:      providerConfig(v, "extractor.primary"),
		Secondary:    providerConfig(v, "extractor.secondary"),
		Tertiary:     providerConfig(v, "extractor.tertiary"),
	}

	cfg.Ingest = IngestConfig{
		MaxDocumentMB:     v.GetInt64("ingest.max_document_mb"),
		MaxPDFPages:       v.GetInt("ingest.max_pdf_pages"),
		ExtractionTimeout: v.GetDuration("ingest.extraction_timeout"),
		TranscribeTimeout: v.GetDuration("ingest.transcribe_timeout"),
		BatchConcurrency:  v.GetInt("ingest.batch_concurrency"),
		ArchiveSources:    v.GetBool("ingest.archive_sources"),
		WebhookSecret:     v.GetString("ingest.webhook_secret"),
	}
	cfg.Classifier = ClassifierConfig{Threshold: v.GetInt("classifier.threshold")}
	cfg.Validation = ValidationConfig{
		MinConfidence: v.GetFloat64("validation.min_confidence"),
		MaxExcerptLen: v.GetInt("validation.max_excerpt_len"),
	}
	cfg.Consolidation = ConsolidationConfig{GapDays: v.GetInt("consolidation.gap_days")}
	cfg.Cache = CacheConfig{
		AirportTTL: v.GetDuration("cache.airport_ttl"),
		MaxEntries: v.GetInt("cache.max_entries"),
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "itinera")
	v.SetDefault("db.password", "itinera_secret")
	v.SetDefault("db.name", "itinera_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "itinera")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "itinera-sources")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Extractor defaults
	v.SetDefault("extractor.mode", "fallback")
	v.SetDefault("extractor.provider", "claude")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.default_model", "")
	v.SetDefault("extractor.max_retries", 2)
	v.SetDefault("extractor.timeout_secs", 60)
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("extractor."+tier+".provider", "")
		v.SetDefault("extractor."+tier+".api_key", "")
		v.SetDefault("extractor."+tier+".default_model", "")
		v.SetDefault("extractor."+tier+".max_retries", 2)
		v.SetDefault("extractor."+tier+".timeout_secs", 60)
	}

	// Pipeline defaults
	v.SetDefault("ingest.max_document_mb", 10)
	v.SetDefault("ingest.max_pdf_pages", 40)
	v.SetDefault("ingest.extraction_timeout", "90s")
	v.SetDefault("ingest.transcribe_timeout", "120s")
	v.SetDefault("ingest.batch_concurrency", 4)
	v.SetDefault("ingest.archive_sources", true)
	v.SetDefault("ingest.webhook_secret", "")
	v.SetDefault("classifier.threshold", 5)
	v.SetDefault("validation.min_confidence", 0.6)
	v.SetDefault("validation.max_excerpt_len", 500)
	v.SetDefault("consolidation.gap_days", 3)
	v.SetDefault("cache.airport_ttl", "24h")
	v.SetDefault("cache.max_entries", 10000)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "trips@itinera.app")
	v.SetDefault("email.from_name", "Itinera")
	v.SetDefault("email.frontend_url", "http://localhost:3000")
}

// boundKeys are bound explicitly so nested keys resolve from the environment
// even when viper has no config file to discover them from.
var boundKeys = []string{
	"server.port", "server.read_timeout", "server.write_timeout", "server.environment",
	"db.host", "db.port", "db.user", "db.password", "db.name", "db.sslmode", "db.max_open", "db.max_idle",
	"jwt.secret", "jwt.issuer",
	"s3.region", "s3.bucket", "s3.endpoint", "s3.access_key", "s3.secret_key",
	"log.level", "log.format",
	"cors.allowed_origins",
	"extractor.mode", "extractor.provider", "extractor.api_key", "extractor.default_model",
	"extractor.max_retries", "extractor.timeout_secs",
	"extractor.primary.provider", "extractor.primary.api_key", "extractor.primary.default_model",
	"extractor.primary.max_retries", "extractor.primary.timeout_secs",
	"extractor.secondary.provider", "extractor.secondary.api_key", "extractor.secondary.default_model",
	"extractor.secondary.max_retries", "extractor.secondary.timeout_secs",
	"extractor.tertiary.provider", "extractor.tertiary.api_key", "extractor.tertiary.default_model",
	"extractor.tertiary.max_retries", "extractor.tertiary.timeout_secs",
	"ingest.max_document_mb", "ingest.max_pdf_pages", "ingest.extraction_timeout",
	"ingest.transcribe_timeout", "ingest.batch_concurrency", "ingest.archive_sources",
	"ingest.webhook_secret",
	"classifier.threshold",
	"validation.min_confidence", "validation.max_excerpt_len",
	"consolidation.gap_days",
	"cache.airport_ttl", "cache.max_entries",
	"email.provider", "email.region", "email.from_address", "email.from_name", "email.frontend_url",
}

func providerConfig(v *viper.Viper, prefix string) ExtractorProviderConfig {
	return ExtractorProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Extractor.Mode != "fallback" && c.Extractor.Mode != "merge" {
		return fmt.Errorf("extractor.mode must be fallback or merge, got %q", c.Extractor.Mode)
	}
	if c.Validation.MinConfidence < 0 || c.Validation.MinConfidence > 1 {
		return fmt.Errorf("validation.min_confidence must be within [0,1], got %v", c.Validation.MinConfidence)
	}
	if c.Consolidation.GapDays < 0 {
		return fmt.Errorf("consolidation.gap_days must not be negative, got %d", c.Consolidation.GapDays)
	}
	if c.Ingest.MaxDocumentMB <= 0 {
		return fmt.Errorf("ingest.max_document_mb must be positive, got %d", c.Ingest.MaxDocumentMB)
	}
	return nil
}
