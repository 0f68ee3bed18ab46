package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/autopec/garage/internal/validation"
)

// defaultAllowedOrigins are the web front ends the API serves out of the box.
var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"https://autopec-logistics.vercel.app",
	"https://autopec-logistics-btwc.vercel.app",
}

const (
	defaultDBDriver     = "sqlite"
	defaultDBConnection = "./data/autopec.db?_pragma=journal_mode(WAL)"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Media storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string // Optional: for S3-compatible services
	S3PublicURL     string // Optional: CDN or bucket website in front of the bucket
	MediaRootFolder string

	// Upload ceilings
	UploadMaxFileSize  int64
	UploadMaxFiles     int
	UploadMaxTotalSize int64

	// HTTP
	CORSAllowedOrigins []string
	SubmitRateLimit    int
	SubmitRateWindow   time.Duration
	ShutdownTimeout    time.Duration

	// Observability (optional)
	SentryDSN      string
	MetricsEnabled bool
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "Autopec"),
		AppEnv:  envRequired("APP_ENV"), // 'development' or 'production'
		Port:    envString("PORT", "5000"),

		DBDriver:     envString("DB_DRIVER", defaultDBDriver),
		DBConnection: envString("DB_CONNECTION", defaultDBConnection),

		S3Region:        envRequired("S3_REGION"),
		S3Bucket:        envRequired("S3_BUCKET"),
		S3AccessKey:     envRequired("S3_ACCESS_KEY"),
		S3SecretKey:     envRequired("S3_SECRET_KEY"),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PublicURL:     envString("S3_PUBLIC_URL", ""),
		MediaRootFolder: envString("MEDIA_ROOT_FOLDER", "autopec"),

		UploadMaxFileSize:  envInt64("UPLOAD_MAX_FILE_SIZE", validation.DefaultMaxFileSize),
		UploadMaxFiles:     envInt("UPLOAD_MAX_FILES", validation.DefaultMaxFiles),
		UploadMaxTotalSize: envInt64("UPLOAD_MAX_TOTAL_SIZE", validation.DefaultMaxTotalSize),

		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		SubmitRateLimit:    envInt("SUBMIT_RATE_LIMIT", 20),
		SubmitRateWindow:   envDuration("SUBMIT_RATE_WINDOW", 15*time.Minute),
		ShutdownTimeout:    envDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		SentryDSN:      envString("SENTRY_DSN", ""),
		MetricsEnabled: envBool("METRICS_ENABLED", true),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// Database reads only the database settings, for tools that never touch
// media storage.
func Database() (driver, connection string) {
	_ = godotenv.Load()
	return envString("DB_DRIVER", defaultDBDriver), envString("DB_CONNECTION", defaultDBConnection)
}

// validateProduction refuses to start a production server that would answer every origin.
func validateProduction(cfg *Config) {
	if len(cfg.CORSAllowedOrigins) == 0 {
		slog.Error("production deployment requires CORS_ALLOWED_ORIGINS")
		os.Exit(1)
	}
	for _, origin := range cfg.CORSAllowedOrigins {
		if origin == "*" {
			slog.Error("production deployment cannot allow every origin with credentials",
				"hint", "list the dashboard and form origins explicitly")
			os.Exit(1)
		}
	}
}

// UploadPolicy materializes the configured upload ceilings.
func (c *Config) UploadPolicy() validation.UploadPolicy {
	return validation.UploadPolicy{
		MaxFileSize:  c.UploadMaxFileSize,
		MaxFiles:     c.UploadMaxFiles,
		MaxTotalSize: c.UploadMaxTotalSize,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping empty entries.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}
