package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// JobConfig describes one tiling run. It is read-only once the run starts.
type JobConfig struct {
	Input           string  // path, file://, http(s):// or s3:// reference
	StartPage       int     // 0-based, inclusive
	EndPage         int     // 0-based, exclusive; 0 means the document length
	TargetWidth     float64 // tile width in pixels
	Zoom            float64 // render scale relative to 72 dpi
	MinRegionWidth  int
	MinRegionHeight int
	Workers         int
	ReportEvery     int
}

// OutputConfig defines where and how images are written.
type OutputConfig struct {
	Root        string // local directory or s3://bucket/prefix
	Format      string // png, jpeg, tiff, bmp
	JPEGQuality int
	Color       string // rgb or gray
	SavePages   bool   // also store the rendered page image
	Password    string // encrypt uploaded objects when set (s3 only)
}

// S3Config holds S3 connectivity shared by input download and output upload.
type S3Config struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PathStyle     bool
	InputPassword string
}

// StatusConfig enables run status publishing to Redis.
type StatusConfig struct {
	RedisURL string
	TTL      time.Duration
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Addr string
}

// ConvertConfig controls LibreOffice conversion of office documents.
type ConvertConfig struct {
	Enabled bool
	Timeout time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Job     JobConfig
	Output  OutputConfig
	S3      S3Config
	Status  StatusConfig
	Metrics MetricsConfig
	Convert ConvertConfig
}

// Defaults for the job, matching the dataset the tool was built for.
const (
	DefaultTargetWidth     = 516.6
	DefaultZoom            = 3.0
	DefaultMinRegionWidth  = 200
	DefaultMinRegionHeight = 200
	DefaultReportEvery     = 10
)

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_wordtiles",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Job = JobConfig{
		Input:           getEnv("INPUT", ""),
		StartPage:       parseInt(getEnv("START_PAGE", "0"), 0),
		EndPage:         parseInt(getEnv("END_PAGE", "0"), 0),
		TargetWidth:     parseFloat(getEnv("TARGET_WIDTH", ""), DefaultTargetWidth),
		Zoom:            parseFloat(getEnv("ZOOM", ""), DefaultZoom),
		MinRegionWidth:  parseInt(getEnv("MIN_REGION_WIDTH", ""), DefaultMinRegionWidth),
		MinRegionHeight: parseInt(getEnv("MIN_REGION_HEIGHT", ""), DefaultMinRegionHeight),
		Workers:         parseInt(getEnv("WORKERS", ""), runtime.NumCPU()),
		ReportEvery:     parseInt(getEnv("REPORT_EVERY", ""), DefaultReportEvery),
	}

	cfg.Output = OutputConfig{
		Root:        getEnv("OUTPUT_ROOT", "output"),
		Format:      getEnv("OUTPUT_FORMAT", "png"),
		JPEGQuality: parseInt(getEnv("OUTPUT_JPEG_QUALITY", "95"), 95),
		Color:       getEnv("OUTPUT_COLOR", "rgb"),
		SavePages:   parseBool(getEnv("OUTPUT_SAVE_PAGES", "true")),
		Password:    getEnv("OUTPUT_PASSWORD", ""),
	}

	cfg.S3 = S3Config{
		Region:        getEnv("AWS_REGION", ""),
		Endpoint:      getEnv("S3_ENDPOINT", ""),
		AccessKey:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		PathStyle:     parseBool(getEnv("S3_PATH_STYLE", "false")),
		InputPassword: getEnv("INPUT_PASSWORD", ""),
	}

	cfg.Status = StatusConfig{
		RedisURL: getEnv("REDIS_URL", ""),
		TTL:      parseDuration(getEnv("STATUS_TTL", "168h"), 7*24*time.Hour),
	}

	cfg.Metrics = MetricsConfig{
		Addr: getEnv("METRICS_ADDR", ""),
	}

	cfg.Convert = ConvertConfig{
		Enabled: parseBool(getEnv("CONVERT_OFFICE", "true")),
		Timeout: parseDuration(getEnv("CONVERT_TIMEOUT", "180s"), 180*time.Second),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "" || env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
