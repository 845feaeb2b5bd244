package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/offerdesk/backend/internal/domain/printing"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Templates TemplatesConfig
	Output    OutputConfig
	PDF       PDFConfig
	Workflow  WorkflowConfig
	Storage   StorageConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// TemplatesConfig holds template source settings
type TemplatesConfig struct {
	// ExternalDir overrides the embedded template set when it exists
	ExternalDir string
	// DefaultLanguage is used when the offer does not specify one
	DefaultLanguage string
	// AssetRoot is the directory local image references resolve against
	AssetRoot string
}

// OutputConfig holds artifact output directories and cleanup policy
type OutputConfig struct {
	HTMLDir       string // intermediate HTML artifacts
	PDFDir        string // final PDF files
	CleanupHTML   bool   // delete intermediate HTML on success
	RetentionDays int    // how long to keep PDFs (0 = forever)
}

// PDFConfig holds page layout and rendering settings
type PDFConfig struct {
	PaperSize         string
	MarginTop         int // mm
	MarginRight       int // mm
	MarginBottom      int // mm
	MarginLeft        int // mm
	PrintBackground   bool
	PreferCSSPageSize bool
	RenderTimeout     time.Duration
	NoSandbox         bool
	ChromeRemoteURL   string
}

// WorkflowConfig holds pipeline orchestration settings
type WorkflowConfig struct {
	// Timeout is the overall wall-clock budget for one generation run
	Timeout time.Duration
}

// StorageConfig holds S3-compatible object storage settings for
// publishing finished PDFs. Publication is disabled when Enabled is false.
type StorageConfig struct {
	Enabled       bool
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	UsePathStyle  bool
	PublicBaseURL string
	// PresignDownloads switches publish results to presigned download
	// URLs, for buckets that are not publicly readable
	PresignDownloads bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with OFFER_ prefix (e.g., OFFER_STORAGE_SECRET_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("OFFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Templates: TemplatesConfig{
			ExternalDir:     v.GetString("templates.external_dir"),
			DefaultLanguage: v.GetString("templates.default_language"),
			AssetRoot:       v.GetString("templates.asset_root"),
		},
		Output: OutputConfig{
			HTMLDir:       v.GetString("output.html_dir"),
			PDFDir:        v.GetString("output.pdf_dir"),
			CleanupHTML:   v.GetBool("output.cleanup_html"),
			RetentionDays: v.GetInt("output.retention_days"),
		},
		PDF: PDFConfig{
			PaperSize:         v.GetString("pdf.paper_size"),
			MarginTop:         v.GetInt("pdf.margin_top"),
			MarginRight:       v.GetInt("pdf.margin_right"),
			MarginBottom:      v.GetInt("pdf.margin_bottom"),
			MarginLeft:        v.GetInt("pdf.margin_left"),
			PrintBackground:   v.GetBool("pdf.print_background"),
			PreferCSSPageSize: v.GetBool("pdf.prefer_css_page_size"),
			RenderTimeout:     v.GetDuration("pdf.render_timeout"),
			NoSandbox:         v.GetBool("pdf.no_sandbox"),
			ChromeRemoteURL:   v.GetString("pdf.chrome_remote_url"),
		},
		Workflow: WorkflowConfig{
			Timeout: v.GetDuration("workflow.timeout"),
		},
		Storage: StorageConfig{
			Enabled:          v.GetBool("storage.enabled"),
			Endpoint:         v.GetString("storage.endpoint"),
			Region:           v.GetString("storage.region"),
			Bucket:           v.GetString("storage.bucket"),
			AccessKey:        v.GetString("storage.access_key"),
			SecretKey:        v.GetString("storage.secret_key"),
			UseSSL:           v.GetBool("storage.use_ssl"),
			UsePathStyle:     v.GetBool("storage.use_path_style"),
			PublicBaseURL:    v.GetString("storage.public_base_url"),
			PresignDownloads: v.GetBool("storage.presign_downloads"),
		},
	}

	// Whether the config file set cleanup_html explicitly matters: the
	// default is true, and GetBool returns false for unset keys.
	if !v.IsSet("output.cleanup_html") {
		cfg.Output.CleanupHTML = true
	}
	if !v.IsSet("pdf.print_background") {
		cfg.PDF.PrintBackground = true
	}
	if !v.IsSet("pdf.prefer_css_page_size") {
		cfg.PDF.PreferCSSPageSize = true
	}

	setDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults fills in default values for unset configuration
func setDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "offerdesk"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
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
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Long enough to hold the connection open while a PDF renders
		cfg.HTTP.WriteTimeout = 6 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Templates.DefaultLanguage == "" {
		cfg.Templates.DefaultLanguage = "english"
	}
	if cfg.Templates.AssetRoot == "" {
		cfg.Templates.AssetRoot = "assets"
	}
	if cfg.Output.HTMLDir == "" {
		cfg.Output.HTMLDir = "htmlGenerated"
	}
	if cfg.Output.PDFDir == "" {
		cfg.Output.PDFDir = "finalPdf"
	}
	if cfg.PDF.PaperSize == "" {
		cfg.PDF.PaperSize = "A4"
	}
	if cfg.PDF.MarginTop == 0 && cfg.PDF.MarginRight == 0 &&
		cfg.PDF.MarginBottom == 0 && cfg.PDF.MarginLeft == 0 {
		cfg.PDF.MarginTop = 20
		cfg.PDF.MarginRight = 20
		cfg.PDF.MarginBottom = 20
		cfg.PDF.MarginLeft = 20
	}
	if cfg.PDF.RenderTimeout == 0 {
		cfg.PDF.RenderTimeout = 60 * time.Second
	}
	if cfg.Workflow.Timeout == 0 {
		cfg.Workflow.Timeout = 300 * time.Second
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "offers"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if !printing.PaperSize(c.PDF.PaperSize).IsValid() {
		return fmt.Errorf("pdf.paper_size must be one of %v, got %q",
			printing.AllPaperSizes(), c.PDF.PaperSize)
	}

	if _, err := printing.NewMargins(c.PDF.MarginTop, c.PDF.MarginRight,
		c.PDF.MarginBottom, c.PDF.MarginLeft); err != nil {
		return fmt.Errorf("pdf margins: %w", err)
	}

	if c.PDF.RenderTimeout > c.Workflow.Timeout {
		return fmt.Errorf("pdf.render_timeout (%s) cannot exceed workflow.timeout (%s)",
			c.PDF.RenderTimeout, c.Workflow.Timeout)
	}

	// The server would cut the response off mid-run otherwise
	if c.HTTP.WriteTimeout > 0 && c.Workflow.Timeout >= c.HTTP.WriteTimeout {
		return fmt.Errorf("workflow.timeout (%s) must be below http.write_timeout (%s)",
			c.Workflow.Timeout, c.HTTP.WriteTimeout)
	}

	switch c.Templates.DefaultLanguage {
	case "english", "polish":
	default:
		return fmt.Errorf("templates.default_language must be english or polish, got %q",
			c.Templates.DefaultLanguage)
	}

	if c.Storage.Enabled {
		if c.Storage.AccessKey == "" {
			return fmt.Errorf("storage.access_key is required when storage is enabled")
		}
		if c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.secret_key is required when storage is enabled")
		}
	}

	return nil
}
