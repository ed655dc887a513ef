package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrLoggingProviderRequired = errors.New("microsite config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("microsite config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("microsite config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("microsite config: logging format is invalid")

// ErrStorageDriverUnknown flags a storage driver outside file, memory, sqlite and postgres.
var ErrStorageDriverUnknown = errors.New("microsite config: storage driver is invalid")
var ErrStoragePathRequired = errors.New("microsite config: storage path is required for the file driver")
var ErrStorageDSNRequired = errors.New("microsite config: storage dsn is required for database drivers")
var ErrRevisionLimitInvalid = errors.New("microsite config: revision limit must be zero or positive")

var ErrEditorDebounceInvalid = errors.New("microsite config: editor debounce must be zero or positive")
var ErrRenderCompositionInvalid = errors.New("microsite config: render composition is invalid")

var ErrUploadDirRequired = errors.New("microsite config: upload directory is required")
var ErrUploadLimitInvalid = errors.New("microsite config: upload size limit must be positive")
var ErrUploadWidthInvalid = errors.New("microsite config: upload widths must be positive")

var ErrGeneratorOutputDirRequired = errors.New("microsite config: generator output directory is required")

// Config aggregates runtime options for the microsite module.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Editor    EditorConfig    `mapstructure:"editor"`
	Render    RenderConfig    `mapstructure:"render"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	Markdown  MarkdownConfig  `mapstructure:"markdown"`
	Server    ServerConfig    `mapstructure:"server"`
	Generator GeneratorConfig `mapstructure:"generator"`
}

// LoggingConfig selects and tunes the logger provider.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
	Color     bool     `mapstructure:"color"`
}

// StorageConfig selects where the site document lives.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is the JSON or YAML document used by the file driver.
	Path     string        `mapstructure:"path"`
	DSN      string        `mapstructure:"dsn"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// SnapshotSchedule is a cron expression. When set, the file document is
	// copied into the revision store on that schedule.
	SnapshotSchedule string `mapstructure:"snapshot_schedule"`
	SnapshotDSN      string `mapstructure:"snapshot_dsn"`
	RevisionLimit    int    `mapstructure:"revision_limit"`
	Watch            bool   `mapstructure:"watch"`
}

// EditorConfig controls the draft store.
type EditorConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Debounce       time.Duration `mapstructure:"debounce"`
	FrameInterval  time.Duration `mapstructure:"frame_interval"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// RenderConfig controls page rendering.
type RenderConfig struct {
	PreferThumbs bool   `mapstructure:"prefer_thumbs"`
	Composition  string `mapstructure:"composition"`
	Lang         string `mapstructure:"lang"`
	BrandDefault string `mapstructure:"brand_default"`
	FooterSuffix string `mapstructure:"footer_suffix"`
}

// UploadsConfig controls the image upload pipeline.
type UploadsConfig struct {
	Dir          string   `mapstructure:"dir"`
	PublicPrefix string   `mapstructure:"public_prefix"`
	MaxBytes     int64    `mapstructure:"max_bytes"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	ThumbWidth   int      `mapstructure:"thumb_width"`
	MainWidth    int      `mapstructure:"main_width"`
	BannerWidth  int      `mapstructure:"banner_width"`
	JPEGQuality  int      `mapstructure:"jpeg_quality"`
}

// MarkdownConfig mirrors interfaces.ParseOptions.
type MarkdownConfig struct {
	Extensions []string `mapstructure:"extensions"`
	HardWraps  bool     `mapstructure:"hard_wraps"`
	SafeMode   bool     `mapstructure:"safe_mode"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	BasePath string `mapstructure:"base_path"`
}

// GeneratorConfig controls prerendering.
type GeneratorConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	BaseURL     string `mapstructure:"base_url"`
	CleanBuild  bool   `mapstructure:"clean_build"`
	Incremental bool   `mapstructure:"incremental"`
	Sitemap     bool   `mapstructure:"sitemap"`
	Robots      bool   `mapstructure:"robots"`
	Workers     int    `mapstructure:"workers"`
}

const (
	CompositionScaleOnly      = "scale-only"
	CompositionTranslateScale = "translate-scale"
)

// DefaultConfig returns the defaults used by the CLI and tests.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Storage: StorageConfig{
			Driver:        "file",
			Path:          "data/site-content.json",
			CacheTTL:      time.Minute,
			RevisionLimit: 50,
		},
		Editor: EditorConfig{
			Enabled:        true,
			Debounce:       200 * time.Millisecond,
			FrameInterval:  16 * time.Millisecond,
			CommandTimeout: 30 * time.Second,
		},
		Render: RenderConfig{
			PreferThumbs: true,
			Composition:  CompositionScaleOnly,
			Lang:         "es",
			BrandDefault: "Ojeda",
			FooterSuffix: "Todos los derechos reservados.",
		},
		Uploads: UploadsConfig{
			Dir:          "public/uploads",
			PublicPrefix: "/uploads",
			MaxBytes:     10 << 20,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
			ThumbWidth:   500,
			MainWidth:    1000,
			BannerWidth:  1600,
			JPEGQuality:  80,
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"gfm", "linkify"},
		},
		Server: ServerConfig{
			Addr:     ":5173",
			BasePath: "/api",
		},
		Generator: GeneratorConfig{
			OutputDir:  "dist",
			CleanBuild: true,
		},
	}
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	if err := cfg.Storage.validate(); err != nil {
		return err
	}
	if cfg.Editor.Debounce < 0 {
		return fmt.Errorf("%w: %s", ErrEditorDebounceInvalid, cfg.Editor.Debounce)
	}
	if composition := strings.TrimSpace(cfg.Render.Composition); composition != "" && !isSupportedComposition(composition) {
		return fmt.Errorf("%w: %s", ErrRenderCompositionInvalid, composition)
	}
	if strings.TrimSpace(cfg.Uploads.Dir) == "" {
		return ErrUploadDirRequired
	}
	if cfg.Uploads.MaxBytes <= 0 {
		return ErrUploadLimitInvalid
	}
	if cfg.Uploads.ThumbWidth <= 0 || cfg.Uploads.MainWidth <= 0 || cfg.Uploads.BannerWidth <= 0 {
		return ErrUploadWidthInvalid
	}
	if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
		return ErrGeneratorOutputDirRequired
	}
	return nil
}

func (cfg LoggingConfig) validate() error {
	provider := normalize(cfg.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func (cfg StorageConfig) validate() error {
	switch normalize(cfg.Driver) {
	case "file":
		if strings.TrimSpace(cfg.Path) == "" {
			return ErrStoragePathRequired
		}
	case "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(cfg.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Driver)
	}
	if cfg.RevisionLimit < 0 {
		return ErrRevisionLimitInvalid
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

func isSupportedComposition(value string) bool {
	switch normalize(value) {
	case CompositionScaleOnly, CompositionTranslateScale:
		return true
	default:
		return false
	}
}
