// Package config loads editor settings.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// environment variables (optionally seeded from a .env file). Validate is
// applied last and reports problems as *Error values.
package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-editor-mcp/internal/imaging"
	"github.com/ironsheep/image-editor-mcp/internal/logging"
)

// Environment variables read by Load.
const (
	EnvConfigFile    = "IMAGE_EDITOR_CONFIG"
	EnvLogLevel      = "IMAGE_EDITOR_LOG_LEVEL"
	EnvLogFile       = "IMAGE_EDITOR_LOG_FILE"
	EnvLoadTimeout   = "IMAGE_EDITOR_LOAD_TIMEOUT"
	EnvMaxBytes      = "IMAGE_EDITOR_MAX_BYTES"
	EnvExportFormat  = "IMAGE_EDITOR_EXPORT_FORMAT"
	EnvExportQuality = "IMAGE_EDITOR_EXPORT_QUALITY"
	EnvPreviewMax    = "IMAGE_EDITOR_PREVIEW_MAX"
	EnvMediaDir      = "IMAGE_EDITOR_MEDIA_DIR"
	EnvMediaDB       = "IMAGE_EDITOR_MEDIA_DB"
	EnvUserAgent     = "IMAGE_EDITOR_USER_AGENT"
)

// Config is the complete editor configuration.
type Config struct {
	Log     logging.Config `yaml:"log"`
	Loader  LoaderConfig   `yaml:"loader"`
	Export  ExportConfig   `yaml:"export"`
	Preview PreviewConfig  `yaml:"preview"`
	Media   MediaConfig    `yaml:"media"`
}

// LoaderConfig controls source fetching.
type LoaderConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	UserAgent string        `yaml:"user_agent"`
}

// ExportConfig selects the encoder for exports.
type ExportConfig struct {
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
}

// PreviewConfig controls preview rendering.
type PreviewConfig struct {
	MaxDimension int    `yaml:"max_dimension"`
	GuideColor   string `yaml:"guide_color"`
}

// MediaConfig locates the media library. An empty Dir disables saving.
type MediaConfig struct {
	Dir      string `yaml:"dir"`
	Database string `yaml:"database"`
}

// Default returns the built-in configuration.
func Default() Config {
	lc := imaging.DefaultLoaderConfig()
	return Config{
		Log: logging.Config{Level: "info"},
		Loader: LoaderConfig{
			Timeout:   lc.Timeout,
			MaxBytes:  lc.MaxBytes,
			UserAgent: lc.UserAgent,
		},
		Export: ExportConfig{
			Format:  string(imaging.FormatJPEG),
			Quality: imaging.DefaultQuality,
		},
		Preview: PreviewConfig{
			MaxDimension: 1024,
			GuideColor:   "#FFFFFF",
		},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded if present; path (or $IMAGE_EDITOR_CONFIG when path is empty)
// names an optional YAML file.
func Load(path string) (Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errFileUnreadable(path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errFileInvalid(path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Log.Level, EnvLogLevel)
	setString(&c.Log.File, EnvLogFile)
	setString(&c.Loader.UserAgent, EnvUserAgent)
	setString(&c.Export.Format, EnvExportFormat)
	setString(&c.Media.Dir, EnvMediaDir)
	setString(&c.Media.Database, EnvMediaDB)

	if v := os.Getenv(EnvLoadTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errInvalidValue(EnvLoadTimeout, err.Error(), "Use a Go duration such as 30s or 2m")
		}
		c.Loader.Timeout = d
	}
	if err := setInt64(&c.Loader.MaxBytes, EnvMaxBytes); err != nil {
		return err
	}
	if err := setInt(&c.Export.Quality, EnvExportQuality); err != nil {
		return err
	}
	return setInt(&c.Preview.MaxDimension, EnvPreviewMax)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errInvalidValue(key, "not an integer: "+v, "Set "+key+" to a whole number")
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return errInvalidValue(key, "not an integer: "+v, "Set "+key+" to a whole number of bytes")
	}
	*dst = n
	return nil
}

// Validate checks every section and returns all problems joined.
func (c Config) Validate() error {
	var errs []error

	if c.Loader.Timeout <= 0 {
		errs = append(errs, errInvalidValue("loader.timeout", "must be positive", "Set a timeout such as 30s"))
	}
	if c.Loader.MaxBytes <= 0 {
		errs = append(errs, errInvalidValue("loader.max_bytes", "must be positive", "Set a byte limit such as 52428800"))
	}
	if _, err := imaging.ParseFormat(c.Export.Format); err != nil {
		errs = append(errs, errInvalidValue("export.format", err.Error(), "Use jpeg, webp or png"))
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		errs = append(errs, errInvalidValue("export.quality", strconv.Itoa(c.Export.Quality), "Use a quality between 1 and 100"))
	}
	if c.Preview.MaxDimension < 16 {
		errs = append(errs, errInvalidValue("preview.max_dimension", strconv.Itoa(c.Preview.MaxDimension), "Use at least 16 pixels"))
	}
	if c.Preview.GuideColor != "" {
		if _, err := imaging.ParseHexColor(c.Preview.GuideColor); err != nil {
			errs = append(errs, errInvalidValue("preview.guide_color", err.Error(), "Use #RRGGBB or #RRGGBBAA"))
		}
	}
	if c.Media.Database != "" && c.Media.Dir == "" {
		errs = append(errs, errInvalidValue("media.dir", "required when media.database is set", "Set media.dir or "+EnvMediaDir))
	}

	return errors.Join(errs...)
}

// LoaderOptions converts the loader section for the imaging package.
func (c Config) LoaderOptions() imaging.LoaderConfig {
	return imaging.LoaderConfig{
		Timeout:   c.Loader.Timeout,
		MaxBytes:  c.Loader.MaxBytes,
		UserAgent: c.Loader.UserAgent,
	}
}

// ExportFormat returns the validated export format.
func (c Config) ExportFormat() imaging.Format {
	f, err := imaging.ParseFormat(c.Export.Format)
	if err != nil {
		return imaging.FormatJPEG
	}
	return f
}

// MediaDatabase returns the SQLite path, defaulting to media.db inside Dir.
func (c Config) MediaDatabase() string {
	if c.Media.Database != "" {
		return c.Media.Database
	}
	if c.Media.Dir == "" {
		return ""
	}
	return filepath.Join(c.Media.Dir, "media.db")
}

// GuideColor returns the parsed preview guide color, or the default when
// unset.
func (c Config) GuideColor() color.NRGBA {
	if c.Preview.GuideColor == "" {
		return imaging.DefaultGuideColor
	}
	col, err := imaging.ParseHexColor(c.Preview.GuideColor)
	if err != nil {
		return imaging.DefaultGuideColor
	}
	return col
}
