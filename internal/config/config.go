// Package config loads formfill's command line configuration from flags,
// FORMFILL_* environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kimodri/form-filler/layout"
)

const (
	// OCR engine names
	EngineTesseract = "tesseract"
	EngineVision    = "vision"
	EngineHOCR      = "hocr"

	// Log formats
	FormatText = "text"
	FormatJSON = "json"

	// Default values
	DefaultEngine    = EngineTesseract
	DefaultLogLevel  = "info"
	DefaultLogFormat = FormatText
	DefaultLanguages = "eng"

	// Version is reported by --version
	Version = "0.3.0"

	envPrefix = "FORMFILL"
)

// ErrVersionRequested is returned when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the formfill command
type Config struct {
	// Inputs are the scanned form files, one document per file
	Inputs []string

	// OCR configuration
	Engine     string   // "tesseract", "vision" or "hocr"
	HOCRFiles  []string // one hOCR file per page, for the hocr engine
	Languages  string   // tesseract languages joined by "+"
	OCRRetries int

	// Layout configuration
	RowTolerance  int
	GapThreshold  int
	MinSpaceWidth int
	Concurrency   int

	// FirstPageTitleOnly allows a form title only on the first page read
	FirstPageTitleOnly bool

	// Output configuration
	Profile      string // profile file with values to fill in
	OutDir       string // directory for filled pages
	AnnotateDir  string // directory for token overlays
	AllowPartial bool
	FontPath     string

	// Application configuration
	LogLevel  string
	LogFormat string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	tok := layout.DefaultTokenizerConfig()
	return &Config{
		Engine:        DefaultEngine,
		Languages:     DefaultLanguages,
		RowTolerance:  tok.ReadingOrderConfig.RowTolerance,
		GapThreshold:  tok.PhraseConfig.GapThreshold,
		MinSpaceWidth: tok.SpaceConfig.MinWidth,
		Concurrency:   runtime.GOMAXPROCS(0),
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
	}
}

// LoadFromFlags parses the command line and environment and returns a
// validated configuration. Positional arguments become Inputs.
func LoadFromFlags() (*Config, error) {
	// a missing .env is not an error
	_ = godotenv.Load()

	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)
	cfg.Inputs = pflag.Args()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// flagNames lists every flag bound to viper
var flagNames = []string{
	"ocr", "hocr", "languages", "ocr-retries",
	"row-tolerance", "gap-threshold", "min-space-width", "concurrency", "first-page-title-only",
	"profile", "out", "annotate", "allow-partial", "font",
	"loglevel", "logformat",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("ocr", cfg.Engine)
	viper.SetDefault("languages", cfg.Languages)
	viper.SetDefault("ocr-retries", cfg.OCRRetries)
	viper.SetDefault("row-tolerance", cfg.RowTolerance)
	viper.SetDefault("gap-threshold", cfg.GapThreshold)
	viper.SetDefault("min-space-width", cfg.MinSpaceWidth)
	viper.SetDefault("concurrency", cfg.Concurrency)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("logformat", cfg.LogFormat)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("ocr", cfg.Engine, "OCR engine: tesseract, vision or hocr")
	pflag.StringSlice("hocr", nil, "hOCR files, one per page in page order (hocr engine only)")
	pflag.String("languages", cfg.Languages, "Tesseract languages, joined by '+'")
	pflag.Int("ocr-retries", cfg.OCRRetries, "Retries for a failed OCR call")
	pflag.Int("row-tolerance", cfg.RowTolerance, "Maximum vertical distance in pixels between tokens on one row")
	pflag.Int("gap-threshold", cfg.GapThreshold, "Horizontal gap in pixels that splits a line into phrases")
	pflag.Int("min-space-width", cfg.MinSpaceWidth, fmt.Sprintf("Minimum width in pixels of a fill target (%d-%d)",
		layout.MinSpaceWidthLower, layout.MinSpaceWidthUpper))
	pflag.Int("concurrency", cfg.Concurrency, "Pages processed in parallel")
	pflag.Bool("first-page-title-only", false, "Only the first page read may carry the form title")
	pflag.String("profile", "", "Profile file (json, yaml or toml) with values to fill in")
	pflag.String("out", "", "Directory for filled page images")
	pflag.String("annotate", "", "Directory for token overlay images")
	pflag.Bool("allow-partial", false, "Fill forms that failed to parse")
	pflag.String("font", "", "TrueType font used for filled values")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("logformat", cfg.LogFormat, "Log format (text, json)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range flagNames {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nformfill - reads scanned forms and fills in their blanks\n\n")
		fmt.Fprintf(os.Stderr, "  %s [options] <form.pdf|png|jpg|tiff|bmp>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s form.pdf                                  # print tokens and mappings\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --profile=me.yaml --out=filled form.pdf   # fill the form\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --ocr=hocr --hocr=p1.hocr,p2.hocr form.pdf # use precomputed OCR\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_<OPTION>  any option, upper case with '-' as '_' (e.g. %s_ROW_TOLERANCE)\n",
			envPrefix, envPrefix)
		fmt.Fprintf(os.Stderr, "  GOOGLE_APPLICATION_CREDENTIALS  credentials for the vision engine\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Engine = viper.GetString("ocr")
	cfg.HOCRFiles = viper.GetStringSlice("hocr")
	cfg.Languages = viper.GetString("languages")
	cfg.OCRRetries = viper.GetInt("ocr-retries")
	cfg.RowTolerance = viper.GetInt("row-tolerance")
	cfg.GapThreshold = viper.GetInt("gap-threshold")
	cfg.MinSpaceWidth = viper.GetInt("min-space-width")
	cfg.Concurrency = viper.GetInt("concurrency")
	cfg.FirstPageTitleOnly = viper.GetBool("first-page-title-only")
	cfg.Profile = viper.GetString("profile")
	cfg.OutDir = viper.GetString("out")
	cfg.AnnotateDir = viper.GetString("annotate")
	cfg.AllowPartial = viper.GetBool("allow-partial")
	cfg.FontPath = viper.GetString("font")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.LogFormat = viper.GetString("logformat")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return errors.New("at least one input file is required")
	}

	switch c.Engine {
	case EngineTesseract, EngineVision:
	case EngineHOCR:
		if len(c.HOCRFiles) == 0 {
			return errors.New("the hocr engine needs --hocr files")
		}
		if len(c.Inputs) > 1 {
			return errors.New("the hocr engine reads a single input")
		}
	default:
		return fmt.Errorf("invalid ocr engine: %s (must be one of: tesseract, vision, hocr)", c.Engine)
	}

	if c.RowTolerance <= 0 {
		return errors.New("row tolerance must be positive")
	}
	if c.GapThreshold <= 0 {
		return errors.New("gap threshold must be positive")
	}
	if c.MinSpaceWidth < layout.MinSpaceWidthLower || c.MinSpaceWidth > layout.MinSpaceWidthUpper {
		return fmt.Errorf("min space width must be between %d and %d",
			layout.MinSpaceWidthLower, layout.MinSpaceWidthUpper)
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if c.OCRRetries < 0 {
		return errors.New("ocr retries cannot be negative")
	}
	if c.OutDir != "" && c.Profile == "" {
		return errors.New("--out needs a --profile to fill from")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		return fmt.Errorf("invalid log format: %s (must be one of: text, json)", c.LogFormat)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// Fills reports whether a profile was given
func (c *Config) Fills() bool {
	return c.Profile != ""
}

// TokenizerConfig returns the layout configuration selected by the flags
func (c *Config) TokenizerConfig() layout.TokenizerConfig {
	tok := layout.DefaultTokenizerConfig()
	tok.ReadingOrderConfig.RowTolerance = c.RowTolerance
	tok.PhraseConfig.GapThreshold = c.GapThreshold
	tok.SpaceConfig.MinWidth = c.MinSpaceWidth
	tok.ClassifierConfig.FirstPageTitleOnly = c.FirstPageTitleOnly
	return tok
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Inputs: %v, Engine: %s, RowTolerance: %d, GapThreshold: %d, MinSpaceWidth: %d, "+
		"Concurrency: %d, Profile: %s, OutDir: %s, LogLevel: %s}",
		c.Inputs, c.Engine, c.RowTolerance, c.GapThreshold, c.MinSpaceWidth,
		c.Concurrency, c.Profile, c.OutDir, c.LogLevel)
}
