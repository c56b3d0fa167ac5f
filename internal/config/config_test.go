package config

import (
	"os"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags gives each test a fresh flag set and viper instance
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// withArgs runs LoadFromFlags against the given command line
func withArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	original := os.Args
	t.Cleanup(func() {
		os.Args = original
		resetFlags()
	})

	os.Args = append([]string{"formfill"}, args...)
	resetFlags()
	return LoadFromFlags()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, EngineTesseract, cfg.Engine)
	assert.Equal(t, "eng", cfg.Languages)
	assert.Equal(t, 40, cfg.RowTolerance)
	assert.Equal(t, 27, cfg.GapThreshold)
	assert.Equal(t, 100, cfg.MinSpaceWidth)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Concurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, FormatText, cfg.LogFormat)
	assert.False(t, cfg.Fills())
}

func TestLoadFromFlags(t *testing.T) {
	cfg, err := withArgs(t,
		"--row-tolerance=20",
		"--gap-threshold=35",
		"--min-space-width=60",
		"--concurrency=2",
		"--profile=me.yaml",
		"--out=filled",
		"--loglevel=debug",
		"form.pdf", "other.png",
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"form.pdf", "other.png"}, cfg.Inputs)
	assert.Equal(t, 20, cfg.RowTolerance)
	assert.Equal(t, 35, cfg.GapThreshold)
	assert.Equal(t, 60, cfg.MinSpaceWidth)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "me.yaml", cfg.Profile)
	assert.Equal(t, "filled", cfg.OutDir)
	assert.True(t, cfg.IsDebug())
	assert.True(t, cfg.Fills())

	tok := cfg.TokenizerConfig()
	assert.Equal(t, 20, tok.ReadingOrderConfig.RowTolerance)
	assert.Equal(t, 35, tok.PhraseConfig.GapThreshold)
	assert.Equal(t, 60, tok.SpaceConfig.MinWidth)
}

func TestLoadFromFlagsHOCR(t *testing.T) {
	cfg, err := withArgs(t, "--ocr=hocr", "--hocr=p1.hocr,p2.hocr", "form.pdf")
	require.NoError(t, err)

	assert.Equal(t, EngineHOCR, cfg.Engine)
	assert.Equal(t, []string{"p1.hocr", "p2.hocr"}, cfg.HOCRFiles)
}

func TestLoadFromFlagsFirstPageTitleOnly(t *testing.T) {
	cfg, err := withArgs(t, "form.pdf")
	require.NoError(t, err)
	assert.False(t, cfg.FirstPageTitleOnly)
	assert.False(t, cfg.TokenizerConfig().ClassifierConfig.FirstPageTitleOnly)

	cfg, err = withArgs(t, "--first-page-title-only", "form.pdf")
	require.NoError(t, err)
	assert.True(t, cfg.FirstPageTitleOnly)
	assert.True(t, cfg.TokenizerConfig().ClassifierConfig.FirstPageTitleOnly)
}

func TestLoadFromFlagsEnvironment(t *testing.T) {
	t.Setenv("FORMFILL_OCR", "vision")
	t.Setenv("FORMFILL_ROW_TOLERANCE", "25")
	t.Setenv("FORMFILL_ALLOW_PARTIAL", "true")

	cfg, err := withArgs(t, "form.png")
	require.NoError(t, err)

	assert.Equal(t, EngineVision, cfg.Engine)
	assert.Equal(t, 25, cfg.RowTolerance)
	assert.True(t, cfg.AllowPartial)
}

func TestLoadFromFlagsOverridesEnvironment(t *testing.T) {
	t.Setenv("FORMFILL_ROW_TOLERANCE", "25")

	cfg, err := withArgs(t, "--row-tolerance=30", "form.png")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.RowTolerance)
}

func TestLoadFromFlagsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no inputs", nil, "at least one input file"},
		{"unknown engine", []string{"--ocr=abbyy", "f.pdf"}, "invalid ocr engine"},
		{"hocr without files", []string{"--ocr=hocr", "f.pdf"}, "needs --hocr files"},
		{"narrow spaces", []string{"--min-space-width=10", "f.pdf"}, "min space width must be between 27 and 100"},
		{"wide spaces", []string{"--min-space-width=150", "f.pdf"}, "min space width must be between 27 and 100"},
		{"zero concurrency", []string{"--concurrency=0", "f.pdf"}, "concurrency must be at least 1"},
		{"out without profile", []string{"--out=filled", "f.pdf"}, "needs a --profile"},
		{"bad log level", []string{"--loglevel=trace", "f.pdf"}, "invalid log level"},
		{"bad log format", []string{"--logformat=xml", "f.pdf"}, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := withArgs(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFlagsVersion(t *testing.T) {
	_, err := withArgs(t, "--version")
	assert.ErrorIs(t, err, ErrVersionRequested)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Inputs = []string{"form.pdf"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"lower bound", func(c *Config) { c.MinSpaceWidth = 27 }, false},
		{"upper bound", func(c *Config) { c.MinSpaceWidth = 100 }, false},
		{"negative retries", func(c *Config) { c.OCRRetries = -1 }, true},
		{"zero row tolerance", func(c *Config) { c.RowTolerance = 0 }, true},
		{"zero gap", func(c *Config) { c.GapThreshold = 0 }, true},
		{"hocr multiple inputs", func(c *Config) {
			c.Engine = EngineHOCR
			c.HOCRFiles = []string{"p1.hocr"}
			c.Inputs = []string{"a.pdf", "b.pdf"}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
