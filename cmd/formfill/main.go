// Command formfill reads scanned forms, prints their tokens and field
// mappings as JSON, and optionally fills them in from a profile.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	"github.com/sirupsen/logrus"

	formfiller "github.com/kimodri/form-filler"
	"github.com/kimodri/form-filler/grammar"
	"github.com/kimodri/form-filler/internal/config"
	"github.com/kimodri/form-filler/ocr"
	"github.com/kimodri/form-filler/render"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	exitOK       = 0
	exitFailure  = 1
	exitRejected = 2
)

// retryDelay is the pause between OCR attempts
const retryDelay = 2 * time.Second

// setupLogging creates the stderr logger selected by the configuration
func setupLogging(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == config.FormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// newEngine creates the OCR engine and a function releasing it
func newEngine(ctx context.Context, cfg *config.Config) (ocr.Engine, func(), error) {
	switch cfg.Engine {
	case config.EngineVision:
		client, err := vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create vision client: %w", err)
		}
		hints := strings.FieldsFunc(cfg.Languages, func(r rune) bool { return r == '+' })
		engine := ocr.NewVisionWithConfig(client, ocr.VisionConfig{LanguageHints: visionHints(hints)})
		return engine, func() { _ = client.Close() }, nil

	case config.EngineHOCR:
		engine, err := ocr.NewHOCRFiles(cfg.HOCRFiles...)
		if err != nil {
			return nil, nil, err
		}
		return engine, func() {}, nil

	default:
		tc := ocr.DefaultTesseractConfig()
		tc.Languages = cfg.Languages
		engine, err := ocr.NewTesseract(tc)
		if err != nil {
			return nil, nil, err
		}
		return engine, func() { _ = engine.Close() }, nil
	}
}

// visionHints maps the common Tesseract language codes to BCP-47
func visionHints(languages []string) []string {
	codes := map[string]string{"eng": "en", "fil": "fil", "tgl": "tl", "spa": "es"}
	hints := make([]string, 0, len(languages))
	for _, l := range languages {
		if code, ok := codes[l]; ok {
			hints = append(hints, code)
		} else {
			hints = append(hints, l)
		}
	}
	return hints
}

// extractor builds the Extractor for one input
func extractor(cfg *config.Config, engine ocr.Engine, logger logrus.FieldLogger, path string) *formfiller.Extractor {
	fc := render.DefaultFillerConfig()
	fc.FontPath = cfg.FontPath
	fc.AllowPartial = cfg.AllowPartial

	ext := formfiller.Open(path).
		Engine(engine).
		TokenizerConfig(cfg.TokenizerConfig()).
		Concurrency(cfg.Concurrency).
		Retries(cfg.OCRRetries, retryDelay).
		FillerConfig(fc).
		Logger(logger.WithField("input", path))
	if cfg.AnnotateDir != "" {
		ext = ext.Overlays()
	}
	return ext
}

// process reads, and when a profile is given fills, one input. It writes
// the report to out and returns whether the form parsed.
func process(ctx context.Context, cfg *config.Config, ext *formfiller.Extractor, profile *render.Profile, path string, out io.Writer) (bool, error) {
	var (
		report *formfiller.Report
		filled *formfiller.FillResult
		err    error
	)

	if profile != nil {
		filled, _, err = ext.Fill(ctx, profile)
		if filled != nil {
			report = filled.Report
		}
		if err != nil && !errors.Is(err, grammar.ErrRejected) {
			return false, err
		}
	} else {
		report, _, err = ext.Parse(ctx)
		if err != nil {
			return false, err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return false, fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.AnnotateDir != "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "-tokens"
		if _, err := formfiller.WritePages(cfg.AnnotateDir, base, report.Overlays); err != nil {
			return false, err
		}
	}
	if cfg.OutDir != "" && filled != nil && len(filled.Pages) > 0 {
		if _, err := formfiller.WritePages(cfg.OutDir, path, filled.Pages); err != nil {
			return false, err
		}
	}

	return report.Result.Accepted, nil
}

func run() int {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitFailure
	}

	logger := setupLogging(cfg)
	if cfg.IsDebug() {
		logger.Debugf("Starting with configuration: %s", cfg.String())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var profile *render.Profile
	if cfg.Fills() {
		profile, err = render.LoadProfile(cfg.Profile)
		if err != nil {
			logger.WithError(err).Error("cannot load profile")
			return exitFailure
		}
	}

	engine, release, err := newEngine(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("cannot create OCR engine")
		return exitFailure
	}
	defer release()

	code := exitOK
	for _, path := range cfg.Inputs {
		accepted, err := process(ctx, cfg, extractor(cfg, engine, logger, path), profile, path, os.Stdout)
		if err != nil {
			logger.WithError(err).WithField("input", path).Error("failed to process form")
			return exitFailure
		}
		if !accepted {
			logger.WithField("input", path).Warn("form did not parse")
			code = exitRejected
		}
	}
	return code
}

func main() {
	os.Exit(run())
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("formfill\n")
	fmt.Printf("Version: %s (%s)\n", version, config.Version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
