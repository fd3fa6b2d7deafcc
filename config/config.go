// Package config loads the YAML acquisition and training configuration
// shared by the binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-spectro/features"
	"github.com/cwbudde/algo-spectro/ingest"
	"github.com/cwbudde/algo-spectro/spectra"
)

// ErrNotFound is returned when no configuration file can be located.
var ErrNotFound = errors.New("config: file not found")

// FileName is the configuration looked up when no path is given.
const FileName = "config.yaml"

// Input formats.
const (
	FormatPixel = "pixel"
	FormatTRL5  = "trl5"
)

// Config is the full configuration file.
type Config struct {
	MainFolder      string `yaml:"main_folder"`
	DarkrefFolder   string `yaml:"darkref_folder"`
	Sub             string `yaml:"Sub"`
	IntegrationTime string `yaml:"integration_time"`
	Source          string `yaml:"source"`
	Emission        string `yaml:"emission"`
	ABStatus        string `yaml:"ab_status"`

	// Format is the export format of MainFolder, pixel or trl5.
	Format    string `yaml:"format"`
	Recursive bool   `yaml:"recursive"`
	TRL5      TRL5   `yaml:"trl5"`

	Filter    Filter    `yaml:"filter"`
	Grid      Grid      `yaml:"grid"`
	Normalize Normalize `yaml:"normalize"`
	Quality   Quality   `yaml:"quality"`
	Labels    Labels    `yaml:"labels"`

	PowerRatios Ratios `yaml:"power_ratios"`
	ExtraBands  int    `yaml:"extra_bands"`
	Quantize    bool   `yaml:"quantize"`

	Train Train `yaml:"train"`

	ModelsDir string `yaml:"models_dir"`
	StoreDSN  string `yaml:"store_dsn"`
	Workers   int    `yaml:"workers"`
	Log       Log    `yaml:"log"`

	// Path is the file the configuration was read from.
	Path string `yaml:"-"`
}

// TRL5 configures the legacy TRL5 input.
type TRL5 struct {
	DarkWorkbook string `yaml:"dark_workbook"`
	MinPosition  int    `yaml:"min_position"`
	MaxPosition  int    `yaml:"max_position"`
}

// Filter configures the smoothing stage.
type Filter struct {
	Kind       string  `yaml:"kind"`
	Taps       int     `yaml:"taps"`
	Cutoff     float64 `yaml:"cutoff"`
	Order      int     `yaml:"order"`
	Window     int     `yaml:"window"`
	SampleRate float64 `yaml:"sample_rate"`
	Causal     bool    `yaml:"causal"`
}

// Grid is the common wavelength grid.
type Grid struct {
	Start  float64 `yaml:"start"`
	Stop   float64 `yaml:"stop"`
	Points int     `yaml:"points"`
}

// Normalize configures the scale reference.
type Normalize struct {
	Mode  string  `yaml:"mode"`
	Point float64 `yaml:"point"`
	Lo    float64 `yaml:"lo"`
	Hi    float64 `yaml:"hi"`
	Floor float64 `yaml:"floor"`
}

// Quality configures the saturation filter.
type Quality struct {
	Skip       bool                          `yaml:"skip"`
	Lo         float64                       `yaml:"lo"`
	Hi         float64                       `yaml:"hi"`
	Thresholds map[string]map[string]float64 `yaml:"thresholds"`
	Default    float64                       `yaml:"default"`
}

// Labels selects the labelling scheme.
type Labels struct {
	Scheme string `yaml:"scheme"`
}

// Train configures model selection.
type Train struct {
	Percent float64 `yaml:"percent"`
	Folds   int     `yaml:"folds"`
	Seed    uint64  `yaml:"seed"`
	SMOTE   bool    `yaml:"smote"`
	SMOTEK  int     `yaml:"smote_k"`
	Scale   bool    `yaml:"scale"`
	Alpha   float64 `yaml:"alpha"`
}

// Log configures the binaries' logger.
type Log struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Production bool   `yaml:"production"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	sm := spectra.DefaultSmoother()
	nr := spectra.DefaultNormRef()
	qf := spectra.DefaultQualityFilter()

	return &Config{
		Sub:       string(spectra.RefDark),
		Source:    "LED",
		Emission:  spectra.Emission,
		ABStatus:  "AB_OFF",
		Format:    FormatPixel,
		Filter:    Filter{Kind: string(sm.Kind), Taps: sm.Taps, Cutoff: sm.Cutoff, Order: sm.Order, Window: sm.Window},
		Grid:      Grid{Start: spectra.DefaultGrid.Start, Stop: spectra.DefaultGrid.Stop, Points: spectra.DefaultGrid.Points},
		Normalize: Normalize{Mode: string(nr.Mode), Point: nr.Point, Lo: nr.Lo, Hi: nr.Hi, Floor: nr.Floor},
		Quality:   Quality{Lo: qf.Lo, Hi: qf.Hi, Thresholds: qf.Thresholds, Default: qf.Default},
		Labels:    Labels{Scheme: string(spectra.SchemeStone)},

		PowerRatios: Ratios(features.DefaultRatios()),
		ExtraBands:  3,

		Train: Train{Percent: 80, Folds: 5, Seed: 42, SMOTEK: 5, Scale: true, Alpha: 0.05},

		ModelsDir: "models",
		Log:       Log{Level: "info", Format: "text"},
	}
}

// Load reads the configuration at path, or the one Locate finds when path
// is empty. A .env file in the working directory is loaded first when
// present; TS_* variables override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	path, err := Locate(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	cfg.Path = path
	cfg.applyEnv()
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults. Keys that are absent keep their
// default values; power_ratios replaces the default list when present.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	cfg.Source = strings.ToUpper(strings.TrimSpace(cfg.Source))
	cfg.Emission = strings.ToUpper(strings.TrimSpace(cfg.Emission))
	cfg.ABStatus = strings.ToUpper(strings.TrimSpace(cfg.ABStatus))
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))

	return cfg, nil
}

// Locate resolves the configuration path: explicit, then $TS_CONFIG, then
// config.yaml in the working directory, then next to the executable.
func Locate(explicit string) (string, error) {
	var candidates []string

	switch {
	case explicit != "":
		candidates = []string{explicit}
		if !filepath.IsAbs(explicit) {
			if exe, err := os.Executable(); err == nil {
				candidates = append(candidates, filepath.Join(filepath.Dir(exe), explicit))
			}
		}
	case os.Getenv("TS_CONFIG") != "":
		candidates = []string{os.Getenv("TS_CONFIG")}
	default:
		candidates = []string{FileName}
		if exe, err := os.Executable(); err == nil {
			candidates = append(candidates, filepath.Join(filepath.Dir(exe), FileName))
		}
	}

	for _, p := range candidates {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			abs, err := filepath.Abs(p)
			if err != nil {
				return p, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("%w: looked for %s", ErrNotFound, strings.Join(candidates, ", "))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("TS_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("TS_LOG_FORMAT", c.Log.Format)
	c.StoreDSN = getEnv("TS_STORE_DSN", c.StoreDSN)
	c.ModelsDir = getEnv("TS_MODELS_DIR", c.ModelsDir)

	if v := os.Getenv("TS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

// resolvePaths makes relative folders relative to the configuration file.
func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.MainFolder, &c.DarkrefFolder, &c.ModelsDir, &c.TRL5.DarkWorkbook} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	if c.StoreDSN != "" && c.StoreDSN != ":memory:" && !filepath.IsAbs(c.StoreDSN) && !strings.HasPrefix(c.StoreDSN, "file:") {
		c.StoreDSN = filepath.Join(base, c.StoreDSN)
	}
}

// Validate checks the configuration for values the pipeline rejects.
func (c *Config) Validate() error {
	switch c.Source {
	case "LED", "XENON":
	default:
		return fmt.Errorf("source must be LED or XENON, got %q", c.Source)
	}
	switch c.Emission {
	case spectra.Emission, spectra.NonEmission:
	default:
		return fmt.Errorf("emission must be EMISSION or NONEMISSION, got %q", c.Emission)
	}
	switch c.Format {
	case FormatPixel, FormatTRL5:
	default:
		return fmt.Errorf("format must be pixel or trl5, got %q", c.Format)
	}

	if _, err := c.Processor(); err != nil {
		return err
	}

	if len(c.PowerRatios) == 0 {
		return fmt.Errorf("power_ratios: %w: no ratios", features.ErrInvalidRatio)
	}
	if c.ExtraBands < 0 {
		return fmt.Errorf("extra_bands must be >= 0, got %d", c.ExtraBands)
	}

	if c.Train.Percent <= 0 || c.Train.Percent >= 100 {
		return fmt.Errorf("train.percent must be in (0, 100), got %g", c.Train.Percent)
	}
	if c.Train.Folds < 2 {
		return fmt.Errorf("train.folds must be >= 2, got %d", c.Train.Folds)
	}
	if c.Train.SMOTE && c.Train.SMOTEK < 1 {
		return fmt.Errorf("train.smote_k must be >= 1, got %d", c.Train.SMOTEK)
	}
	if !(c.Train.Alpha > 0 && c.Train.Alpha < 1) {
		return fmt.Errorf("train.alpha must be in (0, 1), got %g", c.Train.Alpha)
	}

	return nil
}

// Processor converts the acquisition sections to a spectra.Config and
// validates them.
func (c *Config) Processor() (spectra.Config, error) {
	ref, err := spectra.ParseReferenceMode(c.Sub)
	if err != nil {
		return spectra.Config{}, fmt.Errorf("Sub: %w", err)
	}

	pc := spectra.DefaultConfig(c.Source, c.Emission)
	pc.IntegrationTime = c.IntegrationTime
	pc.Reference = ref
	pc.DarkDir = c.DarkrefFolder
	pc.Smoother = spectra.Smoother{
		Kind:       spectra.SmootherKind(strings.ToLower(c.Filter.Kind)),
		Taps:       c.Filter.Taps,
		Cutoff:     c.Filter.Cutoff,
		Order:      c.Filter.Order,
		Window:     c.Filter.Window,
		SampleRate: c.Filter.SampleRate,
		Causal:     c.Filter.Causal,
	}
	pc.Grid = spectra.Grid{Start: c.Grid.Start, Stop: c.Grid.Stop, Points: c.Grid.Points}
	pc.Norm = spectra.NormRef{
		Mode:  spectra.NormMode(strings.ToLower(c.Normalize.Mode)),
		Point: c.Normalize.Point,
		Lo:    c.Normalize.Lo,
		Hi:    c.Normalize.Hi,
		Floor: c.Normalize.Floor,
	}
	pc.Quality = spectra.QualityFilter{
		Lo:         c.Quality.Lo,
		Hi:         c.Quality.Hi,
		Thresholds: upperKeys(c.Quality.Thresholds),
		Default:    c.Quality.Default,
	}
	pc.SkipQuality = c.Quality.Skip
	pc.Labeler = spectra.DefaultLabeler(spectra.LabelScheme(strings.ToLower(c.Labels.Scheme)))

	if err := pc.Smoother.Validate(); err != nil {
		return spectra.Config{}, err
	}
	if err := pc.Grid.Validate(); err != nil {
		return spectra.Config{}, err
	}
	if err := pc.Norm.Check(pc.Grid.Values()); err != nil {
		return spectra.Config{}, err
	}
	if err := pc.Labeler.Validate(); err != nil {
		return spectra.Config{}, err
	}

	return pc, nil
}

// TRL5Options returns the TRL5 input options.
func (c *Config) TRL5Options() spectra.TRL5Options {
	return spectra.TRL5Options{
		DarkWorkbook: c.TRL5.DarkWorkbook,
		DarkRange:    ingest.DarkSheetRange,
		Recursive:    c.Recursive,
		MinPosition:  c.TRL5.MinPosition,
		MaxPosition:  c.TRL5.MaxPosition,
	}
}

// ModelPath returns the exported model file for the configured source and
// AB status.
func (c *Config) ModelPath() string {
	return filepath.Join(c.ModelsDir, c.Source+"_"+c.ABStatus+".json")
}

func upperKeys(in map[string]map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(in))
	for src, byEmission := range in {
		m := make(map[string]float64, len(byEmission))
		for em, v := range byEmission {
			m[strings.ToUpper(em)] = v
		}
		out[strings.ToUpper(src)] = m
	}
	return out
}
