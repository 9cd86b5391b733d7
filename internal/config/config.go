package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EnvThreshold is the environment variable that overrides the gate threshold.
const EnvThreshold = "MUTATION_THRESHOLD"

// DefaultThreshold is the mutation-score gate applied when nothing overrides it.
const DefaultThreshold = 80.0

// StageCommands holds the argv for each external tool the pipeline drives.
type StageCommands struct {
	Install  []string `yaml:"install"`
	Test     []string `yaml:"test"`
	Coverage []string `yaml:"coverage"`
	Mutation []string `yaml:"mutation"`
}

// Screenshots configures the placeholder image stage.
type Screenshots struct {
	Dir    string   `yaml:"dir"`
	Names  []string `yaml:"names"`
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
}

// Config is the fully resolved pipeline configuration. All paths are absolute
// after Load; callers never consult the environment or working directory again.
type Config struct {
	Threshold   float64       `yaml:"threshold"`
	ProjectRoot string        `yaml:"-"`
	ResultsDir  string        `yaml:"results_dir"`
	StateDir    string        `yaml:"state_dir"`
	ReportsDir  string        `yaml:"reports_dir"`
	CoverageSrc string        `yaml:"coverage_src"`
	Commands    StageCommands `yaml:"commands"`
	Screenshots Screenshots   `yaml:"screenshots"`
}

// Default returns the built-in configuration anchored at root.
func Default(root string) Config {
	return Config{
		Threshold:   DefaultThreshold,
		ProjectRoot: root,
		ResultsDir:  "test/results",
		StateDir:    ".pipegate/run",
		ReportsDir:  "reports/mutation",
		CoverageSrc: "coverage",
		Commands: StageCommands{
			Install:  []string{"npm", "ci"},
			Test:     []string{"npx", "mocha", "--reporter", "json"},
			Coverage: []string{"npx", "nyc", "--reporter=html", "--report-dir=coverage", "npm", "test"},
			Mutation: []string{"npx", "stryker", "run"},
		},
		Screenshots: Screenshots{
			Dir:    "test/results/screenshots",
			Names:  []string{"home", "product", "cart"},
			Width:  1280,
			Height: 720,
		},
	}
}

// Load resolves the configuration for root, layering an optional yaml file
// over the defaults. An empty path means "use pipegate.yml if present"; a
// missing explicit path is an error.
func Load(root, path string) (Config, error) {
	cfg := Default(root)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, "pipegate.yml")
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		cfg.anchor()
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Threshold < 0 || math.IsNaN(cfg.Threshold) || math.IsInf(cfg.Threshold, 0) {
		return Config{}, fmt.Errorf("config %s: threshold must be a non-negative number", path)
	}

	cfg.ProjectRoot = root
	cfg.anchor()
	return cfg, nil
}

// ParseThreshold parses a threshold override (env var or flag value). It
// accepts plain non-negative decimals only.
func ParseThreshold(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", s, err)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid threshold %q: must be a non-negative number", s)
	}
	return v, nil
}

// MochaResultsPath is where the test runner's structured results land.
func (c Config) MochaResultsPath() string {
	return filepath.Join(c.ResultsDir, "mocha-results.json")
}

// CoverageDestDir is where the coverage tool's report tree is copied to.
func (c Config) CoverageDestDir() string {
	return filepath.Join(c.ResultsDir, "coverage")
}

// SummaryPath is where the mutation summary record is persisted.
func (c Config) SummaryPath() string {
	return filepath.Join(c.ResultsDir, "mutation-summary.json")
}

func (c *Config) anchor() {
	for _, p := range []*string{&c.ResultsDir, &c.StateDir, &c.ReportsDir, &c.CoverageSrc, &c.Screenshots.Dir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(c.ProjectRoot, *p)
		}
	}
}
