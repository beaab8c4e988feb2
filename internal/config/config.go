// Package config loads and validates on-disk configuration. Settings come
// from an optional config file in the scan root, overridden by environment
// variables and then by command-line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// discoveryNames are probed in order inside the scan root when no
// explicit --config path is given.
var discoveryNames = []string{".carto.json", ".carto.yaml", ".carto.yml", ".carto.toml"}

var analysisModes = []string{"overview", "components", "architecture", "flows"}

var diagramFormats = []string{"graphviz", "mermaid", "plantuml"}

var outputFormats = []string{"markdown", "json", "compact", "diagram", "all"}

// Scan bounds the file collection pass.
type Scan struct {
	MaxFiles       int      `json:"max_files" yaml:"max_files" toml:"max_files"`
	MaxFileSize    int64    `json:"max_file_size" yaml:"max_file_size" toml:"max_file_size"`
	Exclude        []string `json:"exclude" yaml:"exclude" toml:"exclude"`
	Extensions     []string `json:"extensions" yaml:"extensions" toml:"extensions"`
	FollowSymlinks bool     `json:"follow_symlinks" yaml:"follow_symlinks" toml:"follow_symlinks"`
	Workers        int      `json:"workers" yaml:"workers" toml:"workers"`
}

// Nav tunes entry-point inference and path synthesis.
type Nav struct {
	EntryCap   int `json:"entry_cap" yaml:"entry_cap" toml:"entry_cap"`
	HopLimit   int `json:"hop_limit" yaml:"hop_limit" toml:"hop_limit"`
	ClusterCap int `json:"cluster_cap" yaml:"cluster_cap" toml:"cluster_cap"`
	Fanout     int `json:"fanout_threshold" yaml:"fanout_threshold" toml:"fanout_threshold"`
}

// Cache controls the per-file parse result store.
type Cache struct {
	Dir      string `json:"dir" yaml:"dir" toml:"dir"`
	Disabled bool   `json:"disabled" yaml:"disabled" toml:"disabled"`
}

// LLM configures the optional analysis call.
type LLM struct {
	Model       string  `json:"model" yaml:"model" toml:"model"`
	BaseURL     string  `json:"base_url" yaml:"base_url" toml:"base_url"`
	APIKey      string  `json:"api_key" yaml:"api_key" toml:"api_key"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	Mode        string  `json:"mode" yaml:"mode" toml:"mode"`
	Reasoning   int     `json:"reasoning" yaml:"reasoning" toml:"reasoning"`
}

// Output selects artifact encoding.
type Output struct {
	Format   string `json:"format" yaml:"format" toml:"format"`
	Diagram  string `json:"diagram_format" yaml:"diagram_format" toml:"diagram_format"`
	Dir      string `json:"dir" yaml:"dir" toml:"dir"`
	Snippets bool   `json:"snippets" yaml:"snippets" toml:"snippets"`
}

type Config struct {
	Scan   Scan   `json:"scan" yaml:"scan" toml:"scan"`
	Nav    Nav    `json:"nav" yaml:"nav" toml:"nav"`
	Cache  Cache  `json:"cache" yaml:"cache" toml:"cache"`
	LLM    LLM    `json:"llm" yaml:"llm" toml:"llm"`
	Output Output `json:"output" yaml:"output" toml:"output"`

	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFile  string `json:"log_file" yaml:"log_file" toml:"log_file"`

	// Source is the config file the values came from, empty when running
	// on defaults.
	Source string `json:"-" yaml:"-" toml:"-"`
}

func Default() Config {
	return Config{
		Scan: Scan{
			MaxFiles:    100,
			MaxFileSize: 100 * 1024,
			Workers:     defaultWorkers(),
		},
		Nav: Nav{
			EntryCap:   5,
			HopLimit:   3,
			ClusterCap: 8,
			Fanout:     1,
		},
		Cache: Cache{
			Dir: filepath.Join("~", ".cache", "carto"),
		},
		LLM: LLM{
			Model:       "gpt-4o",
			BaseURL:     "https://api.openai.com/v1",
			MaxTokens:   6000,
			Temperature: 0.2,
			Mode:        "overview",
			Reasoning:   5,
		},
		Output: Output{
			Format:  "markdown",
			Diagram: "graphviz",
			Dir:     ".carto",
		},
		LogLevel: "info",
	}
}

func defaultWorkers() int {
	workers := runtime.GOMAXPROCS(0) + 4
	if workers > 32 {
		workers = 32
	}
	return workers
}

// Load resolves configuration for a run. An explicit path must exist; a
// discovered file is optional. Environment variables fill the API key when
// the file leaves it empty.
func Load(explicit, root string) (Config, error) {
	cfg := Default()

	path := explicit
	if path == "" {
		path = discover(root)
	} else if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config file: %w", err)
	}

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
		cfg.Source = path
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func discover(root string) string {
	for _, name := range discoveryNames {
		candidate := filepath.Join(root, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q (use .json, .yaml, .yml or .toml)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		if key := os.Getenv("CARTO_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Scan.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive, got %d", c.Scan.MaxFiles)
	}
	if c.Scan.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.Scan.MaxFileSize)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Nav.HopLimit <= 0 {
		return fmt.Errorf("hop_limit must be positive, got %d", c.Nav.HopLimit)
	}
	if c.LLM.Reasoning < 0 || c.LLM.Reasoning > 9 {
		return fmt.Errorf("reasoning must be between 0 and 9, got %d", c.LLM.Reasoning)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	if !contains(analysisModes, c.LLM.Mode) {
		return fmt.Errorf("invalid analysis mode %q (valid: %s)", c.LLM.Mode, strings.Join(analysisModes, ", "))
	}
	if !contains(outputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format %q (valid: %s)", c.Output.Format, strings.Join(outputFormats, ", "))
	}
	if !contains(diagramFormats, c.Output.Diagram) {
		return fmt.Errorf("invalid diagram format %q (valid: %s)", c.Output.Diagram, strings.Join(diagramFormats, ", "))
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}

// AnalysisModes lists the accepted --mode values.
func AnalysisModes() []string {
	return append([]string(nil), analysisModes...)
}

// DiagramFormats lists the accepted --diagram-format values.
func DiagramFormats() []string {
	return append([]string(nil), diagramFormats...)
}

// OutputFormats lists the accepted --format values.
func OutputFormats() []string {
	return append([]string(nil), outputFormats...)
}
