package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carto-dev/carto/internal/config"
	"github.com/carto-dev/carto/internal/encode"
	"github.com/carto-dev/carto/internal/logging"
)

// globalFlags are the persistent root flags every subcommand honors.
type globalFlags struct {
	configPath string
	verbose    bool
	quiet      bool
	asJSON     bool
	noCache    bool
}

func readGlobalFlags(cmd *cobra.Command) (globalFlags, error) {
	var g globalFlags
	var err error
	flags := cmd.Flags()

	if g.configPath, err = flags.GetString("config"); err != nil {
		return g, fmt.Errorf("failed to read --config flag: %w", err)
	}
	if g.verbose, err = flags.GetBool("verbose"); err != nil {
		return g, fmt.Errorf("failed to read --verbose flag: %w", err)
	}
	if g.quiet, err = flags.GetBool("quiet"); err != nil {
		return g, fmt.Errorf("failed to read --quiet flag: %w", err)
	}
	if g.asJSON, err = flags.GetBool("json"); err != nil {
		return g, fmt.Errorf("failed to read --json flag: %w", err)
	}
	if g.noCache, err = flags.GetBool("no-cache"); err != nil {
		return g, fmt.Errorf("failed to read --no-cache flag: %w", err)
	}
	return g, nil
}

// newLogger maps config level and the verbosity flags onto the zap sink.
// Verbose wins over quiet; quiet still surfaces errors.
func newLogger(cfg config.Config, g globalFlags) logging.Logger {
	level := cfg.LogLevel
	if g.quiet {
		level = "error"
	}
	if g.verbose {
		level = "debug"
	}
	return logging.New(logging.Options{Level: level, LogFile: cfg.LogFile})
}

// applyIndexFlags folds explicitly set scan and output flags into the
// resolved config. Flags win over file values.
func applyIndexFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("format") {
		value, err := flags.GetString("format")
		if err != nil {
			return fmt.Errorf("failed to read --format flag: %w", err)
		}
		format, err := encode.ParseFormat(value)
		if err != nil {
			return err
		}
		cfg.Output.Format = string(format)
	}
	if flags.Changed("diagram") {
		value, err := flags.GetString("diagram")
		if err != nil {
			return fmt.Errorf("failed to read --diagram flag: %w", err)
		}
		if value != "none" && !containsString(config.DiagramFormats(), value) {
			return fmt.Errorf("unknown diagram format %q (valid: none, %s)",
				value, strings.Join(config.DiagramFormats(), ", "))
		}
		cfg.Output.Diagram = value
	}
	if flags.Changed("snippets") {
		snippets, err := flags.GetBool("snippets")
		if err != nil {
			return fmt.Errorf("failed to read --snippets flag: %w", err)
		}
		cfg.Output.Snippets = snippets
	}
	if flags.Changed("max-files") {
		maxFiles, err := flags.GetInt("max-files")
		if err != nil {
			return fmt.Errorf("failed to read --max-files flag: %w", err)
		}
		if maxFiles <= 0 {
			return fmt.Errorf("--max-files must be positive, got %d", maxFiles)
		}
		cfg.Scan.MaxFiles = maxFiles
	}
	if flags.Changed("max-file-size") {
		maxSize, err := flags.GetInt64("max-file-size")
		if err != nil {
			return fmt.Errorf("failed to read --max-file-size flag: %w", err)
		}
		if maxSize <= 0 {
			return fmt.Errorf("--max-file-size must be positive, got %d", maxSize)
		}
		cfg.Scan.MaxFileSize = maxSize
	}
	if flags.Changed("exclude") {
		excludes, err := flags.GetStringSlice("exclude")
		if err != nil {
			return fmt.Errorf("failed to read --exclude flag: %w", err)
		}
		cfg.Scan.Exclude = append(cfg.Scan.Exclude, excludes...)
	}
	if flags.Changed("follow-symlinks") {
		follow, err := flags.GetBool("follow-symlinks")
		if err != nil {
			return fmt.Errorf("failed to read --follow-symlinks flag: %w", err)
		}
		cfg.Scan.FollowSymlinks = follow
	}
	return nil
}

// applyAnalyzeFlags folds the analyze-only flags into the LLM config.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("mode") {
		mode, err := flags.GetString("mode")
		if err != nil {
			return fmt.Errorf("failed to read --mode flag: %w", err)
		}
		if !containsString(config.AnalysisModes(), mode) {
			return fmt.Errorf("unknown analysis mode %q (valid: %s)",
				mode, strings.Join(config.AnalysisModes(), ", "))
		}
		cfg.LLM.Mode = mode
	}
	if flags.Changed("model") {
		model, err := flags.GetString("model")
		if err != nil {
			return fmt.Errorf("failed to read --model flag: %w", err)
		}
		cfg.LLM.Model = model
	}
	if flags.Changed("base-url") {
		baseURL, err := flags.GetString("base-url")
		if err != nil {
			return fmt.Errorf("failed to read --base-url flag: %w", err)
		}
		cfg.LLM.BaseURL = baseURL
	}
	if flags.Changed("reasoning") {
		reasoning, err := flags.GetInt("reasoning")
		if err != nil {
			return fmt.Errorf("failed to read --reasoning flag: %w", err)
		}
		if reasoning < 0 || reasoning > 9 {
			return fmt.Errorf("--reasoning must be between 0 and 9, got %d", reasoning)
		}
		cfg.LLM.Reasoning = reasoning
	}
	return nil
}

func containsString(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
