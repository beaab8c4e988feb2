package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carto-dev/carto/internal/cache"
	"github.com/carto-dev/carto/internal/config"
	"github.com/carto-dev/carto/internal/fileutil"
)

// CacheStats is the --json report for carto cache stats.
type CacheStats struct {
	Dir          string `json:"dir"`
	ParseEntries int    `json:"parse_entries"`
	SizeBytes    int64  `json:"size_bytes"`
}

// RunCacheClear removes the whole cache directory: the parse store and
// the analysis store together.
func RunCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadCacheConfig(cmd)
	if err != nil {
		return err
	}
	dir := cacheBaseDir(cfg)
	if err := cache.Clear(dir); err != nil {
		return err
	}
	fmt.Printf("cache cleared: %s\n", dir)
	return nil
}

func RunCacheStats(cmd *cobra.Command, args []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadCacheConfig(cmd)
	if err != nil {
		return err
	}
	dir := cacheBaseDir(cfg)

	stats := CacheStats{Dir: dir}
	if _, err := os.Stat(dir); err == nil {
		stats.SizeBytes, err = fileutil.DirSize(dir)
		if err != nil {
			return fmt.Errorf("size cache: %w", err)
		}
		stats.ParseEntries, err = countParseEntries(cfg)
		if err != nil {
			return fmt.Errorf("count cache entries: %w", err)
		}
	}

	if g.asJSON {
		return fileutil.PrintJSON(stats)
	}
	fmt.Printf("cache: %s\n", stats.Dir)
	fmt.Printf("parse entries: %d\n", stats.ParseEntries)
	fmt.Printf("size: %s\n", formatBytes(stats.SizeBytes))
	return nil
}

// loadCacheConfig resolves config for the cache commands, which take no
// path argument: discovery runs in the working directory.
func loadCacheConfig(cmd *cobra.Command) (config.Config, error) {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return config.Config{}, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return config.Load(g.configPath, cwd)
}

func countParseEntries(cfg config.Config) (int, error) {
	dir := parseCacheDir(cfg)
	if _, err := os.Stat(dir); err != nil {
		return 0, nil
	}
	store, err := cache.OpenDisk(dir)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.Len()
}
