package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/carto-dev/carto/internal/config"
)

// resolveRoot turns the optional positional path into an absolute
// directory, defaulting to the working directory.
func resolveRoot(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	rootPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return "", fmt.Errorf("failed to access path %q: %w", rootPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %q is not a directory", rootPath)
	}
	return rootPath, nil
}

// artifactDir is where the encoders and the run state write. A relative
// configured dir is anchored at the scan root.
func artifactDir(root string, cfg config.Config) string {
	dir := cfg.Output.Dir
	if dir == "" {
		dir = ".carto"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
