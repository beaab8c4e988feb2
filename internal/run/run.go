// Package run carries per-invocation context shared across pipeline
// stages: a run ID, the resolved configuration, the logger, the cache
// handle, aggregated warnings, and phase timings for the end-of-run
// summary.
package run

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carto-dev/carto/internal/cache"
	"github.com/carto-dev/carto/internal/config"
	"github.com/carto-dev/carto/internal/logging"
)

// Context is passed through every stage of an indexing run. Warn may be
// called from parse workers; everything else is set once up front.
type Context struct {
	ID     string
	Start  time.Time
	Root   string // absolute scan root
	Config config.Config
	Log    logging.Logger
	Cache  cache.Store
	Timer  *Timer

	mu       sync.Mutex
	warnings []string
}

func New(root string, cfg config.Config, log logging.Logger) *Context {
	if log == nil {
		log = logging.Nop()
	}
	return &Context{
		ID:     uuid.NewString(),
		Start:  time.Now(),
		Root:   root,
		Config: cfg,
		Log:    log,
		Timer:  NewTimer(),
	}
}

func (c *Context) Elapsed() time.Duration {
	return time.Since(c.Start)
}

// Warn logs and records one aggregate warning for the run summary.
func (c *Context) Warn(format string, args ...any) {
	c.Log.Warn(format, args...)
	c.mu.Lock()
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
	c.mu.Unlock()
}

// Warnings returns the warnings recorded so far, oldest first.
func (c *Context) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.warnings...)
}

// Close releases run-owned resources, currently the cache handle.
func (c *Context) Close() error {
	if c.Cache == nil {
		return nil
	}
	err := c.Cache.Close()
	c.Cache = nil
	return err
}
