package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/carto-dev/carto/internal/lang"
)

// Input is one file handed over by the directory scanner: repo-relative
// path plus the exact bytes to index.
type Input struct {
	Path    string
	Content []byte
}

// Cache is the parse-result store consulted per fingerprint. Implementations
// must treat unreadable entries as absent; Put failures are silent no-ops.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
}

// Options tune the parse phase.
type Options struct {
	Workers int
	Cache   Cache
}

// Stats aggregates per-file outcomes so one bad file never aborts a run.
type Stats struct {
	Scanned  int `json:"scanned"`
	Parsed   int `json:"parsed"`
	Reused   int `json:"reused"`
	Degraded int `json:"degraded"`
	Unknown  int `json:"unknown"`
}

// Result is the parse phase output: one record per input, in input order.
type Result struct {
	Records []FileRecord
	Issues  []Issue
	Stats   Stats
}

const cacheKeyPrefix = "parse-v1:"

// CacheKey returns the store key for a content fingerprint. The version
// prefix invalidates every entry when the record schema changes.
func CacheKey(fingerprint string) string {
	return cacheKeyPrefix + fingerprint
}

// DefaultWorkers sizes the parse pool.
func DefaultWorkers() int {
	n := runtime.GOMAXPROCS(0) + 4
	if n > 32 {
		n = 32
	}
	return n
}

// ParseAll classifies, fingerprints, and parses every input on a bounded
// worker pool. Each worker owns its input's bytes and writes one slot, so
// no shared state is touched until the final single-threaded merge.
// Cancelling ctx stops scheduling new files; records already complete are
// returned.
func ParseAll(ctx context.Context, inputs []Input, opts Options) *Result {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	type slot struct {
		rec    *FileRecord
		reused bool
		issue  *Issue
	}
	slots := make([]slot, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx := range inputs {
		idx := idx
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			in := inputs[idx]
			rec, reused, issue := parseOne(in, opts.Cache)
			slots[idx] = slot{rec: rec, reused: reused, issue: issue}
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{}
	for _, s := range slots {
		if s.rec == nil {
			continue
		}
		result.Stats.Scanned++
		switch {
		case s.issue != nil:
			result.Stats.Degraded++
		case s.reused:
			result.Stats.Reused++
		case s.rec.Language == "":
			result.Stats.Unknown++
		case lang.ByTag(s.rec.Language).Parseable():
			result.Stats.Parsed++
		}
		result.Records = append(result.Records, *s.rec)
		if s.issue != nil {
			result.Issues = append(result.Issues, *s.issue)
		}
	}
	return result
}

func parseOne(in Input, cache Cache) (rec *FileRecord, reused bool, issue *Issue) {
	l := lang.Classify(in.Path)
	fp := Fingerprint(in.Content)

	if l.Parseable() && cache != nil {
		if data, ok := cache.Get(CacheKey(fp)); ok {
			if cached := decodeCached(data, fp, in.Path); cached != nil {
				return cached, true, nil
			}
		}
	}

	rec, issue = safeParse(in, l)
	if issue == nil && l.Parseable() && cache != nil {
		if data, err := json.Marshal(rec); err == nil {
			cache.Put(CacheKey(fp), data)
		}
	}
	return rec, false, issue
}

// decodeCached revives a stored record, rejecting corrupt entries and
// fingerprints that do not match (both degrade to a miss). The path is
// rehomed so a renamed-but-unchanged file keeps its hit.
func decodeCached(data []byte, fingerprint, path string) *FileRecord {
	var cached FileRecord
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	if cached.Fingerprint != fingerprint {
		return nil
	}
	cached.Path = path
	for i := range cached.Functions {
		cached.Functions[i].File = path
	}
	for i := range cached.Classes {
		cached.Classes[i].File = path
	}
	return &cached
}

// safeParse contains recognizer panics on hostile input: the file degrades
// to its base record and the run continues.
func safeParse(in Input, l *lang.Language) (rec *FileRecord, issue *Issue) {
	defer func() {
		if r := recover(); r != nil {
			rec = baseRecord(in.Path, in.Content, l)
			issue = &Issue{
				File:     in.Path,
				Language: rec.Language,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("parser failure, structural data dropped: %v", r),
			}
		}
	}()
	return Parse(in.Path, in.Content, l), nil
}
