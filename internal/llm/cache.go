package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/carto-dev/carto/internal/fileutil"
	"github.com/carto-dev/carto/internal/index"
)

// CacheFile is the analysis store's file name under the cache directory.
const CacheFile = "analysis.jsonl"

// Record is one cached analysis. GeneratedAt is RFC3339 so later lines
// win lexically when a key appears twice.
type Record struct {
	Key           string `json:"key"`
	Digest        string `json:"digest"`
	Mode          string `json:"mode"`
	Focus         string `json:"focus,omitempty"`
	Model         string `json:"model"`
	Reasoning     int    `json:"reasoning"`
	PromptVersion string `json:"prompt_version"`
	Analysis      string `json:"analysis"`
	GeneratedAt   string `json:"generated_at"`
}

// CacheKey hashes everything that changes the analysis: snapshot digest,
// mode, focus, model, reasoning, and the prompt version.
func CacheKey(digest, mode, focus, model string, reasoning int) string {
	seed := strings.Join([]string{digest, mode, focus, model, strconv.Itoa(reasoning), promptVersion}, "|")
	sum := sha256.Sum256([]byte(seed))
	return "analysis-v1-" + hex.EncodeToString(sum[:8])
}

// NewRecord stamps a fresh analysis with the current prompt version and
// generation time.
func NewRecord(key, digest, mode, focus, model string, reasoning int, analysis string) Record {
	return Record{
		Key:           key,
		Digest:        digest,
		Mode:          mode,
		Focus:         focus,
		Model:         model,
		Reasoning:     reasoning,
		PromptVersion: promptVersion,
		Analysis:      analysis,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}

// SnapshotDigest identifies a snapshot by its file fingerprints. Two runs
// over identical content share a digest even across machines.
func SnapshotDigest(idx *index.Index) string {
	h := xxhash.New()
	for i := range idx.Files {
		_, _ = h.WriteString(idx.Files[i].Path)
		_, _ = h.WriteString(":")
		_, _ = h.WriteString(idx.Files[i].Fingerprint)
		_, _ = h.WriteString("\n")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// LoadCache reads the analysis store. A missing file is an empty cache;
// malformed lines are dropped; the newest record wins per key.
func LoadCache(path string) (map[string]Record, error) {
	cache := make(map[string]Record)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return nil, fmt.Errorf("read analysis cache: %w", err)
	}

	records, err := fileutil.DecodeJSONL[Record](data)
	if err != nil {
		return nil, fmt.Errorf("parse analysis cache: %w", err)
	}
	for _, record := range records {
		if record.Key == "" {
			continue
		}
		existing, ok := cache[record.Key]
		if !ok || record.GeneratedAt >= existing.GeneratedAt {
			cache[record.Key] = record
		}
	}
	return cache, nil
}

// WriteCache persists the store sorted by key, one record per line.
func WriteCache(path string, cache map[string]Record) error {
	records := make([]Record, 0, len(cache))
	for _, record := range cache {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	data, err := fileutil.EncodeJSONL(records)
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}
	if err := fileutil.WriteIfChanged(path, data); err != nil {
		return fmt.Errorf("write analysis cache: %w", err)
	}
	return nil
}
