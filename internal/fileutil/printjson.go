package fileutil

import (
	"encoding/json"
	"os"
)

// PrintJSON writes value to stdout as indented JSON with a trailing
// newline. Machine-readable command output goes through here; logs stay
// on stderr so the two never interleave.
func PrintJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
