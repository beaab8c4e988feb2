package encode

import (
	"encoding/json"

	"github.com/carto-dev/carto/internal/index"
)

// JSON renders the full snapshot. Field order comes from the snapshot
// structs, so identical snapshots serialize byte-identically.
func JSON(idx *index.Index) ([]byte, error) {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
