package encode

import (
	"strings"

	"github.com/carto-dev/carto/internal/index"
)

// Compact renders the token-lean form: one row per file, then edge and
// entry stanzas. Unresolved targets keep the raw token behind "?".
func Compact(idx *index.Index) []byte {
	var b strings.Builder

	b.WriteString("files:\n")
	for i := range idx.Files {
		rec := &idx.Files[i]
		b.WriteString(rec.Path)
		b.WriteByte('|')
		if rec.Language != "" {
			b.WriteString(rec.Language)
		} else {
			b.WriteString("unknown")
		}
		if len(rec.Functions) > 0 {
			names := make([]string, len(rec.Functions))
			for j, fn := range rec.Functions {
				names[j] = fn.Name
			}
			b.WriteString("|fn:")
			b.WriteString(strings.Join(names, ","))
		}
		if len(rec.Classes) > 0 {
			names := make([]string, len(rec.Classes))
			for j, cls := range rec.Classes {
				names[j] = cls.Name
			}
			b.WriteString("|cls:")
			b.WriteString(strings.Join(names, ","))
		}
		b.WriteByte('\n')
	}

	if len(idx.Edges) > 0 {
		b.WriteString("edges:\n")
		for _, edge := range idx.Edges {
			b.WriteString(edge.From)
			b.WriteByte('>')
			if edge.To != "" {
				b.WriteString(edge.To)
			} else {
				b.WriteByte('?')
				b.WriteString(edge.Raw)
			}
			b.WriteByte('\n')
		}
	}

	if len(idx.Entries) > 0 {
		b.WriteString("entries:\n")
		for _, entry := range idx.Entries {
			b.WriteString(entry.Path)
			b.WriteByte('\n')
		}
	}

	return []byte(b.String())
}
