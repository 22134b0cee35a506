package pgo

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/cscript/internal/models"
)

// HotFunctionLimit caps how many functions the final build marks hot.
const HotFunctionLimit = 16

// ReadCounts parses a profile dump of whitespace-separated "name count"
// pairs. Counts for a repeated name are summed. A missing or unreadable file
// yields an empty map rather than an error, since an instrumented run that
// produced no profile is a soft failure.
func ReadCounts(path string) models.ProfileCounts {
	counts := make(models.ProfileCounts)
	data, err := os.ReadFile(path)
	if err != nil {
		return counts
	}

	fields := strings.Fields(string(data))
	for i := 0; i+1 < len(fields); i += 2 {
		n, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			continue
		}
		counts[fields[i]] += n
	}
	return counts
}

// SelectHot returns the names of the topN functions by count, excluding
// zero-count entries. Equal counts are broken by name so the selection is
// deterministic.
func SelectHot(counts models.ProfileCounts, topN int) models.HotSet {
	type entry struct {
		name  string
		count uint64
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	hot := make(models.HotSet)
	for i := 0; i < len(entries) && i < topN; i++ {
		if entries[i].count > 0 {
			hot[entries[i].name] = true
		}
	}
	return hot
}
