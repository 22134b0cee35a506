package lower

import (
	"regexp"
	"strings"

	"github.com/ternarybob/cscript/internal/models"
)

const (
	switchBeginMarker = "CS_SWITCH_EXHAUSTIVE("
	switchEndMarker   = "CS_SWITCH_END("
)

var caseRe = regexp.MustCompile(`CS_CASE\s*\(\s*([A-Za-z_]\w*)\s*\)`)

// CheckExhaustiveness scans the original (pre-enum-lowering) body for
// exhaustive-switch sites and verifies that every member of the named enum is
// covered by a CS_CASE inside the site. Flags enums are exempt; type names
// not in the registry are skipped (the site may reference a native C enum).
//
// End markers are paired by nearest CS_SWITCH_END with the same type name,
// not by lexical nesting: sequential same-named sites work, nested same-named
// sites are not supported.
func CheckExhaustiveness(src string, registry *models.EnumRegistry) error {
	i := 0
	for {
		a := strings.Index(src[i:], switchBeginMarker)
		if a < 0 {
			return nil
		}
		a += i

		typeName, afterType := parseTypeName(src, a+len(switchBeginMarker))
		if typeName == "" {
			i = a + 1
			continue
		}

		endKey := switchEndMarker + typeName
		b := strings.Index(src[afterType:], endKey)
		if b < 0 {
			return models.NewCompileErrorAt(src, a,
				"unmatched CS_SWITCH_EXHAUSTIVE for '%s'", typeName)
		}
		b += afterType

		region := src[a:b]
		covered := make(map[string]bool)
		for _, m := range caseRe.FindAllStringSubmatch(region, -1) {
			covered[m[1]] = true
		}

		if info, ok := registry.Lookup(typeName); ok && !info.IsFlags {
			var missing []string
			for _, member := range info.Members {
				if !covered[member] {
					missing = append(missing, member)
				}
			}
			if len(missing) > 0 {
				return models.NewCompileErrorAt(src, a,
					"non-exhaustive switch for enum '%s'. Missing: %s",
					typeName, strings.Join(missing, " "))
			}
		}

		i = b + 1
	}
}

// parseTypeName reads the identifier starting at pos (skipping leading
// whitespace) and returns it with the offset just past it.
func parseTypeName(src string, pos int) (string, int) {
	n := len(src)
	p := pos
	for p < n && (src[p] == ' ' || src[p] == '\t' || src[p] == '\n' || src[p] == '\r') {
		p++
	}
	q := p
	for q < n && isIdentChar(src[q]) {
		q++
	}
	return src[p:q], q
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
