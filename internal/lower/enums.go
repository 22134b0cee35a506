// Package lower implements the text-to-text lowering passes that turn
// C-Script sugar into plain C. Every pass takes an immutable source string
// and returns a new one; the only metadata that crosses pass boundaries is
// the enum registry and the hot-function set.
package lower

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/cscript/internal/models"
)

var (
	enumRe      = regexp.MustCompile(`enum!\s+([A-Za-z_]\w*)\s*\{([^}]*)\}`)
	flagsEnumRe = regexp.MustCompile(`enum_flags!\s+([A-Za-z_]\w*)\s*\{([^}]*)\}`)
)

// Enums replaces every enum! and enum_flags! declaration with a plain C
// typedef plus generated helpers, and collects the member sets into a fresh
// registry for the exhaustiveness checker. Standard enums get a validity
// check and a hardline assertion helper; flags enums get a bitwise combinator
// and a has-flag test instead, and are marked exempt from exhaustiveness.
//
// Both forms are scanned in one first-to-last pass over the original text, so
// registry order and the stored byte offsets match the source the user wrote.
func Enums(src string) (string, *models.EnumRegistry, error) {
	registry := models.NewEnumRegistry()

	type site struct {
		loc     []int
		isFlags bool
	}
	var sites []site
	for _, loc := range enumRe.FindAllStringSubmatchIndex(src, -1) {
		sites = append(sites, site{loc, false})
	}
	for _, loc := range flagsEnumRe.FindAllStringSubmatchIndex(src, -1) {
		sites = append(sites, site{loc, true})
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].loc[0] < sites[j].loc[0] })

	var out strings.Builder
	out.Grow(len(src) + len(src)/4)

	last := 0
	for _, s := range sites {
		name := src[s.loc[2]:s.loc[3]]
		body := src[s.loc[4]:s.loc[5]]
		info := &models.EnumInfo{
			Name:    name,
			Members: splitMembers(body),
			IsFlags: s.isFlags,
			Pos:     s.loc[0],
		}
		if err := registry.Add(src, info); err != nil {
			return "", nil, err
		}
		out.WriteString(src[last:s.loc[0]])
		if s.isFlags {
			out.WriteString(emitFlagsEnum(name, body))
		} else {
			out.WriteString(emitStandardEnum(name, body, info.Members))
		}
		last = s.loc[1]
	}
	out.WriteString(src[last:])

	return out.String(), registry, nil
}

// splitMembers splits a comma-separated member list, keeping only the bare
// identifier left of any "= value" assignment.
func splitMembers(body string) []string {
	var members []string
	for _, token := range strings.Split(body, ",") {
		if eq := strings.IndexByte(token, '='); eq >= 0 {
			token = token[:eq]
		}
		if ident := strings.TrimSpace(token); ident != "" {
			members = append(members, ident)
		}
	}
	return members
}

// emitStandardEnum emits the typedef, the validity-check helper, and the
// hardline assertion helper. The member-list text is preserved verbatim so
// explicit "= N" assignments survive into the C enum body.
func emitStandardEnum(name, body string, members []string) string {
	var b strings.Builder

	b.WriteString("typedef enum " + name + " { " + body + " } " + name + ";\n")

	b.WriteString("static inline int cs__enum_is_valid_" + name + "(int v){ switch((" + name + ")v){ ")
	for _, m := range members {
		b.WriteString("case " + m + ": ")
	}
	b.WriteString("return 1; default: return 0; } }\n")

	b.WriteString("static inline void cs__enum_assert_" + name + "(int v){\n" +
		"#if defined(CS_HARDLINE)\n" +
		"  if(!cs__enum_is_valid_" + name + "(v)){\n" +
		"    fprintf(stderr,\"[C-Script hardline] Non-exhaustive switch for enum " + name + " (value %d)\\n\", v);\n" +
		"    abort();\n" +
		"  }\n" +
		"#else\n" +
		"  (void)v;\n" +
		"#endif\n" +
		"}\n")

	return b.String()
}

// emitFlagsEnum emits the typedef plus bitwise helpers. No validity or
// assertion helpers: any OR of members is a legal value.
func emitFlagsEnum(name, body string) string {
	var b strings.Builder
	b.WriteString("typedef enum " + name + " { " + body + " } " + name + ";\n")
	b.WriteString("static inline " + name + " " + name + "_combine(" + name + " a, " + name + " b) { return (" + name + ")(a | b); }\n")
	b.WriteString("static inline bool " + name + "_has(" + name + " flags, " + name + " flag) { return (flags & flag) == flag; }\n")
	return b.String()
}

// replaceAllSubmatchFunc is ReplaceAllStringFunc with submatches and the
// match's byte offset in src.
func replaceAllSubmatchFunc(src string, re *regexp.Regexp, repl func(m []string, pos int) string) string {
	var out strings.Builder
	out.Grow(len(src) + len(src)/8)

	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(src, -1) {
		out.WriteString(src[last:loc[0]])
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = src[loc[2*i]:loc[2*i+1]]
			}
		}
		out.WriteString(repl(groups, loc[0]))
		last = loc[1]
	}
	out.WriteString(src[last:])
	return out.String()
}
