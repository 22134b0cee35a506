package lower

import (
	"regexp"
	"strings"

	"github.com/ternarybob/cscript/internal/models"
)

// Expression-bodied fn must be rewritten before the block form, otherwise the
// block-header pattern would eat the arrow of "-> T =>".
var (
	exprFnRe  = regexp.MustCompile(`\bfn\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*->\s*([^={;` + "\n" + `]+)\s*=>\s*(.*?);`)
	blockFnRe = regexp.MustCompile(`\bfn\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*->\s*([^{;` + "\n" + `]+)\s*\{`)
	letRe     = regexp.MustCompile(`\blet\s+`)
	varRe     = regexp.MustCompile(`\bvar\s+`)
)

// Softline rewrites the sugar forms into plain C. Expression-bodied fns
// become static inline functions, block fns become plain function headers,
// let becomes const, var is erased. Functions named in hot receive CS_HOT; when instrument is set every
// fn body opens with a profiler hit so counters accumulate at run time.
// With enabled false the source is returned untouched.
func Softline(src string, enabled bool, hot models.HotSet, instrument bool) string {
	if !enabled {
		return src
	}

	src = replaceAllSubmatchFunc(src, exprFnRe, func(groups []string, _ int) string {
		name, args, retty, expr := groups[1], groups[2], strings.TrimSpace(groups[3]), groups[4]
		var b strings.Builder
		b.WriteString("static ")
		if hot.Has(name) {
			b.WriteString("CS_HOT ")
		}
		b.WriteString("inline " + retty + " " + name + "(" + args + ") { ")
		if instrument {
			b.WriteString(`cs_prof_hit("` + name + `"); `)
		}
		b.WriteString("return (" + expr + "); }")
		return b.String()
	})

	// Block fns keep external linkage: main and any fn referenced from
	// another translation unit must stay visible to the linker.
	src = replaceAllSubmatchFunc(src, blockFnRe, func(groups []string, _ int) string {
		name, args, retty := groups[1], groups[2], strings.TrimSpace(groups[3])
		var b strings.Builder
		if hot.Has(name) {
			b.WriteString("CS_HOT ")
		}
		b.WriteString(retty + " " + name + "(" + args + ") {")
		if instrument {
			b.WriteString(` cs_prof_hit("` + name + `");`)
		}
		return b.String()
	})

	src = letRe.ReplaceAllString(src, "const ")
	src = varRe.ReplaceAllString(src, "")
	return src
}
