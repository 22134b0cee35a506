package lower

import (
	"fmt"
	"strings"
)

// Matches rewrites every "match (subject) { arm* }" construct into a compound
// statement: the subject is evaluated once into a temporary, then each arm
// becomes a branch of an if/else-if chain tried in declaration order. Three
// arm patterns are recognized:
//
//	_ or default        final unconditional else
//	(a, b)              always-true branch declaring a, b bound to ._0, ._1
//	expr | expr | ...   equality test against each alternative, OR'd
//
// When no wildcard arm is present a do-nothing else branch is appended so the
// construct is exhaustive at the C level. Arm code may be a single statement
// or a brace-delimited block (braces are stripped); nested matches inside arm
// code are lowered recursively.
func Matches(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	i, n := 0, len(src)
	for i < n {
		a := findMatchKeyword(src, i)
		if a < 0 {
			out.WriteString(src[i:])
			break
		}
		out.WriteString(src[i:a])

		lowered, next, ok := lowerOneMatch(src, a)
		if !ok {
			// Not a well-formed construct; copy the keyword and keep scanning.
			out.WriteString("match")
			i = a + len("match")
			continue
		}
		out.WriteString(lowered)
		i = next
	}

	return out.String()
}

// findMatchKeyword returns the offset of the next "match" token followed by
// '(' at or after from, or -1.
func findMatchKeyword(src string, from int) int {
	for {
		rel := strings.Index(src[from:], "match")
		if rel < 0 {
			return -1
		}
		a := from + rel
		before := a == 0 || !isIdentChar(src[a-1])
		j := a + len("match")
		for j < len(src) && isSpace(src[j]) {
			j++
		}
		if before && j < len(src) && src[j] == '(' {
			return a
		}
		from = a + len("match")
	}
}

// lowerOneMatch lowers the construct starting at the "match" keyword and
// returns the replacement text and the offset just past the closing brace.
func lowerOneMatch(src string, a int) (string, int, bool) {
	j := a + len("match")
	for j < len(src) && isSpace(src[j]) {
		j++
	}
	subject, j, ok := scanBalanced(src, j, '(', ')')
	if !ok {
		return "", 0, false
	}
	for j < len(src) && isSpace(src[j]) {
		j++
	}
	body, end, ok := scanBalanced(src, j, '{', '}')
	if !ok {
		return "", 0, false
	}

	arms, ok := parseArms(body)
	if !ok || len(arms) == 0 {
		return "", 0, false
	}

	var b strings.Builder
	b.WriteString("{ __typeof__((" + strings.TrimSpace(subject) + ")) _cs_match = (" + strings.TrimSpace(subject) + "); ")

	wroteBranch := false
	sawWildcard := false
	for _, arm := range arms {
		code := strings.TrimSpace(Matches(arm.code))
		pattern := strings.TrimSpace(arm.pattern)

		switch {
		case pattern == "_" || pattern == "default":
			if wroteBranch {
				b.WriteString("else { " + code + " }")
			} else {
				b.WriteString("{ " + code + " }")
			}
			sawWildcard = true
		case strings.HasPrefix(pattern, "(") && strings.HasSuffix(pattern, ")"):
			writeBranchKeyword(&b, wroteBranch)
			b.WriteString("(1) { ")
			for idx, name := range splitTopLevel(pattern[1:len(pattern)-1], ',') {
				name = strings.TrimSpace(name)
				if name == "" || name == "_" {
					continue
				}
				field := fmt.Sprintf("_cs_match._%d", idx)
				b.WriteString("__typeof__(" + field + ") " + name + " = " + field + "; ")
			}
			b.WriteString(code + " }")
		default:
			writeBranchKeyword(&b, wroteBranch)
			alts := splitTopLevel(pattern, '|')
			conds := make([]string, 0, len(alts))
			for _, alt := range alts {
				conds = append(conds, "_cs_match == ("+strings.TrimSpace(alt)+")")
			}
			b.WriteString("(" + strings.Join(conds, " || ") + ") { " + code + " }")
		}
		wroteBranch = true
		if sawWildcard {
			break // arms after a wildcard are unreachable
		}
		b.WriteByte(' ')
	}

	if !sawWildcard {
		b.WriteString("else { }")
	}
	b.WriteString(" }")

	return b.String(), end, true
}

func writeBranchKeyword(b *strings.Builder, wroteBranch bool) {
	if wroteBranch {
		b.WriteString("else if ")
	} else {
		b.WriteString("if ")
	}
}

type matchArm struct {
	pattern string
	code    string
}

// parseArms splits the match body into pattern/code pairs. A pattern runs to
// the first top-level "=>"; code is either a balanced brace block (stripped)
// or a statement terminated by a top-level ';'.
func parseArms(body string) ([]matchArm, bool) {
	var arms []matchArm
	i, n := 0, len(body)

	for {
		for i < n && isSpace(body[i]) {
			i++
		}
		if i >= n {
			return arms, true
		}

		arrow := findTopLevelArrow(body, i)
		if arrow < 0 {
			return nil, false
		}
		pattern := body[i:arrow]
		i = arrow + 2

		for i < n && isSpace(body[i]) {
			i++
		}
		if i < n && body[i] == '{' {
			code, next, ok := scanBalanced(body, i, '{', '}')
			if !ok {
				return nil, false
			}
			arms = append(arms, matchArm{pattern: pattern, code: code})
			i = next
			continue
		}

		end := findTopLevelSemicolon(body, i)
		if end < 0 {
			return nil, false
		}
		arms = append(arms, matchArm{pattern: pattern, code: body[i:end]})
		i = end + 1
	}
}

// scanBalanced reads a delimiter-balanced region starting at the opening
// delimiter at pos and returns the inner text and the offset just past the
// closing delimiter.
func scanBalanced(src string, pos int, open, close byte) (string, int, bool) {
	if pos >= len(src) || src[pos] != open {
		return "", 0, false
	}
	depth := 0
	for k := pos; k < len(src); k++ {
		switch src[k] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return src[pos+1 : k], k + 1, true
			}
		}
	}
	return "", 0, false
}

// findTopLevelArrow returns the offset of the first "=>" at zero paren/brace
// depth at or after from.
func findTopLevelArrow(s string, from int) int {
	depth := 0
	for k := from; k+1 < len(s); k++ {
		switch s[k] {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case '=':
			if depth == 0 && s[k+1] == '>' {
				return k
			}
		}
	}
	return -1
}

func findTopLevelSemicolon(s string, from int) int {
	depth := 0
	for k := from; k < len(s); k++ {
		switch s[k] {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case ';':
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep occurrences at zero bracket depth.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for k := 0; k < len(s); k++ {
		switch s[k] {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:k])
				start = k + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
