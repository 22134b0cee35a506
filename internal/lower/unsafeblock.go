package lower

import "strings"

const unsafeMarker = "@unsafe"

// UnsafeBlocks wraps every "@unsafe { ... }" block with CS_UNSAFE_BEGIN and
// CS_UNSAFE_END so the emitted C suppresses conversion warnings for exactly
// that lexical scope. Pairing is purely lexical brace balancing: the wrapped
// region ends when nesting returns to zero at the marker's matching brace.
func UnsafeBlocks(src string) string {
	out := make([]byte, 0, len(src)+len(src)/10)
	i, n := 0, len(src)

	for i < n {
		if src[i] == '@' && strings.HasPrefix(src[i:], unsafeMarker) {
			j := i + len(unsafeMarker)
			for j < n && isSpace(src[j]) {
				j++
			}
			if j < n && src[j] == '{' {
				out = append(out, "{ CS_UNSAFE_BEGIN; "...)
				depth := 1
				k := j + 1
				for k < n && depth > 0 {
					c := src[k]
					if c == '{' {
						depth++
					} else if c == '}' {
						depth--
						if depth == 0 {
							out = append(out, " CS_UNSAFE_END; "...)
						}
					}
					out = append(out, c)
					k++
				}
				i = k
				continue
			}
		}
		out = append(out, src[i])
		i++
	}

	return string(out)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
