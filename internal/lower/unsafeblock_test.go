package lower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsafeBlockWrapped(t *testing.T) {
	out := UnsafeBlocks("@unsafe { x = (int)y; }")

	assert.Equal(t, "{ CS_UNSAFE_BEGIN;  x = (int)y;  CS_UNSAFE_END; }", out)
}

func TestUnsafeBlockNestedBracesBalance(t *testing.T) {
	out := UnsafeBlocks("@unsafe { if (a) { b(); } c(); }\nint after;")

	assert.True(t, strings.HasPrefix(out, "{ CS_UNSAFE_BEGIN; "))
	// END lands before the outer closing brace, after the nested block.
	assert.Contains(t, out, "c();  CS_UNSAFE_END; }")
	assert.Contains(t, out, "if (a) { b(); }")
	assert.Contains(t, out, "int after;")
}

func TestUnsafeMarkerWithoutBraceLeftAlone(t *testing.T) {
	src := "// see @unsafe docs\nint x;"
	assert.Equal(t, src, UnsafeBlocks(src))
}

func TestUnsafeMultipleBlocks(t *testing.T) {
	out := UnsafeBlocks("@unsafe { a(); }\n@unsafe { b(); }")

	assert.Equal(t, 2, strings.Count(out, "CS_UNSAFE_BEGIN"))
	assert.Equal(t, 2, strings.Count(out, "CS_UNSAFE_END"))
	assert.NotContains(t, out, "@unsafe")
}
