package lower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cscript/internal/models"
)

const pipelineSrc = `enum! Color { RED, GREEN, BLUE }
fn pick(int n) -> int => n * 2;
@unsafe { long v = wide; }
match (c) { RED => r(); _ => other(); }
`

func TestFrontComposesAllPasses(t *testing.T) {
	out, registry, err := Front(pipelineSrc, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, registry.Len())
	assert.Contains(t, out, "typedef enum Color")
	assert.Contains(t, out, "CS_UNSAFE_BEGIN")
	assert.Contains(t, out, "_cs_match")
	assert.NotContains(t, out, "enum!")
	assert.NotContains(t, out, "@unsafe")
	// Softline sugar is untouched until Finish.
	assert.Contains(t, out, "fn pick")
}

func TestFrontRejectsNonExhaustiveSwitch(t *testing.T) {
	src := "enum! Color { RED, BLUE }\nCS_SWITCH_EXHAUSTIVE(Color, c)\nCS_CASE(RED); break;\nCS_SWITCH_END(Color, c);\n"
	_, _, err := Front(src, arbor.NewLogger())
	require.Error(t, err)
	assert.Equal(t, models.ExitCompileError, models.ExitCodeOf(err))
}

func TestFinishPrependsPrelude(t *testing.T) {
	front, _, err := Front(pipelineSrc, arbor.NewLogger())
	require.NoError(t, err)

	out := Finish(front, true, true, nil, false)
	assert.True(t, strings.HasPrefix(out, "// --- C-Script v"))
	assert.Contains(t, out, "#define CS_HARDLINE 1")
	assert.Contains(t, out, "static inline int pick(int n) { return (n * 2); }")

	relaxed := Finish(front, true, false, nil, false)
	assert.NotContains(t, relaxed, "#define CS_HARDLINE 1")
}

func TestFinishWithoutProfilingIsDeterministic(t *testing.T) {
	front, _, err := Front(pipelineSrc, arbor.NewLogger())
	require.NoError(t, err)

	// An empty hot set and a nil one must produce the same final program, so
	// disabling profiling never changes the compiled output.
	a := Finish(front, true, true, nil, false)
	b := Finish(front, true, true, models.HotSet{}, false)
	assert.Equal(t, a, b)
}

func TestFinishInstrumentedAddsProfilerHits(t *testing.T) {
	front, _, err := Front("fn hot_loop(int n) -> int => n + 1;\n", arbor.NewLogger())
	require.NoError(t, err)

	inst := Finish(front, true, false, nil, true)
	final := Finish(front, true, false, nil, false)

	assert.Contains(t, inst, `cs_prof_hit("hot_loop");`)
	assert.NotContains(t, final, `cs_prof_hit("hot_loop");`)
}
