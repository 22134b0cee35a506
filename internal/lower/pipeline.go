package lower

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cscript/internal/models"
)

// Front runs the build-invariant passes over a directive-stripped body:
// enum expansion, exhaustiveness checking against the collected registry,
// @unsafe block wrapping and match lowering. The result is computed once and
// shared by the instrumented and final builds, so both passes compile the
// same program modulo softline attributes.
func Front(body string, logger arbor.ILogger) (string, *models.EnumRegistry, error) {
	expanded, registry, err := Enums(body)
	if err != nil {
		return "", nil, err
	}
	logger.Debug().Int("enums", registry.Len()).Msg("Enum lowering complete")

	// The check runs against the pre-lowering body so diagnostics carry
	// positions in the text the user actually wrote.
	if err := CheckExhaustiveness(body, registry); err != nil {
		return "", nil, err
	}

	expanded = UnsafeBlocks(expanded)
	expanded = Matches(expanded)
	return expanded, registry, nil
}

// Finish applies the per-build passes to a Front result and prepends the
// prelude. Hot attribution and profiler instrumentation differ between the
// instrumented and final builds, which is why this half runs per build.
func Finish(front string, softline, hardline bool, hot models.HotSet, instrument bool) string {
	lowered := Softline(front, softline, hot, instrument)
	return Prelude(hardline) + "\n" + lowered
}
