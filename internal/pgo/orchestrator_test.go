package pgo

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cscript/internal/common"
	"github.com/ternarybob/cscript/internal/models"
)

type buildCall struct {
	cSource      string
	outPath      string
	instrumented bool
}

// fakeDriver satisfies interfaces.ToolchainDriver without a real compiler.
type fakeDriver struct {
	builds           []buildCall
	failInstrumented bool
	failFinal        bool
	runExit          int
	runErr           error
	profile          string // written to the profile path during RunWithEnv
}

func (f *fakeDriver) Build(_ context.Context, cSource, outPath string, instrumented bool) error {
	if instrumented && f.failInstrumented {
		return errors.New("cc exited 1")
	}
	if !instrumented && f.failFinal {
		return errors.New("cc exited 1")
	}
	f.builds = append(f.builds, buildCall{cSource, outPath, instrumented})
	return nil
}

func (f *fakeDriver) RunWithEnv(_ context.Context, _, _, envValue string) (int, error) {
	if f.runErr != nil {
		return -1, f.runErr
	}
	if f.profile != "" {
		if err := os.WriteFile(envValue, []byte(f.profile), 0o644); err != nil {
			return -1, err
		}
	}
	return f.runExit, nil
}

func testConfig(profile bool) *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Build.Out = "prog.out"
	cfg.Build.Profile = profile
	return cfg
}

const orchBody = "fn hot_a(int x) -> int => x + 1;\nfn cold_b(int x) -> int => x - 1;\n"

func TestRunWithoutProfilingBuildsOnce(t *testing.T) {
	driver := &fakeDriver{}
	orch := NewOrchestrator(testConfig(false), driver, arbor.NewLogger())

	out, err := orch.Run(context.Background(), orchBody)
	require.NoError(t, err)
	assert.Equal(t, "prog.out", out)
	assert.Equal(t, PhaseDone, orch.Phase())

	require.Len(t, driver.builds, 1)
	assert.False(t, driver.builds[0].instrumented)
	assert.NotContains(t, driver.builds[0].cSource, "cs_prof_hit(\"hot_a\")")
	assert.NotContains(t, driver.builds[0].cSource, "CS_HOT inline")
}

func TestRunProfiledMarksHotFunctions(t *testing.T) {
	driver := &fakeDriver{profile: "hot_a 250\ncold_b 0\n"}
	orch := NewOrchestrator(testConfig(true), driver, arbor.NewLogger())

	out, err := orch.Run(context.Background(), orchBody)
	require.NoError(t, err)
	assert.Equal(t, "prog.out", out)

	require.Len(t, driver.builds, 2)
	inst, final := driver.builds[0], driver.builds[1]

	assert.True(t, inst.instrumented)
	assert.Contains(t, inst.cSource, `cs_prof_hit("hot_a");`)
	assert.Contains(t, inst.cSource, `cs_prof_hit("cold_b");`)
	assert.NotContains(t, inst.cSource, "CS_HOT inline")

	assert.False(t, final.instrumented)
	assert.Contains(t, final.cSource, "static CS_HOT inline int hot_a")
	assert.Contains(t, final.cSource, "static inline int cold_b")
	assert.NotContains(t, final.cSource, "cs_prof_hit(\"")
	assert.Equal(t, "prog.out", final.outPath)
}

func TestRunInstrumentedBuildFailure(t *testing.T) {
	driver := &fakeDriver{failInstrumented: true}
	orch := NewOrchestrator(testConfig(true), driver, arbor.NewLogger())

	_, err := orch.Run(context.Background(), orchBody)
	require.Error(t, err)
	assert.Equal(t, models.ExitInstrumentedBuild, models.ExitCodeOf(err))
}

func TestRunFinalBuildFailure(t *testing.T) {
	driver := &fakeDriver{failFinal: true}
	orch := NewOrchestrator(testConfig(false), driver, arbor.NewLogger())

	_, err := orch.Run(context.Background(), orchBody)
	require.Error(t, err)
	assert.Equal(t, models.ExitFinalBuild, models.ExitCodeOf(err))
}

func TestRunNonZeroInstrumentedRunProceeds(t *testing.T) {
	driver := &fakeDriver{runExit: 9}
	orch := NewOrchestrator(testConfig(true), driver, arbor.NewLogger())

	out, err := orch.Run(context.Background(), orchBody)
	require.NoError(t, err)
	assert.Equal(t, "prog.out", out)

	// No profile written, so nothing is hot in the final pass.
	final := driver.builds[len(driver.builds)-1]
	assert.NotContains(t, final.cSource, "CS_HOT inline")
}

func TestRunNonZeroExitStillUsesWrittenCounters(t *testing.T) {
	// A crashing instrumented run can still flush valid counters; they are
	// honored rather than discarded.
	driver := &fakeDriver{runExit: 9, profile: "hot_a 250\n"}
	orch := NewOrchestrator(testConfig(true), driver, arbor.NewLogger())

	out, err := orch.Run(context.Background(), orchBody)
	require.NoError(t, err)
	assert.Equal(t, "prog.out", out)

	final := driver.builds[len(driver.builds)-1]
	assert.Contains(t, final.cSource, "static CS_HOT inline int hot_a")
	assert.Contains(t, final.cSource, "static inline int cold_b")
}

func TestRunCompileErrorSurfacesBeforeAnyBuild(t *testing.T) {
	driver := &fakeDriver{}
	orch := NewOrchestrator(testConfig(true), driver, arbor.NewLogger())

	src := "enum! Color { RED }\nenum! Color { BLUE }\n"
	_, err := orch.Run(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, models.ExitCompileError, models.ExitCodeOf(err))
	assert.Empty(t, driver.builds)
}

func TestPhaseStrings(t *testing.T) {
	assert.Equal(t, "instrumented-build", PhaseInstrumentedBuild.String())
	assert.Equal(t, "final-build", PhaseFinalBuild.String())
	assert.False(t, strings.Contains(PhaseDone.String(), "unknown"))
}
