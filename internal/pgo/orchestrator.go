package pgo

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cscript/internal/common"
	"github.com/ternarybob/cscript/internal/interfaces"
	"github.com/ternarybob/cscript/internal/lower"
	"github.com/ternarybob/cscript/internal/models"
)

// profileEnvVar names the environment variable the instrumented binary reads
// to find where to dump its counters.
const profileEnvVar = "CS_PROFILE_OUT"

// Phase identifies where a profile-guided build currently is. It exists for
// logging and for tests that assert phase ordering.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInstrumentedBuild
	PhaseInstrumentedRun
	PhaseCounterCollection
	PhaseHotSelection
	PhaseFinalBuild
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInstrumentedBuild:
		return "instrumented-build"
	case PhaseInstrumentedRun:
		return "instrumented-run"
	case PhaseCounterCollection:
		return "counter-collection"
	case PhaseHotSelection:
		return "hot-selection"
	case PhaseFinalBuild:
		return "final-build"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Orchestrator drives the build, including the optional two-pass
// profile-guided flow. With profiling off it degenerates to a single
// uninstrumented build of the same front-end output.
type Orchestrator struct {
	cfg    *common.Config
	driver interfaces.ToolchainDriver
	logger arbor.ILogger

	phase Phase
}

func NewOrchestrator(cfg *common.Config, driver interfaces.ToolchainDriver, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{cfg: cfg, driver: driver, logger: logger, phase: PhaseIdle}
}

// Phase reports the orchestrator's current phase.
func (o *Orchestrator) Phase() Phase { return o.phase }

// Run lowers the directive-stripped body and builds the final executable at
// cfg.Build.Out, returning that path. When profiling is enabled an
// instrumented binary is built and run first so hot functions can be marked
// in the final pass; a failed instrumented run only downgrades to an
// unprofiled selection, never fails the build.
func (o *Orchestrator) Run(ctx context.Context, body string) (string, error) {
	front, _, err := lower.Front(body, o.logger)
	if err != nil {
		return "", err
	}

	b := o.cfg.Build
	hot := make(models.HotSet)

	if b.Profile {
		o.phase = PhaseInstrumentedBuild
		o.logger.Info().Str("phase", o.phase.String()).Msg("Building instrumented executable")

		instSrc := lower.Finish(front, b.Softline, b.Hardline, nil, true)
		exeSuffix := ".out"
		if runtime.GOOS == "windows" {
			exeSuffix = ".exe"
		}
		tmpExe := filepath.Join(os.TempDir(), "cscript-prof-"+uuid.NewString()+exeSuffix)
		if err := o.driver.Build(ctx, instSrc, tmpExe, true); err != nil {
			return "", models.NewBuildError(models.ExitInstrumentedBuild, "build failed (instrumented pass)")
		}
		defer os.Remove(tmpExe)

		o.phase = PhaseInstrumentedRun
		profPath := filepath.Join(os.TempDir(), "cscript-profile-"+uuid.NewString()+".txt")
		rc, runErr := o.driver.RunWithEnv(ctx, tmpExe, profileEnvVar, profPath)
		if runErr != nil {
			o.logger.Warn().Err(runErr).Msg("Instrumented run could not be started; proceeding without profile")
		} else if rc != 0 {
			o.logger.Warn().Int("exit_code", rc).Msg("Instrumented run returned non-zero; proceeding")
		}

		o.phase = PhaseCounterCollection
		counts := ReadCounts(profPath)
		os.Remove(profPath)

		o.phase = PhaseHotSelection
		hot = SelectHot(counts, HotFunctionLimit)
		o.logger.Info().Int("hot_functions", len(hot)).Msg("Hot function selection complete")
	}

	o.phase = PhaseFinalBuild
	finalSrc := lower.Finish(front, b.Softline, b.Hardline, hot, false)
	if err := o.driver.Build(ctx, finalSrc, b.Out, false); err != nil {
		return "", models.NewBuildError(models.ExitFinalBuild, "build failed")
	}

	o.phase = PhaseDone
	return b.Out, nil
}
