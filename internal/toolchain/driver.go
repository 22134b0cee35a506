package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cscript/internal/common"
)

// cmdlog echoes raw compiler invocations to stderr without the structured
// envelope, so verbose output stays copy-pasteable into a shell.
var cmdlog = log.Logger{
	Level:  log.InfoLevel,
	Writer: &log.ConsoleWriter{Writer: os.Stderr, ColorOutput: false},
}

// Driver shells out to the host C compiler. The compiler is probed once at
// construction and reused for both build passes.
type Driver struct {
	cfg    *common.Config
	cc     string
	logger arbor.ILogger
}

func New(cfg *common.Config, logger arbor.ILogger) *Driver {
	cc := pickCC(cfg.Toolchain.CC)
	logger.Debug().Str("cc", cc).Msg("Selected C compiler")
	return &Driver{cfg: cfg, cc: cc, logger: logger}
}

// CC reports the compiler chosen by the probe.
func (d *Driver) CC() string { return d.cc }

// pickCC probes candidate compilers with --version and returns the first one
// that responds. prefer is tried before the defaults; clang wins over gcc.
func pickCC(prefer string) string {
	var cands []string
	if prefer != "" {
		cands = append(cands, prefer)
	}
	if runtime.GOOS == "windows" {
		cands = append(cands, "clang", "clang-cl", "cl", "gcc")
	} else {
		cands = append(cands, "clang", "gcc")
	}
	for _, c := range cands {
		cmd := exec.Command(c, "--version")
		cmd.Stdout = nil
		cmd.Stderr = nil
		if err := cmd.Run(); err == nil {
			return c
		}
	}
	return "clang"
}

func isMSVCFlavor(cc string) bool {
	base := strings.TrimSuffix(filepath.Base(cc), ".exe")
	return base == "cl" || base == "clang-cl"
}

// Build writes cSource to a temporary .c file, compiles it to outPath and
// removes the temporary unless show-c mode asked to keep it.
func (d *Driver) Build(ctx context.Context, cSource, outPath string, instrumented bool) error {
	cPath := filepath.Join(os.TempDir(), "cscript-"+uuid.NewString()+".c")
	if err := os.WriteFile(cPath, []byte(cSource), 0o644); err != nil {
		return fmt.Errorf("write temp C source: %w", err)
	}
	if d.cfg.Build.ShowC {
		fmt.Fprintf(os.Stderr, "generated C: %s\n", cPath)
	} else {
		defer os.Remove(cPath)
	}

	args := d.buildArgs(cPath, outPath, instrumented)
	if d.cfg.Build.Verbose {
		cmdlog.Info().Msg("CC: " + d.cc + " " + strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, d.cc, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		d.logger.Error().Err(err).Str("out", outPath).Msg("Compiler invocation failed")
		return err
	}
	return nil
}

// buildArgs assembles the compiler command line for either compiler flavor.
func (d *Driver) buildArgs(cPath, outPath string, instrumented bool) []string {
	b := d.cfg.Build
	t := d.cfg.Toolchain
	var args []string

	if isMSVCFlavor(d.cc) {
		args = append(args, "/nologo")
		switch b.Opt {
		case "O0":
			args = append(args, "/Od")
		case "O1":
			args = append(args, "/O1")
		case "O2", "O3", "max":
			args = append(args, "/O2")
		case "size":
			args = append(args, "/Os")
		}
		if b.Debug {
			args = append(args, "/Zi")
		}
		if b.Hardline || b.Strict {
			args = append(args, "/Wall", "/WX")
		}
		if b.LTO {
			args = append(args, "/GL")
		}
		if b.Hardline {
			args = append(args, "/DCS_HARDLINE=1")
		}
		if instrumented {
			args = append(args, "/DCS_PROFILE_BUILD=1")
		}
		for _, def := range t.Defines {
			args = append(args, "/D"+def)
		}
		for _, inc := range t.Includes {
			args = append(args, "/I"+inc)
		}
		args = append(args, cPath, "/Fe:"+outPath)
		if b.Debug {
			args = append(args, "/Fd:"+outPath+".pdb")
		}
		if len(t.LibPaths) > 0 || len(t.Links) > 0 {
			args = append(args, "/link")
			for _, lp := range t.LibPaths {
				args = append(args, "/LIBPATH:"+lp)
			}
			for _, l := range t.Links {
				if !strings.HasSuffix(l, ".lib") {
					l += ".lib"
				}
				args = append(args, l)
			}
		}
		return args
	}

	args = append(args, "-std=c11")
	switch b.Opt {
	case "O0":
		args = append(args, "-O0")
	case "O1":
		args = append(args, "-O1")
	case "O2":
		args = append(args, "-O2")
	case "O3":
		args = append(args, "-O3")
	case "size":
		args = append(args, "-Os")
	case "max":
		args = append(args, "-O3")
	}
	if b.Debug {
		args = append(args, "-g")
	}
	if b.Hardline {
		args = append(args, "-Wall", "-Wextra")
		if b.WarnAsError {
			args = append(args, "-Werror")
		}
		args = append(args, "-Wconversion", "-Wsign-conversion")
	}
	if b.LTO {
		args = append(args, "-flto")
	}
	if b.Target != "" {
		args = append(args, "-target", b.Target)
	}
	if b.Hardline {
		args = append(args, "-DCS_HARDLINE=1")
	}
	if instrumented {
		args = append(args, "-DCS_PROFILE_BUILD=1")
	}
	for _, def := range t.Defines {
		args = append(args, "-D"+def)
	}
	for _, inc := range t.Includes {
		args = append(args, "-I"+inc)
	}
	args = append(args, cPath, "-o", outPath)
	for _, lp := range t.LibPaths {
		args = append(args, "-L"+lp)
	}
	for _, l := range t.Links {
		args = append(args, "-l"+l)
	}
	return args
}

// RunWithEnv executes the binary with one extra environment variable and
// returns its exit code. A non-zero exit is reported through the code, not
// the error.
func (d *Driver) RunWithEnv(ctx context.Context, exePath, envKey, envValue string) (int, error) {
	cmd := exec.CommandContext(ctx, exePath)
	cmd.Env = append(os.Environ(), envKey+"="+envValue)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}
