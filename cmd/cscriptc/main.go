package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cscript/internal/common"
	"github.com/ternarybob/cscript/internal/compiler"
	"github.com/ternarybob/cscript/internal/models"
	"github.com/ternarybob/cscript/internal/toolchain"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles configPaths // Multiple -config flags supported
	showVersion = flag.Bool("version", false, "Print version information")
	outPath     = flag.String("o", "", "Output executable path (overrides @out)")
	optLevel    = flag.String("opt", "", "Optimization level: O0, O1, O2, O3, size, max")
	noLTO       = flag.Bool("no-lto", false, "Disable link-time optimization")
	strict      = flag.Bool("strict", false, "Treat the source as hardline regardless of directives")
	relaxed     = flag.Bool("relaxed", false, "Disable hardline warnings")
	showC       = flag.Bool("show-c", false, "Keep and report the generated C file")
	verbose     = flag.Bool("verbose", false, "Verbose build output")
	debugBuild  = flag.Bool("debug", false, "Build with debug info")
	profile     = flag.Bool("profile", false, "Enable the two-pass profile-guided build")
	ccPrefer    = flag.String("cc", "", "Preferred C compiler")
	target      = flag.String("target", "", "Cross-compilation target triple")
	warnAsErr   = flag.Bool("warn-as-error", false, "Promote hardline warnings to errors")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

// normalizeOptShorthand rewrites the familiar -O0/-O1/-O2/-O3 spellings into
// -opt=... so the flag package can parse them.
func normalizeOptShorthand(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case len(a) == 3 && strings.HasPrefix(a, "-O") && a[2] >= '0' && a[2] <= '3':
			out = append(out, "-opt="+a[1:])
		case a == "-Osize":
			out = append(out, "-opt=size")
		case a == "-Omax":
			out = append(out, "-opt=max")
		default:
			out = append(out, a)
		}
	}
	return out
}

func main() {
	os.Args = append(os.Args[:1], normalizeOptShorthand(os.Args[1:])...)
	flag.Parse()

	if *showVersion {
		fmt.Printf("cscriptc version %s\n", common.GetFullVersion())
		os.Exit(models.ExitOK)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: cscriptc [flags] file.csc")
		flag.PrintDefaults()
		os.Exit(models.ExitUsage)
	}
	input := flag.Arg(0)

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("cscript.toml"); err == nil {
			configFiles = append(configFiles, "cscript.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(models.ExitUsage)
	}

	common.ApplyFlagOverrides(config, common.FlagOverrides{
		Out:         *outPath,
		Opt:         *optLevel,
		NoLTO:       *noLTO,
		Strict:      *strict,
		Relaxed:     *relaxed,
		ShowC:       *showC,
		Verbose:     *verbose,
		Debug:       *debugBuild,
		Profile:     *profile,
		CC:          *ccPrefer,
		Target:      *target,
		WarnAsError: *warnAsErr,
	})

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Str("opt", config.Build.Opt).
		Bool("hardline", config.Build.Hardline).
		Bool("softline", config.Build.Softline).
		Bool("lto", config.Build.LTO).
		Bool("profile", config.Build.Profile).
		Msg("Resolved configuration")

	driver := toolchain.New(config, logger)
	service := compiler.NewService(config, driver, logger)

	out, err := service.Compile(context.Background(), input)
	if err != nil {
		logger.Error().Err(err).Msg("Compilation failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(models.ExitCodeOf(err))
	}

	// The produced path is the only thing written to stdout so scripts can
	// capture it.
	fmt.Println(out)
}
