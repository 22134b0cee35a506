package interfaces

import "context"

// ToolchainDriver abstracts the host C compiler so the build orchestration
// can be exercised without a real toolchain on the machine.
type ToolchainDriver interface {
	// Build compiles cSource into an executable at outPath. When instrumented
	// is set the translation unit is compiled with profiling support enabled.
	Build(ctx context.Context, cSource, outPath string, instrumented bool) error

	// RunWithEnv executes the binary at exePath with one extra environment
	// variable set and returns its exit code.
	RunWithEnv(ctx context.Context, exePath, envKey, envValue string) (int, error)
}
