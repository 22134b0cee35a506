package models

import (
	"errors"
	"fmt"
)

// Process exit codes. Calling tooling discriminates failure classes by code.
const (
	ExitOK                = 0
	ExitCompileError      = 1 // structural errors in the source (exhaustiveness, duplicates, I/O)
	ExitUsage             = 2 // bad invocation (missing input file, unknown flag value)
	ExitInstrumentedBuild = 3 // toolchain failure during the instrumented PGO pass
	ExitFinalBuild        = 4 // toolchain failure during the final build
)

// CompileError is a fatal diagnostic with an optional source position and an
// exit-code class. The first CompileError raised aborts the compilation;
// there is no error accumulation across passes.
type CompileError struct {
	Msg  string
	Line int // 1-based, 0 when no position applies
	Col  int
	Code int
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return e.Msg
}

// NewCompileError creates a positionless compile error with exit code ExitCompileError.
func NewCompileError(format string, args ...interface{}) *CompileError {
	return &CompileError{Msg: fmt.Sprintf(format, args...), Code: ExitCompileError}
}

// NewCompileErrorAt creates a compile error carrying the line:column computed
// from a byte offset into the original source text.
func NewCompileErrorAt(src string, pos int, format string, args ...interface{}) *CompileError {
	line, col := LineColAt(src, pos)
	return &CompileError{Msg: fmt.Sprintf(format, args...), Line: line, Col: col, Code: ExitCompileError}
}

// NewBuildError creates a toolchain failure error with the given exit-code class.
func NewBuildError(code int, format string, args ...interface{}) *CompileError {
	return &CompileError{Msg: fmt.Sprintf(format, args...), Code: code}
}

// ExitCodeOf maps an error to its process exit code. Non-CompileError errors
// map to ExitCompileError.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ExitCompileError
}

// LineColAt computes the 1-based line and column of a byte offset by counting
// newlines up to pos.
func LineColAt(s string, pos int) (int, int) {
	line, col := 1, 1
	for i := 0; i < pos && i < len(s); i++ {
		if s[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
