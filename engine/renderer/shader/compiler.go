package shader

import (
	"fmt"

	"github.com/gogpu/naga"
)

// CompileResult holds the output of a shader compiler.
type CompileResult struct {
	// Code is the compiled module (SPIR-V for the naga compiler).
	Code []byte

	// Warnings holds the non-fatal diagnostics reported by the compiler, verbatim.
	Warnings []string
}

// Compiler compiles pre-processed WGSL source.
type Compiler interface {
	// Compile compiles source. A non-nil error means the shader is unusable.
	//
	// Parameters:
	//   - source: the pre-processed WGSL source
	//
	// Returns:
	//   - CompileResult: the compiled code and any warnings
	//   - error: the compile error, if any
	Compile(source string) (CompileResult, error)
}

// CompilerFunc adapts a plain function to the Compiler interface.
type CompilerFunc func(source string) (CompileResult, error)

func (f CompilerFunc) Compile(source string) (CompileResult, error) {
	return f(source)
}

// CompileError reports a shader that failed to compile.
type CompileError struct {
	Key string
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader %q: compile failed: %v", e.Key, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

type nagaCompiler struct{}

var _ Compiler = nagaCompiler{}

// NewNagaCompiler returns a Compiler that validates and translates WGSL to SPIR-V with naga.
// naga reports problems as errors only, so its results never carry warnings.
//
// Returns:
//   - Compiler: the naga-backed compiler
func NewNagaCompiler() Compiler {
	return nagaCompiler{}
}

func (nagaCompiler) Compile(source string) (CompileResult, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return CompileResult{}, err
	}
	return CompileResult{Code: spirv}, nil
}
