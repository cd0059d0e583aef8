package shader

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is written for.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// ParseShaderType parses "vertex", "fragment" or "compute".
//
// Parameters:
//   - s: the stage name, case-insensitive
//
// Returns:
//   - ShaderType: the parsed stage
//   - error: an error for unknown stage names
func ParseShaderType(s string) (ShaderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertex", "vert", "vs":
		return ShaderTypeVertex, nil
	case "fragment", "frag", "fs", "pixel":
		return ShaderTypeFragment, nil
	case "compute", "comp", "cs":
		return ShaderTypeCompute, nil
	default:
		return 0, fmt.Errorf("unknown shader stage %q", s)
	}
}

// ErrNoSource is returned by NewShader when neither WithSource nor WithSourcePath was given.
var ErrNoSource = errors.New("shader has no source")

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	rawSource                  string
	sourcePath                 string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	uniforms                   map[string]uniform.Slot
	workGroupSize              [3]uint32
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor
	code                       []byte
	warnings                   []string

	compiler Compiler
	pp       PreProcessor
}

// Shader is a loaded, pre-processed and compiled WGSL shader. Besides the layout data
// needed for pipeline creation it exposes the uniform symbol table used to resolve
// Binder values at draw time and the warnings reported by the compiler.
type Shader interface {
	uniform.SymbolTable

	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a group index.
	//
	// Parameters:
	//   - bindingKey: the group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is not declared
	BindGroupLayoutDescriptor(bindingKey int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index for a variable name within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// BindGroupVarNames retrieves all variable names keyed by group and binding index.
	BindGroupVarNames() map[int]map[int]string

	// EntryPoint returns the entry point name for this shader.
	EntryPoint() string

	// WorkgroupSize returns the workgroup size for compute shaders and [0, 0, 0] otherwise.
	WorkgroupSize() [3]uint32

	// Module returns the wgpu.ShaderModuleDescriptor built from the pre-processed source.
	Module() *wgpu.ShaderModuleDescriptor

	// Code returns the compiled module produced by the shader's Compiler.
	Code() []byte

	// ShaderType returns the stage of the shader.
	ShaderType() ShaderType

	// Declarations returns the group and provider annotations parsed from the shader source.
	Declarations() []Annotation

	// Uniforms returns every uniform slot declared by the shader, sorted by name.
	// Struct members appear under their qualified name only.
	//
	// Returns:
	//   - []uniform.Slot: the declared slots
	Uniforms() []uniform.Slot

	// CompileWarnings returns the warnings the compiler reported for this shader, verbatim.
	// The slice is empty when the shader compiled cleanly.
	//
	// Returns:
	//   - []string: the compiler warnings
	CompileWarnings() []string
}

var _ Shader = &shader{}

// NewShader creates, pre-processes and compiles a shader.
// The source is taken from WithSource, or read from WithSourcePath when no inline source is given.
// Without WithCompiler the shader is compiled with the naga compiler.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the pipeline stage the shader is written for
//   - options: functional options configuring the shader
//
// Returns:
//   - Shader: the compiled shader
//   - error: ErrNoSource, a read or pre-processing error, or a *CompileError
func NewShader(key string, shaderType ShaderType, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:                        key,
		shaderType:                 shaderType,
		bindGroupLayoutDescriptors: make(map[int]wgpu.BindGroupLayoutDescriptor),
		bindingVarNames:            make(map[int]map[int]string),
		uniforms:                   make(map[string]uniform.Slot),
		pp:                         NewPreProcessor(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.compiler == nil {
		s.compiler = NewNagaCompiler()
	}

	if s.rawSource == "" {
		if s.sourcePath == "" {
			return nil, fmt.Errorf("shader %q: %w", key, ErrNoSource)
		}
		data, err := os.ReadFile(s.sourcePath)
		if err != nil {
			return nil, fmt.Errorf("shader %q: failed to read source file: %w", key, err)
		}
		s.rawSource = string(data)
	}

	if err := s.parseSource(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) BindGroupLayoutDescriptor(bindingKey int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[bindingKey]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	if s.bindingVarNames[group] == nil {
		return -1, false
	}
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) BindGroupVarNames() map[int]map[int]string {
	return s.bindingVarNames
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Code() []byte {
	return s.code
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}

func (s *shader) LookupUniform(name string) (uniform.Slot, bool) {
	slot, ok := s.uniforms[name]
	return slot, ok
}

func (s *shader) Uniforms() []uniform.Slot {
	out := make([]uniform.Slot, 0, len(s.uniforms))
	for name, slot := range s.uniforms {
		if name != slot.Name {
			continue
		}
		out = append(out, slot)
	}
	slices.SortFunc(out, func(a, b uniform.Slot) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (s *shader) CompileWarnings() []string {
	return slices.Clone(s.warnings)
}

// parseSource pre-processes and compiles the raw source, then extracts the entry point,
// bind group layouts and uniform symbol table from the pre-processed source.
func (s *shader) parseSource() error {
	var err error
	s.source, err = s.pp.Process(s.rawSource)
	if err != nil {
		return fmt.Errorf("shader %q: failed to pre-process source: %w", s.key, err)
	}

	result, err := s.compiler.Compile(s.source)
	if err != nil {
		return &CompileError{Key: s.key, Err: err}
	}
	s.code = result.Code
	s.warnings = make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		s.warnings = append(s.warnings, w)
		common.Logger().Warn("shader compile warning", "shader", s.key, "warning", w)
	}

	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	mod := parseWGSL(s.source)
	s.entryPoint = mod.entryPoints[s.shaderType]
	if s.shaderType == ShaderTypeCompute {
		s.workGroupSize = mod.workgroupSize
	}
	var visibility wgpu.ShaderStage
	switch s.shaderType {
	case ShaderTypeVertex:
		visibility = wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		visibility = wgpu.ShaderStageCompute
	default:
		visibility = wgpu.ShaderStageNone
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = mod.bindGroupLayouts(visibility)
	s.uniforms = mod.uniformSlots()

	common.Logger().Debug("shader parsed", "shader", s.key, "stage", s.shaderType.String(), "uniforms", len(s.uniforms))
	return nil
}
