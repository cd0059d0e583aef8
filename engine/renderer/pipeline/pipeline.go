package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

var (
	// ErrMissingShader is returned when a pipeline lacks a shader its type requires.
	ErrMissingShader = errors.New("pipeline is missing a required shader")
	// ErrStageMismatch is returned when a shader is attached to the wrong stage.
	ErrStageMismatch = errors.New("shader stage does not match pipeline slot")
)

// pipeline is the implementation of the Pipeline interface.
// It links the shaders of a program and holds the data derived from all of its stages.
type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string

	vertexShader, fragmentShader, computeShader shader.Shader

	// bindGroupLayouts holds the layouts of every stage merged by group index
	bindGroupLayouts map[int]wgpu.BindGroupLayoutDescriptor
}

// Pipeline is a linked shader program: a vertex and fragment shader pair, or a compute shader.
// It is the symbol table uniforms are resolved against at draw time.
type Pipeline interface {
	uniform.SymbolTable

	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex, fragment, or compute)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Shaders returns the pipeline's shaders in stage order.
	Shaders() []shader.Shader

	// BindGroupLayoutDescriptors returns the bind group layouts of all stages merged by group index.
	// Bindings declared by more than one stage get the union of the stage visibilities.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the variable name declared at a group and binding by any stage.
	BindGroupVarName(group, binding int) string

	// Declarations returns the pre-processor declarations of every stage in stage order.
	Declarations() []shader.Annotation

	// Uniforms returns the uniform slots of every stage, each qualified name listed once.
	Uniforms() []uniform.Slot

	// CompileWarnings returns the compile warnings of every stage, each prefixed with the
	// stage name.
	//
	// Returns:
	//   - []string: the warnings, empty when every stage compiled cleanly
	CompileWarnings() []string
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline and validates that the shaders its type requires are present.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: the linked pipeline
//   - error: ErrMissingShader or ErrStageMismatch
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) (Pipeline, error) {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		pipelineType: pipelineType,
	}
	for _, opt := range opts {
		opt(p)
	}

	switch pipelineType {
	case PipelineTypeRender:
		if p.vertexShader == nil || p.fragmentShader == nil {
			return nil, fmt.Errorf("pipeline %q: render pipelines need a vertex and a fragment shader: %w", pipelineKey, ErrMissingShader)
		}
	case PipelineTypeCompute:
		if p.computeShader == nil {
			return nil, fmt.Errorf("pipeline %q: compute pipelines need a compute shader: %w", pipelineKey, ErrMissingShader)
		}
	default:
		return nil, fmt.Errorf("pipeline %q: unknown pipeline type %d", pipelineKey, pipelineType)
	}
	checks := []struct {
		s    shader.Shader
		want shader.ShaderType
	}{
		{p.vertexShader, shader.ShaderTypeVertex},
		{p.fragmentShader, shader.ShaderTypeFragment},
		{p.computeShader, shader.ShaderTypeCompute},
	}
	for _, c := range checks {
		if c.s != nil && c.s.ShaderType() != c.want {
			return nil, fmt.Errorf("pipeline %q: shader %q is a %s shader in the %s slot: %w",
				pipelineKey, c.s.Key(), c.s.ShaderType(), c.want, ErrStageMismatch)
		}
	}

	layouts := make([]map[int]wgpu.BindGroupLayoutDescriptor, 0, 2)
	for _, s := range p.Shaders() {
		layouts = append(layouts, s.BindGroupLayoutDescriptors())
	}
	p.bindGroupLayouts = mergeBindGroupLayouts(layouts...)
	return p, nil
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) Shaders() []shader.Shader {
	if p.pipelineType == PipelineTypeCompute {
		return []shader.Shader{p.computeShader}
	}
	return []shader.Shader{p.vertexShader, p.fragmentShader}
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.bindGroupLayouts
}

func (p *pipeline) BindGroupVarName(group, binding int) string {
	for _, s := range p.Shaders() {
		if name := s.BindGroupVarName(group, binding); name != "" {
			return name
		}
	}
	return ""
}

func (p *pipeline) Declarations() []shader.Annotation {
	var out []shader.Annotation
	for _, s := range p.Shaders() {
		out = append(out, s.Declarations()...)
	}
	return out
}

// LookupUniform searches the stages in order. The first stage declaring name wins,
// which is sound because WebGPU requires stages sharing a binding to agree on its type.
func (p *pipeline) LookupUniform(name string) (uniform.Slot, bool) {
	for _, s := range p.Shaders() {
		if slot, ok := s.LookupUniform(name); ok {
			return slot, true
		}
	}
	return uniform.Slot{}, false
}

func (p *pipeline) Uniforms() []uniform.Slot {
	seen := make(map[string]bool)
	var out []uniform.Slot
	for _, s := range p.Shaders() {
		for _, slot := range s.Uniforms() {
			if seen[slot.Name] {
				continue
			}
			seen[slot.Name] = true
			out = append(out, slot)
		}
	}
	slices.SortFunc(out, func(a, b uniform.Slot) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (p *pipeline) CompileWarnings() []string {
	out := make([]string, 0)
	for _, s := range p.Shaders() {
		for _, w := range s.CompileWarnings() {
			out = append(out, s.ShaderType().String()+": "+w)
		}
	}
	return out
}

// mergeBindGroupLayouts merges per-stage bind group layouts by group index. Entries that
// share a binding number have their visibilities OR-ed together.
//
// Parameters:
//   - stageLayouts: the layouts of each stage keyed by group index
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged layouts keyed by group index
func mergeBindGroupLayouts(stageLayouts ...map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	entryMaps := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	for _, layouts := range stageLayouts {
		for g, desc := range layouts {
			if entryMaps[g] == nil {
				entryMaps[g] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if existing, ok := entryMaps[g][e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entryMaps[g][e.Binding] = existing
					continue
				}
				entryMaps[g][e.Binding] = e
			}
		}
	}

	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entryMaps))
	for g, entryMap := range entryMaps {
		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
		for _, e := range entryMap {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return merged
}
