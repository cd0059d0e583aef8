package shader

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// structRegex captures a struct name and its member list.
	structRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// attributeRegex captures an attribute name and its optional argument, e.g. @align(16).
	attributeRegex = regexp.MustCompile(`@(\w+)(?:\(([^)]*)\))?`)

	// resourceRegex captures group, binding, address space, variable name and type of a
	// module-scope resource such as: @group(1) @binding(0) var<uniform> params: Params;
	resourceRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	// entryPointRegex captures the stage attribute and the name of the function that follows it.
	entryPointRegex = regexp.MustCompile(`(?s)@(vertex|fragment|compute)\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures the argument list of @workgroup_size.
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(([^)]*)\)`)
)

// textureViewDimensions maps the dimension suffix of a texture type to its view dimension.
var textureViewDimensions = map[string]wgpu.TextureViewDimension{
	"1d":         wgpu.TextureViewDimension1D,
	"2d":         wgpu.TextureViewDimension2D,
	"2d_array":   wgpu.TextureViewDimension2DArray,
	"3d":         wgpu.TextureViewDimension3D,
	"cube":       wgpu.TextureViewDimensionCube,
	"cube_array": wgpu.TextureViewDimensionCubeArray,
}

// textureSampleTypes maps the texel type parameter of a sampled texture to its sample type.
var textureSampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// wgslResource is a module-scope @group/@binding variable. space is the compacted address
// space ("uniform", "storage,read"), empty for textures and samplers.
type wgslResource struct {
	group    int
	binding  int
	space    string
	name     string
	typeName string
}

// wgslModule is everything the engine reads from a WGSL source: struct layouts, bound resources,
// entry points and the compute workgroup size.
type wgslModule struct {
	structs       map[string]*wgslStruct
	layouts       map[string]wgslLayout
	resources     []wgslResource
	entryPoints   map[ShaderType]string
	workgroupSize [3]uint32
}

// parseWGSL scans a pre-processed WGSL source once. Comments are removed first so commented-out
// declarations are ignored.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - *wgslModule: the parsed module
func parseWGSL(source string) *wgslModule {
	src := stripComments(source)
	m := &wgslModule{
		structs:       make(map[string]*wgslStruct),
		entryPoints:   make(map[ShaderType]string),
		workgroupSize: [3]uint32{1, 1, 1},
	}

	var structs []*wgslStruct
	for _, match := range structRegex.FindAllStringSubmatch(src, -1) {
		s := &wgslStruct{name: match[1]}
		for _, part := range splitTopLevel(match[2], ',') {
			if member, ok := parseMember(part); ok {
				s.members = append(s.members, member)
			}
		}
		structs = append(structs, s)
		m.structs[s.name] = s
	}
	m.layouts = layoutStructs(structs)

	for _, match := range resourceRegex.FindAllStringSubmatch(src, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		m.resources = append(m.resources, wgslResource{
			group:    group,
			binding:  binding,
			space:    compactType(match[3]),
			name:     match[4],
			typeName: compactType(match[5]),
		})
	}

	for _, match := range entryPointRegex.FindAllStringSubmatch(src, -1) {
		st, _ := ParseShaderType(match[1])
		if _, seen := m.entryPoints[st]; !seen {
			m.entryPoints[st] = match[2]
		}
	}

	if match := workgroupSizeRegex.FindStringSubmatch(src); match != nil {
		for i, dim := range splitTopLevel(match[1], ',') {
			if i == len(m.workgroupSize) {
				break
			}
			if v, err := strconv.ParseUint(dim, 10, 32); err == nil {
				m.workgroupSize[i] = uint32(v)
			}
		}
	}

	return m
}

// parseMember parses one struct member such as "@align(16) intensity: f32".
func parseMember(text string) (wgslMember, bool) {
	var m wgslMember
	for _, attr := range attributeRegex.FindAllStringSubmatch(text, -1) {
		arg := strings.TrimSpace(attr[2])
		switch attr[1] {
		case "builtin":
			m.builtin = true
		case "align":
			m.alignAttr, _ = strconv.ParseUint(arg, 10, 64)
		case "size":
			m.sizeAttr, _ = strconv.ParseUint(arg, 10, 64)
		}
	}

	name, typeName, ok := strings.Cut(attributeRegex.ReplaceAllString(text, ""), ":")
	if !ok {
		return wgslMember{}, false
	}
	m.name = strings.TrimSpace(name)
	m.typeName = compactType(typeName)
	return m, m.name != "" && m.typeName != ""
}

// bindGroupLayouts builds one layout descriptor per group with entries sorted by binding, and
// the variable name of every binding. Resources the engine cannot bind are logged and skipped.
//
// Parameters:
//   - visibility: the stage flag set on every entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func (m *wgslModule) bindGroupLayouts(visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, r := range m.resources {
		entry, ok := m.layoutEntry(r, visibility)
		if !ok {
			common.Logger().Warn("shader: resource cannot be bound", "var", r.name, "type", r.typeName, "group", r.group, "binding", r.binding)
			continue
		}
		entries[r.group] = append(entries[r.group], entry)
		if names[r.group] == nil {
			names[r.group] = make(map[int]string)
		}
		names[r.group][r.binding] = r.name
	}

	layouts := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, es := range entries {
		slices.SortFunc(es, func(a, b wgpu.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		layouts[g] = wgpu.BindGroupLayoutDescriptor{Entries: es}
	}
	return layouts, names
}

// layoutEntry classifies one resource. Buffers get MinBindingSize from the bound type's layout.
func (m *wgslModule) layoutEntry(r wgslResource, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutEntry, bool) {
	entry := wgpu.BindGroupLayoutEntry{Binding: uint32(r.binding), Visibility: visibility}

	switch {
	case r.space == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case r.space == "storage,read_write":
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
	case r.space == "storage" || r.space == "storage,read":
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case r.space != "":
		return entry, false
	case r.typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		return entry, true
	case r.typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		return entry, true
	default:
		return textureLayoutEntry(entry, r.typeName)
	}

	if l, _, ok := typeLayout(r.typeName, m.layouts); ok {
		entry.Buffer.MinBindingSize = l.size
	}
	return entry, true
}

// textureLayoutEntry fills the texture part of entry for sampled, depth and multisampled
// textures. Storage and external textures are rejected.
func textureLayoutEntry(entry wgpu.BindGroupLayoutEntry, typeName string) (wgpu.BindGroupLayoutEntry, bool) {
	base, texel, _ := strings.Cut(strings.TrimSuffix(typeName, ">"), "<")
	dim, ok := strings.CutPrefix(base, "texture_")
	if !ok {
		return entry, false
	}

	sampleType, ok := textureSampleTypes[texel]
	if !ok {
		sampleType = wgpu.TextureSampleTypeFloat
	}
	if d, ok := strings.CutPrefix(dim, "depth_"); ok {
		dim, sampleType = d, wgpu.TextureSampleTypeDepth
	}
	if d, ok := strings.CutPrefix(dim, "multisampled_"); ok {
		dim, entry.Texture.Multisampled = d, true
	}
	view, ok := textureViewDimensions[dim]
	if !ok {
		return entry, false
	}

	entry.Texture.ViewDimension = view
	entry.Texture.SampleType = sampleType
	return entry, true
}

// stripComments removes line comments and nested block comments in one scan. Newlines inside
// block comments are kept.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - string: the source without comments
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		rest := source[i:]
		switch {
		case depth == 0 && strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				return sb.String()
			}
			i += end - 1
		case strings.HasPrefix(rest, "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(rest, "*/"):
			depth--
			i++
		case depth == 0, source[i] == '\n':
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
