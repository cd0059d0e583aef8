// annotations.go defines the annotation types, argument constants, and parser for the
// Oxy WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed
// with @oxy: that inject built-in structs, generate bind group declarations, and record
// which host provider feeds a binding. Parsed results are stored as Annotation values
// and consumed by the PreProcessor and the renderer when it wires bind groups.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a built-in struct at the annotation site.
	// It is consumed entirely during pre-processing and produces no declaration.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include screen
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration for a
	// built-in struct and records it in the declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 0 storage_uniform screen screen
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider records which host provider feeds a hand-written binding.
	// No WGSL is generated; the declaration stays in the source below the annotation.
	//
	// Syntax: //@oxy:provider <group> <binding> <provider_identity>
	//
	// Example: //@oxy:provider 1 0 textures
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed (include, group, or provider).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct type key (e.g. "screen")
	//   - group:    [0] = address space, [1] = var name, [2] = struct type key
	//   - provider: [0] = provider identity (e.g. "textures")
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source.
	Line int

	// Group is the @group index for group and provider annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group and provider annotations. Nil for include annotations.
	Binding *int
}

// Identity returns the provider identity of a provider or group annotation.
// Group annotations report their struct type key, so a "screen" group declaration
// is fed by the screen provider.
func (a Annotation) Identity() AnnotationArg {
	switch a.Type {
	case AnnotationTypeProvider:
		return a.Args[0]
	case AnnotationTypeBindingGroup:
		return a.Args[2]
	default:
		return ""
	}
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// Struct type arguments usable with include and group.
const (
	// AnnotationArgScreen identifies the ScreenUniform struct (render target size).
	AnnotationArgScreen AnnotationArg = "screen"

	// AnnotationArgTexelInfo identifies the TexelInfo struct (texture size and mip count).
	AnnotationArgTexelInfo AnnotationArg = "texel_info"
)

// Address space arguments usable with group.
const (
	annotationArgStorageTypeUniform   AnnotationArg = "storage_uniform"
	annotationArgStorageTypeRead      AnnotationArg = "storage_read"
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

// Provider identity arguments usable with provider.
const (
	// AnnotationArgExterns marks a binding whose uniforms are set by the host through a Binder.
	AnnotationArgExterns AnnotationArg = "externs"

	// AnnotationArgTextures marks a texture or sampler binding fed by uploaded textures.
	AnnotationArgTextures AnnotationArg = "textures"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgScreen,
	AnnotationArgTexelInfo,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

var validProviderIdentities = []AnnotationArg{
	AnnotationArgExterns,
	AnnotationArgTextures,
	AnnotationArgScreen,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires five arguments (group, binding, address space, var name, struct type)", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[5])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	case AnnotationTypeProvider:
		if len(args) != 4 {
			return nil, fmt.Errorf("line %d: @oxy provider annotation requires three arguments (group, binding, provider identity)", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q in @oxy provider annotation", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    []AnnotationArg{AnnotationArg(args[3])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

func parseGroupBinding(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil || group < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q", lineNum, groupArg)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil || binding < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q", lineNum, bindingArg)
	}
	return group, binding, nil
}
