// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, replaces them with generated WGSL declarations
// or injected struct source, and collects a declarations list that the renderer uses
// to decide which host provider feeds each binding.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/uniform"
)

// registryEntry pairs a built-in WGSL struct source with its WGSL type name.
type registryEntry struct {
	Source string
	Type   string
}

type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string
	declarations         []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations,
// replacing them with generated declarations or injected struct sources while collecting
// a declarations list for resource wiring.
type PreProcessor interface {
	// Process replaces @oxy: annotations in source with their WGSL output.
	// include annotations inject the struct source once. group annotations generate a
	// @group/@binding declaration and inject the struct source if it was not included yet.
	// provider annotations generate nothing and are only recorded.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if any annotation is malformed
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations collected by the last Process call.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with the built-in struct types registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgScreen:    {Source: uniform.GPUScreenUniformSource, Type: "ScreenUniform"},
			AnnotationArgTexelInfo: {Source: uniform.GPUTexelInfoSource, Type: "TexelInfo"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:   "var<uniform>",
			annotationArgStorageTypeRead:      "var<storage, read>",
			annotationArgStorageTypeReadWrite: "var<storage, read_write>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = nil
	included := make(map[AnnotationArg]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			if included[a.Args[0]] {
				continue
			}
			out = append(out, p.structRegistry[a.Args[0]].Source)
			included[a.Args[0]] = true
		case AnnotationTypeBindingGroup:
			entry := p.structRegistry[a.Args[2]]
			if !included[a.Args[2]] {
				out = append(out, entry.Source)
				included[a.Args[2]] = true
			}
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
