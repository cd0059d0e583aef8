package shader

import (
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/uniform"
)

// wgslLayout is the byte size and alignment of a WGSL type in host-shareable memory.
type wgslLayout struct {
	size  uint64
	align uint64
}

// wgslScalarSizes holds the byte size of every scalar a primitive can be built from.
var wgslScalarSizes = map[string]uint64{
	"f32":  4,
	"i32":  4,
	"u32":  4,
	"bool": 4,
	"f16":  2,
}

// wgslShorthandElems maps the suffix of shorthand aliases such as vec3f or mat4x4h to their scalar.
var wgslShorthandElems = map[byte]string{
	'f': "f32",
	'i': "i32",
	'u': "u32",
	'h': "f16",
}

// wgslPrimitive is a scalar, vector or matrix type. Scalars are 1x1, vectors have one column.
type wgslPrimitive struct {
	elem       string
	cols, rows int
	atomic     bool
}

// parsePrimitive recognizes scalar, vecN, matCxR and atomic types, in both the generic
// and the shorthand spelling. typeName must not contain whitespace.
func parsePrimitive(typeName string) (wgslPrimitive, bool) {
	if _, ok := wgslScalarSizes[typeName]; ok {
		return wgslPrimitive{elem: typeName, cols: 1, rows: 1}, true
	}
	if inner, ok := cutGeneric(typeName, "atomic"); ok {
		if inner != "i32" && inner != "u32" {
			return wgslPrimitive{}, false
		}
		return wgslPrimitive{elem: inner, cols: 1, rows: 1, atomic: true}, true
	}

	var p wgslPrimitive
	var rest string
	switch {
	case strings.HasPrefix(typeName, "vec") && len(typeName) > 4:
		p.cols, p.rows, rest = 1, int(typeName[3])-'0', typeName[4:]
	case strings.HasPrefix(typeName, "mat") && len(typeName) > 6 && typeName[4] == 'x':
		p.cols, p.rows, rest = int(typeName[3])-'0', int(typeName[5])-'0', typeName[6:]
		if p.cols < 2 || p.cols > 4 {
			return wgslPrimitive{}, false
		}
	default:
		return wgslPrimitive{}, false
	}
	if p.rows < 2 || p.rows > 4 {
		return wgslPrimitive{}, false
	}

	if inner, ok := strings.CutPrefix(rest, "<"); ok && strings.HasSuffix(inner, ">") {
		p.elem = strings.TrimSuffix(inner, ">")
	} else if len(rest) == 1 {
		p.elem = wgslShorthandElems[rest[0]]
	}
	if _, ok := wgslScalarSizes[p.elem]; !ok {
		return wgslPrimitive{}, false
	}
	if p.cols > 1 && p.elem != "f32" && p.elem != "f16" {
		return wgslPrimitive{}, false
	}
	return p, true
}

// layout follows the WGSL alignment rules: vec3 aligns like vec4, and a matrix is an array
// of column vectors.
func (p wgslPrimitive) layout() wgslLayout {
	scalar := wgslScalarSizes[p.elem]
	column := wgslLayout{size: uint64(p.rows) * scalar, align: uint64(p.rows) * scalar}
	if p.rows == 3 {
		column.align = 4 * scalar
	}
	if p.cols == 1 {
		return column
	}
	stride := common.RoundUp(column.align, column.size)
	return wgslLayout{size: uint64(p.cols) * stride, align: column.align}
}

// shape reports the uniform shape a Binder value must have to fill this type.
// Only f32 scalars, vectors and square matrices are encodable.
func (p wgslPrimitive) shape() (uniform.Shape, bool) {
	if p.elem != "f32" || p.atomic {
		return uniform.Shape{}, false
	}
	switch {
	case p.cols == 1 && p.rows == 1:
		return uniform.Shape{Kind: uniform.KindScalar, Size: 1}, true
	case p.cols == 1:
		return uniform.Shape{Kind: uniform.KindVector, Size: p.rows}, true
	case p.cols == p.rows:
		return uniform.Shape{Kind: uniform.KindMatrix, Size: p.cols}, true
	}
	return uniform.Shape{}, false
}

// typeLayout resolves a primitive, a struct already present in structs, or an array of either.
// A runtime-sized array reports the stride of one element and sets runtime.
func typeLayout(typeName string, structs map[string]wgslLayout) (l wgslLayout, runtime bool, ok bool) {
	if p, ok := parsePrimitive(typeName); ok {
		return p.layout(), false, true
	}
	if l, ok := structs[typeName]; ok {
		return l, false, true
	}

	inner, ok := cutGeneric(typeName, "array")
	if !ok {
		return wgslLayout{}, false, false
	}
	parts := splitTopLevel(inner, ',')
	elem, _, ok := typeLayout(parts[0], structs)
	if !ok {
		return wgslLayout{}, false, false
	}
	stride := common.RoundUp(elem.align, elem.size)
	if len(parts) == 1 {
		return wgslLayout{size: stride, align: elem.align}, true, true
	}
	count, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || count == 0 {
		return wgslLayout{}, false, false
	}
	return wgslLayout{size: count * stride, align: elem.align}, false, true
}

// wgslMember is one struct member. offset is valid once placed is set.
type wgslMember struct {
	name     string
	typeName string
	builtin  bool

	// alignAttr and sizeAttr hold @align(N) and @size(N), 0 when absent.
	alignAttr uint64
	sizeAttr  uint64

	offset uint64
	placed bool
}

type wgslStruct struct {
	name    string
	members []wgslMember
}

// place assigns member offsets and returns the struct layout. It fails while any member type is
// unknown. A trailing runtime-sized array ends the struct: the size is the fixed prefix, or one
// element when there is no prefix.
func (s *wgslStruct) place(known map[string]wgslLayout) (wgslLayout, bool) {
	offset, maxAlign := uint64(0), uint64(1)
	for i := range s.members {
		m := &s.members[i]
		m.placed = false
		if m.builtin {
			continue
		}
		l, runtime, ok := typeLayout(m.typeName, known)
		if !ok {
			return wgslLayout{}, false
		}
		if m.alignAttr > 0 {
			l.align = m.alignAttr
		}
		if m.sizeAttr > 0 {
			l.size = m.sizeAttr
		}

		offset = common.RoundUp(l.align, offset)
		m.offset, m.placed = offset, true
		maxAlign = max(maxAlign, l.align)
		if runtime {
			if offset == 0 {
				return l, true
			}
			return wgslLayout{size: offset, align: maxAlign}, true
		}
		offset += l.size
	}
	return wgslLayout{size: common.RoundUp(maxAlign, offset), align: maxAlign}, true
}

// layoutStructs places structs in dependency order. Structs whose members never resolve are left out.
func layoutStructs(structs []*wgslStruct) map[string]wgslLayout {
	known := make(map[string]wgslLayout, len(structs))
	pending := structs
	for len(pending) > 0 {
		var next []*wgslStruct
		for _, s := range pending {
			if l, ok := s.place(known); ok {
				known[s.name] = l
			} else {
				next = append(next, s)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return known
}

// cutGeneric returns the parameter list of name<...>.
func cutGeneric(typeName, name string) (string, bool) {
	inner, ok := strings.CutPrefix(typeName, name+"<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return "", false
	}
	return strings.TrimSuffix(inner, ">"), true
}

// splitTopLevel splits s at sep, ignoring separators nested in <> or (). Parts are trimmed.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth = max(0, depth-1)
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

// compactType removes all whitespace from a WGSL type expression.
func compactType(typeName string) string {
	return strings.Join(strings.Fields(typeName), "")
}
