package shader

import (
	"strconv"

	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// uniformSlots builds the uniform symbol table of the module.
//
// var<uniform> declarations of an encodable type become a slot named after the variable.
// var<uniform> declarations of a struct type contribute one slot per encodable member,
// addressable as "var.member" and, when the member name is unambiguous, as "member".
// Slot.Name always holds the qualified name.
// Sampled texture declarations become texture slots.
//
// Returns:
//   - map[string]uniform.Slot: slots keyed by every name they can be looked up by
func (m *wgslModule) uniformSlots() map[string]uniform.Slot {
	slots := make(map[string]uniform.Slot)
	members := make(map[string][]uniform.Slot)

	for _, r := range m.resources {
		if r.space == "" {
			if _, ok := textureLayoutEntry(wgpu.BindGroupLayoutEntry{}, r.typeName); ok {
				slots[r.name] = uniform.Slot{
					Name:     r.name,
					TypeName: r.typeName,
					Group:    r.group,
					Binding:  r.binding,
					Shape:    uniform.Shape{Kind: uniform.KindTexture},
				}
			}
			continue
		}
		if r.space != "uniform" {
			continue
		}

		if slot, ok := primitiveSlot(r.name, r.typeName, 0); ok {
			slot.Group, slot.Binding = r.group, r.binding
			slots[r.name] = slot
			continue
		}

		s, ok := m.structs[r.typeName]
		if _, placed := m.layouts[r.typeName]; !ok || !placed {
			continue
		}
		for _, member := range s.members {
			if !member.placed {
				continue
			}
			slot, ok := primitiveSlot(r.name+"."+member.name, member.typeName, member.offset)
			if !ok {
				continue
			}
			slot.Group, slot.Binding = r.group, r.binding
			slots[slot.Name] = slot
			members[member.name] = append(members[member.name], slot)
		}
	}

	for name, candidates := range members {
		if len(candidates) != 1 {
			continue
		}
		if _, taken := slots[name]; taken {
			continue
		}
		slots[name] = candidates[0]
	}

	return slots
}

// primitiveSlot creates a slot for an encodable WGSL type or a fixed-size array of one.
// Array strides follow the uniform address space rule of rounding up to 16 bytes.
func primitiveSlot(name, typeName string, offset uint64) (uniform.Slot, bool) {
	slot := uniform.Slot{Name: name, TypeName: typeName, Offset: offset}

	if p, ok := parsePrimitive(typeName); ok {
		slot.Shape, ok = p.shape()
		return slot, ok
	}

	inner, ok := cutGeneric(typeName, "array")
	if !ok {
		return uniform.Slot{}, false
	}
	parts := splitTopLevel(inner, ',')
	if len(parts) != 2 {
		return uniform.Slot{}, false
	}
	elem, ok := parsePrimitive(parts[0])
	if !ok {
		return uniform.Slot{}, false
	}
	if slot.Shape, ok = elem.shape(); !ok {
		return uniform.Slot{}, false
	}
	count, err := strconv.Atoi(parts[1])
	if err != nil || count <= 0 {
		return uniform.Slot{}, false
	}
	l := elem.layout()
	slot.ArrayLen = count
	slot.Stride = common.RoundUp(16, common.RoundUp(l.align, l.size))
	return slot, true
}
