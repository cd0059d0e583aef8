package uniform

// Slot describes where a named uniform lives in a shader program.
// Offset is relative to the start of the buffer binding. Stride is the byte
// distance between array elements and is only meaningful when ArrayLen > 0.
type Slot struct {
	Name     string
	TypeName string
	Group    int
	Binding  int
	Offset   uint64
	Shape    Shape
	ArrayLen int
	Stride   uint64
}

// IsArray reports whether the slot is a fixed-size array.
func (s Slot) IsArray() bool {
	return s.ArrayLen > 0
}

// Capacity returns how many values the slot accepts.
func (s Slot) Capacity() int {
	if s.ArrayLen > 0 {
		return s.ArrayLen
	}
	return 1
}

// SymbolTable resolves uniform names to slots.
// Shaders and pipelines implement it.
type SymbolTable interface {
	LookupUniform(name string) (Slot, bool)
}

// SymbolMap is a SymbolTable backed by a map.
type SymbolMap map[string]Slot

func (m SymbolMap) LookupUniform(name string) (Slot, bool) {
	s, ok := m[name]
	return s, ok
}
