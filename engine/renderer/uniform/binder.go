package uniform

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-tex/common"
)

// Binding is a pending uniform assignment recorded by Bind.
type Binding struct {
	Name   string
	Shape  Shape
	Values []Value
}

// Write is an encoded uniform update destined for a buffer binding.
type Write struct {
	Name    string
	Group   int
	Binding int
	Offset  uint64
	Data    []byte
}

// TextureWrite binds a texture to a texture binding.
type TextureWrite struct {
	Name    string
	Group   int
	Binding int
	Ref     TextureRef
}

// Resolution is the set of updates produced by Binder.Resolve.
type Resolution struct {
	Writes   []Write
	Textures []TextureWrite
}

// Empty reports whether the resolution carries no updates.
func (r Resolution) Empty() bool {
	return len(r.Writes) == 0 && len(r.Textures) == 0
}

// Binder records uniform values by name and resolves them against a program at draw time.
//
// Shape problems are reported immediately by Bind. Problems that depend on the program,
// such as an unknown name or a type the shader does not declare, are only detectable once
// the program is known and are returned by Resolve.
type Binder interface {
	// Bind records values for the uniform called name. All values must share one shape and
	// more than one value binds an array. On error the previous pending value is kept.
	Bind(name string, values ...Value) error

	// Pending returns the bindings that have not been resolved yet, in bind order.
	Pending() []Binding

	// Resolve consumes every pending binding, resolving it against table.
	// Resolved bindings are encoded into the returned Resolution. Bindings that fail are
	// reported as *BindingError values joined into the returned error and are not retried.
	Resolve(table SymbolTable) (Resolution, error)

	// Reset drops every pending binding.
	Reset()
}

type binder struct {
	order   []string
	pending map[string]Binding
}

var _ Binder = &binder{}

// NewBinder creates an empty Binder.
//
// Returns:
//   - Binder: the new binder
func NewBinder() Binder {
	return &binder{
		pending: make(map[string]Binding),
	}
}

func (b *binder) Bind(name string, values ...Value) error {
	if len(values) == 0 {
		return fmt.Errorf("uniform %q: %w", name, ErrNoValues)
	}

	want := values[0].shape
	for i, v := range values {
		if v.shape != want {
			return &ShapeMismatchError{Name: name, Index: i, Want: want, Got: v.shape}
		}
		if v.shape.Kind == KindTexture && v.tex == nil {
			return fmt.Errorf("uniform %q: value %d has a nil texture: %w", name, i, ErrInvalidValue)
		}
	}

	if _, ok := b.pending[name]; !ok {
		b.order = append(b.order, name)
	}
	b.pending[name] = Binding{
		Name:   name,
		Shape:  want,
		Values: append([]Value(nil), values...),
	}
	common.Logger().Debug("uniform bound", "name", name, "shape", want.String(), "count", len(values))
	return nil
}

func (b *binder) Pending() []Binding {
	out := make([]Binding, 0, len(b.order))
	for _, name := range b.order {
		p := b.pending[name]
		p.Values = append([]Value(nil), p.Values...)
		out = append(out, p)
	}
	return out
}

func (b *binder) Resolve(table SymbolTable) (Resolution, error) {
	var res Resolution
	var errs []error

	for _, name := range b.order {
		p := b.pending[name]
		if err := resolveBinding(table, p, &res); err != nil {
			errs = append(errs, err)
		}
	}
	b.Reset()

	return res, errors.Join(errs...)
}

func (b *binder) Reset() {
	b.order = nil
	clear(b.pending)
}

// resolveBinding validates p against its declared slot and appends the encoded update to res.
func resolveBinding(table SymbolTable, p Binding, res *Resolution) error {
	if table == nil {
		return &BindingError{Name: p.Name, Reason: "no active shader program"}
	}
	slot, ok := table.LookupUniform(p.Name)
	if !ok {
		return &BindingError{Name: p.Name, Reason: "no uniform with this name in the active shader"}
	}
	if slot.Shape != p.Shape {
		return &BindingError{
			Name:   p.Name,
			Reason: fmt.Sprintf("shader declares %s, got %s", slot.Shape, p.Shape),
		}
	}
	if len(p.Values) > slot.Capacity() {
		if slot.IsArray() {
			return &BindingError{
				Name:   p.Name,
				Reason: fmt.Sprintf("%d values exceed the declared array length %d", len(p.Values), slot.ArrayLen),
			}
		}
		return &BindingError{
			Name:   p.Name,
			Reason: fmt.Sprintf("%d values bound to a uniform that is not an array", len(p.Values)),
		}
	}

	if p.Shape.Kind == KindTexture {
		res.Textures = append(res.Textures, TextureWrite{
			Name:    p.Name,
			Group:   slot.Group,
			Binding: slot.Binding,
			Ref:     p.Values[0].tex,
		})
		return nil
	}

	res.Writes = append(res.Writes, Write{
		Name:    p.Name,
		Group:   slot.Group,
		Binding: slot.Binding,
		Offset:  slot.Offset,
		Data:    encodeValues(slot, p.Values),
	})
	return nil
}
