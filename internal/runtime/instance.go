package runtime

import "github.com/tscore-lang/tscore/pkg/ident"

// Instance is a runtime class instance: a class reference plus a dynamic
// field map. Instance fields live only in this map — the class descriptor
// never stores per-instance storage — so that the source language's
// ability to read/write fields dynamically (and to widen a declared
// field's runtime type) needs no extra machinery.
type Instance struct {
	Class  IClassInfo
	Fields map[string]Value
}

// NewInstance allocates the dynamic field map for class. This allocation
// happens before the superclass constructor runs, so the constructor
// emission order (internal/compiler) calls NewInstance before issuing the
// super(...) call.
func NewInstance(class IClassInfo) *Instance {
	return &Instance{Class: class, Fields: make(map[string]Value)}
}

func (i *Instance) Type() string { return i.Class.Name() }

func (i *Instance) String() string {
	return "[object " + i.Class.Name() + "]"
}

// GetField reads a field by name (case-insensitive). Returns (Undefined,
// false) if never written.
func (i *Instance) GetField(name string) (Value, bool) {
	v, ok := i.Fields[ident.Normalize(name)]
	if !ok {
		return UndefinedValue, false
	}
	return v, true
}

// SetField writes a field by name (case-insensitive), creating it if
// absent — the object model allows property addition at runtime.
func (i *Instance) SetField(name string, value Value) {
	i.Fields[ident.Normalize(name)] = value
}
