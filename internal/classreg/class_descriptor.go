// Package classreg implements the class registry: per-class metadata
// (vtable, getter/setter tables, static storage, constructor handle,
// generic parameters) with case-insensitive lookups. The vtable and the
// getter/setter tables do not keep declaration order; only instance field
// names are kept in order (FieldNames).
package classreg

import (
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/pkg/ident"
)

// GenericParam describes one generic type parameter on a class, tracked for
// declaration-time validation but erased at runtime — no monomorphization.
type GenericParam struct {
	Name       string
	Constraint string
}

// ClassDescriptor is the per-class metadata record. It implements
// runtime.IClassInfo so Instance values can reference it without the
// runtime package importing classreg.
type ClassDescriptor struct {
	name          string
	superclass    *ClassDescriptor
	isAbstract    bool
	genericParams []GenericParam

	vtable   *ident.Map[*VirtualMethodEntry]
	getters  *ident.Map[*VirtualMethodEntry]
	setters  *ident.Map[*VirtualMethodEntry]

	staticFields  *ident.Map[*runtime.Value]
	staticMethods *ident.Map[runtime.MethodHandle]

	constructor runtime.MethodHandle

	fieldOrder []string // instance field names declared on this class, in order
}

// VirtualMethodEntry records a vtable slot: the executable handle and the
// class that owns the slot (the class whose declaration created this entry;
// an override creates its own entry owned by the overriding class).
type VirtualMethodEntry struct {
	Handle     runtime.MethodHandle
	Owner      *ClassDescriptor
	IsAbstract bool
}

func newClassDescriptor(name string, superclass *ClassDescriptor, isAbstract bool, generics []GenericParam) *ClassDescriptor {
	return &ClassDescriptor{
		name:          name,
		superclass:    superclass,
		isAbstract:    isAbstract,
		genericParams: generics,
		vtable:        ident.NewMap[*VirtualMethodEntry](),
		getters:       ident.NewMap[*VirtualMethodEntry](),
		setters:       ident.NewMap[*VirtualMethodEntry](),
		staticFields:  ident.NewMap[*runtime.Value](),
		staticMethods: ident.NewMap[runtime.MethodHandle](),
	}
}

// Name returns the class name. Implements runtime.IClassInfo.
func (c *ClassDescriptor) Name() string { return c.name }

// Superclass returns the parent descriptor, or nil for a root class.
// Implements runtime.IClassInfo.
func (c *ClassDescriptor) Superclass() runtime.IClassInfo {
	if c.superclass == nil {
		return nil
	}
	return c.superclass
}

// SuperclassDescriptor is the typed counterpart of Superclass, used
// internally by the compiler (constructor chaining needs the concrete type,
// not the interface).
func (c *ClassDescriptor) SuperclassDescriptor() *ClassDescriptor { return c.superclass }

// IsAbstract reports whether the class was declared abstract. Implements
// runtime.IClassInfo.
func (c *ClassDescriptor) IsAbstract() bool { return c.isAbstract }

// LookupMethod implements runtime.IClassInfo: walk this class and its
// ancestors, returning the first matching vtable entry.
func (c *ClassDescriptor) LookupMethod(name string) (runtime.MethodHandle, runtime.IClassInfo, bool) {
	for cls := c; cls != nil; cls = cls.superclass {
		if entry, ok := cls.vtable.Get(name); ok {
			return entry.Handle, entry.Owner, true
		}
	}
	return nil, nil, false
}

// LookupGetter implements runtime.IClassInfo.
func (c *ClassDescriptor) LookupGetter(name string) (runtime.MethodHandle, bool) {
	for cls := c; cls != nil; cls = cls.superclass {
		if entry, ok := cls.getters.Get(name); ok {
			return entry.Handle, true
		}
	}
	return nil, false
}

// LookupSetter implements runtime.IClassInfo.
func (c *ClassDescriptor) LookupSetter(name string) (runtime.MethodHandle, bool) {
	for cls := c; cls != nil; cls = cls.superclass {
		if entry, ok := cls.setters.Get(name); ok {
			return entry.Handle, true
		}
	}
	return nil, false
}

// LookupStaticField implements runtime.IClassInfo: static fields are not
// inherited-by-copy, but a subclass may still read an ancestor's static
// field through the same slot.
func (c *ClassDescriptor) LookupStaticField(name string) (*runtime.Value, bool) {
	for cls := c; cls != nil; cls = cls.superclass {
		if slot, ok := cls.staticFields.Get(name); ok {
			return slot, true
		}
	}
	return nil, false
}

// FieldNames implements runtime.IClassInfo.
func (c *ClassDescriptor) FieldNames() []string {
	out := make([]string, len(c.fieldOrder))
	copy(out, c.fieldOrder)
	return out
}

// Constructor returns the constructor handle declared on this class
// specifically (does not search ancestors — callers needing inherited
// construction follow Superclass()).
func (c *ClassDescriptor) Constructor() runtime.MethodHandle {
	return c.constructor
}

// LookupStaticMethod finds a static method by name, walking ancestors.
func (c *ClassDescriptor) LookupStaticMethod(name string) (runtime.MethodHandle, bool) {
	for cls := c; cls != nil; cls = cls.superclass {
		if h, ok := cls.staticMethods.Get(name); ok {
			return h, true
		}
	}
	return nil, false
}

// GenericParams returns the class's declared generic parameters.
func (c *ClassDescriptor) GenericParams() []GenericParam {
	return c.genericParams
}
