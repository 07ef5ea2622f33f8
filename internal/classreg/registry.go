package classreg

import (
	"fmt"

	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/pkg/ast"
	"github.com/tscore-lang/tscore/pkg/ident"
)

// Registry owns every declared class and enforces the override invariants
// at declaration time rather than at dispatch time.
type Registry struct {
	classes *ident.Map[*ClassDescriptor]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: ident.NewMap[*ClassDescriptor]()}
}

// DeclareClass creates a descriptor for name. superclassName is "" for a
// root class. Fails if name is already declared, or if superclassName names
// an undeclared class (class declarations must follow source order: a
// superclass is declared before any subclass that extends it).
func (r *Registry) DeclareClass(pos ast.Position, name, superclassName string, isAbstract bool, generics []GenericParam) (*ClassDescriptor, error) {
	if r.classes.Has(name) {
		return nil, errors.NewCompilerError("Type Error", pos, fmt.Sprintf(errors.ErrDuplicateClass, name), "")
	}

	var super *ClassDescriptor
	if superclassName != "" {
		var ok bool
		super, ok = r.classes.Get(superclassName)
		if !ok {
			return nil, errors.NewCompilerError("Type Error", pos,
				fmt.Sprintf("superclass %q not found for class %q", superclassName, name), "")
		}
	}

	seen := make(map[string]bool, len(generics))
	for _, g := range generics {
		key := ident.Normalize(g.Name)
		if seen[key] {
			return nil, errors.NewCompilerError("Type Error", pos,
				fmt.Sprintf("duplicate generic parameter %q on class %q", g.Name, name), "")
		}
		seen[key] = true
	}

	desc := newClassDescriptor(name, super, isAbstract, generics)
	r.classes.Set(name, desc)
	return desc, nil
}

// Lookup finds a declared class by name.
func (r *Registry) Lookup(name string) (*ClassDescriptor, bool) {
	return r.classes.Get(name)
}

// MethodRef is returned by DeclareMethod/DeclareAccessor/DeclareConstructor
// so that a later Define call can attach the executable body — the
// "declare handle, then define body" split lets one method reference a
// peer or ancestor before either body is emitted.
type MethodRef struct {
	cell *runtime.MethodHandle
}

// Define attaches the executable body to this handle. Must be called
// exactly once per declared (non-abstract) method.
func (ref *MethodRef) Define(body runtime.MethodHandle) {
	*ref.cell = body
}

func newMethodRef() (*MethodRef, runtime.MethodHandle) {
	cell := new(runtime.MethodHandle)
	trampoline := func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
		if *cell == nil {
			return nil, errors.NewRuntimeError("AbstractMethodError", ast.Position{}, "abstract method invoked", ctx.CallStack)
		}
		return (*cell)(ctx, self, args)
	}
	return &MethodRef{cell: cell}, trampoline
}

// DeclareMethod reserves a vtable (or static-method) slot for name on
// class, validating override rules immediately. isAbstract leaves the slot
// permanently un-defined, so any dispatch through it raises
// AbstractMethodError.
func (r *Registry) DeclareMethod(pos ast.Position, class *ClassDescriptor, name string, isStatic, isAbstract, isOverride bool) (*MethodRef, error) {
	if isOverride {
		if isStatic {
			return nil, errors.NewCompilerError("Type Error", pos, fmt.Sprintf(errors.ErrOverrideOnStatic, name), "")
		}
		if class.superclass == nil {
			return nil, errors.NewCompilerError("Type Error", pos, fmt.Sprintf(errors.ErrOverrideNoParent, name), "")
		}
		if _, _, ok := class.superclass.LookupMethod(name); !ok {
			return nil, &errors.OverrideMismatchError{Method: name, Class: class.name}
		}
	}

	ref, trampoline := newMethodRef()
	entry := &VirtualMethodEntry{Handle: trampoline, Owner: class, IsAbstract: isAbstract}

	if isStatic {
		class.staticMethods.Set(name, trampoline)
	} else {
		class.vtable.Set(name, entry)
	}
	return ref, nil
}

// DeclareConstructor reserves the constructor slot for class. Constructors
// can never be declared override.
func (r *Registry) DeclareConstructor(pos ast.Position, class *ClassDescriptor, isOverride bool) (*MethodRef, error) {
	if isOverride {
		return nil, errors.NewCompilerError("Type Error", pos, errors.ErrOverrideOnCtor, "")
	}
	ref, trampoline := newMethodRef()
	class.constructor = trampoline
	return ref, nil
}

// DeclareAccessor reserves a get/set slot for propertyName on class.
func (r *Registry) DeclareAccessor(pos ast.Position, class *ClassDescriptor, kind ast.AccessorKind, propertyName string, isAbstract bool) (*MethodRef, error) {
	ref, trampoline := newMethodRef()
	entry := &VirtualMethodEntry{Handle: trampoline, Owner: class, IsAbstract: isAbstract}
	if kind == ast.AccessorGet {
		class.getters.Set(propertyName, entry)
	} else {
		class.setters.Set(propertyName, entry)
	}
	return ref, nil
}

// DeclareStaticField reserves a static field slot initialized to Undefined.
func (r *Registry) DeclareStaticField(class *ClassDescriptor, name string) {
	slot := new(runtime.Value)
	*slot = runtime.UndefinedValue
	class.staticFields.Set(name, slot)
}

// DeclareField records name as an instance field declared directly on
// class, in declaration order, for IClassInfo.FieldNames. Instance field
// storage itself lives in runtime.Instance.Fields, populated by the
// constructor's field-initializer emission — this call only tracks the
// name for introspection.
func (r *Registry) DeclareField(class *ClassDescriptor, name string) {
	class.fieldOrder = append(class.fieldOrder, name)
}

// ResolveVirtual walks instance's class and its superclass chain for the
// first handle matching name. The returned handle may be an abstract
// trampoline — dispatching it is what raises the Abstract error, not
// resolution itself.
func ResolveVirtual(instance *runtime.Instance, name string) (runtime.MethodHandle, error) {
	if instance == nil || instance.Class == nil {
		return nil, &errors.NotFoundError{Kind: "method", Name: name}
	}
	h, _, ok := instance.Class.LookupMethod(name)
	if !ok {
		return nil, &errors.NotFoundError{Kind: "method", Name: name}
	}
	return h, nil
}
