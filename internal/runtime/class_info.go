package runtime

// IClassInfo is the read-only view of class metadata that the runtime value
// layer needs. The concrete class registry (internal/classreg) implements
// this interface; Instance only ever references classes through it, which
// keeps runtime free of any dependency on classreg.
type IClassInfo interface {
	// Name returns the class name.
	Name() string
	// Superclass returns the parent class metadata, or nil for a root class.
	Superclass() IClassInfo
	// IsAbstract reports whether the class was declared abstract.
	IsAbstract() bool
	// LookupMethod finds a method handle by name, searching this class then
	// walking the superclass chain (case-insensitive). ok is false if no
	// class in the chain declares the method.
	LookupMethod(name string) (handle MethodHandle, owner IClassInfo, ok bool)
	// LookupGetter/LookupSetter mirror LookupMethod for accessors.
	LookupGetter(name string) (handle MethodHandle, ok bool)
	LookupSetter(name string) (handle MethodHandle, ok bool)
	// LookupStaticField finds a static field slot, searching this class then
	// its ancestors (fields are shared, so the slot lives on the declaring
	// class).
	LookupStaticField(name string) (*Value, bool)
	// FieldNames lists instance field names declared directly on this
	// class (not including ancestors), in declaration order.
	FieldNames() []string
}
