package vm

import "fmt"

// objHeader is the common header every heap object embeds: the GC mark bit
// and the intrusive link into the VM's global allocation list.
type objHeader struct {
	marked bool
	next   Object
}

// Object is the interface every heap-allocated variant implements. The GC
// walks objects purely through this interface plus a type switch in
// blacken (gc.go) — there is no separate vtable of "trace" closures.
type Object interface {
	header() *objHeader
}

func isMarked(o Object) bool { return o.header().marked }
func setMarked(o Object, m bool) { o.header().marked = m }

// PrintObject renders an object the way `print` does.
func PrintObject(o Object) string {
	switch v := o.(type) {
	case *ObjString:
		return v.Chars
	case *ObjFunction:
		if v.Name == nil {
			return "<script>"
		}
		return fmt.Sprintf("<fn %s>", v.Name.Chars)
	case *ObjClosure:
		return PrintObject(v.Function)
	case *ObjNative:
		return fmt.Sprintf("<native fn %s>", v.Name)
	case *ObjClass:
		return v.Name.Chars
	case *ObjInstance:
		return fmt.Sprintf("%s instance", v.Class.Name.Chars)
	case *ObjBoundMethod:
		return PrintObject(v.Method.Function)
	case *ObjUpvalue:
		return "upvalue"
	}
	return "<object>"
}

// ObjString is an immutable, interned string. Two distinct *ObjString values
// never hold equal Chars: the intern table guarantees content equality
// implies pointer equality.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) header() *objHeader { return &s.objHeader }

// ObjFunction is a compiled function: its arity, its own chunk, and an
// optional name (nil for the implicit top-level script).
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString
}

func (f *ObjFunction) header() *objHeader { return &f.objHeader }

// ObjUpvalue is a reference cell: open while it points at a live VM stack
// slot, closed once it owns its own Value. Open upvalues form a singly
// linked list off the VM, ordered by descending stack address.
type ObjUpvalue struct {
	objHeader
	// Location indexes into the VM's stack while open; ignored once closed.
	Location int
	Closed   Value
	isClosed bool
	Next     *ObjUpvalue
}

func (u *ObjUpvalue) header() *objHeader { return &u.objHeader }

// ObjClosure pairs a Function with the Upvalues it captured at creation.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) header() *objHeader { return &c.objHeader }

// NativeFn is a built-in implemented in Go: clock, deleteField.
type NativeFn func(vm *VM, args []Value) (Value, error)

// ObjNative wraps a Go-implemented built-in function.
type ObjNative struct {
	objHeader
	Name string
	Fn   NativeFn
}

func (n *ObjNative) header() *objHeader { return &n.objHeader }

// ObjClass is a class: its name, its method table, and its cached
// initializer (Nil unless the class itself defines `init`; a superclass's
// `init` is inherited only as an ordinary method).
type ObjClass struct {
	objHeader
	Name        *ObjString
	Methods     *Table
	Initializer Value
}

func (c *ObjClass) header() *objHeader { return &c.objHeader }

// ObjInstance is an instance of a class: a class reference plus its own
// field table.
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) header() *objHeader { return &i.objHeader }

// ObjBoundMethod pre-binds a method Closure to a specific receiver Value.
type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) header() *objHeader { return &b.objHeader }
