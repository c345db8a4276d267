// Package access compiles getter and setter functions for mapped members.
//
// A member is described by a Ref: a struct field, a property (a getter
// method with an optional SetX method and an optional storage field) or a
// method. Compile turns a Ref into an Accessor once; later calls with an
// equal Ref return the cached Accessor. Accessors registered
// with Register, usually by generated code, take precedence over
// reflection.
package access

import (
	"fmt"
	"reflect"
)

// Kind is the shape of a mapped member.
type Kind uint8

// Member kinds.
const (
	Field Kind = iota + 1
	Property
	Method
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Field:
		return "field"
	case Property:
		return "property"
	case Method:
		return "method"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Ref locates a member on its owner struct type.
type Ref struct {
	Kind   Kind
	Owner  reflect.Type // Struct type declaring the member
	Name   string       // Member name
	Type   reflect.Type // Member value type
	Index  []int        // Field: field index path
	Getter string       // Property, Method: zero-argument method
	Setter string       // Property, Method: one-argument method, optional
	// Storage is the index path of the backing field of a property, used
	// for writes when Setter is empty.
	Storage []int
}

// Writable reports whether the member has a write target.
func (r Ref) Writable() bool {
	switch r.Kind {
	case Field:
		return true
	case Property:
		return r.Setter != "" || len(r.Storage) > 0
	case Method:
		return r.Setter != ""
	}
	return false
}

// Readable reports whether the member can be read.
func (r Ref) Readable() bool {
	return r.Kind == Field || r.Getter != ""
}

// FieldRef returns the Ref of the named field of owner.
func FieldRef(owner reflect.Type, name string) (Ref, bool) {
	owner = indirect(owner)
	if owner.Kind() != reflect.Struct {
		return Ref{}, false
	}
	f, ok := owner.FieldByName(name)
	if !ok {
		return Ref{}, false
	}
	return Ref{Kind: Field, Owner: owner, Name: name, Type: f.Type, Index: f.Index}, true
}

// MethodRef returns the Ref of a property or method named name on owner:
//
//   - name() T, with an optional SetName(T), is a Property;
//   - name(T) with no results is a write-only Method.
//
// storage, when not empty, names the backing field of a property.
func MethodRef(owner reflect.Type, name, storage string) (Ref, bool) {
	owner = indirect(owner)
	pt := reflect.PointerTo(owner)
	m, ok := pt.MethodByName(name)
	if !ok {
		return Ref{}, false
	}
	// Method types include the receiver.
	switch {
	case m.Type.NumIn() == 1 && m.Type.NumOut() == 1:
		r := Ref{Kind: Property, Owner: owner, Name: name, Type: m.Type.Out(0), Getter: name}
		if s, ok := pt.MethodByName("Set" + name); ok && s.Type.NumIn() == 2 && s.Type.NumOut() == 0 && s.Type.In(1) == r.Type {
			r.Setter = s.Name
		}
		if storage != "" {
			if f, ok := owner.FieldByName(storage); ok && f.Type == r.Type {
				r.Storage = f.Index
			}
		}
		return r, true
	case m.Type.NumIn() == 2 && m.Type.NumOut() == 0:
		return Ref{Kind: Method, Owner: owner, Name: name, Type: m.Type.In(1), Setter: name}, true
	}
	return Ref{}, false
}

// MemberRef resolves name on owner as a field first, then as a property or
// method. storage names the backing field of a property.
func MemberRef(owner reflect.Type, name, storage string) (Ref, bool) {
	if r, ok := FieldRef(owner, name); ok {
		return r, true
	}
	return MethodRef(owner, name, storage)
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
