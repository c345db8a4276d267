package access

import (
	"fmt"
	"math"
	"reflect"
	"sync"
	"unsafe"

	"github.com/syssam/dbmap"
)

// Accessor reads and writes one member of instances of its owner type.
type Accessor struct {
	owner reflect.Type
	name  string
	typ   reflect.Type
	get   func(ptr reflect.Value) (reflect.Value, error)
	set   func(ptr reflect.Value, v reflect.Value) error
	funcs *Funcs
}

// Funcs are typed accessor functions, usually generated. Both receive a
// pointer to the owner type. Set may be nil for read-only members. Set
// is only called with values of the member type.
type Funcs struct {
	Get func(obj any) any
	Set func(obj any, v any)
}

// member identifies a member of an owner type.
type member struct {
	owner reflect.Type
	name  string
}

// key identifies a compiled Ref. Two mappings may bind the same member
// differently, e.g. with and without a storage field.
type key struct {
	member
	kind    Kind
	getter  string
	setter  string
	index   string
	storage string
}

func refKey(r Ref) key {
	return key{
		member:  member{owner: indirect(r.Owner), name: r.Name},
		kind:    r.Kind,
		getter:  r.Getter,
		setter:  r.Setter,
		index:   fmt.Sprint(r.Index),
		storage: fmt.Sprint(r.Storage),
	}
}

type entry struct {
	once sync.Once
	acc  *Accessor
	err  error
}

var (
	compiled  sync.Map // key -> *entry
	generated sync.Map // member -> *Funcs
)

// Register installs generated accessor functions for member name of owner.
// They take precedence over compiled ones.
func Register(owner reflect.Type, name string, funcs Funcs) {
	m := member{owner: indirect(owner), name: name}
	generated.Store(m, &funcs)
	compiled.Range(func(k, _ any) bool {
		if k.(key).member == m {
			compiled.Delete(k)
		}
		return true
	})
}

// Compile returns the accessor of the member r refers to. The accessor is
// built on the first call for an equal Ref and reused after.
func Compile(r Ref) (*Accessor, error) {
	if r.Owner == nil || r.Name == "" {
		return nil, fmt.Errorf("access: incomplete member reference %+v", r)
	}
	k := refKey(r)
	v, _ := compiled.LoadOrStore(k, &entry{})
	e := v.(*entry)
	e.once.Do(func() {
		e.acc, e.err = compile(k.owner, r)
	})
	return e.acc, e.err
}

func compile(owner reflect.Type, r Ref) (*Accessor, error) {
	a := &Accessor{owner: owner, name: r.Name, typ: r.Type}
	switch r.Kind {
	case Field:
		a.get = func(ptr reflect.Value) (reflect.Value, error) {
			return field(ptr, r.Index)
		}
		a.set = func(ptr reflect.Value, v reflect.Value) error {
			f, err := field(ptr, r.Index)
			if err != nil {
				return err
			}
			f.Set(v)
			return nil
		}
	case Property, Method:
		if r.Getter != "" {
			m, ok := reflect.PointerTo(owner).MethodByName(r.Getter)
			if !ok {
				return nil, dbmap.NewMemberNotFoundError(r.Getter, owner.String())
			}
			a.get = func(ptr reflect.Value) (reflect.Value, error) {
				return ptr.Method(m.Index).Call(nil)[0], nil
			}
		}
		switch {
		case r.Setter != "":
			m, ok := reflect.PointerTo(owner).MethodByName(r.Setter)
			if !ok {
				return nil, dbmap.NewMemberNotFoundError(r.Setter, owner.String())
			}
			a.set = func(ptr reflect.Value, v reflect.Value) error {
				ptr.Method(m.Index).Call([]reflect.Value{v})
				return nil
			}
		case len(r.Storage) > 0:
			a.set = func(ptr reflect.Value, v reflect.Value) error {
				f, err := field(ptr, r.Storage)
				if err != nil {
					return err
				}
				f.Set(v)
				return nil
			}
		}
	default:
		return nil, fmt.Errorf("access: unknown member kind %s", r.Kind)
	}
	if f, ok := generated.Load(member{owner: owner, name: r.Name}); ok {
		funcs := f.(*Funcs)
		a.funcs = funcs
		if funcs.Get != nil {
			a.get = func(ptr reflect.Value) (reflect.Value, error) {
				return reflect.ValueOf(funcs.Get(ptr.Interface())), nil
			}
		}
		// The Ref decides whether the member is writable; the generated
		// setter only replaces the reflective one.
		if funcs.Set != nil && a.set != nil {
			a.set = func(ptr reflect.Value, v reflect.Value) error {
				funcs.Set(ptr.Interface(), v.Interface())
				return nil
			}
		}
	}
	return a, nil
}

// field returns the settable field at index of the struct ptr points to.
// Unexported fields are made settable through their address.
func field(ptr reflect.Value, index []int) (reflect.Value, error) {
	f, err := ptr.Elem().FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, err
	}
	if !f.CanSet() {
		f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
	}
	return f, nil
}

// Owner returns the struct type declaring the member.
func (a *Accessor) Owner() reflect.Type { return a.owner }

// Name returns the member name.
func (a *Accessor) Name() string { return a.name }

// Type returns the member value type.
func (a *Accessor) Type() reflect.Type { return a.typ }

// Writable reports whether Set can succeed.
func (a *Accessor) Writable() bool { return a.set != nil }

// Generated reports whether the accessor uses registered functions.
func (a *Accessor) Generated() bool { return a.funcs != nil }

// Get returns the member value of obj, which is an owner value or a
// pointer to one.
func (a *Accessor) Get(obj any) (any, error) {
	ptr, err := a.pointer(obj, false)
	if err != nil {
		return nil, err
	}
	if a.get == nil {
		return nil, dbmap.NewInvalidMappingError(a.name, a.owner.String(), "member is write-only")
	}
	v, err := a.get(ptr)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

// Set assigns v to the member of the owner value obj points to. Members
// without a write target fail with MemberNotWritable. v must be
// assignable to the member type or convert to it without loss.
func (a *Accessor) Set(obj any, v any) error {
	if !a.Writable() {
		return dbmap.NewMemberNotWritableError(a.name, a.owner.String())
	}
	ptr, err := a.pointer(obj, true)
	if err != nil {
		return err
	}
	rv, err := a.value(v)
	if err != nil {
		return err
	}
	return a.set(ptr, rv)
}

// pointer returns obj as a non-nil pointer to the owner type. Values are
// copied unless a pointer is required.
func (a *Accessor) pointer(obj any, mustPtr bool) (reflect.Value, error) {
	v := reflect.ValueOf(obj)
	switch {
	case !v.IsValid():
	case v.Kind() == reflect.Pointer && v.Type().Elem() == a.owner:
		if v.IsNil() {
			return reflect.Value{}, dbmap.NewInvalidMappingError(a.name, a.owner.String(), "nil %s", v.Type())
		}
		return v, nil
	case v.Type() == a.owner && !mustPtr:
		p := reflect.New(a.owner)
		p.Elem().Set(v)
		return p, nil
	case v.Type() == a.owner:
		return reflect.Value{}, dbmap.NewInvalidMappingError(a.name, a.owner.String(), "set requires a *%s", a.owner)
	}
	return reflect.Value{}, dbmap.NewInvalidMappingError(a.name, a.owner.String(), "accessor applied to %T", obj)
}

func (a *Accessor) value(v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(a.typ), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(a.typ) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(a.typ) && sameFamily(rv.Kind(), a.typ.Kind()) {
		if cv := rv.Convert(a.typ); lossless(rv, cv) {
			return cv, nil
		}
	}
	return reflect.Value{}, dbmap.NewInvalidMappingError(a.name, a.owner.String(), "cannot assign %T(%v) to %s", v, v, a.typ)
}

type family uint8

const (
	other family = iota
	integer
	float
	complexNum
)

func familyOf(k reflect.Kind) family {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return integer
	case reflect.Float32, reflect.Float64:
		return float
	case reflect.Complex64, reflect.Complex128:
		return complexNum
	}
	return other
}

// sameFamily reports whether values of kind from may convert to kind to.
// Numbers convert within their family; other kinds only to the same kind,
// which rules out int to string.
func sameFamily(from, to reflect.Kind) bool {
	f := familyOf(from)
	if f == other {
		return from == to
	}
	return f == familyOf(to)
}

// lossless reports whether cv, converted from v, holds the same value.
func lossless(v, cv reflect.Value) bool {
	switch familyOf(v.Kind()) {
	case integer:
		return intValue(v) == intValue(cv)
	case float:
		return v.Float() == cv.Float() || math.IsNaN(v.Float()) && math.IsNaN(cv.Float())
	case complexNum:
		return v.Complex() == cv.Complex()
	}
	return true
}

type intVal struct {
	neg bool
	mag uint64
}

func intValue(v reflect.Value) intVal {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i := v.Int(); i < 0 {
			return intVal{neg: true, mag: uint64(-i)}
		}
		return intVal{mag: uint64(v.Int())}
	}
	return intVal{mag: v.Uint()}
}
