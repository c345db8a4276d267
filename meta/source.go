package meta

import (
	"reflect"

	"github.com/syssam/dbmap/mapping"
)

// Source supplies mapping descriptors. The struct tag backend
// (tagmap.Source) and the document backend (xmlmap.Source) implement it.
type Source interface {
	// Database returns the descriptors of the context type ctx.
	Database(ctx reflect.Type) (*mapping.Database, error)
	// Table returns the table descriptor of the row type, or nil if the
	// type is not mappable.
	Table(row reflect.Type) (*mapping.Table, error)
}

// Snapshotter is implemented by sources whose descriptors can change
// after a model is built, such as a reloadable mapping document. New
// resolves the model, including later lazy lookups, against the snapshot
// current at construction.
type Snapshotter interface {
	Snapshot() *mapping.Database
}

// DatabaseSource is a Source serving a fixed descriptor tree, such as one
// decoded from a snapshot.
type DatabaseSource struct {
	DB *mapping.Database
}

// Database implements Source.
func (s DatabaseSource) Database(reflect.Type) (*mapping.Database, error) {
	return s.DB, nil
}

// Table implements Source.
func (s DatabaseSource) Table(row reflect.Type) (*mapping.Table, error) {
	row = indirect(row)
	if t, ok := s.DB.TableFor(qualifiedName(row)); ok {
		return t, nil
	}
	if t, ok := s.DB.TableFor(row.Name()); ok {
		return t, nil
	}
	return nil, nil
}

// typeNames resolves descriptor type names to Go types. Names are either
// simple or qualified by package path.
type typeNames struct {
	byName map[string][]reflect.Type
}

func newTypeNames() *typeNames {
	return &typeNames{byName: make(map[string][]reflect.Type)}
}

func (n *typeNames) add(t reflect.Type) {
	t = indirect(t)
	if t.Name() == "" {
		return
	}
	for _, key := range []string{t.Name(), qualifiedName(t)} {
		if !containsType(n.byName[key], t) {
			n.byName[key] = append(n.byName[key], t)
		}
	}
}

// lookup returns the Go type named name, and an explanation when the name
// is unknown or ambiguous.
func (n *typeNames) lookup(name string) (reflect.Type, string) {
	switch ts := n.byName[name]; len(ts) {
	case 0:
		return nil, "no known type with this name"
	case 1:
		return ts[0], ""
	default:
		return nil, "ambiguous type name; use the package-qualified name"
	}
}

func containsType(ts []reflect.Type, t reflect.Type) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

func qualifiedName(t reflect.Type) string {
	return t.PkgPath() + "." + t.Name()
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
