// Package meta resolves mapping descriptors into a graph of tables, types,
// data members, associations and functions for one context type.
//
// A Model is built from a Source, either the struct tag backend
// (tagmap.Source) or a mapping document (xmlmap.Source):
//
//	model, err := meta.New(reflect.TypeFor[Northwind](), tagmap.Source{})
//	if err != nil {
//		return err
//	}
//	tbl, err := model.GetTable(reflect.TypeFor[Customer]())
//
// Types are resolved in two phases. A type is registered with its columns
// first, then its associations are resolved; a target type that is not yet
// known is registered on the way, which lets mutually referencing types
// resolve without recursion loops.
package meta

import (
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
)

// Model is the resolved mapping of one context type. Lookups are safe for
// concurrent use: a type is resolved at most once, under the model's write
// lock, and every later lookup returns the same instance.
type Model struct {
	ctx      reflect.Type
	source   Source
	cfg      config
	names    *typeNames
	name     string
	provider string

	mu      sync.RWMutex
	tables  map[reflect.Type]*MetaTable
	types   map[reflect.Type]*MetaType
	order   []*MetaTable
	funcs   map[string]*MetaFunction
	fnOrder []*MetaFunction
	// declared holds the tables of the source's database by row type.
	declared map[reflect.Type]*mapping.Table
}

// New resolves the mapping of the context type ctx from src. Every table
// the source declares for ctx is resolved eagerly, followed by its
// functions. Any error aborts construction.
func New(ctx reflect.Type, src Source, opts ...Option) (*Model, error) {
	ctx = indirect(ctx)
	if ctx == nil || ctx.Kind() != reflect.Struct {
		return nil, dbmap.NewInvalidMappingError("", "", "context type %v is not a struct type", ctx)
	}
	if src == nil {
		return nil, dbmap.NewInvalidMappingError("", ctx.String(), "nil mapping source")
	}
	if s, ok := src.(Snapshotter); ok {
		src = DatabaseSource{DB: s.Snapshot()}
	}
	cfg := config{log: zap.NewNop()}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	db, err := src.Database(ctx)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, dbmap.NewParseError(dbmap.MissingElement, "Database", "", "")
	}
	m := &Model{
		ctx:      ctx,
		source:   src,
		cfg:      cfg,
		names:    newTypeNames(),
		name:     db.Name,
		provider: db.Provider,
		tables:   make(map[reflect.Type]*MetaTable),
		types:    make(map[reflect.Type]*MetaType),
		funcs:    make(map[string]*MetaFunction),
		declared: make(map[reflect.Type]*mapping.Table),
	}
	if m.name == "" {
		m.name = ctx.Name()
	}
	for _, tm := range dbmap.TablesOf(ctx) {
		m.names.add(tm.RowType)
	}
	for _, t := range cfg.types {
		m.names.add(t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]reflect.Type, 0, len(db.Tables))
	for _, td := range db.Tables {
		row, err := m.declare(td)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	b := m.newBuilder()
	for _, row := range rows {
		if _, err := b.table(row); err != nil {
			return nil, err
		}
	}
	for _, fd := range db.Functions {
		if err := b.declaredFunction(fd); err != nil {
			return nil, err
		}
	}
	m.cfg.log.Debug("mapping model resolved",
		zap.String("context", ctx.String()),
		zap.String("database", m.name),
		zap.Int("tables", len(m.order)),
		zap.Int("functions", len(m.fnOrder)),
	)
	return m, nil
}

// ContextType returns the context type of the model.
func (m *Model) ContextType() reflect.Type { return m.ctx }

// DatabaseName returns the database name.
func (m *Model) DatabaseName() string { return m.name }

// Provider returns the provider declared by the mapping, if any.
func (m *Model) Provider() string { return m.provider }

// Source returns the mapping source of the model. For a Snapshotter it is
// the snapshot the model was built from.
func (m *Model) Source() Source { return m.source }

// GetTable returns the table of the row type t, resolving it on first use.
// It returns nil without error when t is not mappable. Resolution errors
// leave the model unchanged.
func (m *Model) GetTable(t reflect.Type) (*MetaTable, error) {
	row := indirect(t)
	if row == nil || row.Kind() != reflect.Struct {
		return nil, nil
	}
	m.mu.RLock()
	tbl, ok := m.tables[row]
	m.mu.RUnlock()
	if ok {
		return tbl, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if tbl, ok := m.tables[row]; ok {
		return tbl, nil
	}
	b := m.newBuilder()
	tbl, err := b.table(row)
	if err != nil {
		b.rollback()
		return nil, err
	}
	return tbl, nil
}

// GetMetaType returns the row type of the table of t, or nil when t is not
// mappable.
func (m *Model) GetMetaType(t reflect.Type) (*MetaType, error) {
	tbl, err := m.GetTable(t)
	if err != nil || tbl == nil {
		return nil, err
	}
	return tbl.RowType, nil
}

// GetFunction returns the function bound to the method name, written as
// "Method" for context methods or "Type.Method".
func (m *Model) GetFunction(name string) (*MetaFunction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.funcs[name]
	return f, ok
}

// Tables returns the registered tables in registration order.
func (m *Model) Tables() []*MetaTable {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// Functions returns the functions in declaration order.
func (m *Model) Functions() []*MetaFunction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.fnOrder)
}

// builder performs one resolution under the model's write lock and records
// what it registers so a failed resolution can be undone.
type builder struct {
	m     *Model
	added []reflect.Type
}

func (m *Model) newBuilder() *builder {
	return &builder{m: m}
}

// declare resolves the row type of a table declared by the source's
// database.
func (m *Model) declare(td *mapping.Table) (reflect.Type, error) {
	if td.Type == nil {
		return nil, dbmap.NewParseError(dbmap.MissingElement, "Table", "", "Type")
	}
	row, why := m.names.lookup(td.Type.Name)
	if row == nil {
		return nil, dbmap.NewTypeNotResolvableError(td.Type.Name, why)
	}
	if prev, ok := m.declared[row]; ok {
		return nil, dbmap.NewInvalidMappingError(td.Name, row.String(), "type is already mapped by table %s", prev.Name)
	}
	m.declared[row] = td
	return row, nil
}

// table returns the table of row, registering it if the database declares
// it or the source maps it.
func (b *builder) table(row reflect.Type) (*MetaTable, error) {
	if tbl, ok := b.m.tables[row]; ok {
		return tbl, nil
	}
	if td, ok := b.m.declared[row]; ok {
		return b.register(row, td)
	}
	td, err := b.m.source.Table(row)
	if err != nil || td == nil {
		return nil, err
	}
	if td.Type == nil {
		return nil, dbmap.NewParseError(dbmap.MissingElement, "Table", "", "Type")
	}
	return b.register(row, td)
}

// register creates the table of row: the row type is registered with its
// columns before its associations are resolved.
func (b *builder) register(row reflect.Type, td *mapping.Table) (*MetaTable, error) {
	name := td.Name
	if name == "" {
		name = b.m.cfg.defaultTableName(row)
	}
	tbl := &MetaTable{Name: name, Member: td.Member, model: b.m}
	mt, err := b.newType(row, td.Type, tbl)
	if err != nil {
		return nil, err
	}
	tbl.RowType = mt
	b.m.tables[row] = tbl
	b.m.types[row] = mt
	b.m.order = append(b.m.order, tbl)
	b.added = append(b.added, row)
	b.m.cfg.log.Debug("table registered", zap.String("table", name), zap.Stringer("type", row))
	if err := b.resolveAssociations(mt, td.Type); err != nil {
		return nil, err
	}
	return tbl, nil
}

// rollback removes every table and type registered by the builder.
func (b *builder) rollback() {
	if len(b.added) == 0 {
		return
	}
	for _, row := range b.added {
		delete(b.m.tables, row)
		delete(b.m.types, row)
	}
	b.m.order = slices.DeleteFunc(b.m.order, func(t *MetaTable) bool {
		return slices.Contains(b.added, t.RowType.Type)
	})
	b.m.cfg.log.Debug("resolution rolled back", zap.Int("types", len(b.added)))
	b.added = nil
}
