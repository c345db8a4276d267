package meta

import (
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
)

// declaredFunction resolves a function declared by the source's database.
// Method is either a method of the context type or "Type.Method".
func (b *builder) declaredFunction(fd *mapping.Function) error {
	if _, ok := b.m.funcs[fd.Method]; ok {
		return dbmap.NewInvalidMappingError(fd.Method, b.m.ctx.String(), "method is mapped by more than one function")
	}
	recv, name := b.m.ctx, fd.Method
	if i := strings.LastIndexByte(fd.Method, '.'); i >= 0 {
		typeName := fd.Method[:i]
		t, why := b.m.names.lookup(typeName)
		if t == nil {
			return dbmap.NewTypeNotResolvableError(typeName, why)
		}
		recv, name = t, fd.Method[i+1:]
	}
	method, ok := reflect.PointerTo(recv).MethodByName(name)
	if !ok {
		return dbmap.NewFunctionNotFoundError(fd.Method, recv.String())
	}
	// Method types include the receiver.
	if n := method.Type.NumIn() - 1; n != len(fd.Parameters) {
		return dbmap.NewInvalidMappingError(fd.Method, recv.String(), "method has %d parameters, mapping declares %d", n, len(fd.Parameters))
	}
	if fd.Return != nil && len(fd.ElementTypes) > 0 {
		return dbmap.NewInvalidMappingError(fd.Method, recv.String(), "function declares both element types and a return value")
	}
	if len(fd.ElementTypes) > 1 {
		return dbmap.NewNotSupportedError("multiple result shapes", recv.String(), fd.Method)
	}
	f := &MetaFunction{
		Name:         fd.Method,
		MappedName:   fd.Name,
		Method:       method,
		IsComposable: fd.IsComposable,
		model:        b.m,
	}
	if f.MappedName == "" {
		f.MappedName = fd.Method
	}
	for i, pd := range fd.Parameters {
		p := &MetaParameter{
			Name:       pd.Parameter,
			MappedName: pd.Name,
			DbType:     pd.DbType,
			Direction:  pd.Direction,
			Type:       method.Type.In(i + 1),
		}
		if p.MappedName == "" {
			p.MappedName = pd.Parameter
		}
		if p.Direction != mapping.DirectionIn && p.Type.Kind() != reflect.Pointer {
			return dbmap.NewInvalidMappingError(pd.Parameter, recv.String()+"."+name, "%s parameter must be a pointer, got %s", p.Direction, p.Type)
		}
		f.Parameters = append(f.Parameters, p)
	}
	if fd.Return != nil {
		if method.Type.NumOut() == 0 {
			return dbmap.NewInvalidMappingError(fd.Method, recv.String(), "method has no return value")
		}
		f.ReturnParameter = &MetaParameter{
			Name:       "return",
			MappedName: "RETURN_VALUE",
			DbType:     fd.Return.DbType,
			Direction:  mapping.DirectionOut,
			Type:       method.Type.Out(0),
		}
	}
	for _, et := range fd.ElementTypes {
		mt, err := b.resultType(et)
		if err != nil {
			return err
		}
		f.ResultRowTypes = append(f.ResultRowTypes, mt)
	}
	b.m.funcs[f.Name] = f
	b.m.fnOrder = append(b.m.fnOrder, f)
	b.m.cfg.log.Debug("function registered", zap.String("function", f.MappedName), zap.String("method", f.Name))
	return nil
}

// resultType returns the row type of a function result shape: the row type
// of its table when the type is mapped, or a table-less type built from the
// element's columns.
func (b *builder) resultType(et *mapping.Type) (*MetaType, error) {
	t, why := b.m.names.lookup(et.Name)
	if t == nil {
		return nil, dbmap.NewTypeNotResolvableError(et.Name, why)
	}
	if mt, ok := b.m.types[t]; ok {
		return mt, nil
	}
	tbl, err := b.table(t)
	if err != nil {
		return nil, err
	}
	if tbl != nil {
		return tbl.RowType, nil
	}
	mt, err := b.newType(t, et, nil)
	if err != nil {
		return nil, err
	}
	b.m.types[t] = mt
	if err := b.resolveAssociations(mt, et); err != nil {
		return nil, err
	}
	return mt, nil
}
