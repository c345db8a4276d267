// Package xmlmap reads external XML mapping documents into mapping
// descriptors.
//
// The grammar is
//
//	Database    { Name?, Provider?, Table*, Function* }
//	Table       { Name?, Member?, Type }
//	Type        { Name, InheritanceCode?, IsInheritanceDefault?, Column*, Association*, Type* }
//	Column      { Name?, Member, Storage?, DbType?, IsPrimaryKey?, IsDbGenerated?, CanBeNull?,
//	              UpdateCheck?, IsDiscriminator?, Expression?, IsVersion?, AutoSync? }
//	Association { Name?, Member, Storage?, ThisKey?, OtherKey?, IsForeignKey?, IsUnique?,
//	              DeleteRule?, DeleteOnNull? }
//	Function    { Name?, Method, IsComposable?, Parameter*, (ElementType* | Return) }
//	Parameter   { Name?, Parameter, DbType?, Direction? }
//	Return      { DbType? }
//
// Unknown attributes are ignored. Elements in a foreign namespace are
// skipped; unknown elements in the mapping namespace are rejected.
package xmlmap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
)

// Element names.
const (
	elemDatabase    = "Database"
	elemTable       = "Table"
	elemType        = "Type"
	elemColumn      = "Column"
	elemAssociation = "Association"
	elemFunction    = "Function"
	elemParameter   = "Parameter"
	elemElementType = "ElementType"
	elemReturn      = "Return"
)

// Parse reads a mapping document from r.
func Parse(r io.Reader) (*mapping.Database, error) {
	p := &parser{dec: xml.NewDecoder(r)}
	db, err := p.document()
	if err != nil {
		return nil, err
	}
	db.ApplyDefaults()
	return db, nil
}

// ParseBytes reads a mapping document from data.
func ParseBytes(data []byte) (*mapping.Database, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile reads the mapping document at path.
func ParseFile(path string) (*mapping.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

type parser struct {
	dec *xml.Decoder
	off int64 // offset of the start of the current token
}

// isOwn reports whether name belongs to the mapping namespace. Documents
// without a namespace declaration are read as mapping documents.
func isOwn(name xml.Name) bool {
	return name.Space == "" || name.Space == mapping.Namespace
}

func (p *parser) token() (xml.Token, error) {
	p.off = p.dec.InputOffset()
	tok, err := p.dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, fmt.Errorf("xmlmap: %w", err)
	}
	return tok, nil
}

func (p *parser) document() (*mapping.Database, error) {
	for {
		p.off = p.dec.InputOffset()
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil, p.errorf(dbmap.MissingElement, elemDatabase, "", "")
		}
		if err != nil {
			return nil, fmt.Errorf("xmlmap: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !isOwn(se.Name) || se.Name.Local != elemDatabase {
			return nil, p.errorf(dbmap.UnexpectedElement, se.Name.Local, "", "")
		}
		return p.database(se)
	}
}

// children reads the content of start until its end element, calling handle
// for each child element in the mapping namespace. handle reports false for
// elements it does not recognize.
func (p *parser) children(start xml.StartElement, handle func(xml.StartElement) (bool, error)) error {
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			if !isOwn(tok.Name) {
				if err := p.dec.Skip(); err != nil {
					return fmt.Errorf("xmlmap: %w", err)
				}
				continue
			}
			off := p.off
			ok, err := handle(tok)
			if err != nil {
				return err
			}
			if !ok {
				p.off = off
				return p.errorf(dbmap.UnexpectedElement, tok.Name.Local, "", "")
			}
		case xml.EndElement:
			if tok.Name != start.Name {
				return p.errorf(dbmap.UnexpectedElement, tok.Name.Local, "", "")
			}
			return nil
		}
	}
}

func (p *parser) database(start xml.StartElement) (*mapping.Database, error) {
	a := p.attrs(start)
	db := &mapping.Database{
		Name:     a.str("Name"),
		Provider: a.str("Provider"),
	}
	err := p.children(start, func(se xml.StartElement) (bool, error) {
		switch se.Name.Local {
		case elemTable:
			t, err := p.table(se)
			if err != nil {
				return true, err
			}
			db.Tables = append(db.Tables, t)
		case elemFunction:
			f, err := p.function(se)
			if err != nil {
				return true, err
			}
			db.Functions = append(db.Functions, f)
		default:
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p *parser) table(start xml.StartElement) (*mapping.Table, error) {
	a := p.attrs(start)
	t := &mapping.Table{
		Name:   a.str("Name"),
		Member: a.str("Member"),
	}
	err := p.children(start, func(se xml.StartElement) (bool, error) {
		if se.Name.Local != elemType || t.Type != nil {
			return false, nil
		}
		typ, err := p.typ(se)
		t.Type = typ
		return true, err
	})
	if err != nil {
		return nil, err
	}
	if t.Type == nil {
		return nil, p.errorf(dbmap.MissingElement, elemTable, "", elemType)
	}
	return t, nil
}

func (p *parser) typ(start xml.StartElement) (*mapping.Type, error) {
	a := p.attrs(start)
	name, err := a.required("Name")
	if err != nil {
		return nil, err
	}
	t := &mapping.Type{
		Name:            name,
		InheritanceCode: a.str("InheritanceCode"),
	}
	if t.IsInheritanceDefault, err = a.boolean("IsInheritanceDefault"); err != nil {
		return nil, err
	}
	err = p.children(start, func(se xml.StartElement) (bool, error) {
		switch se.Name.Local {
		case elemColumn:
			c, err := p.column(se)
			if err != nil {
				return true, err
			}
			t.Columns = append(t.Columns, c)
		case elemAssociation:
			as, err := p.association(se)
			if err != nil {
				return true, err
			}
			t.Associations = append(t.Associations, as)
		case elemType:
			sub, err := p.typ(se)
			if err != nil {
				return true, err
			}
			t.Types = append(t.Types, sub)
		default:
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *parser) column(start xml.StartElement) (*mapping.Column, error) {
	a := p.attrs(start)
	member, err := a.required("Member")
	if err != nil {
		return nil, err
	}
	c := &mapping.Column{
		Name:       a.str("Name"),
		Member:     member,
		Storage:    a.str("Storage"),
		DbType:     a.str("DbType"),
		Expression: a.str("Expression"),
	}
	for _, b := range []struct {
		name string
		dst  *bool
	}{
		{"IsPrimaryKey", &c.IsPrimaryKey},
		{"IsDbGenerated", &c.IsDbGenerated},
		{"IsDiscriminator", &c.IsDiscriminator},
		{"IsVersion", &c.IsVersion},
	} {
		if *b.dst, err = a.boolean(b.name); err != nil {
			return nil, err
		}
	}
	if c.CanBeNull, err = a.optBool("CanBeNull"); err != nil {
		return nil, err
	}
	if s, ok := a.lookup("UpdateCheck"); ok {
		v, ok := mapping.ParseUpdateCheck(s)
		if !ok {
			return nil, a.errorf(dbmap.UnknownEnum, "UpdateCheck", s)
		}
		c.UpdateCheck = v
	}
	if s, ok := a.lookup("AutoSync"); ok {
		v, ok := mapping.ParseAutoSync(s)
		if !ok {
			return nil, a.errorf(dbmap.UnknownEnum, "AutoSync", s)
		}
		c.AutoSync = v
	}
	return c, p.empty(start)
}

func (p *parser) association(start xml.StartElement) (*mapping.Association, error) {
	a := p.attrs(start)
	member, err := a.required("Member")
	if err != nil {
		return nil, err
	}
	as := &mapping.Association{
		Name:       a.str("Name"),
		Member:     member,
		Storage:    a.str("Storage"),
		DeleteRule: a.str("DeleteRule"),
	}
	if s, ok := a.lookup("ThisKey"); ok {
		as.ThisKey = &s
	}
	if s, ok := a.lookup("OtherKey"); ok {
		as.OtherKey = &s
	}
	if as.IsForeignKey, err = a.boolean("IsForeignKey"); err != nil {
		return nil, err
	}
	if as.IsUnique, err = a.boolean("IsUnique"); err != nil {
		return nil, err
	}
	if as.DeleteOnNull, err = a.boolean("DeleteOnNull"); err != nil {
		return nil, err
	}
	return as, p.empty(start)
}

func (p *parser) function(start xml.StartElement) (*mapping.Function, error) {
	a := p.attrs(start)
	method, err := a.required("Method")
	if err != nil {
		return nil, err
	}
	f := &mapping.Function{
		Name:   a.str("Name"),
		Method: method,
	}
	if f.IsComposable, err = a.boolean("IsComposable"); err != nil {
		return nil, err
	}
	err = p.children(start, func(se xml.StartElement) (bool, error) {
		switch se.Name.Local {
		case elemParameter:
			prm, err := p.parameter(se)
			if err != nil {
				return true, err
			}
			f.Parameters = append(f.Parameters, prm)
		case elemElementType:
			if f.Return != nil {
				return false, nil
			}
			et, err := p.typ(se)
			if err != nil {
				return true, err
			}
			f.ElementTypes = append(f.ElementTypes, et)
		case elemReturn:
			if f.Return != nil || len(f.ElementTypes) > 0 {
				return false, nil
			}
			r, err := p.ret(se)
			if err != nil {
				return true, err
			}
			f.Return = r
		default:
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p *parser) parameter(start xml.StartElement) (*mapping.Parameter, error) {
	a := p.attrs(start)
	name, err := a.required("Parameter")
	if err != nil {
		return nil, err
	}
	prm := &mapping.Parameter{
		Name:      a.str("Name"),
		Parameter: name,
		DbType:    a.str("DbType"),
	}
	if s, ok := a.lookup("Direction"); ok {
		d, ok := mapping.ParseDirection(s)
		if !ok {
			return nil, a.errorf(dbmap.UnknownEnum, "Direction", s)
		}
		prm.Direction = d
	}
	return prm, p.empty(start)
}

func (p *parser) ret(start xml.StartElement) (*mapping.Return, error) {
	a := p.attrs(start)
	return &mapping.Return{DbType: a.str("DbType")}, p.empty(start)
}

// empty consumes the content of an element that has no children.
func (p *parser) empty(start xml.StartElement) error {
	return p.children(start, func(xml.StartElement) (bool, error) {
		return false, nil
	})
}

func (p *parser) errorf(kind dbmap.ParseErrorKind, elem, attr, value string) error {
	err := dbmap.NewParseError(kind, elem, attr, value)
	err.Offset = p.off
	return err
}

// attrs reads the unqualified attributes of one element.
type attrs struct {
	p    *parser
	elem string
	off  int64
	list []xml.Attr
}

func (p *parser) attrs(se xml.StartElement) attrs {
	return attrs{p: p, elem: se.Name.Local, off: p.off, list: se.Attr}
}

func (a attrs) lookup(name string) (string, bool) {
	for _, at := range a.list {
		if at.Name.Space == "" && at.Name.Local == name {
			return at.Value, true
		}
	}
	return "", false
}

func (a attrs) str(name string) string {
	s, _ := a.lookup(name)
	return s
}

func (a attrs) required(name string) (string, error) {
	s, ok := a.lookup(name)
	if !ok {
		return "", a.errorf(dbmap.MissingAttribute, name, "")
	}
	return s, nil
}

func (a attrs) boolean(name string) (bool, error) {
	b, err := a.optBool(name)
	if err != nil || b == nil {
		return false, err
	}
	return *b, nil
}

func (a attrs) optBool(name string) (*bool, error) {
	s, ok := a.lookup(name)
	if !ok {
		return nil, nil
	}
	b, ok := ParseBool(s)
	if !ok {
		return nil, a.errorf(dbmap.MalformedBool, name, s)
	}
	return &b, nil
}

func (a attrs) errorf(kind dbmap.ParseErrorKind, attr, value string) error {
	err := dbmap.NewParseError(kind, a.elem, attr, value)
	err.Offset = a.off
	return err
}

// ParseBool parses an XML schema boolean: true, false, 1 or 0, with
// surrounding whitespace allowed.
func ParseBool(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// IsUnexpectedEOF reports whether err was caused by a truncated document.
func IsUnexpectedEOF(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF)
}
