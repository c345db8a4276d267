// Package yamlmap reads and writes mapping documents in YAML. Keys are the
// lower camel case forms of the XML element and attribute names.
//
//	name: Northwind
//	tables:
//	  - name: Customers
//	    type:
//	      name: Customer
//	      columns:
//	        - member: ID
//	          isPrimaryKey: true
package yamlmap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
)

// Parse reads a YAML mapping document from r.
func Parse(r io.Reader) (*mapping.Database, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var db mapping.Database
	if err := dec.Decode(&db); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dbmap.NewParseError(dbmap.MissingElement, "Database", "", "")
		}
		return nil, translate(err)
	}
	if err := validate(&db); err != nil {
		return nil, err
	}
	db.ApplyDefaults()
	return &db, nil
}

// ParseFile reads the YAML mapping document at path.
func ParseFile(path string) (*mapping.Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data))
}

// Marshal renders db as a YAML mapping document.
func Marshal(db *mapping.Database) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(db); err != nil {
		return nil, fmt.Errorf("yamlmap: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yamlmap: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	unknownField = regexp.MustCompile(`field (\S+) not found in type mapping\.(\w+)`)
	badBool      = regexp.MustCompile("cannot unmarshal !!\\w+ `([^`]*)` into bool")
)

// translate maps yaml.v3 decoding errors onto the parse error taxonomy.
func translate(err error) error {
	var enumErr *mapping.EnumError
	if errors.As(err, &enumErr) {
		return dbmap.NewParseError(dbmap.UnknownEnum, "", enumErr.Enum, enumErr.Value)
	}
	msg := err.Error()
	if m := unknownField.FindStringSubmatch(msg); m != nil {
		return dbmap.NewParseError(dbmap.UnexpectedElement, m[2], "", m[1])
	}
	if m := badBool.FindStringSubmatch(msg); m != nil {
		return dbmap.NewParseError(dbmap.MalformedBool, "", "", m[1])
	}
	return fmt.Errorf("yamlmap: %w", err)
}

func validate(db *mapping.Database) error {
	for _, t := range db.Tables {
		if t.Type == nil {
			return dbmap.NewParseError(dbmap.MissingElement, "Table", "", "Type")
		}
		if err := validateType(t.Type); err != nil {
			return err
		}
	}
	for _, f := range db.Functions {
		if f.Method == "" {
			return dbmap.NewParseError(dbmap.MissingAttribute, "Function", "Method", "")
		}
		if f.Return != nil && len(f.ElementTypes) > 0 {
			return dbmap.NewParseError(dbmap.UnexpectedElement, "Return", "", "")
		}
		for _, p := range f.Parameters {
			if p.Parameter == "" {
				return dbmap.NewParseError(dbmap.MissingAttribute, "Parameter", "Parameter", "")
			}
		}
		for _, et := range f.ElementTypes {
			if err := validateType(et); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateType(t *mapping.Type) error {
	if t.Name == "" {
		return dbmap.NewParseError(dbmap.MissingAttribute, "Type", "Name", "")
	}
	for _, c := range t.Columns {
		if c.Member == "" {
			return dbmap.NewParseError(dbmap.MissingAttribute, "Column", "Member", "")
		}
	}
	for _, a := range t.Associations {
		if a.Member == "" {
			return dbmap.NewParseError(dbmap.MissingAttribute, "Association", "Member", "")
		}
	}
	for _, sub := range t.Types {
		if err := validateType(sub); err != nil {
			return err
		}
	}
	return nil
}
