// Package dbmap resolves object-relational mapping metadata for a data
// context type.
//
// Mappings come from one of two sources: declarative struct tags on the Go
// types themselves (package mapping/tagmap) or an external XML mapping
// document (package mapping/xmlmap). Both produce the descriptor records of
// package mapping, which package meta resolves into a graph of tables,
// types, data members, associations and functions, with cached accessors
// for reading and writing mapped members.
package dbmap
