package dbmap

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for mapping resolution.
var (
	// ErrParse is returned when a mapping document or marker is malformed.
	ErrParse = errors.New("dbmap: malformed mapping")

	// ErrMapping is returned when a mapping refers to members, keys, types
	// or functions that cannot be resolved.
	ErrMapping = errors.New("dbmap: invalid mapping")

	// ErrNotSupported is returned for mapping features that are
	// deliberately not implemented.
	ErrNotSupported = errors.New("dbmap: mapping feature not supported")
)

// ParseErrorKind classifies a ParseError.
type ParseErrorKind int

// Parse error kinds.
const (
	UnexpectedElement ParseErrorKind = iota + 1
	MalformedBool
	UnknownEnum
	MissingAttribute
	MissingElement
	MalformedTag
)

var parseKindNames = [...]string{
	UnexpectedElement: "unexpected element",
	MalformedBool:     "malformed boolean",
	UnknownEnum:       "unknown enum literal",
	MissingAttribute:  "missing required attribute",
	MissingElement:    "missing required element",
	MalformedTag:      "malformed tag",
}

// String returns the kind name.
func (k ParseErrorKind) String() string {
	if k > 0 && int(k) < len(parseKindNames) {
		return parseKindNames[k]
	}
	return fmt.Sprintf("ParseErrorKind(%d)", int(k))
}

// ParseError reports a malformed mapping document or declarative marker.
type ParseError struct {
	Kind      ParseErrorKind
	Element   string // Element (or Go type/member for tags) being parsed
	Attribute string // Attribute name, if any
	Value     string // Offending literal, if any
	Offset    int64  // Input offset of the offending token, -1 if unknown
}

// Error returns the error string.
func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("dbmap: ")
	sb.WriteString(e.Kind.String())
	if e.Element != "" {
		fmt.Fprintf(&sb, " in <%s>", e.Element)
	}
	if e.Attribute != "" {
		fmt.Fprintf(&sb, " attribute %q", e.Attribute)
	}
	if e.Value != "" {
		fmt.Fprintf(&sb, " value %q", e.Value)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&sb, " (offset %d)", e.Offset)
	}
	return sb.String()
}

// Is reports whether the target error matches ParseError.
// This allows errors.Is(parseErr, ErrParse) to return true.
func (e *ParseError) Is(err error) bool {
	return err == ErrParse
}

// NewParseError returns a new ParseError with an unknown offset.
func NewParseError(kind ParseErrorKind, element, attr, value string) *ParseError {
	return &ParseError{Kind: kind, Element: element, Attribute: attr, Value: value, Offset: -1}
}

// IsParseError returns true if the error is a ParseError.
func IsParseError(err error) bool {
	if err == nil {
		return false
	}
	var e *ParseError
	return errors.As(err, &e) || errors.Is(err, ErrParse)
}

// MappingErrorKind classifies a MappingError.
type MappingErrorKind int

// Mapping error kinds.
const (
	MemberNotFound MappingErrorKind = iota + 1
	KeyMemberNotFound
	TypeNotResolvable
	FunctionNotFound
	MemberNotWritable
	InvalidMapping
)

var mappingKindNames = [...]string{
	MemberNotFound:    "member not found",
	KeyMemberNotFound: "key member not found",
	TypeNotResolvable: "type not resolvable",
	FunctionNotFound:  "function not found",
	MemberNotWritable: "member not writable",
	InvalidMapping:    "invalid mapping",
}

// String returns the kind name.
func (k MappingErrorKind) String() string {
	if k > 0 && int(k) < len(mappingKindNames) {
		return mappingKindNames[k]
	}
	return fmt.Sprintf("MappingErrorKind(%d)", int(k))
}

// MappingError reports a mapping that cannot be resolved against the
// Go types it describes.
type MappingError struct {
	Kind    MappingErrorKind
	Member  string // Member, key or function name
	Type    string // Type the lookup was made against
	KeyList string // Raw key list, for KeyMemberNotFound
	Message string // Optional detail
	Cause   error
}

// Error returns the error string.
func (e *MappingError) Error() string {
	var sb strings.Builder
	sb.WriteString("dbmap: ")
	sb.WriteString(e.Kind.String())
	if e.Member != "" {
		fmt.Fprintf(&sb, " %q", e.Member)
	}
	if e.KeyList != "" {
		fmt.Fprintf(&sb, " in key list %q", e.KeyList)
	}
	if e.Type != "" {
		fmt.Fprintf(&sb, " on type %s", e.Type)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

// Is reports whether the target error matches MappingError.
func (e *MappingError) Is(err error) bool {
	return err == ErrMapping
}

// Unwrap returns the underlying error.
func (e *MappingError) Unwrap() error {
	return e.Cause
}

// NewMemberNotFoundError returns a MappingError for a member missing on typ.
func NewMemberNotFoundError(member, typ string) *MappingError {
	return &MappingError{Kind: MemberNotFound, Member: member, Type: typ}
}

// NewKeyMemberNotFoundError returns a MappingError for an unresolvable
// name in a key list.
func NewKeyMemberNotFoundError(name, keyList, typ string) *MappingError {
	return &MappingError{Kind: KeyMemberNotFound, Member: name, KeyList: keyList, Type: typ}
}

// NewTypeNotResolvableError returns a MappingError for a type reference
// that cannot be located.
func NewTypeNotResolvableError(name, msg string) *MappingError {
	return &MappingError{Kind: TypeNotResolvable, Type: name, Message: msg}
}

// NewFunctionNotFoundError returns a MappingError for an unmapped or
// unknown callable.
func NewFunctionNotFoundError(name, typ string) *MappingError {
	return &MappingError{Kind: FunctionNotFound, Member: name, Type: typ}
}

// NewMemberNotWritableError returns a MappingError for a set on a member
// without a write target.
func NewMemberNotWritableError(member, typ string) *MappingError {
	return &MappingError{Kind: MemberNotWritable, Member: member, Type: typ}
}

// NewInvalidMappingError returns a MappingError with a free-form message.
func NewInvalidMappingError(member, typ, format string, args ...any) *MappingError {
	return &MappingError{Kind: InvalidMapping, Member: member, Type: typ, Message: fmt.Sprintf(format, args...)}
}

// IsMappingError returns true if the error is a MappingError.
func IsMappingError(err error) bool {
	if err == nil {
		return false
	}
	var e *MappingError
	return errors.As(err, &e) || errors.Is(err, ErrMapping)
}

// IsMappingErrorKind returns true if err is a MappingError of the given kind.
func IsMappingErrorKind(err error, kind MappingErrorKind) bool {
	var e *MappingError
	return errors.As(err, &e) && e.Kind == kind
}

// NotSupportedError reports use of a mapping feature that is explicitly
// rejected.
type NotSupportedError struct {
	Feature string // e.g. "inheritance", "deferred member"
	Type    string
	Member  string
}

// Error returns the error string.
func (e *NotSupportedError) Error() string {
	switch {
	case e.Member != "":
		return fmt.Sprintf("dbmap: %s not supported (member %s.%s)", e.Feature, e.Type, e.Member)
	case e.Type != "":
		return fmt.Sprintf("dbmap: %s not supported (type %s)", e.Feature, e.Type)
	default:
		return fmt.Sprintf("dbmap: %s not supported", e.Feature)
	}
}

// Is reports whether the target error matches NotSupportedError.
func (e *NotSupportedError) Is(err error) bool {
	return err == ErrNotSupported
}

// NewNotSupportedError returns a new NotSupportedError.
func NewNotSupportedError(feature, typ, member string) *NotSupportedError {
	return &NotSupportedError{Feature: feature, Type: typ, Member: member}
}

// IsNotSupported returns true if the error is a NotSupportedError.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSupportedError
	return errors.As(err, &e) || errors.Is(err, ErrNotSupported)
}

// AggregateError represents multiple errors collected during an operation,
// such as verifying every table of a model.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "dbmap: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("dbmap: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
