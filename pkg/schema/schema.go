package schema

import (
	"fmt"
	"math"
)

// Type tags a field's JSON shape
type Type string

const (
	String  Type = "string"
	Integer Type = "integer"
	Number  Type = "number"
	Boolean Type = "boolean"
	Array   Type = "array"
	Object  Type = "object"
	// Map is a JSON object with caller-chosen keys, e.g. labels
	Map Type = "map"
)

// Width is the wire width of an integer field
type Width string

const (
	Int32  Width = "int32"
	Int64  Width = "int64"
	Uint32 Width = "uint32"
	Uint64 Width = "uint64"
)

func (w Width) signed() bool {
	return w == Int32 || w == Int64
}

func (w Width) bits() int {
	if w == Int32 || w == Uint32 {
		return 32
	}
	return 64
}

func (w Width) bounds() (minimum, maximum any) {
	switch w {
	case Int32:
		return int64(math.MinInt32), int64(math.MaxInt32)
	case Uint32:
		return uint64(0), uint64(math.MaxUint32)
	case Uint64:
		return uint64(0), uint64(math.MaxUint64)
	default:
		return int64(math.MinInt64), int64(math.MaxInt64)
	}
}

// Field describes one argument
type Field struct {
	Name        string
	Type        Type
	Width       Width
	Description string
	Required    bool
	Enum        []string
	Default     any
	// Items describes array elements and map values
	Items *Field
	// Fields describes the properties of an Object field
	Fields []Field
	// Open objects accept properties not listed in Fields
	Open bool
}

// Str declares a string field
func Str(name, description string) Field {
	return Field{Name: name, Type: String, Description: description}
}

// Int declares an integer field of the given wire width
func Int(name string, width Width, description string) Field {
	return Field{Name: name, Type: Integer, Width: width, Description: description}
}

// Num declares a floating point field
func Num(name, description string) Field {
	return Field{Name: name, Type: Number, Description: description}
}

// Bool declares a boolean field
func Bool(name, description string) Field {
	return Field{Name: name, Type: Boolean, Description: description}
}

// List declares an array field
func List(name, description string, item Field) Field {
	return Field{Name: name, Type: Array, Description: description, Items: &item}
}

// StrList declares an array of strings
func StrList(name, description string) Field {
	return List(name, description, Field{Type: String})
}

// StrMap declares a string to string map, e.g. labels or annotations
func StrMap(name, description string) Field {
	item := Field{Type: String}
	return Field{Name: name, Type: Map, Description: description, Items: &item}
}

// Obj declares a closed nested object
func Obj(name, description string, fields ...Field) Field {
	return Field{Name: name, Type: Object, Description: description, Fields: fields}
}

// Req marks the field required
func (f Field) Req() Field {
	f.Required = true
	return f
}

// OneOf restricts a string field to the given values
func (f Field) OneOf(values ...string) Field {
	f.Enum = values
	return f
}

// WithDefault records the value used when the field is absent
func (f Field) WithDefault(v any) Field {
	f.Default = v
	return f
}

// Args is the argument object of a tool
type Args struct {
	Fields []Field
	// Open argument objects accept unknown top-level fields
	Open bool
}

// NewArgs declares a closed argument object
func NewArgs(fields ...Field) Args {
	return Args{Fields: fields}
}

// Field returns the named top-level field
func (a Args) Field(name string) (Field, bool) {
	for _, f := range a.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required lists the names of required top-level fields in declaration order
func (a Args) Required() []string {
	var names []string
	for _, f := range a.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// ValidationError reports the first argument that failed validation
type ValidationError struct {
	// Field is the dotted path of the offending argument, e.g. mounts[0].host_path
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Errorf builds a ValidationError for encoders that check cross-field rules
func Errorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
