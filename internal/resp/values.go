package resp

import "strconv"

// ValueType represents the type of a RESP value.
type ValueType int

const (
	TypeNone ValueType = iota
	TypeSimpleString
	TypeBulkString
	TypeInteger
	TypeArray
	TypeError
)

func (t ValueType) String() string {
	switch t {
	case TypeSimpleString:
		return "simple string"
	case TypeBulkString:
		return "bulk string"
	case TypeInteger:
		return "integer"
	case TypeArray:
		return "array"
	case TypeError:
		return "error"
	default:
		return "none"
	}
}

// Value is implemented by every reply the decoder produces.
//
// Interfaces are satisfied implicitly: any type with Type and StringValue
// methods is a Value. Callers switch on the concrete type to get at the data.
type Value interface {
	Type() ValueType
	StringValue() string
}

// SimpleString is a status line (starts with +).
type SimpleString struct {
	Value string
}

func (s SimpleString) Type() ValueType     { return TypeSimpleString }
func (s SimpleString) StringValue() string { return s.Value }

// BulkString is a length-prefixed byte string (starts with $). Null marks the
// absent variant ($-1), which is distinct from an empty string.
type BulkString struct {
	Data []byte
	Null bool
}

// NullBulk returns the absent bulk string.
func NullBulk() BulkString { return BulkString{Null: true} }

func (b BulkString) Type() ValueType     { return TypeBulkString }
func (b BulkString) StringValue() string { return string(b.Data) }

// Integer is a signed 64-bit integer reply (starts with :).
type Integer struct {
	Value int64
}

func (i Integer) Type() ValueType { return TypeInteger }
func (i Integer) StringValue() string {
	return strconv.FormatInt(i.Value, 10)
}

// Array is an ordered sequence of values (starts with *). Null marks the
// absent variant (*-1), which is distinct from an empty array.
type Array struct {
	Values []Value
	Null   bool
}

// NullArray returns the absent array.
func NullArray() Array { return Array{Null: true} }

func (a Array) Type() ValueType { return TypeArray }

// StringValue returns "" and lets the output formatter handle display.
func (a Array) StringValue() string { return "" }

// Error is a server-reported error (starts with -). It travels through the
// decoder like any other value and implements error so the facade can hand it
// back to the caller unchanged.
type Error struct {
	Message string
}

func (e Error) Type() ValueType     { return TypeError }
func (e Error) StringValue() string { return e.Message }
func (e Error) Error() string       { return e.Message }

// IsNull reports whether v is an absent bulk string or an absent array.
func IsNull(v Value) bool {
	switch val := v.(type) {
	case BulkString:
		return val.Null
	case Array:
		return val.Null
	}
	return false
}
