package value

import "fmt"

// ObjType identifies which kind of heap object an Object header describes.
type ObjType uint8

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
)

// Object is the interface every heap-allocated value implements: a
// small, closed set of variants (String, Function, Native) sharing a
// common header that carries the type tag and the intrusive "next" link
// the VM uses to walk every object it owns at teardown.
//
// There is no garbage collector in this system, so Object never needs a
// mark bit or a trace method, only identity (for string interning and
// value equality) and the object list's next link. The methods are
// exported because ObjFunction lives in package chunk (it needs to hold
// a *chunk.Chunk, and chunk already depends on value for the constant
// pool) and must be able to satisfy this interface from outside package
// value.
type Object interface {
	ObjType() ObjType
	Next() Object
	SetNext(Object)
}

// Header is embedded by every concrete Object implementation, in any
// package, to supply the type tag and intrusive-list link without
// repeating them.
type Header struct {
	Typ     ObjType
	NextObj Object
}

// ObjType implements Object.
func (h *Header) ObjType() ObjType { return h.Typ }

// Next implements Object.
func (h *Header) Next() Object { return h.NextObj }

// SetNext implements Object.
func (h *Header) SetNext(o Object) { h.NextObj = o }

// ObjString is an immutable, interned byte sequence. Two ObjStrings with
// equal bytes are always the same *ObjString instance (the interning
// invariant): string equality is therefore pointer equality.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

// NewObjString constructs a bare ObjString around already-hashed chars.
// Callers outside this package should go through the shared interning
// pool (intern.Pool.Intern) rather than calling this directly, or the
// interning invariant can be broken.
func NewObjString(chars string, hash uint32) *ObjString {
	s := &ObjString{Chars: chars, Hash: hash}
	s.Typ = ObjTypeString
	return s
}

// FNV1aHash computes the 32-bit FNV-1a hash of s: seed 0x811C9DC5, then
// per byte `hash ^= b; hash *= 0x01000193` with 32-bit wraparound.
func FNV1aHash(s string) uint32 {
	var hash uint32 = 0x811C9DC5
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 0x01000193
	}
	return hash
}

// NativeFn is the signature every native (built-in) callable implements:
// given the argument count and a slice of the arguments, return a Value.
// The sole required native in this system is `clock`.
type NativeFn func(argCount int, args []Value) Value

// ObjNative wraps a host-language function so it can be called from Lox
// like any other callable.
type ObjNative struct {
	Header
	Name     string
	Function NativeFn
}

// NewObjNative constructs a native function object.
func NewObjNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Function: fn}
	n.Typ = ObjTypeNative
	return n
}

// ObjectString renders o the way `print` does for a bare object value:
// strings print their raw bytes, natives print `<native fn name>`.
// Functions (ObjFunction, defined in package chunk) implement
// fmt.Stringer directly and so never reach the default case below.
func ObjectString(o Object) string {
	switch v := o.(type) {
	case *ObjString:
		return v.Chars
	case *ObjNative:
		return fmt.Sprintf("<native fn %s>", v.Name)
	case fmt.Stringer:
		return v.String()
	default:
		return "<object>"
	}
}
