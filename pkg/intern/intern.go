// Package intern provides the shared string-interning pool the
// compiler and the VM both allocate identifiers and string literals
// through. The hash tables in pkg/table compare *value.ObjString keys
// by pointer identity, not by content, a deliberate performance choice
// that is only safe because every string with the same bytes anywhere
// in a running program is guaranteed to be the exact same object. That
// guarantee only holds if compile-time identifier/literal strings and
// runtime-computed strings (concatenation results) are allocated through
// one pool, so a single *Pool is threaded from cmd/lox's REPL loop
// through every compilation and into the VM that executes it.
package intern

import (
	"github.com/loxvm/loxvm/pkg/table"
	"github.com/loxvm/loxvm/pkg/value"
)

// Pool is a string interner backed by a table.Table used purely as a
// set (values are always value.NilValue; only key presence matters).
// Every string it allocates is also threaded onto an intrusive
// value.Object list (Objects), the same bulk-deallocation structure
// pkg/vm's package doc describes; here it is the pool, not the VM,
// that is the allocation site for strings.
type Pool struct {
	strings *table.Table
	Objects value.Object
}

// New creates an empty interning pool.
func New() *Pool {
	return &Pool{strings: table.New()}
}

// Intern returns the canonical *value.ObjString for chars, allocating
// one only the first time this exact byte sequence is seen.
func (p *Pool) Intern(chars string) *value.ObjString {
	hash := value.FNV1aHash(chars)
	if existing := p.strings.FindString(chars, hash); existing != nil {
		return existing
	}
	s := value.NewObjString(chars, hash)
	p.strings.Set(s, value.NilValue)
	s.SetNext(p.Objects)
	p.Objects = s
	return s
}
