package vm

import (
	"hash/maphash"

	"github.com/josharian/intern"
)

// StringID is a non-owning, stable reference into a StringArena. Two
// StringIDs compare equal iff the underlying byte sequences are equal.
type StringID int

type internedString struct {
	text string
	hash uint64
}

// StringArena canonicalizes byte sequences to a shared identity: equal
// bytes always intern to the same StringID. It is the one collaborator
// shared, read-write, between the compiler (which interns literals and
// identifiers while building a chunk) and the VM (which interns the result
// of runtime string concatenation) — never both at once within a single
// interpret call.
type StringArena struct {
	byText map[string]StringID
	items  []internedString
	seed   maphash.Seed
}

func NewStringArena() *StringArena {
	return &StringArena{
		byText: make(map[string]StringID),
		seed:   maphash.MakeSeed(),
	}
}

// Intern returns the StringID for bytes, creating a new arena entry the
// first time this byte sequence is seen. intern.String canonicalizes the
// backing Go string so repeated equal literals across a compilation share
// one allocation before the arena ever sees them; the arena adds the
// stable small-integer id on top, which intern.String alone doesn't
// provide and which the constant pool / globals table need to avoid
// per-lookup hashing.
func (a *StringArena) Intern(bytes []byte) StringID {
	text := intern.String(string(bytes))
	if id, ok := a.byText[text]; ok {
		return id
	}
	id := StringID(len(a.items))
	var h maphash.Hash
	h.SetSeed(a.seed)
	_, _ = h.WriteString(text)
	a.items = append(a.items, internedString{text: text, hash: h.Sum64()})
	a.byText[text] = id
	return id
}

// InternString is a convenience wrapper for callers that already hold a Go
// string (e.g. the compiler interning an identifier lexeme).
func (a *StringArena) InternString(text string) StringID {
	return a.Intern([]byte(text))
}

func (a *StringArena) Bytes(id StringID) []byte { return []byte(a.items[id].text) }
func (a *StringArena) Text(id StringID) string  { return a.items[id].text }
func (a *StringArena) Hash(id StringID) uint64  { return a.items[id].hash }
