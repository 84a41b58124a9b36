package cubescript

import (
	"fmt"

	"github.com/OctaForge/libcubescript-sub000/internal/strpool"
)

// MaxArguments is the implementation-chosen constant (spec §3.3, §6.2.2)
// reserving the first MaxArguments table slots for "arg1".."argN".
const MaxArguments = 25

// IdentFlags records the per-identifier flag bits named in spec §3.3.
type IdentFlags uint8

const (
	FlagPersistent IdentFlags = 1 << iota
	FlagOverridable
	FlagReadOnly
	FlagOverridden
	FlagUnknown
	FlagArg
)

func (f IdentFlags) Has(bit IdentFlags) bool { return f&bit != 0 }

// IdentKind discriminates the tagged variant of spec §3.3.
type IdentKind uint8

const (
	KindIntVar IdentKind = iota
	KindFloatVar
	KindStringVar
	KindAlias
	KindCommand
	KindBuiltin
)

// Ident is the common interface over every identifier-table entry:
// integer/float/string vars, aliases, commands, and builtin-keyword
// markers. Grounded on original_source/src/cs_ident.hh's ident_impl
// base and the teacher's dictionary-header model (internals.go's
// compileHeader/lookup), generalized into a Go interface per spec §9's
// guidance ("tagged variant with a common header").
type Ident interface {
	Name() string
	Kind() IdentKind
	Index() int
	Flags() IdentFlags
	setFlags(IdentFlags)
}

type identHeader struct {
	name  string
	index int
	flags IdentFlags
}

func (h *identHeader) Name() string         { return h.name }
func (h *identHeader) Index() int           { return h.index }
func (h *identHeader) Flags() IdentFlags    { return h.flags }
func (h *identHeader) setFlags(f IdentFlags) { h.flags = f }

// IntVar is an integer-valued identifier with range clamping.
type IntVar struct {
	identHeader
	Value    IntValue
	Min, Max IntValue
	override IntValue
	OnChange func(*Thread, *IntVar)
}

func (v *IntVar) Kind() IdentKind { return KindIntVar }

// FloatVar is a float-valued identifier with range clamping.
type FloatVar struct {
	identHeader
	Value    FloatValue
	Min, Max FloatValue
	override FloatValue
	OnChange func(*Thread, *FloatVar)
}

func (v *FloatVar) Kind() IdentKind { return KindFloatVar }

// StringVar is a string-valued identifier.
type StringVar struct {
	identHeader
	Value    *strpool.Str
	override *strpool.Str
	OnChange func(*Thread, *StringVar)
}

func (v *StringVar) Kind() IdentKind { return KindStringVar }

// Alias is a dynamically typed, reassignable named value, callable as
// code when its value is a string or code reference (glossary: alias).
type Alias struct {
	identHeader
	value   Value
	code    *Code  // cached compiled bytecode, nil if stale/uncompiled
	stack   *aliasFrame
	initial Value
}

func (a *Alias) Kind() IdentKind { return KindAlias }

// Value returns the alias's current value without taking ownership.
func (a *Alias) Value() Value { return a.value }

// invalidateCode drops the alias's cached compiled bytecode; the next
// call recompiles from a.value (spec §4.9: "assigning to an alias ...
// invalidates its cached bytecode").
func (a *Alias) invalidateCode() {
	if a.code != nil {
		a.code.Unref()
		a.code = nil
	}
}

// CommandFunc is the native callback signature for a Command ident
// (spec §6.1's callback contract).
type CommandFunc func(th *Thread, args []Value, ret *Value) error

// Command is an identifier bound to a native callback with a declared
// argument-type signature (spec §3.3, §4.7.1).
type Command struct {
	identHeader
	Argspec string
	Arity   int
	Fn      CommandFunc
}

func (c *Command) Kind() IdentKind { return KindCommand }

// BuiltinKeyword marks one of the ten control-flow primitives the
// compiler recognizes by identity at compile time (spec §6.2.1). It is
// still a Command-shaped table entry (builtins remain commands, never
// aliases) so it can be looked up like any other command. Unlike an
// ordinary command, any attempt to redefine it is rejected, and the
// compiler special-cases its opcode.
type BuiltinKeyword struct {
	identHeader
	Builtin BuiltinID
}

func (b *BuiltinKeyword) Kind() IdentKind { return KindBuiltin }

// BuiltinID enumerates the ten identity-known builtin keywords (spec
// §6.2.1).
type BuiltinID uint8

const (
	BuiltinDo BuiltinID = iota
	BuiltinDoArgs
	BuiltinIf
	BuiltinResult
	BuiltinNot
	BuiltinAnd
	BuiltinOr
	BuiltinLocal
	BuiltinBreak
	BuiltinContinue
)

var builtinNames = [...]string{
	BuiltinDo: "do", BuiltinDoArgs: "doargs", BuiltinIf: "if",
	BuiltinResult: "result", BuiltinNot: "!", BuiltinAnd: "&&",
	BuiltinOr: "||", BuiltinLocal: "local", BuiltinBreak: "break",
	BuiltinContinue: "continue",
}

// IdentTable is a name→ident map plus a parallel, stable index vector
// (spec §3.3). Grounded on the teacher's dictionary/header pair
// (internals.go's compileHeader building up a name→index association)
// generalized from FIRST's flat word list to a typed ident table, and
// on original_source/src/cs_state.hh's idents/identmap pair.
type IdentTable struct {
	byName map[string]Ident
	byIdx  []Ident
}

// NewIdentTable constructs an empty table with the first MaxArguments
// slots reserved for "arg1".."argN" alias idents (spec §6.2.2).
func NewIdentTable() *IdentTable {
	t := &IdentTable{byName: make(map[string]Ident)}
	for i := 1; i <= MaxArguments; i++ {
		name := fmt.Sprintf("arg%d", i)
		a := &Alias{identHeader: identHeader{name: name, flags: FlagArg}}
		t.insert(a)
	}
	return t
}

func (t *IdentTable) insert(id Ident) {
	h := headerOf(id)
	h.index = len(t.byIdx)
	t.byIdx = append(t.byIdx, id)
	t.byName[h.name] = id
}

func headerOf(id Ident) *identHeader {
	switch v := id.(type) {
	case *IntVar:
		return &v.identHeader
	case *FloatVar:
		return &v.identHeader
	case *StringVar:
		return &v.identHeader
	case *Alias:
		return &v.identHeader
	case *Command:
		return &v.identHeader
	case *BuiltinKeyword:
		return &v.identHeader
	default:
		panic(fmt.Sprintf("cubescript: unknown ident type %T", id))
	}
}

// Lookup returns the ident named name, if any.
func (t *IdentTable) Lookup(name string) (Ident, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// At returns the ident at table index i.
func (t *IdentTable) At(i int) Ident {
	if i < 0 || i >= len(t.byIdx) {
		return nil
	}
	return t.byIdx[i]
}

// Len reports the number of idents in the table.
func (t *IdentTable) Len() int { return len(t.byIdx) }

// Define inserts a brand new ident under its own name, returning an
// error if the name is already taken by a builtin keyword (spec
// §6.2.1: "these names must remain commands; overwriting them is an
// error") or is not a valid identifier name (spec §4.4).
func (t *IdentTable) Define(id Ident) error {
	h := headerOf(id)
	if !isValidName(h.name) {
		return fmt.Errorf("cubescript: invalid identifier name %q", h.name)
	}
	if existing, ok := t.byName[h.name]; ok {
		if _, isBuiltin := existing.(*BuiltinKeyword); isBuiltin {
			return fmt.Errorf("cubescript: cannot redefine builtin %q", h.name)
		}
	}
	t.insert(id)
	return nil
}

// DefineBuiltins installs the ten identity-known builtin keywords (spec
// §6.2.1), idempotently.
func (t *IdentTable) DefineBuiltins() {
	for id, name := range builtinNames {
		if _, ok := t.byName[name]; ok {
			continue
		}
		b := &BuiltinKeyword{identHeader: identHeader{name: name}, Builtin: BuiltinID(id)}
		t.insert(b)
	}
}
