package cubescript

import "github.com/OctaForge/libcubescript-sub000/internal/codeheap"

// Code is a refcounted handle to a compiled bytecode block (spec §3.5).
// It wraps an *codeheap.Block; ref/unref operations always normalize to
// the block's base, so a Code handle never needs to distinguish a START
// word from an interior OFFSET the way the spec's raw-pointer model
// does — the indirection through *codeheap.Block already is the base
// pointer.
type Code struct {
	block  *codeheap.Block
	consts []Value
}

// wrapCode adopts an already-owned *codeheap.Block (refcount already
// accounts for the new Code) without taking a further reference.
func wrapCode(b *codeheap.Block, consts []Value) *Code {
	if b == nil {
		return nil
	}
	return &Code{block: b, consts: consts}
}

// Const returns the i'th entry of the block's constant pool (the VAL
// opcode's data field indexes into this), or Null if out of range.
func (c *Code) Const(i int32) Value {
	if c == nil || i < 0 || int(i) >= len(c.consts) {
		return Null
	}
	return c.consts[i]
}

// Ref increments the block's reference count and returns c, for chaining.
func (c *Code) Ref() *Code {
	if c != nil {
		c.block.Ref()
	}
	return c
}

// Unref decrements the block's reference count, freeing it at zero.
func (c *Code) Unref() {
	if c != nil {
		c.block.Unref()
	}
}

// Words exposes the block's raw instruction stream to the VM.
func (c *Code) Words() []uint32 {
	if c == nil {
		return nil
	}
	return c.block.Words()
}

// Source returns the text the block was compiled from, if known.
func (c *Code) Source() string {
	if c == nil {
		return ""
	}
	return c.block.Source()
}

// Refs reports the current reference count, for tests.
func (c *Code) Refs() int32 {
	if c == nil {
		return 0
	}
	return c.block.Refs()
}
