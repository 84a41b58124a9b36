// Package codeheap is the refcounted allocator backing bytecode blocks
// (spec §3.5): a block is a []uint32 instruction stream that outlives the
// identifier it was compiled from, shared by every Value/Ident/call frame
// that references it, and freed once every reference is dropped.
//
// Builder accumulates words directly on top of internal/mem.Buffer[uint32],
// the teacher's paged-growth buffer (used there for FIRST's
// byte-addressable memory): a compile emits one instruction word at a
// time via Append exactly as FIRST emits a byte at a time, then Finish
// freezes the accumulated words into an immutable, independently
// refcounted Block.
package codeheap

import "github.com/OctaForge/libcubescript-sub000/internal/mem"

// DefaultPageSize mirrors internal/mem.DefaultBufferPageSize; bytecode
// blocks are usually small, so a smaller default page avoids
// over-allocating for one-statement aliases.
const DefaultPageSize = 64

// Block is a refcounted, immutable instruction stream once built. The
// header fields spec §3.5 describes (owning state pointer, allocation
// size) are implicit in Go: the owning *cubescript.State is the pool
// that produced the Builder, and len(words) is the allocation size.
type Block struct {
	words  []uint32
	refs   int32
	source string
}

// newBlock wraps a frozen word slice with an initial refcount of 1.
func newBlock(words []uint32, source string) *Block {
	return &Block{words: words, refs: 1, source: source}
}

// Ref increments b's reference count and returns b, for chaining.
func (b *Block) Ref() *Block {
	if b != nil {
		b.refs++
	}
	return b
}

// Unref decrements b's reference count; once it reaches zero the block's
// words are released (set nil) so a dangling reference fails loudly
// rather than reading stale instructions.
func (b *Block) Unref() {
	if b == nil {
		return
	}
	b.refs--
	if b.refs <= 0 {
		b.words = nil
	}
}

// Refs reports the current reference count, for tests.
func (b *Block) Refs() int32 {
	if b == nil {
		return 0
	}
	return b.refs
}

// Words returns the block's instruction stream.
func (b *Block) Words() []uint32 {
	if b == nil {
		return nil
	}
	return b.words
}

// Source returns the original source text the block was compiled from,
// if any (used for displaying a CODE value as a string per §3.2).
func (b *Block) Source() string {
	if b == nil {
		return ""
	}
	return b.source
}

// Len reports the instruction count.
func (b *Block) Len() int { return len(b.words) }

// Builder accumulates instruction words over a mem.Buffer[uint32], then
// freezes them into a Block.
type Builder struct {
	buf mem.Buffer[uint32]
}

// NewBuilder starts an empty instruction builder. pageSize <= 0 uses
// DefaultPageSize.
func NewBuilder(pageSize int) *Builder {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	bd := &Builder{}
	bd.buf.PageSize = uint(pageSize)
	return bd
}

// Len reports the number of words emitted so far.
func (bd *Builder) Len() int { return int(bd.buf.Size()) }

// Emit appends one instruction word and returns its index.
func (bd *Builder) Emit(word uint32) int {
	addr, _ := bd.buf.Append(word)
	return int(addr)
}

// Patch overwrites an already-emitted word, used by the compiler to
// back-patch jump targets once a block's extent is known.
func (bd *Builder) Patch(idx int, word uint32) {
	_ = bd.buf.Stor(uint(idx), word)
}

// At reads an already-emitted word.
func (bd *Builder) At(idx int) uint32 {
	w, _ := bd.buf.Load(uint(idx))
	return w
}

// Finish freezes the builder's words into a new Block with refcount 1,
// tagging it with source for display purposes. The Builder may continue
// to be reused after Finish; the returned Block owns an independent copy
// of the words.
func (bd *Builder) Finish(source string) *Block {
	words := make([]uint32, bd.buf.Size())
	_ = bd.buf.LoadInto(0, words)
	return newBlock(words, source)
}

// Heap holds the four shared empty-block sentinels (one per return tag)
// required by spec §3.5, so that compiling an empty `[]` never
// allocates.
type Heap struct {
	empty [4]*Block
}

// NewHeap constructs a Heap and its sentinel blocks. exitWord is supplied
// by the caller (the compiler package) since the EXIT opcode encoding is
// not codeheap's concern; one sentinel is built per tag in
// [0, len(exitWords)).
func NewHeap(exitWords [4]uint32) *Heap {
	h := &Heap{}
	for tag, word := range exitWords {
		h.empty[tag] = newBlock([]uint32{word}, "")
	}
	return h
}

// Empty returns the shared sentinel block for the given return tag
// (0..3), taking a ref on it.
func (h *Heap) Empty(tag int) *Block {
	if tag < 0 || tag >= len(h.empty) {
		tag = 0
	}
	return h.empty[tag].Ref()
}

// IsEmpty reports whether b is one of the heap's shared sentinels.
func (h *Heap) IsEmpty(b *Block) bool {
	for _, e := range h.empty {
		if e == b {
			return true
		}
	}
	return false
}
