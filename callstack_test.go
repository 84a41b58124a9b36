package cubescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallFrameMarkAndIsUsed(t *testing.T) {
	f := rootFrame()
	assert.True(t, f.isUsed(0), "root frame reports every slot used")

	child := &callFrame{parent: f}
	assert.False(t, child.isUsed(3))
	child.markUsed(3)
	assert.True(t, child.isUsed(3))
	assert.False(t, child.isUsed(4))
}

func TestCallFrameIsUsedOutOfRange(t *testing.T) {
	f := &callFrame{}
	assert.False(t, f.isUsed(-1))
	assert.False(t, f.isUsed(32))
	f.markUsed(-1)
	f.markUsed(32)
	assert.Equal(t, uint32(0), f.usedargs, "out-of-range slots are ignored")
}

func TestCallFrameSnapshotBoundedByDbgalias(t *testing.T) {
	c := &Command{identHeader: identHeader{name: "c"}}
	root := rootFrame()
	var cur *callFrame = root
	for i := 1; i <= 6; i++ {
		cur = &callFrame{ident: c, parent: cur, depth: i}
	}

	entries := cur.snapshot(4)
	assert.Len(t, entries, 4)
	assert.Equal(t, 6, entries[0].Depth)
	assert.Equal(t, 3, entries[3].Depth)
}

func TestCallFrameSnapshotStopsAtRoot(t *testing.T) {
	c := &Command{identHeader: identHeader{name: "c"}}
	root := rootFrame()
	one := &callFrame{ident: c, parent: root, depth: 1}

	entries := one.snapshot(4)
	assert.Len(t, entries, 1, "the root frame's nil ident ends the walk")
}

func TestCallFrameSnapshotDefaultsDbgaliasToFour(t *testing.T) {
	c := &Command{identHeader: identHeader{name: "c"}}
	root := rootFrame()
	var cur *callFrame = root
	for i := 1; i <= 6; i++ {
		cur = &callFrame{ident: c, parent: cur, depth: i}
	}

	entries := cur.snapshot(0)
	assert.Len(t, entries, 4)
}
