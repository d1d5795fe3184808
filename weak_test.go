package zlift

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeak_Basic(t *testing.T) {
	require := require.New(t)

	owned9 := 9
	w := NewWeak(&owned9)
	require.True(w.IsValid())
	require.Same(&owned9, w.Upgrade())

	// observes, does not own
	owned9 = 10
	require.Equal(10, *w.Upgrade())

	w.Clear()
	require.False(w.IsValid())
	require.Nil(w.Upgrade())

	require.False(NewWeak[int](nil).IsValid())
}

func TestWeak_FromCell(t *testing.T) {
	require := require.New(t)

	cell := New(9)
	w, err := cell.Weak()
	require.NoError(err)
	require.Equal(9, *w.Upgrade())

	eb, err := cell.BorrowMut()
	require.NoError(err)
	*eb.Mut() = 11
	eb.Release()
	require.Equal(11, *w.Upgrade())

	// owner clears its weak refs before the move
	w.Clear()
	v, err := cell.Take()
	require.NoError(err)
	require.Equal(11, v)
	require.False(w.IsValid())

	_, err = cell.Weak()
	require.ErrorIs(err, ErrUseAfterMove)
}

type treeNode struct {
	name     string
	parent   *WeakRef[treeNode]
	children []*Cell[treeNode]
}

func TestWeak_BreaksParentCycle(t *testing.T) {
	require := require.New(t)

	root := New(treeNode{name: "root"})
	rootVal, err := root.GetMut()
	require.NoError(err)

	parent, err := root.Weak()
	require.NoError(err)
	child := New(treeNode{name: "child", parent: parent})
	rootVal.children = append(rootVal.children, child)

	childVal, err := child.Get()
	require.NoError(err)
	require.Equal("root", childVal.parent.Upgrade().name)

	// root is going away: invalidate the back link first
	childVal.parent.Clear()
	_, err = root.Take()
	require.NoError(err)
	require.False(childVal.parent.IsValid())
}
