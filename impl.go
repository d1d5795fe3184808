/*
 * Copyright (c) 2020-present unTill Pro, Ltd.
 */

package zlift

import (
	"math"
	"sync/atomic"

	"fortio.org/safecast"
)

var lastCellID uint64

// New creates a Cell which owns v
func New[T any](v T) *Cell[T] {
	return &Cell[T]{
		value: v,
		state: Owned,
		id:    atomic.AddUint64(&lastCellID, 1),
	}
}

// Take moves the value out of the cell. The cell is dead after that
// fails if moved already or if any borrow is live
func (c *Cell[T]) Take() (res T, err error) {
	if err := c.checkOwned(opTake); err != nil {
		return res, err
	}
	res = c.value
	var zero T
	c.value = zero
	c.state = Moved
	logTraffic("moved", c.id, c.state)
	return res, nil
}

// Borrow makes a shared borrow. Up to math.MaxUint32 shared borrows may be live at once
// the cell stays inaccessible for Take(), Get(), GetMut() and BorrowMut() until the last one is released
func (c *Cell[T]) Borrow() (*Borrow[T], error) {
	switch c.state {
	case Moved:
		return nil, violation(UseAfterMove, opBorrow, c.state, c.id)
	case BorrowedMut:
		return nil, violation(BorrowConflict, opBorrow, c.state, c.id)
	}
	if c.shared == math.MaxUint32 {
		return nil, violation(BorrowConflict, opBorrow, c.state, c.id)
	}
	c.shared++
	c.state = Borrowed
	res := &Borrow[T]{handle: newHandle(c)}
	logTraffic("borrowed", c.id, c.state)
	return res, nil
}

// BorrowMut makes the exclusive borrow
// fails if moved or if any other borrow is live
func (c *Cell[T]) BorrowMut() (*MutBorrow[T], error) {
	if err := c.checkOwned(opBorrowMut); err != nil {
		return nil, err
	}
	c.exclusive = true
	c.state = BorrowedMut
	res := &MutBorrow[T]{handle: newHandle(c)}
	logTraffic("borrowed mut", c.id, c.state)
	return res, nil
}

// Get returns the value. Available in Owned state only
func (c *Cell[T]) Get() (res T, err error) {
	if err := c.checkOwned(opGet); err != nil {
		return res, err
	}
	return c.value, nil
}

// GetMut returns the pointer to the value. Available in Owned state only
// the pointer must not be used after the cell is moved
func (c *Cell[T]) GetMut() (*T, error) {
	if err := c.checkOwned(opGetMut); err != nil {
		return nil, err
	}
	return &c.value, nil
}

// IsValid reports whether the value is directly accessible, i.e. the cell is neither moved nor borrowed
func (c *Cell[T]) IsValid() bool {
	return c.state == Owned
}

func (c *Cell[T]) State() State {
	return c.state
}

// SharedBorrows returns the amount of live shared borrows
func (c *Cell[T]) SharedBorrows() int {
	res, err := safecast.Conv[int](c.shared)
	if err != nil {
		// 32-bit platform with more than MaxInt32 borrows
		panic(err)
	}
	return res
}

func (c *Cell[T]) IsBorrowedMut() bool {
	return c.exclusive
}

// Clone returns a new Owned cell which holds a deep copy of the value, see DeepCopy()
// allowed while borrowed: the current value is copied, the borrows stay on the source cell
func (c *Cell[T]) Clone() (*Cell[T], error) {
	if c.state == Moved {
		return nil, violation(CloneOfMovedValue, opClone, c.state, c.id)
	}
	v, err := DeepCopy(c.value)
	if err != nil {
		return nil, err
	}
	return New(v), nil
}

// CloneOwned implements ICloneable
func (c *Cell[T]) CloneOwned() (any, error) {
	return c.Clone()
}

// Weak returns a non-owning observer of the value
// holder of the cell must Clear() the result before Take() or dropping the cell
func (c *Cell[T]) Weak() (*WeakRef[T], error) {
	if err := c.checkOwned(opWeak); err != nil {
		return nil, err
	}
	return NewWeak(&c.value), nil
}

func (c *Cell[T]) checkOwned(op string) error {
	switch c.state {
	case Owned:
		return nil
	case Moved:
		return violation(UseAfterMove, op, c.state, c.id)
	}
	return violation(BorrowConflict, op, c.state, c.id)
}

func (c *Cell[T]) releaseShared() {
	if c.shared == 0 {
		return
	}
	c.shared--
	if c.shared == 0 {
		c.state = Owned
	}
	logTraffic("released", c.id, c.state)
}

func (c *Cell[T]) releaseExclusive() {
	if !c.exclusive {
		return
	}
	c.exclusive = false
	c.state = Owned
	logTraffic("released mut", c.id, c.state)
}

func newHandle[T any](c *Cell[T]) handle[T] {
	h := handle[T]{cell: c}
	atomic.AddUint64(&borrowsInUse, 1)
	if isDebug {
		h.borrowStackTrace = getStackTrace().string()
		trackBorrow(h.borrowStackTrace)
	}
	return h
}

// detach returns the cell and forgets it. Returns nil if released already
func (h *handle[T]) detach() *Cell[T] {
	c := h.cell
	if c == nil {
		return nil
	}
	h.cell = nil
	atomic.AddUint64(&borrowsInUse, ^uint64(0))
	if len(h.borrowStackTrace) > 0 {
		untrackBorrow(h.borrowStackTrace)
	}
	return c
}

func (h *handle[T]) mustCell() *Cell[T] {
	if h.cell == nil {
		panic("borrow already released")
	}
	return h.cell
}

func (h *handle[T]) IsReleased() bool {
	return h.cell == nil
}

// Deref returns the borrowed value
// panics if released
func (b *Borrow[T]) Deref() T {
	return b.mustCell().value
}

// Release gives the shared borrow back to the cell
// does nothing if released already
func (b *Borrow[T]) Release() {
	if c := b.detach(); c != nil {
		c.releaseShared()
	}
}

// Deref returns the borrowed value
// panics if released
func (b *MutBorrow[T]) Deref() T {
	return b.mustCell().value
}

// Mut returns the pointer to the borrowed value. The pointer must not be used after Release()
// panics if released
func (b *MutBorrow[T]) Mut() *T {
	return &b.mustCell().value
}

// Release gives the exclusive borrow back to the cell
// does nothing if released already
func (b *MutBorrow[T]) Release() {
	if c := b.detach(); c != nil {
		c.releaseExclusive()
	}
}

// ReleaseAll releases borrows which are not released yet. Convenient for deferred cleanup:
// defer ReleaseAll(b1, b2)
func ReleaseAll(borrows ...IReleaser) {
	for _, b := range borrows {
		if !b.IsReleased() {
			b.Release()
		}
	}
}
