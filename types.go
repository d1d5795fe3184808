/*
 * Copyright (c) 2021-present unTill Pro, Ltd.
 */

package zlift

// State is the ownership mode of a Cell
type State uint8

// ErrorKind classifies ownership violations
type ErrorKind uint8

// ContextID identifies an execution context (goroutine)
// use CurrentContext() to obtain the id of the calling goroutine
type ContextID uint64

// Cell owns a value and enforces single-writer/multi-reader discipline at runtime
// use New() to create. Cell must not be copied, keep it behind the pointer
// a Cell held by value inside a struct or an array is supported by DeepCopy() only: the copy gets a fresh cell,
// a plain assignment of such a struct shares nothing but leaves both cells with the same state and value
// not safe for concurrent use: access to a cell from different goroutines must be synchronized externally,
// use TransferCell to hand a value over to another goroutine
type Cell[T any] struct {
	_         noCopy
	value     T
	state     State
	shared    uint32
	exclusive bool
	id        uint64
}

// Borrow is a shared (read-only) borrow of a Cell
type Borrow[T any] struct {
	handle[T]
}

// MutBorrow is the exclusive (read-write) borrow of a Cell
type MutBorrow[T any] struct {
	handle[T]
}

type handle[T any] struct {
	cell             *Cell[T]
	borrowStackTrace string
}

// TransferCell is a single-use ownership cell bound to the context it was created on
// the value can be taken out exactly once, after that every accessor fails
type TransferCell[T any] struct {
	_        noCopy
	value    T
	origin   ContextID
	consumed bool
	id       uint64
}

// WeakRef observes a value without owning it
// holder must Clear() it before the observed value becomes invalid
type WeakRef[T any] struct {
	target *T
}

// Option is an optional value. DeepCopy() copies the contained value if present
type Option[T any] struct {
	value T
	ok    bool
}

// noCopy makes `go vet` copylocks check complain on copying by value
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

type stackFrame struct {
	fn   string
	file string
	line int
}

type stackTrace []stackFrame
