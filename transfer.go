/*
 * Copyright (c) 2023-present unTill Pro, Ltd. and Contributors
 *
 * This source code is licensed under the MIT license found in the
 * LICENSE file in the root directory of this source tree.
 */

package zlift

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
)

var goroutinePrefix = []byte("goroutine ")

// CurrentContext returns the id of the calling goroutine
// decreases performance, obtain once per goroutine and pass it around
func CurrentContext() ContextID {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 123 [running]:\n"
	s := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	id, err := strconv.ParseUint(string(s), 10, 64)
	if err != nil {
		panic("failed to determine goroutine id: " + err.Error())
	}
	return ContextID(id)
}

// NewTransfer creates a TransferCell which owns v and is bound to the origin context
func NewTransfer[T any](origin ContextID, v T) *TransferCell[T] {
	return &TransferCell[T]{
		value:  v,
		origin: origin,
		id:     atomic.AddUint64(&lastCellID, 1),
	}
}

// Transfer takes the value out exactly once. The value may be handed over to another goroutine then
// ctx must be the origin context
func (t *TransferCell[T]) Transfer(ctx ContextID) (res T, err error) {
	if err := t.check(ctx, opTransfer); err != nil {
		return res, err
	}
	res = t.value
	var zero T
	t.value = zero
	t.consumed = true
	t.origin = 0
	logTraffic("transferred", t.id, Moved)
	return res, nil
}

func (t *TransferCell[T]) Get(ctx ContextID) (res T, err error) {
	if err := t.check(ctx, opGet); err != nil {
		return res, err
	}
	return t.value, nil
}

func (t *TransferCell[T]) GetMut(ctx ContextID) (*T, error) {
	if err := t.check(ctx, opGetMut); err != nil {
		return nil, err
	}
	return &t.value, nil
}

// IsOnOrigin reports whether ctx is the context the cell is bound to
// always false after Transfer()
func (t *TransferCell[T]) IsOnOrigin(ctx ContextID) bool {
	return !t.consumed && t.origin == ctx
}

// IsValid reports whether the value is still in the cell and is accessible from ctx
func (t *TransferCell[T]) IsValid(ctx ContextID) bool {
	return t.IsOnOrigin(ctx)
}

func (t *TransferCell[T]) IsConsumed() bool {
	return t.consumed
}

func (t *TransferCell[T]) check(ctx ContextID, op string) error {
	if t.consumed {
		return violation(UseAfterMove, op, Moved, t.id)
	}
	if t.origin != ctx {
		return violation(WrongContext, op, Owned, t.id)
	}
	return nil
}
