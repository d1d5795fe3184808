/*
 * Copyright (c) 2023-present unTill Pro, Ltd. and Contributors
 *
 * This source code is licensed under the MIT license found in the
 * LICENSE file in the root directory of this source tree.
 */

package zlift

import "errors"

const (
	// Owned is the initial state: value is accessible directly
	Owned State = iota
	// Moved is terminal: value was taken out of the cell
	Moved
	// Borrowed means one or more shared borrows are live
	Borrowed
	// BorrowedMut means the exclusive borrow is live
	BorrowedMut
)

const (
	// UseAfterMove is an operation on a moved cell or on a consumed transfer cell
	UseAfterMove ErrorKind = iota + 1
	// BorrowConflict is an operation incompatible with the live borrows
	BorrowConflict
	// CloneOfMovedValue is Clone() of a moved cell
	CloneOfMovedValue
	// WrongContext is a transfer cell access from a context other than its origin
	WrongContext
)

var (
	ErrUseAfterMove      = errors.New("use after move")
	ErrBorrowConflict    = errors.New("borrow conflict")
	ErrCloneOfMovedValue = errors.New("clone of moved value")
	ErrWrongContext      = errors.New("access from non-origin context")
)

const (
	opTake      = "take"
	opBorrow    = "borrow"
	opBorrowMut = "borrow mut"
	opGet       = "get"
	opGetMut    = "get mut"
	opClone     = "clone"
	opWeak      = "weak"
	opTransfer  = "transfer"
)

// can't estimate
const maxStackDepth = 100
