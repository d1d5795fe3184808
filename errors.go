/*
 * Copyright (c) 2023-present unTill Pro, Ltd. and Contributors
 *
 * This source code is licensed under the MIT license found in the
 * LICENSE file in the root directory of this source tree.
 */

package zlift

import "fmt"

// OwnershipError describes a rejected operation
// errors.Is(err, ErrUseAfterMove) etc. works on it
type OwnershipError struct {
	Kind ErrorKind
	Op   string

	// State is the state of the cell at the moment of the violation
	State  State
	CellID uint64
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%s: %s on cell #%d in state %s", e.Kind.sentinel(), e.Op, e.CellID, e.State)
}

func (e *OwnershipError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *OwnershipError) Unwrap() error {
	return e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case UseAfterMove:
		return ErrUseAfterMove
	case BorrowConflict:
		return ErrBorrowConflict
	case CloneOfMovedValue:
		return ErrCloneOfMovedValue
	case WrongContext:
		return ErrWrongContext
	}
	return fmt.Errorf("unknown ownership error kind %d", k)
}

func (k ErrorKind) String() string {
	return k.sentinel().Error()
}

func (s State) String() string {
	switch s {
	case Owned:
		return "owned"
	case Moved:
		return "moved"
	case Borrowed:
		return "borrowed"
	case BorrowedMut:
		return "borrowed mut"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// violation logs the violation and either returns it or panics, see SetPanicOnViolation()
func violation(kind ErrorKind, op string, state State, cellID uint64) error {
	err := &OwnershipError{
		Kind:   kind,
		Op:     op,
		State:  state,
		CellID: cellID,
	}
	getLogger().Debug().
		Uint64("cell", cellID).
		Str("op", op).
		Stringer("state", state).
		Stringer("kind", kind).
		Msg("ownership violation")
	if isPanicOnViolation.Load() {
		panic(err)
	}
	return err
}

func logTraffic(event string, cellID uint64, state State) {
	if e := getLogger().Trace(); e.Enabled() {
		e.Uint64("cell", cellID).Stringer("state", state).Msg(event)
	}
}
