/*
 * Copyright (c) 2023-present unTill Pro, Ltd. and Contributors
 */

package zlift

// NewWeak creates a WeakRef observing p. p may be nil
func NewWeak[T any](p *T) *WeakRef[T] {
	return &WeakRef[T]{target: p}
}

// Upgrade returns the observed pointer as is, nil if cleared
// liveness of the pointee is not checked: it is up to the owner to Clear() the ref in time
func (w *WeakRef[T]) Upgrade() *T {
	return w.target
}

func (w *WeakRef[T]) IsValid() bool {
	return w.target != nil
}

// Clear forgets the observed pointer
func (w *WeakRef[T]) Clear() {
	w.target = nil
}
