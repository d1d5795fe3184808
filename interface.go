/*
 * Copyright (c) 2023-present unTill Pro, Ltd. and Contributors
 *
 * This source code is licensed under the MIT license found in the
 * LICENSE file in the root directory of this source tree.
 */

package zlift

// ICloneable is implemented by ownership wrappers that must be cloned rather than copied
// DeepCopy() calls CloneOwned() on each location which implements it
// *Cell[T] implements it, so cells nested at any depth get a fresh independent cell on copy
type ICloneable interface {
	// CloneOwned returns an independent deep copy of the receiver
	// the dynamic type of the result must be the receiver's type
	CloneOwned() (any, error)
}

// IReleaser is a borrow handle which gives back its borrow to the owning cell
type IReleaser interface {
	// Release returns the borrow to the owning cell
	// second and further calls do nothing
	Release()
	IsReleased() bool
}
