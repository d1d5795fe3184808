/*
 * Copyright (c) 2023-present unTill Pro, Ltd. and Contributors
 *
 * This source code is licensed under the MIT license found in the
 * LICENSE file in the root directory of this source tree.
 */

package zlift

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

type planKind uint8

const (
	// copied by assignment
	planAssign planKind = iota
	planCloneable
	planCloneableByValue
	planStruct
	planArray
	planOption
	planInterface
)

type copyPlan struct {
	kind   planKind
	fields []fieldPlan
	elem   *copyPlan
}

type fieldPlan struct {
	index int
	name  string
	plan  *copyPlan
}

// copyError tells which location failed to be copied
type copyError struct {
	path string
	err  error
}

var (
	plans          sync.Map // map[reflect.Type]*copyPlan
	cloneableType  = reflect.TypeOf((*ICloneable)(nil)).Elem()
	optionMarkType = reflect.TypeOf((*interface{ option() })(nil)).Elem()
)

// DeepCopy returns a structurally independent copy of v
// - ICloneable locations (e.g. *Cell[T] or Cell[T] fields) are replaced by their CloneOwned() results
// - structs, arrays and Option[T] values are traversed recursively, unexported fields as well
// - interface locations are cloned if the dynamic value is ICloneable or contains ones, aliased otherwise
// - everything else is copied by assignment
//
// Hazard: pointers (except cells), slices, maps, channels and funcs are NOT cloned. The copy shares
// the referents with v, i.e. a change made through v's pointer is visible through the copy's pointer and vice versa
//
// fails if a nested cell is moved
func DeepCopy[T any](v T) (T, error) {
	res := v
	loc := reflect.ValueOf(&res).Elem()
	plan := planOf(loc.Type())
	if plan.kind == planAssign {
		return res, nil
	}
	if err := plan.apply(loc); err != nil {
		var zero T
		return zero, err
	}
	return res, nil
}

func (e *copyError) Error() string {
	if len(e.path) == 0 {
		return fmt.Sprintf("deep copy: %s", e.err)
	}
	return fmt.Sprintf("deep copy %s: %s", e.path, e.err)
}

func (e *copyError) Unwrap() error {
	return e.err
}

// planOf returns the cached plan for t. Plans are published only when built completely
func planOf(t reflect.Type) *copyPlan {
	if v, ok := plans.Load(t); ok {
		return v.(*copyPlan)
	}
	v, _ := plans.LoadOrStore(t, buildPlan(t))
	return v.(*copyPlan)
}

func buildPlan(t reflect.Type) *copyPlan {
	p := &copyPlan{}
	if t.Kind() == reflect.Interface {
		p.kind = planInterface
		return p
	}
	// methods promoted from an embedded cell or option describe the field, not the outer struct
	if !embedsAny(t, cloneableType, optionMarkType) {
		switch {
		case t.Kind() == reflect.Pointer && t.Elem().Implements(cloneableType):
			// raw pointer to a value-receiver cloneable, aliased
			return p
		case t.Implements(cloneableType):
			p.kind = planCloneable
			return p
		case t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(cloneableType):
			p.kind = planCloneableByValue
			return p
		case t.Kind() == reflect.Struct && t.Implements(optionMarkType):
			if elem := planOf(t.Field(0).Type); elem.kind != planAssign {
				p.kind = planOption
				p.elem = elem
			}
			return p
		}
	}
	switch t.Kind() {
	case reflect.Struct:
		var fields []fieldPlan
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if fp := planOf(f.Type); fp.kind != planAssign {
				fields = append(fields, fieldPlan{index: i, name: f.Name, plan: fp})
			}
		}
		if len(fields) > 0 {
			p.kind = planStruct
			p.fields = fields
		}
	case reflect.Array:
		if t.Len() == 0 {
			return p
		}
		if elem := planOf(t.Elem()); elem.kind != planAssign {
			p.kind = planArray
			p.elem = elem
		}
	}
	return p
}

// embedsAny reports whether struct t (or the struct t points to) has an embedded field
// which provides one of the method sets
func embedsAny(t reflect.Type, ifaces ...reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		for _, iface := range ifaces {
			if f.Type.Implements(iface) || (f.Type.Kind() != reflect.Pointer && reflect.PointerTo(f.Type).Implements(iface)) {
				return true
			}
		}
	}
	return false
}

// apply replaces cloneable parts of loc in place
// loc must be addressable and must not be obtained through unexported fields
func (p *copyPlan) apply(loc reflect.Value) error {
	switch p.kind {
	case planCloneable:
		if loc.Kind() == reflect.Pointer && loc.IsNil() {
			return nil
		}
		return setClone(loc, loc.Interface().(ICloneable), loc.Type())
	case planCloneableByValue:
		return setClone(loc, loc.Addr().Interface().(ICloneable), loc.Addr().Type())
	case planStruct:
		for _, f := range p.fields {
			if err := f.plan.apply(writable(loc.Field(f.index))); err != nil {
				return prependPath(err, "."+f.name)
			}
		}
	case planArray:
		for i := 0; i < loc.Len(); i++ {
			if err := p.elem.apply(loc.Index(i)); err != nil {
				return prependPath(err, fmt.Sprintf("[%d]", i))
			}
		}
	case planOption:
		if !loc.Field(1).Bool() {
			return nil
		}
		if err := p.elem.apply(writable(loc.Field(0))); err != nil {
			return prependPath(err, "?")
		}
	case planInterface:
		if loc.IsNil() {
			return nil
		}
		dyn := loc.Elem()
		dynPlan := planOf(dyn.Type())
		if dynPlan.kind == planAssign {
			return nil
		}
		tmp := reflect.New(dyn.Type()).Elem()
		tmp.Set(dyn)
		if err := dynPlan.apply(tmp); err != nil {
			return prependPath(err, fmt.Sprintf("(%s)", dyn.Type()))
		}
		loc.Set(tmp)
	}
	return nil
}

func setClone(loc reflect.Value, src ICloneable, cloneType reflect.Type) error {
	res, err := src.CloneOwned()
	if err != nil {
		if ce, ok := err.(*copyError); ok {
			// failed deeper, inside the value of the cell
			return ce
		}
		return &copyError{err: err}
	}
	rv := reflect.ValueOf(res)
	if !rv.IsValid() || rv.Type() != cloneType {
		return &copyError{err: fmt.Errorf("CloneOwned() of %s returned %T", cloneType, res)}
	}
	if cloneType != loc.Type() {
		// cell held by value, the clone is returned by pointer
		rv = rv.Elem()
	}
	loc.Set(rv)
	return nil
}

// writable returns the same location without read-only flag of unexported fields
func writable(field reflect.Value) reflect.Value {
	return reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
}

func prependPath(err error, segment string) error {
	if ce, ok := err.(*copyError); ok {
		ce.path = segment + ce.path
		return ce
	}
	return &copyError{path: segment, err: err}
}

// Some returns Option which holds v
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None returns an empty Option
func None[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Option[T]) IsSome() bool {
	return o.ok
}

func (Option[T]) option() {}
