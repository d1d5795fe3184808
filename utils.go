/*
 * Copyright (c) 2023-present unTill Pro, Ltd. and Contributors
 *
 * This source code is licensed under the MIT license found in the
 * LICENSE file in the root directory of this source tree.
 */

package zlift

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/exp/slices"
)

var nopLogger = zerolog.Nop()

var (
	m                  sync.Mutex = sync.Mutex{}
	isDebug            bool
	borrowsInUse       uint64
	borrowAmounts      map[string]int = map[string]int{}
	isPanicOnViolation atomic.Bool
	logger             atomic.Pointer[zerolog.Logger]
)

// GetBorrowsInUse returns total amount of borrows taken from all cells but not released
// useful in tests
func GetBorrowsInUse() uint64 {
	return atomic.LoadUint64(&borrowsInUse)
}

// PrintNonReleased prints stacktraces that explains where non-released borrows were taken
// note: debug mode must be turned on by `zlift.SetDebug(true)` call
func PrintNonReleased(w io.Writer) {
	nr := getNonReleased()
	if len(nr) == 0 {
		return
	}
	sites := make([]string, 0, len(nr))
	for st := range nr {
		sites = append(sites, st)
	}
	slices.Sort(sites)
	fmt.Fprintln(w, "borrows taken but not released:")
	for _, st := range sites {
		amount := nr[st]
		st = "\t" + strings.ReplaceAll(st, "\n", "\n\t")
		st = st[:len(st)-1]
		fmt.Fprintf(w, "%d not released borrowed at:\n%s", amount, st)
	}
}

// SetDebug switches debug mode. In debug mode each borrow remembers its source code point
// and amounts of non-released borrows are tracked per each point (for all cells)
// use PrintNonReleased() to get explanations
// useful for investigations only, decreases performance
func SetDebug(IsDebug bool) {
	isDebug = IsDebug
}

// SetLogger sets the logger used to report violations (debug level) and borrow traffic (trace level)
// zerolog.Nop() is used by default
// safe to call concurrently with cell operations
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

func getLogger() *zerolog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return &nopLogger
}

// SetPanicOnViolation makes ownership violations panic with *OwnershipError instead of returning it
func SetPanicOnViolation(isPanic bool) {
	isPanicOnViolation.Store(isPanic)
}

func getNonReleased() map[string]int {
	m.Lock()
	res := map[string]int{}
	for k, v := range borrowAmounts {
		if v > 0 {
			res[k] = v
		}
	}
	m.Unlock()
	return res
}

func trackBorrow(st string) {
	m.Lock()
	borrowAmounts[st]++
	m.Unlock()
}

func untrackBorrow(st string) {
	m.Lock()
	borrowAmounts[st]--
	m.Unlock()
}

func (st stackTrace) string() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for _, sf := range st {
		fmt.Fprintf(buf, "%s\n\t%s:%d\n", sf.fn, sf.file, sf.line)
	}
	return buf.String()
}

func getStackTrace() stackTrace {
	pc := make([]uintptr, maxStackDepth)
	// skip runtime.Callers, getStackTrace, newHandle and Borrow/BorrowMut
	n := runtime.Callers(4, pc)
	frames := runtime.CallersFrames(pc[:n])
	st := stackTrace{}
	for {
		frame, more := frames.Next()
		st = append(st, stackFrame{
			fn:   frame.Function,
			file: frame.File,
			line: frame.Line,
		})
		if !more {
			break
		}
	}
	return st
}
