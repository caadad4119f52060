// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

import (
	"errors"
	"fmt"
)

// Sentinel errors recognized by identity. Both are allocated once at
// package init; the runtime compares pointers, never messages.
var (
	// ErrForcedUnwind is raised into a coro to make it exit promptly,
	// typically because the awaitable owning it is being destroyed.
	// Coro bodies must let it propagate: a recover that observes it
	// must re-panic before returning.
	ErrForcedUnwind = errors.New("await: forced unwind")

	// ErrYieldForbidden is the failure recorded on an awaitable that is
	// destroyed while armed but without a bound coro. Its completer can
	// no longer resume anyone.
	ErrYieldForbidden = errors.New("await: yield forbidden")
)

// PanicError boxes a non-error panic value recovered from a coro body so
// it can travel across coro switches and awaitable failures as an error.
// The original value is preserved in Value.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("await: coro panic: %v", e.Value)
}

// asError converts a recovered panic payload into an error, boxing
// non-error values exactly once.
func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{Value: r}
}
