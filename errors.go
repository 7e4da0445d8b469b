// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmcircbuffer

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a NonblockingWriter or NonblockingReader TrySlice
// call found no space (writer) or no items (reader) available right now.
// The sync and async TrySlice calls return an empty slice instead.
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry later, or fall back to a blocking Slice/SliceContext call.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrClosed is returned once the writer has closed: by the writer's own
// slice calls from then on, and by a reader's once it has drained every
// unread item. Readers going away does not close the writer.
var ErrClosed = errors.New("vmcircbuffer: closed")

// ErrAllocationFailed wraps a failure to establish the double mapping —
// reserving address space, creating the backing object, or placing either
// half of the mapping. The wrapped error names the failing OS call.
type ErrAllocationFailed struct {
	Step string
	Err  error
}

func (e *ErrAllocationFailed) Error() string {
	return fmt.Sprintf("vmcircbuffer: allocation failed at %s: %v", e.Step, e.Err)
}

func (e *ErrAllocationFailed) Unwrap() error { return e.Err }

// IsWouldBlock reports whether err indicates an operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal rather than a
// failure. Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition: nil
// or ErrWouldBlock. Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
