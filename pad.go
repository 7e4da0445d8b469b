// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmcircbuffer

// pad is cache line padding to prevent false sharing between the writer's
// hot offset fields and a reader's, when both are embedded in structs that
// an allocator might place on the same cache line.
type pad [64]byte
