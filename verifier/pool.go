/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import (
	"sync"

	"github.com/theseus-rs/ristretto-sub006/vtype"
)

// framePool holds reusable locals/stack slice buffers, grounded on
// cache.rs's pooling. getFrameBuf and putFrameBuf are its only
// accessors and nothing calls them: the fast and slow paths allocate
// their frames directly (expandLocals, Frame.Clone).
var framePool = sync.Pool{
	New: func() any {
		return &frameBuf{
			locals: make([]vtype.VerificationType, 0, 16),
			stack:  make([]vtype.VerificationType, 0, 16),
		}
	},
}

type frameBuf struct {
	locals []vtype.VerificationType
	stack  []vtype.VerificationType
}

func getFrameBuf() *frameBuf {
	return framePool.Get().(*frameBuf)
}

func putFrameBuf(b *frameBuf) {
	b.locals = b.locals[:0]
	b.stack = b.stack[:0]
	framePool.Put(b)
}
