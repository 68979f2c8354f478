/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "encoding/binary"

// reader is a minimal big-endian cursor over a byte slice. The class
// file format (spec.md §4.1 "Format is big-endian") uses three integer
// widths throughout: u1, u2, u4.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) u1(context string) (byte, error) {
	if r.remaining() < 1 {
		return 0, &TruncatedInput{Context: context}
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u2(context string) (uint16, error) {
	if r.remaining() < 2 {
		return 0, &TruncatedInput{Context: context}
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4(context string) (uint32, error) {
	if r.remaining() < 4 {
		return 0, &TruncatedInput{Context: context}
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int, context string) ([]byte, error) {
	if r.remaining() < n {
		return nil, &TruncatedInput{Context: context}
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// writer is the mirror-image big-endian byte builder used by Serialize.
type writer struct {
	buf []byte
}

func (w *writer) u1(v byte)     { w.buf = append(w.buf, v) }
func (w *writer) u2(v uint16)   { w.buf = append(w.buf, byte(v>>8), byte(v)) }
func (w *writer) u4(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }
