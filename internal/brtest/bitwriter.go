// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package brtest

// BitWriter writes bits least significant bit first as the brotli format
// requires. It can be used to craft streams by hand.
type BitWriter struct {
	buf   []byte
	val   uint64
	nbits uint
}

// WriteBits writes the lowest n bits of v; n must not exceed 32.
func (w *BitWriter) WriteBits(n uint, v uint64) {
	w.val |= (v & (1<<n - 1)) << w.nbits
	w.nbits += n
	for w.nbits >= 8 {
		w.buf = append(w.buf, byte(w.val))
		w.val >>= 8
		w.nbits -= 8
	}
}

// Align writes zero bits up to the next byte boundary.
func (w *BitWriter) Align() {
	if w.nbits > 0 {
		w.WriteBits(8-w.nbits, 0)
	}
}

// WriteBytes aligns the writer and appends p.
func (w *BitWriter) WriteBytes(p []byte) {
	w.Align()
	w.buf = append(w.buf, p...)
}

// Len returns the number of bits written.
func (w *BitWriter) Len() int {
	return 8*len(w.buf) + int(w.nbits)
}

// Bytes returns the bytes written, the last byte padded with zero bits.
func (w *BitWriter) Bytes() []byte {
	p := make([]byte, len(w.buf), len(w.buf)+1)
	copy(p, w.buf)
	if w.nbits > 0 {
		p = append(p, byte(w.val))
	}
	return p
}

// writeVarLen writes a number in 0..255 with the variable length code used
// for the numbers of block types and trees.
func writeVarLen(w *BitWriter, v int) {
	if v == 0 {
		w.WriteBits(1, 0)
		return
	}
	w.WriteBits(1, 1)
	if v == 1 {
		w.WriteBits(3, 0)
		return
	}
	n := bitLen(v) - 1
	w.WriteBits(3, uint64(n))
	w.WriteBits(uint(n), uint64(v-1<<n))
}

// bitLen returns the number of bits required to represent v.
func bitLen(v int) int {
	n := 0
	for ; v > 0; v >>= 1 {
		n++
	}
	return n
}
